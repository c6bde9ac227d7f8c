// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// SyncAction enumerates the operations recorded in the sync history.
type SyncAction string

const (
	SyncActionCreate   SyncAction = "create"
	SyncActionUpload   SyncAction = "upload"
	SyncActionDownload SyncAction = "download"
	SyncActionApply    SyncAction = "apply"
	SyncActionDelete   SyncAction = "delete"
)

// SyncState is the per-operation state machine position of a profile.
// Failed is reachable from every state; RolledBack only from Applied.
type SyncState string

const (
	StateCreated    SyncState = "created"
	StateArchived   SyncState = "archived"
	StateUploaded   SyncState = "uploaded"
	StateDownloaded SyncState = "downloaded"
	StateVerified   SyncState = "verified"
	StateApplied    SyncState = "applied"
	StateFailed     SyncState = "failed"
	StateRolledBack SyncState = "rolled_back"
)

// validTransitions lists the forward edges of the state machine. Failed is
// handled separately because it is reachable from every state.
var validTransitions = map[SyncState][]SyncState{
	StateCreated:    {StateArchived},
	StateArchived:   {StateUploaded, StateDownloaded},
	StateUploaded:   {StateVerified},
	StateDownloaded: {StateVerified},
	StateVerified:   {StateApplied},
	StateApplied:    {StateRolledBack},
}

// ValidTransition reports whether a profile operation may move from one
// state to another. Any state may move to Failed; RolledBack is reachable
// only from Applied.
func ValidTransition(from, to SyncState) bool {
	if to == StateFailed {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SyncRecord is an append-only audit row describing one sync operation.
// Records are never mutated after insertion.
type SyncRecord struct {
	ID           int64      `json:"id"`
	ProfileID    string     `json:"profile_id"`
	Action       SyncAction `json:"action"`
	Timestamp    time.Time  `json:"timestamp"`
	Success      bool       `json:"success"`
	ErrorMessage string     `json:"error_message,omitempty"`
}
