// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTransition(t *testing.T) {
	tests := []struct {
		name string
		from SyncState
		to   SyncState
		want bool
	}{
		{name: "created to archived", from: StateCreated, to: StateArchived, want: true},
		{name: "archived to uploaded", from: StateArchived, to: StateUploaded, want: true},
		{name: "archived to downloaded", from: StateArchived, to: StateDownloaded, want: true},
		{name: "uploaded to verified", from: StateUploaded, to: StateVerified, want: true},
		{name: "downloaded to verified", from: StateDownloaded, to: StateVerified, want: true},
		{name: "verified to applied", from: StateVerified, to: StateApplied, want: true},
		{name: "applied to rolled back", from: StateApplied, to: StateRolledBack, want: true},

		{name: "created skips to applied", from: StateCreated, to: StateApplied, want: false},
		{name: "archived skips to verified", from: StateArchived, to: StateVerified, want: false},
		{name: "rolled back from verified", from: StateVerified, to: StateRolledBack, want: false},
		{name: "rolled back from created", from: StateCreated, to: StateRolledBack, want: false},
		{name: "backwards edge", from: StateApplied, to: StateCreated, want: false},
		{name: "failed is terminal", from: StateFailed, to: StateArchived, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidTransition(tt.from, tt.to))
		})
	}
}

func TestValidTransition_FailedReachableFromEverywhere(t *testing.T) {
	states := []SyncState{
		StateCreated, StateArchived, StateUploaded, StateDownloaded,
		StateVerified, StateApplied, StateRolledBack,
	}
	for _, from := range states {
		assert.True(t, ValidTransition(from, StateFailed), "Failed must be reachable from %s", from)
	}
}
