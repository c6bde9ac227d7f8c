// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ConfigProfile is a named, versioned snapshot of the desktop configuration
// tree. A profile is created by archiving the live configuration; re-creating
// it with the same id overwrites the previous snapshot (new checksum).
type ConfigProfile struct {
	// ID is derived from the profile name and creation time and is stable
	// for the lifetime of the profile.
	ID string `json:"id"`

	Name        string `json:"name"`
	Description string `json:"description"`

	// Author is the username recorded in local settings at creation time.
	Author  string `json:"author"`
	Version string `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tags       []string `json:"tags"`
	Components []string `json:"components"`
	Features   []string `json:"features"`
	Preset     string   `json:"preset"`

	// Checksum is the hex-encoded SHA-256 of the profile archive. It is
	// recomputed on every re-archive and verified before any apply.
	Checksum string `json:"checksum"`

	// Size is the archive size in bytes.
	Size int64 `json:"size"`

	Downloads int64   `json:"downloads"`
	Rating    float64 `json:"rating"`
	Public    bool    `json:"public"`

	// LocalPath is the absolute path of the cached archive on this device.
	// Empty for profiles known only from the remote catalogue.
	LocalPath string `json:"local_path,omitempty"`

	// SyncedAt records the last successful upload of this profile, if any.
	SyncedAt *time.Time `json:"synced_at,omitempty"`
}
