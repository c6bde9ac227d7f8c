// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service contains the sync orchestrator: the state-machine-driven
// operations that move profile archives between the live configuration tree,
// the local cache, and the remote profile service.
package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-conf-sync/models"
)

// ProfileService orchestrates profile operations. Every failed operation
// writes a sync history record with the error message before returning.
type ProfileService interface {
	// Authenticate exchanges credentials for a bearer token and persists
	// the username and token in the settings file.
	Authenticate(ctx context.Context, creds models.Credentials) error

	// CreateFromCurrent snapshots the live configuration into a new
	// profile archive and stores its metadata. The returned profile ends
	// in the archived state.
	CreateFromCurrent(ctx context.Context, name, description string, tags []string, public bool) (models.ConfigProfile, error)

	// Upload transmits an archived profile to the remote service. The
	// payload is the checksummed archive wrapped in an authenticated
	// envelope and signed with the device key.
	Upload(ctx context.Context, profileID string) error

	// Download fetches a profile archive, verifies its checksum against
	// the declared metadata before accepting it, and caches it locally.
	// With apply set, the verified archive is applied immediately.
	Download(ctx context.Context, profileID string, apply bool) (models.ConfigProfile, error)

	// Apply extracts a cached profile archive into the live configuration
	// tree. Unless backup is disabled, a snapshot of the current
	// configuration is taken first; a failed backup aborts the apply.
	Apply(ctx context.Context, profileID string, backup bool) error

	// Delete removes the local archive and metadata row, optionally
	// requesting remote deletion too. The action is logged even on
	// partial failure.
	Delete(ctx context.Context, profileID string, alsoRemote bool) error

	// ListLocal returns all locally known profiles, most recently updated
	// first.
	ListLocal(ctx context.Context) ([]models.ConfigProfile, error)

	// History returns the append-only sync log for one profile.
	History(ctx context.Context, profileID string) ([]models.SyncRecord, error)

	// Search queries the remote public catalogue.
	Search(ctx context.Context, req models.SearchRequest) ([]models.ConfigProfile, error)

	// AutoSync uploads all public local profiles if auto-sync is enabled
	// and the configured interval has elapsed since the last run.
	AutoSync(ctx context.Context) error
}

// SyncJob runs AutoSync periodically in the background.
type SyncJob interface {
	Start(ctx context.Context, interval time.Duration)
	Stop()
}
