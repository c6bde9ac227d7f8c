// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-conf-sync/models"
)

// ProfileRepository maintains local profile metadata.
type ProfileRepository interface {
	// SaveProfile inserts the profile, or overwrites the existing row
	// with the same id.
	SaveProfile(ctx context.Context, profile models.ConfigProfile) error
	// GetProfile returns the profile and whether it exists. A missing
	// profile is not an error.
	GetProfile(ctx context.Context, id string) (models.ConfigProfile, bool, error)
	// ListProfiles returns all local profiles, most recently updated first.
	ListProfiles(ctx context.Context) ([]models.ConfigProfile, error)
	DeleteProfile(ctx context.Context, id string) error
	// MarkSynced records the time the profile last reached the remote.
	MarkSynced(ctx context.Context, id string, at time.Time) error
}

// SyncHistoryRepository is an append-only log of sync attempts. Records are
// never updated or deleted, including after the profile itself is removed.
type SyncHistoryRepository interface {
	RecordSync(ctx context.Context, record models.SyncRecord) error
	GetHistory(ctx context.Context, profileID string) ([]models.SyncRecord, error)
}
