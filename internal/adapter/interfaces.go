// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter implements the outbound transport to the remote profile
// service. The rest of the application depends only on [ServerAdapter], so
// the HTTP details stay contained here.
package adapter

import (
	"context"

	"github.com/MKhiriev/go-conf-sync/models"
)

// ServerAdapter is the client-side view of the remote profile service.
type ServerAdapter interface {
	// Authenticate exchanges credentials for a bearer token, stores it on
	// the adapter for subsequent calls, and returns the username the
	// remote recognised.
	Authenticate(ctx context.Context, creds models.Credentials) (string, error)

	// UploadProfile sends a profile archive and its metadata.
	UploadProfile(ctx context.Context, req models.UploadRequest) error

	// DownloadProfile fetches an archive with its declared checksum and
	// metadata. The caller is responsible for verifying the checksum
	// before trusting the payload.
	DownloadProfile(ctx context.Context, profileID string) (models.DownloadResponse, error)

	// DeleteProfile removes the remote copy of the profile.
	DeleteProfile(ctx context.Context, profileID string) error

	// SearchProfiles queries the public catalogue.
	SearchProfiles(ctx context.Context, req models.SearchRequest) ([]models.ConfigProfile, error)

	// SetToken installs a previously issued bearer token.
	SetToken(token string)

	// Token returns the current bearer token, or "" when unauthenticated.
	Token() string
}
