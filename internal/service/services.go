// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"github.com/MKhiriev/go-conf-sync/internal/adapter"
	"github.com/MKhiriev/go-conf-sync/internal/archive"
	"github.com/MKhiriev/go-conf-sync/internal/config"
	"github.com/MKhiriev/go-conf-sync/internal/crypto"
	"github.com/MKhiriev/go-conf-sync/internal/store"
)

type Services struct {
	ProfileService ProfileService
	SyncJob        SyncJob
}

func NewServices(
	storages *store.Storages,
	remote adapter.ServerAdapter,
	archiver archive.Archiver,
	cipher crypto.Cipher,
	signer crypto.Signer,
	cfg *config.ClientConfig,
	settings *config.Settings,
) *Services {
	profileSvc := NewProfileService(storages, remote, archiver, cipher, signer, cfg, settings)

	return &Services{
		ProfileService: profileSvc,
		SyncJob:        NewSyncJob(profileSvc),
	}
}
