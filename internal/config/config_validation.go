// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "strings"

// validate checks that the merged [StructuredConfig] satisfies basic
// invariants before it is turned into a client view.
//
// Currently a no-op placeholder; the client view applies defaults and
// performs the meaningful validation.
func (cfg *StructuredConfig) validate() error {
	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.ConfigDir == "" || cfg.Storage.DBPath == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.BaseURL == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}
	if !strings.HasPrefix(cfg.Adapter.BaseURL, "http://") && !strings.HasPrefix(cfg.Adapter.BaseURL, "https://") {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Archive.CompressionLevel < 1 || cfg.Archive.CompressionLevel > 9 {
		return ErrInvalidArchiveConfigs
	}
	if len(cfg.Archive.SyncRoots) == 0 {
		return ErrInvalidArchiveConfigs
	}

	if cfg.Crypto.ReplayWindow <= 0 || cfg.Crypto.KDFIterations <= 0 {
		return ErrInvalidCryptoConfigs
	}

	if cfg.Workers.SyncInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
