// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv populates cfg from environment variables using the caarlos0/env
// library. Fields are mapped via the `env` and `envPrefix` tags on
// [StructuredConfig] and its sections, so e.g. ARCHIVE_SYNC_ROOTS lands in
// Archive.SyncRoots and CRYPTO_REPLAY_WINDOW in Crypto.ReplayWindow.
//
// Returns a wrapped error if env.Parse fails, such as a value that cannot be
// converted to the target type.
func parseEnv(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	return nil
}
