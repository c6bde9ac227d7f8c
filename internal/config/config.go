// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// go-conf-sync application. It aggregates all sub-configurations and is
// populated by merging values from environment variables, command-line flags,
// and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the version string and
	// the device label.
	App App `envPrefix:"APP_"`

	// Storage holds the local state locations: config dir and metadata
	// database path.
	Storage Storage `envPrefix:"STORAGE_"`

	// Remote holds the cloud endpoint address and timeout for the outbound
	// transport adapter.
	Remote Remote `envPrefix:"REMOTE_"`

	// Archive holds archiving knobs (compression level, sync roots).
	Archive Archive `envPrefix:"ARCHIVE_"`

	// Crypto holds cryptographic policy knobs.
	Crypto Crypto `envPrefix:"CRYPTO_"`

	// Workers holds background job settings (auto-sync interval).
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// Version is the semantic version string of the running application.
	// Env: APP_VERSION
	Version string `env:"VERSION"`

	// DeviceName is the human label for this installation. Defaults to the
	// hostname when empty.
	// Env: APP_DEVICE_NAME
	DeviceName string `env:"DEVICE_NAME"`
}

// Storage holds the local filesystem locations used by the core.
type Storage struct {
	// ConfigDir is the base state directory
	// (default: $HOME/.config/confsync).
	// Env: STORAGE_CONFIG_DIR
	ConfigDir string `env:"CONFIG_DIR"`

	// DBPath is the SQLite metadata database path. Defaults to
	// <ConfigDir>/cloud.db when empty.
	// Env: STORAGE_DB_PATH
	DBPath string `env:"DB_PATH"`
}

// Remote holds network settings for the outbound transport adapter.
type Remote struct {
	// BaseURL is the cloud endpoint base address
	// (e.g. "https://api.example.com/v1").
	// Env: REMOTE_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// RequestTimeout is the maximum duration allowed for a single outbound
	// request (e.g. "30s", "1m").
	// Env: REMOTE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Archive holds profile-archiving settings.
type Archive struct {
	// CompressionLevel is the gzip level used for profile archives (1-9).
	// Env: ARCHIVE_COMPRESSION_LEVEL
	CompressionLevel int `env:"COMPRESSION_LEVEL"`

	// SyncRoots is the allow-list of directory names under $HOME/.config
	// that are included in a profile.
	// Env: ARCHIVE_SYNC_ROOTS (comma-separated)
	SyncRoots []string `env:"SYNC_ROOTS"`
}

// Crypto holds cryptographic policy knobs.
type Crypto struct {
	// ReplayWindow is the maximum accepted envelope age before decryption
	// is refused (e.g. "1h").
	// Env: CRYPTO_REPLAY_WINDOW
	ReplayWindow time.Duration `env:"REPLAY_WINDOW"`

	// KDFIterations is the PBKDF2 iteration count used to derive the
	// master-key wrapping key. Values below the built-in minimum are
	// raised to it by the keystore.
	// Env: CRYPTO_KDF_ITERATIONS
	KDFIterations int `env:"KDF_ITERATIONS"`
}

// Workers contains background job settings.
type Workers struct {
	// SyncInterval defines how often the auto-sync job runs.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration.
//
// Sources are merged in priority order: environment variables first, then
// command-line flags, then the optional JSON file named by either of the
// former. Later sources only fill fields the earlier ones left zero
// (mergo semantics).
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
