// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Defaults applied by GetClientConfig when a value is absent from every
// configuration source.
const (
	DefaultBaseURL          = "https://api.confsync.dev/v1"
	DefaultRequestTimeout   = 15 * time.Second
	DefaultCompressionLevel = 6
	DefaultReplayWindow     = time.Hour
	DefaultSyncInterval     = time.Hour
	DefaultKDFIterations    = 200_000
)

// defaultSyncRoots is the allow-list of directories under $HOME/.config
// included in a profile when no override is configured.
var defaultSyncRoots = []string{
	"hypr",
	"waybar",
	"rofi",
	"kitty",
	"ags",
	"gtk-3.0",
	"gtk-4.0",
}

// ClientApp holds application-level settings derived from the shared
// structured config.
type ClientApp struct {
	// Version is the application version string.
	Version string
	// DeviceName is the human label for this installation.
	DeviceName string
}

// ClientStorage groups the resolved local state locations. All paths are
// absolute after GetClientConfig returns.
type ClientStorage struct {
	// ConfigDir is the base state directory.
	ConfigDir string
	// CacheDir is the archive cache directory (<ConfigDir>/cache).
	CacheDir string
	// KeysDir is the key material directory (<ConfigDir>/keys).
	KeysDir string
	// DBPath is the SQLite metadata database path.
	DBPath string
	// SettingsPath is the persisted mutable settings file.
	SettingsPath string
}

// ClientAdapter holds network settings used by the transport adapter.
type ClientAdapter struct {
	// BaseURL is the remote endpoint base address.
	BaseURL string
	// RequestTimeout is the default timeout for outbound requests.
	RequestTimeout time.Duration
}

// ClientArchive holds profile-archiving settings.
type ClientArchive struct {
	// ConfigBase is the live configuration tree ($HOME/.config). Archives
	// are collected from and applied into this directory.
	ConfigBase string
	// CompressionLevel is the gzip level for profile archives.
	CompressionLevel int
	// SyncRoots is the allow-list of config dir names under ConfigBase.
	SyncRoots []string
}

// ClientCrypto holds cryptographic policy settings.
type ClientCrypto struct {
	// ReplayWindow is the maximum accepted envelope age.
	ReplayWindow time.Duration
	// KDFIterations is the PBKDF2 iteration count.
	KDFIterations int
}

// ClientWorkers contains background worker settings.
type ClientWorkers struct {
	// SyncInterval defines how often the auto-sync job should run.
	SyncInterval time.Duration
}

// ClientConfig is the top-level runtime configuration assembled from
// [StructuredConfig]. It is an immutable value loaded once per invocation
// and passed to components explicitly; there is no process-wide mutable
// configuration singleton.
type ClientConfig struct {
	App     ClientApp
	Storage ClientStorage
	Adapter ClientAdapter
	Archive ClientArchive
	Crypto  ClientCrypto
	Workers ClientWorkers
}

// GetClientConfig builds and validates the runtime config view from the
// merged structured configuration, applying defaults for every unset field.
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	configDir := cfg.Storage.ConfigDir
	if configDir == "" {
		configDir = filepath.Join(home, ".config", "confsync")
	}

	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(configDir, "cloud.db")
	}

	deviceName := cfg.App.DeviceName
	if deviceName == "" {
		deviceName, _ = os.Hostname()
	}

	clientCfg := &ClientConfig{
		App: ClientApp{
			Version:    cfg.App.Version,
			DeviceName: deviceName,
		},
		Storage: ClientStorage{
			ConfigDir:    configDir,
			CacheDir:     filepath.Join(configDir, "cache"),
			KeysDir:      filepath.Join(configDir, "keys"),
			DBPath:       dbPath,
			SettingsPath: filepath.Join(configDir, "cloud_settings.json"),
		},
		Adapter: ClientAdapter{
			BaseURL:        pickString(cfg.Remote.BaseURL, DefaultBaseURL),
			RequestTimeout: pickDuration(cfg.Remote.RequestTimeout, DefaultRequestTimeout),
		},
		Archive: ClientArchive{
			ConfigBase:       filepath.Join(home, ".config"),
			CompressionLevel: pickInt(cfg.Archive.CompressionLevel, DefaultCompressionLevel),
			SyncRoots:        cfg.Archive.SyncRoots,
		},
		Crypto: ClientCrypto{
			ReplayWindow:  pickDuration(cfg.Crypto.ReplayWindow, DefaultReplayWindow),
			KDFIterations: pickInt(cfg.Crypto.KDFIterations, DefaultKDFIterations),
		},
		Workers: ClientWorkers{
			SyncInterval: pickDuration(cfg.Workers.SyncInterval, DefaultSyncInterval),
		},
	}

	if len(clientCfg.Archive.SyncRoots) == 0 {
		clientCfg.Archive.SyncRoots = append([]string(nil), defaultSyncRoots...)
	}

	return clientCfg, clientCfg.validate()
}

func pickString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func pickDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func pickInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
