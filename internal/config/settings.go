// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Settings is the mutable per-installation state. Unlike [ClientConfig] it
// changes between invocations (authentication, auto-sync bookkeeping) and is
// persisted to disk as JSON.
//
// A Settings value is loaded once per invocation and passed around
// explicitly. Persistence is atomic: the file is written to a temporary
// sibling and renamed over the target, so a concurrent reader never observes
// a half-written file.
type Settings struct {
	Username string `json:"username"`
	APIToken string `json:"api_token"`

	AutoSync          bool `json:"auto_sync"`
	BackupBeforeApply bool `json:"backup_before_apply"`

	// EncryptionEnabled selects the real AEAD cipher when true and the
	// explicit passthrough cipher when false. The effective capability is
	// also surfaced on every envelope.
	EncryptionEnabled bool `json:"encryption_enabled"`

	SyncInterval Duration `json:"sync_interval"`

	LastSync *time.Time `json:"last_sync,omitempty"`
}

// DefaultSettings returns the settings used on first run, before any
// settings file exists.
func DefaultSettings() Settings {
	return Settings{
		AutoSync:          false,
		BackupBeforeApply: true,
		EncryptionEnabled: true,
		SyncInterval:      Duration(DefaultSyncInterval),
	}
}

// LoadSettings reads the settings file at path. A missing file is not an
// error: defaults are returned so a first run works without setup.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}

	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings file: %w", err)
	}

	return s, nil
}

// SaveSettings persists s to path atomically. The parent directory is
// created with owner-only permissions if it does not exist yet.
func SaveSettings(path string, s Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	payload, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cloud_settings-*")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp settings file: %w", err)
	}
	if err = tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp settings file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp settings file: %w", err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace settings file: %w", err)
	}

	return nil
}
