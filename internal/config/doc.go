// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package config loads and merges application configuration from environment
// variables, command-line flags, and an optional JSON file, in that priority
// order.
//
// The main entry point is [GetClientConfig], which resolves all local state
// paths and applies defaults, returning an immutable [ClientConfig] value
// that is passed to components explicitly.
//
// Mutable per-installation state (username, API token, auto-sync bookkeeping)
// lives in [Settings], persisted separately with atomic write-replace.
package config
