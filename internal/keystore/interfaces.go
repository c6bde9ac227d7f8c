// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package keystore derives, encrypts-at-rest, and loads the device's
// long-term secrets: the stable device identifier, the symmetric master key,
// and the RSA signing keypair.
//
// All key material lives under an owner-only directory; files are written
// atomically. The master key is never stored in plaintext: only its
// AES-256-GCM wrap (under a key derived from the device id and local user
// identity via PBKDF2-HMAC-SHA256) and the KDF salt hit the disk.
package keystore

import "github.com/MKhiriev/go-conf-sync/models"

// KeyStore manages the durable cryptographic identity of this installation.
// All methods are idempotent get-or-create operations; none ever regenerates
// existing key material.
type KeyStore interface {
	// GetOrCreateDeviceIdentity loads the stable 128-bit device id,
	// generating it on first run. deviceName is attached as the human label
	// and is not persisted with the id.
	GetOrCreateDeviceIdentity(deviceName string) (models.DeviceIdentity, error)

	// GetOrCreateMasterKey returns the 256-bit symmetric master key,
	// generating and wrapping it on first use. A stored key that cannot be
	// unwrapped is a fatal key-loss condition: the error wraps
	// [ErrKeyUnavailable] and the key is never silently regenerated.
	GetOrCreateMasterKey() ([]byte, error)

	// GetOrCreateDeviceKeypair returns the device RSA keypair in PEM form,
	// generating it on first use. Private key bytes never leave the local
	// machine.
	GetOrCreateDeviceKeypair() (privatePEM, publicPEM []byte, err error)
}
