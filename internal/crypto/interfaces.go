// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package crypto provides the authenticated cipher and the detached-signature
// signer used to protect profile archives.
//
// The cipher wraps byte payloads into tamper-evident, replay-resistant
// envelopes using the device master key. Two implementations exist: the real
// AES-256-GCM cipher and an explicit passthrough used only when encryption is
// disabled; which one is active is always observable via Encrypted() and on
// every produced envelope, so an unencrypted payload can never masquerade as
// an encrypted one.
package crypto

import "github.com/MKhiriev/go-conf-sync/models"

// Cipher wraps arbitrary byte payloads into authenticated envelopes.
type Cipher interface {
	// Encrypt seals plaintext with a fresh random 96-bit nonce. context is
	// authenticated but not encrypted; the encryption timestamp is bound
	// into the same authenticated data.
	Encrypt(plaintext, context []byte) (models.EncryptedEnvelope, error)

	// Decrypt opens an envelope previously produced by Encrypt with the
	// same context. The embedded timestamp is checked against maxAgeSeconds
	// before any cryptographic work: an expired envelope is rejected with
	// [ErrReplayRejected] even if its tag would verify. Tampered
	// ciphertext, a wrong nonce, or a different context yield
	// [ErrAuthenticationFailed]; no partial plaintext is ever returned.
	Decrypt(envelope models.EncryptedEnvelope, context []byte, maxAgeSeconds int64) ([]byte, error)

	// Encrypted reports whether this cipher performs real encryption.
	// False identifies the explicit passthrough implementation.
	Encrypted() bool
}

// Signer produces and verifies detached signatures over byte payloads using
// the device keypair, proving profile provenance.
type Signer interface {
	// Sign returns an RSA-PSS signature over SHA-256(payload) using the
	// device private key.
	Sign(payload []byte) ([]byte, error)

	// Verify reports whether signature is a valid signature of payload
	// under publicKeyPEM. It never returns an error: any mismatch (wrong
	// key, wrong payload, malformed signature or key) yields false, so
	// callers can branch on trust decisions uniformly.
	Verify(payload, signature, publicKeyPEM []byte) bool

	// PublicKeyPEM returns the device public key in PEM form for export
	// alongside signed payloads.
	PublicKeyPEM() []byte
}
