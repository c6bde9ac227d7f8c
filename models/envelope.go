// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// EncryptedEnvelope is the tamper-evident wrapper produced by the
// authenticated cipher. It is a transient value: it is handed to the
// transport or written next to an archive, never stored in the database.
//
// The timestamp and associated data are authenticated but not encrypted.
// A (key, nonce) pair is used at most once.
type EncryptedEnvelope struct {
	Ciphertext []byte `json:"ciphertext"`

	// Nonce is the 96-bit GCM nonce, freshly random per encryption.
	Nonce []byte `json:"nonce"`

	// Timestamp is the encryption time as 64-bit Unix seconds. It is bound
	// into the authenticated data and checked against the replay window
	// before decryption.
	Timestamp int64 `json:"timestamp"`

	// AssociatedData is the caller-supplied context bound into the
	// authentication tag.
	AssociatedData []byte `json:"associated_data,omitempty"`

	// Encrypted reports whether the payload was actually encrypted.
	// False only when the cipher runs in explicit passthrough mode.
	Encrypted bool `json:"encrypted"`
}
