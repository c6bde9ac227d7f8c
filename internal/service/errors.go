// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "errors"

var (
	// ErrProfileNotFound is returned by operations that assume the profile
	// exists (upload, apply, delete).
	ErrProfileNotFound = errors.New("profile not found")

	// ErrChecksumMismatch means a downloaded archive does not match its
	// declared checksum. The archive is discarded, never applied.
	ErrChecksumMismatch = errors.New("archive checksum mismatch")

	// ErrNotArchived means the operation requires a cached archive that
	// does not exist for the profile.
	ErrNotArchived = errors.New("profile has no local archive")

	// ErrInvalidTransition means the operation attempted a state change
	// the profile state machine does not allow.
	ErrInvalidTransition = errors.New("invalid sync state transition")

	// ErrEncryptionMismatch means an envelope's encryption capability flag
	// does not match the locally configured cipher.
	ErrEncryptionMismatch = errors.New("archive encryption capability mismatch")
)
