// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/MKhiriev/go-conf-sync/models"
)

const nonceSize = 12 // 96 bits, GCM standard

// aeadCipher is the real [Cipher]: AES-256-GCM under the device master key.
type aeadCipher struct {
	gcm cipher.AEAD
	now func() time.Time
}

// NewAEADCipher builds the AES-256-GCM cipher from a 32-byte master key.
func NewAEADCipher(masterKey []byte) (Cipher, error) {
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return &aeadCipher{gcm: gcm, now: time.Now}, nil
}

// Encrypt implements [Cipher]. The authenticated-but-unencrypted data is
// timestamp (8 bytes, big-endian) ‖ context, so both the encryption time and
// the caller context are covered by the GCM tag. The nonce is freshly random
// per call; a (key, nonce) pair is used at most once.
func (c *aeadCipher) Encrypt(plaintext, context []byte) (models.EncryptedEnvelope, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return models.EncryptedEnvelope{}, fmt.Errorf("generate nonce: %w", err)
	}

	ts := c.now().Unix()
	aad := buildAAD(ts, context)

	ciphertext := c.gcm.Seal(nil, nonce, plaintext, aad)

	return models.EncryptedEnvelope{
		Ciphertext:     ciphertext,
		Nonce:          nonce,
		Timestamp:      ts,
		AssociatedData: append([]byte(nil), context...),
		Encrypted:      true,
	}, nil
}

// Decrypt implements [Cipher]. The replay-window check runs strictly before
// the cryptographic open: an expired envelope must never be treated as valid
// even when its authentication tag would verify.
func (c *aeadCipher) Decrypt(envelope models.EncryptedEnvelope, context []byte, maxAgeSeconds int64) ([]byte, error) {
	if age := c.now().Unix() - envelope.Timestamp; age > maxAgeSeconds {
		return nil, fmt.Errorf("%w: envelope is %d seconds old, window is %d", ErrReplayRejected, age, maxAgeSeconds)
	}

	if len(envelope.Nonce) != nonceSize {
		return nil, fmt.Errorf("%w: bad nonce length %d", ErrAuthenticationFailed, len(envelope.Nonce))
	}

	aad := buildAAD(envelope.Timestamp, context)

	plaintext, err := c.gcm.Open(nil, envelope.Nonce, envelope.Ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	return plaintext, nil
}

// Encrypted implements [Cipher].
func (c *aeadCipher) Encrypted() bool { return true }

// buildAAD assembles the authenticated data: 8-byte big-endian Unix seconds
// followed by the caller context.
func buildAAD(timestamp int64, context []byte) []byte {
	aad := make([]byte, 8, 8+len(context))
	binary.BigEndian.PutUint64(aad, uint64(timestamp))
	return append(aad, context...)
}

// passthroughCipher is the explicit no-op [Cipher] selected only when
// encryption is disabled in settings. It still stamps envelopes and honours
// the replay window so callers keep a single code path, but Encrypted()
// and the envelope flag make the missing protection observable.
type passthroughCipher struct {
	now func() time.Time
}

// NewPassthroughCipher builds the identity-transform cipher.
func NewPassthroughCipher() Cipher {
	return &passthroughCipher{now: time.Now}
}

func (c *passthroughCipher) Encrypt(plaintext, context []byte) (models.EncryptedEnvelope, error) {
	return models.EncryptedEnvelope{
		Ciphertext:     append([]byte(nil), plaintext...),
		Nonce:          make([]byte, nonceSize),
		Timestamp:      c.now().Unix(),
		AssociatedData: append([]byte(nil), context...),
		Encrypted:      false,
	}, nil
}

func (c *passthroughCipher) Decrypt(envelope models.EncryptedEnvelope, context []byte, maxAgeSeconds int64) ([]byte, error) {
	if age := c.now().Unix() - envelope.Timestamp; age > maxAgeSeconds {
		return nil, fmt.Errorf("%w: envelope is %d seconds old, window is %d", ErrReplayRejected, age, maxAgeSeconds)
	}
	return append([]byte(nil), envelope.Ciphertext...), nil
}

func (c *passthroughCipher) Encrypted() bool { return false }
