package crypto

import "errors"

// Sentinel errors returned by [Cipher.Decrypt]. Callers should use
// [errors.Is] to match against these values; neither is ever downgraded to
// a warning.
var (
	// ErrAuthenticationFailed is returned when the GCM tag does not verify:
	// tampered ciphertext, a wrong nonce, or a context mismatch. The
	// payload is rejected whole; no partial plaintext is returned.
	ErrAuthenticationFailed = errors.New("envelope authentication failed")

	// ErrReplayRejected is returned when the envelope's embedded timestamp
	// is older than the caller's replay window. Checked before any
	// cryptographic verification.
	ErrReplayRejected = errors.New("envelope rejected by replay window")
)
