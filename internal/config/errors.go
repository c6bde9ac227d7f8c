package config

import "errors"

// Validation errors returned by [ClientConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidAdapterConfigs indicates invalid remote adapter settings
	// (for example, missing or non-HTTP base URL, zero request timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates invalid local storage settings
	// (for example, empty config dir or database path).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidArchiveConfigs indicates invalid archiving settings
	// (for example, a gzip level outside 1-9 or an empty allow-list).
	ErrInvalidArchiveConfigs = errors.New("invalid archive configuration")
	// ErrInvalidCryptoConfigs indicates invalid cryptographic policy
	// settings (for example, a non-positive replay window).
	ErrInvalidCryptoConfigs = errors.New("invalid crypto configuration")
	// ErrInvalidWorkerConfigs indicates invalid background worker settings
	// (for example, zero sync interval).
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
)
