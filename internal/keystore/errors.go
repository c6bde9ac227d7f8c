package keystore

import "errors"

// ErrKeyUnavailable is returned when key material is missing, incomplete, or
// cannot be unwrapped. It is fatal: callers must not regenerate keys over it,
// since doing so would orphan every previously encrypted profile. Match with
// [errors.Is].
var ErrKeyUnavailable = errors.New("key material unavailable")
