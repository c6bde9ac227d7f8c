package archive

import "errors"

// ErrPathEscape is returned when an archive member's canonical target path
// would land outside the configuration root (zip-slip). A single offending
// member aborts the entire extraction before any file is written. Match
// with [errors.Is].
var ErrPathEscape = errors.New("archive member escapes configuration root")
