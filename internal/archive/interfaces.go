// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package archive

// Archiver builds, checksums, inspects, and safely extracts profile
// archives over the configured allow-list of configuration roots.
type Archiver interface {
	// CollectFiles enumerates regular files under the allow-listed roots,
	// returning archive-relative/absolute path pairs in sorted order.
	// Symlinks resolving outside the configuration base are skipped.
	CollectFiles() ([]FilePair, error)

	// CreateArchive writes the given files into a deterministic tar.gz at
	// outputPath. Per-file read failures are logged and skipped.
	CreateArchive(files []FilePair, outputPath string) error

	// Checksum returns the hex-encoded SHA-256 of the file at path.
	Checksum(path string) (string, error)

	// Extract unpacks an archive into destRoot, rejecting any member whose
	// canonical path would escape destRoot with [ErrPathEscape] before a
	// single file is written.
	Extract(archivePath, destRoot string) error

	// DetectComponents reports which known desktop components are present
	// in the configuration base. Best-effort; never fails.
	DetectComponents() []string

	// DetectFeatures reports feature tags found in known configuration
	// files. Best-effort; never fails.
	DetectFeatures() []string
}
