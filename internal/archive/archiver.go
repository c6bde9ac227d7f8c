// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package archive builds, checksums, and safely extracts profile archives.
//
// Archives cover a fixed allow-list of configuration roots and are built as
// deterministically as the filesystem allows: members are sorted, headers
// are normalised, and the gzip stream carries no modification time, so an
// unchanged tree archives to the same bytes twice.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/MKhiriev/go-conf-sync/internal/logger"
)

// FilePair maps an archive-relative path to its absolute source location.
type FilePair struct {
	Rel string
	Abs string
}

// archiver is the private implementation of [Archiver].
type archiver struct {
	configBase       string
	syncRoots        []string
	compressionLevel int
	logger           *logger.Logger
}

// NewArchiver constructs an [Archiver] over configBase (normally
// $HOME/.config) restricted to the syncRoots allow-list.
func NewArchiver(configBase string, syncRoots []string, compressionLevel int, log *logger.Logger) Archiver {
	return &archiver{
		configBase:       configBase,
		syncRoots:        syncRoots,
		compressionLevel: compressionLevel,
		logger:           log,
	}
}

// CollectFiles implements [Archiver]. It enumerates regular files under the
// allow-listed roots only. Symlinks are not followed: a link that resolves
// outside its root would smuggle arbitrary paths into the archive, so any
// symlink whose target escapes the config base is skipped and logged.
func (a *archiver) CollectFiles() ([]FilePair, error) {
	base, err := filepath.Abs(a.configBase)
	if err != nil {
		return nil, fmt.Errorf("resolve config base: %w", err)
	}

	var files []FilePair

	for _, root := range a.syncRoots {
		rootDir := filepath.Join(base, root)
		if _, statErr := os.Stat(rootDir); statErr != nil {
			continue // absent roots are simply not part of the profile
		}

		walkErr := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				a.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable entry")
				return nil
			}
			if d.IsDir() {
				return nil
			}

			if d.Type()&fs.ModeSymlink != 0 {
				if !a.symlinkStaysInside(path, base) {
					a.logger.Warn().Str("path", path).Msg("skipping symlink escaping config base")
					return nil
				}
			} else if !d.Type().IsRegular() {
				return nil // sockets, fifos and the like have no place in a profile
			}

			rel, relErr := filepath.Rel(base, path)
			if relErr != nil {
				return nil
			}
			files = append(files, FilePair{Rel: filepath.ToSlash(rel), Abs: path})
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walk %s: %w", rootDir, walkErr)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Rel < files[j].Rel })
	return files, nil
}

// symlinkStaysInside reports whether the symlink at path resolves to a
// location under base.
func (a *archiver) symlinkStaysInside(path, base string) bool {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	resolvedBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(resolvedBase, resolved)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// CreateArchive implements [Archiver]. Members are written in sorted order
// with normalised headers (no owner names, zeroed ids) so that an unchanged
// tree produces byte-identical archives. A per-file read failure is logged
// and skipped rather than aborting the whole archive.
func (a *archiver) CreateArchive(files []FilePair, outputPath string) error {
	out, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer out.Close()

	gz, err := gzip.NewWriterLevel(out, a.compressionLevel)
	if err != nil {
		return fmt.Errorf("create gzip writer: %w", err)
	}

	tw := tar.NewWriter(gz)

	sorted := append([]FilePair(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rel < sorted[j].Rel })

	for _, f := range sorted {
		if err = a.addMember(tw, f); err != nil {
			a.logger.Warn().Err(err).Str("path", f.Abs).Msg("could not add file to archive")
		}
	}

	if err = tw.Close(); err != nil {
		return fmt.Errorf("finalize tar stream: %w", err)
	}
	if err = gz.Close(); err != nil {
		return fmt.Errorf("finalize gzip stream: %w", err)
	}
	return out.Close()
}

func (a *archiver) addMember(tw *tar.Writer, f FilePair) error {
	src, err := os.Open(f.Abs)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat source file: %w", err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("build tar header: %w", err)
	}
	hdr.Name = f.Rel
	hdr.Uid = 0
	hdr.Gid = 0
	hdr.Uname = ""
	hdr.Gname = ""
	hdr.ModTime = info.ModTime().Truncate(time.Second)
	hdr.AccessTime = hdr.ModTime
	hdr.ChangeTime = hdr.ModTime
	hdr.Format = tar.FormatPAX

	if err = tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write tar header: %w", err)
	}
	if _, err = io.Copy(tw, src); err != nil {
		return fmt.Errorf("copy file content: %w", err)
	}
	return nil
}

// Checksum implements [Archiver]. It streams the file through SHA-256 and
// returns the hex digest.
func (a *archiver) Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err = io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
