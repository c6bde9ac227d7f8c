// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extract unpacks archivePath into destRoot with path-escape protection.
//
// Every member path is canonicalised and must resolve inside destRoot. The
// archive is scanned completely before anything is written: a single
// offending member (absolute path, "..", or a symlink/hardlink member)
// aborts the whole extraction with [ErrPathEscape] and no file is touched.
func (a *archiver) Extract(archivePath, destRoot string) error {
	if err := scanMembers(archivePath, destRoot); err != nil {
		return err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar stream: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		target, err := secureJoin(destRoot, hdr.Name)
		if err != nil {
			// Already validated by scanMembers; a failure here means the
			// file changed between scan and extract.
			return err
		}

		if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create target dir: %w", err)
		}

		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)&0o777)
		if err != nil {
			return fmt.Errorf("create target file: %w", err)
		}
		if _, err = io.Copy(out, tr); err != nil {
			out.Close()
			return fmt.Errorf("write target file %s: %w", target, err)
		}
		if err = out.Close(); err != nil {
			return fmt.Errorf("close target file %s: %w", target, err)
		}
	}
}

// scanMembers walks all archive headers without extracting, rejecting any
// member whose canonical target would land outside destRoot.
func scanMembers(archivePath, destRoot string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar stream: %w", err)
		}

		switch hdr.Typeflag {
		case tar.TypeReg, tar.TypeDir:
		case tar.TypeSymlink, tar.TypeLink:
			// Link members could be chained to write through destRoot on a
			// later extraction; profiles never legitimately contain them.
			return fmt.Errorf("%w: archive member %q is a link", ErrPathEscape, hdr.Name)
		default:
			continue
		}

		if _, err = secureJoin(destRoot, hdr.Name); err != nil {
			return err
		}
	}
}

// secureJoin canonicalises member against root and returns the target path,
// or [ErrPathEscape] if the member would resolve outside root.
func secureJoin(root, member string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(member))
	if filepath.IsAbs(clean) || !filepath.IsLocal(clean) {
		return "", fmt.Errorf("%w: archive member %q resolves outside the configuration root", ErrPathEscape, member)
	}

	target := filepath.Join(root, clean)
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: archive member %q resolves outside the configuration root", ErrPathEscape, member)
	}

	return target, nil
}
