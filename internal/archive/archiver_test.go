// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-conf-sync/internal/logger"
)

func writeTree(t *testing.T, base string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(base, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestCollectFiles_AllowListAndOrdering(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{
		"hypr/hyprland.conf": "monitor=DP-1",
		"hypr/binds.conf":    "bind=SUPER,Q,killactive",
		"waybar/config":      "{}",
		"ssh/id_ed25519":     "not synced, not allow-listed",
	})

	a := NewArchiver(base, []string{"hypr", "waybar", "rofi"}, 6, logger.Nop())
	files, err := a.CollectFiles()
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rels = append(rels, f.Rel)
	}
	assert.Equal(t, []string{"hypr/binds.conf", "hypr/hyprland.conf", "waybar/config"}, rels)
}

func TestCollectFiles_SkipsEscapingSymlink(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()
	writeTree(t, base, map[string]string{"hypr/hyprland.conf": "monitor=DP-1"})
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("secret"), 0o600))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret"), filepath.Join(base, "hypr", "leak")))

	a := NewArchiver(base, []string{"hypr"}, 6, logger.Nop())
	files, err := a.CollectFiles()
	require.NoError(t, err)

	for _, f := range files {
		assert.NotEqual(t, "hypr/leak", f.Rel, "escaping symlink must not be collected")
	}
	assert.Len(t, files, 1)
}

func TestCreateArchive_Deterministic(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{
		"hypr/hyprland.conf": "monitor=DP-1",
		"waybar/config":      "{}",
	})

	a := NewArchiver(base, []string{"hypr", "waybar"}, 6, logger.Nop())
	files, err := a.CollectFiles()
	require.NoError(t, err)

	out := t.TempDir()
	first := filepath.Join(out, "first.tar.gz")
	second := filepath.Join(out, "second.tar.gz")
	require.NoError(t, a.CreateArchive(files, first))
	require.NoError(t, a.CreateArchive(files, second))

	sum1, err := a.Checksum(first)
	require.NoError(t, err)
	sum2, err := a.Checksum(second)
	require.NoError(t, err)
	assert.Equal(t, sum1, sum2, "unchanged tree must archive to identical bytes")
}

func TestChecksum_ChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))

	a := NewArchiver(dir, nil, 6, logger.Nop())
	sum1, err := a.Checksum(path)
	require.NoError(t, err)
	require.Len(t, sum1, 64)

	require.NoError(t, os.WriteFile(path, []byte("two"), 0o644))
	sum2, err := a.Checksum(path)
	require.NoError(t, err)

	assert.NotEqual(t, sum1, sum2)
}

func TestExtract_RoundTrip(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{
		"hypr/hyprland.conf": "monitor=DP-1",
		"hypr/conf.d/extra":  "blur=1",
	})

	a := NewArchiver(base, []string{"hypr"}, 6, logger.Nop())
	files, err := a.CollectFiles()
	require.NoError(t, err)

	archivePath := filepath.Join(t.TempDir(), "p.tar.gz")
	require.NoError(t, a.CreateArchive(files, archivePath))

	dest := t.TempDir()
	require.NoError(t, a.Extract(archivePath, dest))

	got, err := os.ReadFile(filepath.Join(dest, "hypr", "hyprland.conf"))
	require.NoError(t, err)
	assert.Equal(t, "monitor=DP-1", string(got))

	got, err = os.ReadFile(filepath.Join(dest, "hypr", "conf.d", "extra"))
	require.NoError(t, err)
	assert.Equal(t, "blur=1", string(got))
}

func TestDetectComponents(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{
		"hypr/hyprland.conf": "monitor=DP-1",
		"waybar/config":      "{}",
	})

	a := NewArchiver(base, []string{"hypr", "waybar"}, 6, logger.Nop())
	assert.Equal(t, []string{"hyprland", "waybar"}, a.DetectComponents())
}

func TestDetectFeatures(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{
		"hypr/hyprland.conf": "decoration {\n  blur = true\n  rounding = 8\n}\nanimation = windows\n",
	})

	a := NewArchiver(base, []string{"hypr"}, 6, logger.Nop())
	features := a.DetectFeatures()
	assert.Contains(t, features, "blur")
	assert.Contains(t, features, "rounded")
	assert.Contains(t, features, "animations")
}
