// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-conf-sync/internal/adapter"
	"github.com/MKhiriev/go-conf-sync/internal/archive"
	"github.com/MKhiriev/go-conf-sync/internal/config"
	"github.com/MKhiriev/go-conf-sync/internal/crypto"
	"github.com/MKhiriev/go-conf-sync/internal/keystore"
	"github.com/MKhiriev/go-conf-sync/internal/logger"
	"github.com/MKhiriev/go-conf-sync/internal/store"
	"github.com/MKhiriev/go-conf-sync/models"
)

type fakeProfileRepo struct {
	profiles map[string]models.ConfigProfile
	saveErr  error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]models.ConfigProfile)}
}

func (f *fakeProfileRepo) SaveProfile(_ context.Context, p models.ConfigProfile) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.profiles[p.ID] = p
	return nil
}

func (f *fakeProfileRepo) GetProfile(_ context.Context, id string) (models.ConfigProfile, bool, error) {
	p, ok := f.profiles[id]
	return p, ok, nil
}

func (f *fakeProfileRepo) ListProfiles(_ context.Context) ([]models.ConfigProfile, error) {
	var out []models.ConfigProfile
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProfileRepo) DeleteProfile(_ context.Context, id string) error {
	delete(f.profiles, id)
	return nil
}

func (f *fakeProfileRepo) MarkSynced(_ context.Context, id string, at time.Time) error {
	p, ok := f.profiles[id]
	if !ok {
		return errors.New("no such profile")
	}
	p.SyncedAt = &at
	f.profiles[id] = p
	return nil
}

type fakeHistoryRepo struct {
	records   []models.SyncRecord
	recordErr error
}

func (f *fakeHistoryRepo) RecordSync(_ context.Context, r models.SyncRecord) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, r)
	return nil
}

func (f *fakeHistoryRepo) GetHistory(_ context.Context, profileID string) ([]models.SyncRecord, error) {
	var out []models.SyncRecord
	for _, r := range f.records {
		if r.ProfileID == profileID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) lastRecord(t *testing.T) models.SyncRecord {
	t.Helper()
	require.NotEmpty(t, f.records)
	return f.records[len(f.records)-1]
}

type fakeRemote struct {
	token        string
	authUsername string
	authErr      error

	uploads   []models.UploadRequest
	uploadErr error

	downloadResp models.DownloadResponse
	downloadErr  error

	deleted   []string
	deleteErr error

	searchResp []models.ConfigProfile
}

func (f *fakeRemote) Authenticate(_ context.Context, _ models.Credentials) (string, error) {
	if f.authErr != nil {
		return "", f.authErr
	}
	f.token = "issued-token"
	return f.authUsername, nil
}

func (f *fakeRemote) UploadProfile(_ context.Context, req models.UploadRequest) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads = append(f.uploads, req)
	return nil
}

func (f *fakeRemote) DownloadProfile(_ context.Context, _ string) (models.DownloadResponse, error) {
	return f.downloadResp, f.downloadErr
}

func (f *fakeRemote) DeleteProfile(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRemote) SearchProfiles(_ context.Context, _ models.SearchRequest) ([]models.ConfigProfile, error) {
	return f.searchResp, nil
}

func (f *fakeRemote) SetToken(token string) { f.token = token }
func (f *fakeRemote) Token() string        { return f.token }

var _ adapter.ServerAdapter = (*fakeRemote)(nil)

type harness struct {
	svc      *profileService
	profiles *fakeProfileRepo
	history  *fakeHistoryRepo
	remote   *fakeRemote
	cipher   crypto.Cipher
	signer   crypto.Signer
	cfg      *config.ClientConfig
	settings *config.Settings
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	configBase := t.TempDir()
	stateDir := t.TempDir()

	cfg := &config.ClientConfig{
		App: config.ClientApp{Version: "1.0.0", DeviceName: "test-device"},
		Storage: config.ClientStorage{
			ConfigDir:    stateDir,
			CacheDir:     filepath.Join(stateDir, "cache"),
			KeysDir:      filepath.Join(stateDir, "keys"),
			DBPath:       filepath.Join(stateDir, "cloud.db"),
			SettingsPath: filepath.Join(stateDir, "cloud_settings.json"),
		},
		Archive: config.ClientArchive{
			ConfigBase:       configBase,
			CompressionLevel: 6,
			SyncRoots:        []string{"hypr", "waybar"},
		},
		Crypto:  config.ClientCrypto{ReplayWindow: time.Hour, KDFIterations: 100_000},
		Workers: config.ClientWorkers{SyncInterval: time.Hour},
	}

	settings := config.DefaultSettings()
	settings.Username = "alice"

	masterKey := make([]byte, 32)
	_, err := rand.Read(masterKey)
	require.NoError(t, err)
	cipher, err := crypto.NewAEADCipher(masterKey)
	require.NoError(t, err)

	keys := keystore.NewKeyStore(stateDir, cfg.Storage.KeysDir, cfg.Crypto.KDFIterations, logger.Nop())
	privatePEM, publicPEM, err := keys.GetOrCreateDeviceKeypair()
	require.NoError(t, err)
	signer, err := crypto.NewSigner(privatePEM, publicPEM)
	require.NoError(t, err)

	profiles := newFakeProfileRepo()
	history := &fakeHistoryRepo{}
	remote := &fakeRemote{authUsername: "alice"}

	archiver := archive.NewArchiver(configBase, cfg.Archive.SyncRoots, cfg.Archive.CompressionLevel, logger.Nop())

	svc := NewProfileService(
		&store.Storages{Profiles: profiles, SyncHistory: history},
		remote, archiver, cipher, signer, cfg, &settings,
	).(*profileService)

	return &harness{
		svc:      svc,
		profiles: profiles,
		history:  history,
		remote:   remote,
		cipher:   cipher,
		signer:   signer,
		cfg:      cfg,
		settings: &settings,
	}
}

func (h *harness) writeConfigTree(t *testing.T, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(h.cfg.Archive.ConfigBase, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func testCtx() context.Context {
	return logger.Nop().WithContext(context.Background())
}

func TestCreateFromCurrent(t *testing.T) {
	h := newHarness(t)
	h.writeConfigTree(t, map[string]string{"hypr/hyprland.conf": "monitor=DP-1"})

	profile, err := h.svc.CreateFromCurrent(testCtx(), "my-setup", "daily driver", []string{"dark"}, true)
	require.NoError(t, err)

	assert.Len(t, profile.ID, profileIDLength)
	assert.Equal(t, "alice", profile.Author)
	assert.Equal(t, []string{"dark"}, profile.Tags)
	assert.True(t, profile.Public)
	assert.NotEmpty(t, profile.Checksum)
	assert.Positive(t, profile.Size)

	info, err := os.Stat(profile.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), profile.Size)

	_, found, err := h.profiles.GetProfile(testCtx(), profile.ID)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCreateFromCurrent_EmptyTreeFails(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.CreateFromCurrent(testCtx(), "empty", "", nil, false)
	require.Error(t, err)

	rec := h.history.lastRecord(t)
	assert.Equal(t, models.SyncActionCreate, rec.Action)
	assert.False(t, rec.Success)
	assert.NotEmpty(t, rec.ErrorMessage)
}

func TestUpload(t *testing.T) {
	h := newHarness(t)
	h.writeConfigTree(t, map[string]string{"hypr/hyprland.conf": "monitor=DP-1"})

	profile, err := h.svc.CreateFromCurrent(testCtx(), "my-setup", "", nil, true)
	require.NoError(t, err)

	require.NoError(t, h.svc.Upload(testCtx(), profile.ID))

	require.Len(t, h.remote.uploads, 1)
	req := h.remote.uploads[0]
	assert.Equal(t, profile.Checksum, req.Checksum)

	// The blob is an authenticated envelope whose plaintext matches the
	// declared checksum and whose signature verifies under the sent key.
	var envelope models.EncryptedEnvelope
	require.NoError(t, json.Unmarshal(req.Archive, &envelope))
	assert.True(t, envelope.Encrypted)

	payload, err := h.cipher.Decrypt(envelope, []byte(profile.ID), 3600)
	require.NoError(t, err)
	assert.True(t, h.signer.Verify(payload, req.Signature, req.PublicKey))

	rec := h.history.lastRecord(t)
	assert.Equal(t, models.SyncActionUpload, rec.Action)
	assert.True(t, rec.Success)

	stored, _, err := h.profiles.GetProfile(testCtx(), profile.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.SyncedAt)
}

func TestUpload_UnknownProfile(t *testing.T) {
	h := newHarness(t)

	err := h.svc.Upload(testCtx(), "nope")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	rec := h.history.lastRecord(t)
	assert.False(t, rec.Success)
	assert.Equal(t, models.SyncActionUpload, rec.Action)
}

func TestUpload_MissingArchive(t *testing.T) {
	h := newHarness(t)
	h.profiles.profiles["abc"] = models.ConfigProfile{ID: "abc", LocalPath: "/nonexistent/abc.tar.gz"}

	err := h.svc.Upload(testCtx(), "abc")
	assert.ErrorIs(t, err, ErrNotArchived)
}

func TestUpload_TransportFailureRecorded(t *testing.T) {
	h := newHarness(t)
	h.writeConfigTree(t, map[string]string{"hypr/hyprland.conf": "monitor=DP-1"})
	h.remote.uploadErr = errors.New("connection refused")

	profile, err := h.svc.CreateFromCurrent(testCtx(), "my-setup", "", nil, true)
	require.NoError(t, err)

	err = h.svc.Upload(testCtx(), profile.ID)
	require.Error(t, err)

	rec := h.history.lastRecord(t)
	assert.False(t, rec.Success)
	assert.Contains(t, rec.ErrorMessage, "connection refused")
}

// buildDownloadResponse wraps payload the way a peer device would: envelope
// + declared checksum of the inner archive.
func (h *harness) buildDownloadResponse(t *testing.T, profileID string, payload []byte) models.DownloadResponse {
	t.Helper()
	envelope, err := h.cipher.Encrypt(payload, []byte(profileID))
	require.NoError(t, err)
	blob, err := json.Marshal(envelope)
	require.NoError(t, err)

	return models.DownloadResponse{
		Profile:  models.ConfigProfile{ID: profileID, Name: "remote-setup"},
		Archive:  blob,
		Checksum: checksumBytes(payload),
	}
}

func TestDownload(t *testing.T) {
	h := newHarness(t)
	payload := []byte("pretend this is a tar.gz")
	h.remote.downloadResp = h.buildDownloadResponse(t, "remote1", payload)

	profile, err := h.svc.Download(testCtx(), "remote1", false)
	require.NoError(t, err)

	assert.Equal(t, "remote1", profile.ID)
	got, err := os.ReadFile(profile.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	rec := h.history.lastRecord(t)
	assert.Equal(t, models.SyncActionDownload, rec.Action)
	assert.True(t, rec.Success)
}

func TestDownload_ChecksumMismatchIsFatal(t *testing.T) {
	h := newHarness(t)
	resp := h.buildDownloadResponse(t, "remote1", []byte("payload"))
	resp.Checksum = "0000000000000000000000000000000000000000000000000000000000000000"
	h.remote.downloadResp = resp

	_, err := h.svc.Download(testCtx(), "remote1", true)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	// The archive is discarded: nothing in the cache, nothing applied.
	_, statErr := os.Stat(filepath.Join(h.cfg.Storage.CacheDir, "remote1.tar.gz"))
	assert.True(t, os.IsNotExist(statErr))
	_, found, err := h.profiles.GetProfile(testCtx(), "remote1")
	require.NoError(t, err)
	assert.False(t, found)

	rec := h.history.lastRecord(t)
	assert.False(t, rec.Success)
}

func TestDownload_UnencryptedEnvelopeRejectedWhenEncryptionOn(t *testing.T) {
	h := newHarness(t)

	payload := []byte("plaintext payload")
	envelope, err := crypto.NewPassthroughCipher().Encrypt(payload, []byte("remote1"))
	require.NoError(t, err)
	blob, err := json.Marshal(envelope)
	require.NoError(t, err)
	h.remote.downloadResp = models.DownloadResponse{
		Profile:  models.ConfigProfile{ID: "remote1"},
		Archive:  blob,
		Checksum: checksumBytes(payload),
	}

	_, err = h.svc.Download(testCtx(), "remote1", false)
	assert.ErrorIs(t, err, ErrEncryptionMismatch)
}

func TestApply(t *testing.T) {
	h := newHarness(t)
	h.writeConfigTree(t, map[string]string{"hypr/hyprland.conf": "monitor=DP-1"})

	profile, err := h.svc.CreateFromCurrent(testCtx(), "snapshot", "", nil, false)
	require.NoError(t, err)

	// Change the live config, then apply the snapshot back.
	h.writeConfigTree(t, map[string]string{"hypr/hyprland.conf": "monitor=HDMI-1"})

	require.NoError(t, h.svc.Apply(testCtx(), profile.ID, false))

	got, err := os.ReadFile(filepath.Join(h.cfg.Archive.ConfigBase, "hypr", "hyprland.conf"))
	require.NoError(t, err)
	assert.Equal(t, "monitor=DP-1", string(got))

	rec := h.history.lastRecord(t)
	assert.Equal(t, models.SyncActionApply, rec.Action)
	assert.True(t, rec.Success)
}

func TestApply_CreatesBackupFirst(t *testing.T) {
	h := newHarness(t)
	h.writeConfigTree(t, map[string]string{"hypr/hyprland.conf": "monitor=DP-1"})

	profile, err := h.svc.CreateFromCurrent(testCtx(), "snapshot", "", nil, false)
	require.NoError(t, err)

	require.NoError(t, h.svc.Apply(testCtx(), profile.ID, true))

	backups := 0
	for _, p := range h.profiles.profiles {
		if len(p.Tags) == 1 && p.Tags[0] == "backup" {
			backups++
		}
	}
	assert.Equal(t, 1, backups, "apply with backup must snapshot the live configuration first")
}

func TestApply_BackupFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.writeConfigTree(t, map[string]string{"hypr/hyprland.conf": "monitor=DP-1"})

	profile, err := h.svc.CreateFromCurrent(testCtx(), "snapshot", "", nil, false)
	require.NoError(t, err)

	// Make the backup snapshot impossible without touching the cached
	// archive: profile saves start failing.
	h.profiles.saveErr = errors.New("database is locked")

	h.writeConfigTree(t, map[string]string{"hypr/hyprland.conf": "monitor=HDMI-1"})
	err = h.svc.Apply(testCtx(), profile.ID, true)
	require.Error(t, err)

	// Nothing was extracted.
	got, readErr := os.ReadFile(filepath.Join(h.cfg.Archive.ConfigBase, "hypr", "hyprland.conf"))
	require.NoError(t, readErr)
	assert.Equal(t, "monitor=HDMI-1", string(got))
}

func TestApply_CorruptedCacheDetected(t *testing.T) {
	h := newHarness(t)
	h.writeConfigTree(t, map[string]string{"hypr/hyprland.conf": "monitor=DP-1"})

	profile, err := h.svc.CreateFromCurrent(testCtx(), "snapshot", "", nil, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(profile.LocalPath, []byte("tampered"), 0o600))

	err = h.svc.Apply(testCtx(), profile.ID, false)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	h.writeConfigTree(t, map[string]string{"hypr/hyprland.conf": "monitor=DP-1"})

	profile, err := h.svc.CreateFromCurrent(testCtx(), "doomed", "", nil, false)
	require.NoError(t, err)

	require.NoError(t, h.svc.Delete(testCtx(), profile.ID, true))

	_, found, err := h.profiles.GetProfile(testCtx(), profile.ID)
	require.NoError(t, err)
	assert.False(t, found)
	_, statErr := os.Stat(profile.LocalPath)
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, []string{profile.ID}, h.remote.deleted)

	rec := h.history.lastRecord(t)
	assert.Equal(t, models.SyncActionDelete, rec.Action)
	assert.True(t, rec.Success)
}

// Remote deletion failing still removes local state and still logs the
// action.
func TestDelete_PartialFailureStillLogged(t *testing.T) {
	h := newHarness(t)
	h.writeConfigTree(t, map[string]string{"hypr/hyprland.conf": "monitor=DP-1"})
	h.remote.deleteErr = errors.New("remote unavailable")

	profile, err := h.svc.CreateFromCurrent(testCtx(), "doomed", "", nil, false)
	require.NoError(t, err)

	err = h.svc.Delete(testCtx(), profile.ID, true)
	require.Error(t, err)

	_, found, err := h.profiles.GetProfile(testCtx(), profile.ID)
	require.NoError(t, err)
	assert.False(t, found, "local state is removed even when the remote call fails")

	rec := h.history.lastRecord(t)
	assert.Equal(t, models.SyncActionDelete, rec.Action)
	assert.False(t, rec.Success)
	assert.Contains(t, rec.ErrorMessage, "remote unavailable")
}

func TestAuthenticate_PersistsCredentials(t *testing.T) {
	h := newHarness(t)

	err := h.svc.Authenticate(testCtx(), models.Credentials{Username: "alice", Password: "hunter2"})
	require.NoError(t, err)

	assert.Equal(t, "alice", h.settings.Username)
	assert.Equal(t, "issued-token", h.settings.APIToken)

	persisted, err := config.LoadSettings(h.cfg.Storage.SettingsPath)
	require.NoError(t, err)
	assert.Equal(t, "issued-token", persisted.APIToken)
}

func TestAutoSync_DisabledDoesNothing(t *testing.T) {
	h := newHarness(t)
	h.settings.AutoSync = false

	require.NoError(t, h.svc.AutoSync(testCtx()))
	assert.Empty(t, h.remote.uploads)
}

func TestAutoSync_IntervalGate(t *testing.T) {
	h := newHarness(t)
	h.writeConfigTree(t, map[string]string{"hypr/hyprland.conf": "monitor=DP-1"})
	h.settings.AutoSync = true

	_, err := h.svc.CreateFromCurrent(testCtx(), "public-setup", "", nil, true)
	require.NoError(t, err)

	recent := time.Now().Add(-time.Minute)
	h.settings.LastSync = &recent
	h.settings.SyncInterval = config.Duration(time.Hour)

	require.NoError(t, h.svc.AutoSync(testCtx()))
	assert.Empty(t, h.remote.uploads, "interval not elapsed: nothing is uploaded")
}

func TestAutoSync_UploadsPublicProfilesOnly(t *testing.T) {
	h := newHarness(t)
	h.writeConfigTree(t, map[string]string{"hypr/hyprland.conf": "monitor=DP-1"})
	h.settings.AutoSync = true

	public, err := h.svc.CreateFromCurrent(testCtx(), "public-setup", "", nil, true)
	require.NoError(t, err)
	_, err = h.svc.CreateFromCurrent(testCtx(), "private-setup", "", nil, false)
	require.NoError(t, err)

	require.NoError(t, h.svc.AutoSync(testCtx()))

	require.Len(t, h.remote.uploads, 1)
	assert.Equal(t, public.ID, h.remote.uploads[0].Profile.ID)
	require.NotNil(t, h.settings.LastSync)

	persisted, err := config.LoadSettings(h.cfg.Storage.SettingsPath)
	require.NoError(t, err)
	assert.NotNil(t, persisted.LastSync)
}

func TestDeriveProfileID_StableAndDistinct(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	id1 := deriveProfileID("my-setup", at)
	id2 := deriveProfileID("my-setup", at)
	id3 := deriveProfileID("my-setup", at.Add(time.Second))

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.Len(t, id1, profileIDLength)
}
