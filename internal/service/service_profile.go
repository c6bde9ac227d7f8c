// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MKhiriev/go-conf-sync/internal/adapter"
	"github.com/MKhiriev/go-conf-sync/internal/archive"
	"github.com/MKhiriev/go-conf-sync/internal/config"
	"github.com/MKhiriev/go-conf-sync/internal/crypto"
	"github.com/MKhiriev/go-conf-sync/internal/logger"
	"github.com/MKhiriev/go-conf-sync/internal/store"
	"github.com/MKhiriev/go-conf-sync/models"
)

// profileIDLength is the hex-digit length of derived profile ids.
const profileIDLength = 16

type profileService struct {
	storages *store.Storages
	remote   adapter.ServerAdapter
	archiver archive.Archiver
	cipher   crypto.Cipher
	signer   crypto.Signer
	cfg      *config.ClientConfig
	settings *config.Settings

	now func() time.Time
}

func NewProfileService(
	storages *store.Storages,
	remote adapter.ServerAdapter,
	archiver archive.Archiver,
	cipher crypto.Cipher,
	signer crypto.Signer,
	cfg *config.ClientConfig,
	settings *config.Settings,
) ProfileService {
	return &profileService{
		storages: storages,
		remote:   remote,
		archiver: archiver,
		cipher:   cipher,
		signer:   signer,
		cfg:      cfg,
		settings: settings,
		now:      time.Now,
	}
}

func (s *profileService) Authenticate(ctx context.Context, creds models.Credentials) error {
	log := logger.FromContext(ctx)

	username, err := s.remote.Authenticate(ctx, creds)
	if err != nil {
		log.Err(err).
			Str("func", "profileService.Authenticate").
			Str("username", creds.Username).
			Msg("remote authentication failed")
		return err
	}

	s.settings.Username = username
	s.settings.APIToken = s.remote.Token()
	if err = config.SaveSettings(s.cfg.Storage.SettingsPath, *s.settings); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}

	log.Info().
		Str("func", "profileService.Authenticate").
		Str("username", username).
		Msg("authenticated against remote")
	return nil
}

func (s *profileService) CreateFromCurrent(ctx context.Context, name, description string, tags []string, public bool) (models.ConfigProfile, error) {
	log := logger.FromContext(ctx)
	progress := newProgress(models.StateCreated)

	createdAt := s.now().UTC()
	profileID := deriveProfileID(name, createdAt)

	profile, err := s.buildArchive(profileID, name, description, tags, public, createdAt)
	if err != nil {
		s.recordFailure(ctx, profileID, models.SyncActionCreate, err)
		return models.ConfigProfile{}, err
	}

	if err = s.storages.Profiles.SaveProfile(ctx, profile); err != nil {
		s.recordFailure(ctx, profileID, models.SyncActionCreate, err)
		return models.ConfigProfile{}, err
	}
	if err = progress.advance(models.StateArchived); err != nil {
		return models.ConfigProfile{}, err
	}

	log.Info().
		Str("func", "profileService.CreateFromCurrent").
		Str("profile_id", profile.ID).
		Str("checksum", profile.Checksum).
		Int64("size", profile.Size).
		Msg("profile archived")
	return profile, nil
}

// buildArchive collects the live configuration, writes the deterministic
// archive into the cache directory, and assembles the metadata row.
func (s *profileService) buildArchive(profileID, name, description string, tags []string, public bool, createdAt time.Time) (models.ConfigProfile, error) {
	files, err := s.archiver.CollectFiles()
	if err != nil {
		return models.ConfigProfile{}, fmt.Errorf("collect configuration files: %w", err)
	}
	if len(files) == 0 {
		return models.ConfigProfile{}, errors.New("no configuration files found under sync roots")
	}

	if err = os.MkdirAll(s.cfg.Storage.CacheDir, 0o700); err != nil {
		return models.ConfigProfile{}, fmt.Errorf("create cache dir: %w", err)
	}

	archivePath := filepath.Join(s.cfg.Storage.CacheDir, profileID+".tar.gz")
	if err = s.archiver.CreateArchive(files, archivePath); err != nil {
		return models.ConfigProfile{}, fmt.Errorf("create archive: %w", err)
	}

	checksum, err := s.archiver.Checksum(archivePath)
	if err != nil {
		return models.ConfigProfile{}, fmt.Errorf("checksum archive: %w", err)
	}
	info, err := os.Stat(archivePath)
	if err != nil {
		return models.ConfigProfile{}, fmt.Errorf("stat archive: %w", err)
	}

	return models.ConfigProfile{
		ID:          profileID,
		Name:        name,
		Description: description,
		Author:      s.settings.Username,
		Version:     s.cfg.App.Version,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
		Tags:        tags,
		Components:  s.archiver.DetectComponents(),
		Features:    s.archiver.DetectFeatures(),
		Checksum:    checksum,
		Size:        info.Size(),
		Public:      public,
		LocalPath:   archivePath,
	}, nil
}

func (s *profileService) Upload(ctx context.Context, profileID string) error {
	log := logger.FromContext(ctx)

	profile, found, err := s.storages.Profiles.GetProfile(ctx, profileID)
	if err != nil {
		s.recordFailure(ctx, profileID, models.SyncActionUpload, err)
		return err
	}
	if !found {
		err = fmt.Errorf("%w: %s", ErrProfileNotFound, profileID)
		s.recordFailure(ctx, profileID, models.SyncActionUpload, err)
		return err
	}

	archived := false
	if profile.LocalPath != "" {
		if _, statErr := os.Stat(profile.LocalPath); statErr == nil {
			archived = true
		}
	}
	if !archived {
		err = fmt.Errorf("%w: %s", ErrNotArchived, profileID)
		s.recordFailure(ctx, profileID, models.SyncActionUpload, err)
		return err
	}
	progress := newProgress(models.StateArchived)

	payload, err := os.ReadFile(profile.LocalPath)
	if err != nil {
		err = fmt.Errorf("read archive: %w", err)
		s.recordFailure(ctx, profileID, models.SyncActionUpload, err)
		return err
	}

	// The declared checksum always describes the archive actually sent,
	// not the one recorded at creation time.
	checksum := checksumBytes(payload)
	if checksum != profile.Checksum {
		profile.Checksum = checksum
		profile.Size = int64(len(payload))
	}

	envelope, err := s.cipher.Encrypt(payload, []byte(profileID))
	if err != nil {
		s.recordFailure(ctx, profileID, models.SyncActionUpload, err)
		return err
	}
	blob, err := json.Marshal(envelope)
	if err != nil {
		err = fmt.Errorf("encode envelope: %w", err)
		s.recordFailure(ctx, profileID, models.SyncActionUpload, err)
		return err
	}

	signature, err := s.signer.Sign(payload)
	if err != nil {
		s.recordFailure(ctx, profileID, models.SyncActionUpload, err)
		return err
	}

	req := models.UploadRequest{
		Profile:   profile,
		Archive:   blob,
		Checksum:  checksum,
		Signature: signature,
		PublicKey: s.signer.PublicKeyPEM(),
	}
	if err = s.remote.UploadProfile(ctx, req); err != nil {
		s.recordFailure(ctx, profileID, models.SyncActionUpload, err)
		return err
	}
	if err = progress.advance(models.StateUploaded); err != nil {
		return err
	}

	syncedAt := s.now().UTC()
	if err = s.storages.Profiles.MarkSynced(ctx, profileID, syncedAt); err != nil {
		s.recordFailure(ctx, profileID, models.SyncActionUpload, err)
		return err
	}
	if err = s.recordSuccess(ctx, profileID, models.SyncActionUpload); err != nil {
		return err
	}

	log.Info().
		Str("func", "profileService.Upload").
		Str("profile_id", profileID).
		Str("checksum", checksum).
		Bool("encrypted", envelope.Encrypted).
		Msg("profile uploaded")
	return nil
}

func (s *profileService) Download(ctx context.Context, profileID string, apply bool) (models.ConfigProfile, error) {
	log := logger.FromContext(ctx)
	progress := newProgress(models.StateArchived)

	resp, err := s.remote.DownloadProfile(ctx, profileID)
	if err != nil {
		s.recordFailure(ctx, profileID, models.SyncActionDownload, err)
		return models.ConfigProfile{}, err
	}
	if err = progress.advance(models.StateDownloaded); err != nil {
		return models.ConfigProfile{}, err
	}

	payload, err := s.openArchiveBlob(resp.Archive, profileID)
	if err != nil {
		s.recordFailure(ctx, profileID, models.SyncActionDownload, err)
		return models.ConfigProfile{}, err
	}

	// Integrity gate: the payload is compared against the checksum the
	// remote declared before a single byte reaches the cache.
	if checksum := checksumBytes(payload); checksum != resp.Checksum {
		err = fmt.Errorf("%w: declared %s, got %s", ErrChecksumMismatch, resp.Checksum, checksum)
		s.recordFailure(ctx, profileID, models.SyncActionDownload, err)
		return models.ConfigProfile{}, err
	}
	if err = progress.advance(models.StateVerified); err != nil {
		return models.ConfigProfile{}, err
	}

	if len(resp.Signature) > 0 && len(resp.PublicKey) > 0 {
		if !s.signer.Verify(payload, resp.Signature, resp.PublicKey) {
			err = errors.New("archive signature verification failed")
			s.recordFailure(ctx, profileID, models.SyncActionDownload, err)
			return models.ConfigProfile{}, err
		}
	}

	if err = os.MkdirAll(s.cfg.Storage.CacheDir, 0o700); err != nil {
		err = fmt.Errorf("create cache dir: %w", err)
		s.recordFailure(ctx, profileID, models.SyncActionDownload, err)
		return models.ConfigProfile{}, err
	}
	archivePath := filepath.Join(s.cfg.Storage.CacheDir, profileID+".tar.gz")
	if err = os.WriteFile(archivePath, payload, 0o600); err != nil {
		err = fmt.Errorf("write archive to cache: %w", err)
		s.recordFailure(ctx, profileID, models.SyncActionDownload, err)
		return models.ConfigProfile{}, err
	}

	profile := resp.Profile
	profile.ID = profileID
	profile.Checksum = resp.Checksum
	profile.Size = int64(len(payload))
	profile.LocalPath = archivePath
	if err = s.storages.Profiles.SaveProfile(ctx, profile); err != nil {
		s.recordFailure(ctx, profileID, models.SyncActionDownload, err)
		return models.ConfigProfile{}, err
	}
	if err = s.recordSuccess(ctx, profileID, models.SyncActionDownload); err != nil {
		return models.ConfigProfile{}, err
	}

	log.Info().
		Str("func", "profileService.Download").
		Str("profile_id", profileID).
		Str("checksum", resp.Checksum).
		Msg("profile downloaded and verified")

	if apply {
		if err = s.Apply(ctx, profileID, s.settings.BackupBeforeApply); err != nil {
			return models.ConfigProfile{}, err
		}
	}

	return profile, nil
}

// openArchiveBlob decodes the envelope wrapping a transferred archive and
// recovers the inner payload. The envelope's capability flag must agree with
// the locally configured cipher so an unencrypted payload can never pass for
// an encrypted one.
func (s *profileService) openArchiveBlob(blob []byte, profileID string) ([]byte, error) {
	var envelope models.EncryptedEnvelope
	if err := json.Unmarshal(blob, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	if envelope.Encrypted != s.cipher.Encrypted() {
		return nil, fmt.Errorf("%w: envelope encrypted=%t, local cipher encrypted=%t",
			ErrEncryptionMismatch, envelope.Encrypted, s.cipher.Encrypted())
	}

	maxAge := int64(s.cfg.Crypto.ReplayWindow.Seconds())
	payload, err := s.cipher.Decrypt(envelope, []byte(profileID), maxAge)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *profileService) Apply(ctx context.Context, profileID string, backup bool) error {
	log := logger.FromContext(ctx)

	profile, found, err := s.storages.Profiles.GetProfile(ctx, profileID)
	if err != nil {
		s.recordFailure(ctx, profileID, models.SyncActionApply, err)
		return err
	}
	if !found {
		err = fmt.Errorf("%w: %s", ErrProfileNotFound, profileID)
		s.recordFailure(ctx, profileID, models.SyncActionApply, err)
		return err
	}
	if profile.LocalPath == "" {
		err = fmt.Errorf("%w: %s", ErrNotArchived, profileID)
		s.recordFailure(ctx, profileID, models.SyncActionApply, err)
		return err
	}

	progress := newProgress(models.StateDownloaded)

	// Re-verify on the apply path: the cached archive may have been
	// replaced or corrupted since download.
	checksum, err := s.archiver.Checksum(profile.LocalPath)
	if err != nil {
		err = fmt.Errorf("checksum cached archive: %w", err)
		s.recordFailure(ctx, profileID, models.SyncActionApply, err)
		return err
	}
	if checksum != profile.Checksum {
		err = fmt.Errorf("%w: declared %s, got %s", ErrChecksumMismatch, profile.Checksum, checksum)
		s.recordFailure(ctx, profileID, models.SyncActionApply, err)
		return err
	}
	if err = progress.advance(models.StateVerified); err != nil {
		return err
	}

	if backup {
		backupName := fmt.Sprintf("backup_%s", s.now().UTC().Format("20060102_150405"))
		if _, err = s.CreateFromCurrent(ctx, backupName, "automatic backup before apply", []string{"backup"}, false); err != nil {
			err = fmt.Errorf("backup before apply: %w", err)
			s.recordFailure(ctx, profileID, models.SyncActionApply, err)
			return err
		}
		log.Info().
			Str("func", "profileService.Apply").
			Str("profile_id", profileID).
			Str("backup_name", backupName).
			Msg("backup snapshot created")
	}

	if err = s.archiver.Extract(profile.LocalPath, s.cfg.Archive.ConfigBase); err != nil {
		s.recordFailure(ctx, profileID, models.SyncActionApply, err)
		return err
	}
	if err = progress.advance(models.StateApplied); err != nil {
		return err
	}
	if err = s.recordSuccess(ctx, profileID, models.SyncActionApply); err != nil {
		return err
	}

	log.Info().
		Str("func", "profileService.Apply").
		Str("profile_id", profileID).
		Msg("profile applied")
	return nil
}

func (s *profileService) Delete(ctx context.Context, profileID string, alsoRemote bool) error {
	log := logger.FromContext(ctx)

	profile, found, err := s.storages.Profiles.GetProfile(ctx, profileID)
	if err != nil {
		s.recordFailure(ctx, profileID, models.SyncActionDelete, err)
		return err
	}
	if !found {
		err = fmt.Errorf("%w: %s", ErrProfileNotFound, profileID)
		s.recordFailure(ctx, profileID, models.SyncActionDelete, err)
		return err
	}

	// Partial failures are collected so the action is always logged once,
	// with everything that went wrong.
	var failures []error

	if profile.LocalPath != "" {
		if rmErr := os.Remove(profile.LocalPath); rmErr != nil && !os.IsNotExist(rmErr) {
			failures = append(failures, fmt.Errorf("remove archive: %w", rmErr))
		}
	}

	if delErr := s.storages.Profiles.DeleteProfile(ctx, profileID); delErr != nil {
		failures = append(failures, delErr)
	}

	if alsoRemote {
		if remErr := s.remote.DeleteProfile(ctx, profileID); remErr != nil {
			failures = append(failures, fmt.Errorf("remote delete: %w", remErr))
		}
	}

	if len(failures) > 0 {
		err = errors.Join(failures...)
		s.recordFailure(ctx, profileID, models.SyncActionDelete, err)
		return err
	}
	if err = s.recordSuccess(ctx, profileID, models.SyncActionDelete); err != nil {
		return err
	}

	log.Info().
		Str("func", "profileService.Delete").
		Str("profile_id", profileID).
		Bool("also_remote", alsoRemote).
		Msg("profile deleted")
	return nil
}

func (s *profileService) ListLocal(ctx context.Context) ([]models.ConfigProfile, error) {
	return s.storages.Profiles.ListProfiles(ctx)
}

func (s *profileService) History(ctx context.Context, profileID string) ([]models.SyncRecord, error) {
	return s.storages.SyncHistory.GetHistory(ctx, profileID)
}

func (s *profileService) Search(ctx context.Context, req models.SearchRequest) ([]models.ConfigProfile, error) {
	return s.remote.SearchProfiles(ctx, req)
}

func (s *profileService) AutoSync(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if !s.settings.AutoSync {
		log.Debug().
			Str("func", "profileService.AutoSync").
			Msg("auto-sync disabled, skipping")
		return nil
	}

	interval := time.Duration(s.settings.SyncInterval)
	if interval <= 0 {
		interval = s.cfg.Workers.SyncInterval
	}
	if s.settings.LastSync != nil && s.now().Sub(*s.settings.LastSync) < interval {
		log.Debug().
			Str("func", "profileService.AutoSync").
			Time("last_sync", *s.settings.LastSync).
			Msg("auto-sync interval not yet elapsed, skipping")
		return nil
	}

	profiles, err := s.storages.Profiles.ListProfiles(ctx)
	if err != nil {
		return err
	}

	var failures []error
	for _, profile := range profiles {
		if !profile.Public {
			continue
		}
		if err = s.Upload(ctx, profile.ID); err != nil {
			failures = append(failures, fmt.Errorf("auto-sync upload %s: %w", profile.ID, err))
		}
	}

	lastSync := s.now().UTC()
	s.settings.LastSync = &lastSync
	if err = config.SaveSettings(s.cfg.Storage.SettingsPath, *s.settings); err != nil {
		failures = append(failures, fmt.Errorf("persist last sync time: %w", err))
	}

	if len(failures) > 0 {
		return errors.Join(failures...)
	}

	log.Info().
		Str("func", "profileService.AutoSync").
		Time("last_sync", lastSync).
		Msg("auto-sync finished")
	return nil
}

// recordFailure appends a failed sync record. Recording is itself
// best-effort here: the operation already failed and its original error is
// what the caller gets back.
func (s *profileService) recordFailure(ctx context.Context, profileID string, action models.SyncAction, opErr error) {
	log := logger.FromContext(ctx)

	record := models.SyncRecord{
		ProfileID:    profileID,
		Action:       action,
		Timestamp:    s.now().UTC(),
		Success:      false,
		ErrorMessage: opErr.Error(),
	}
	if err := s.storages.SyncHistory.RecordSync(ctx, record); err != nil {
		log.Err(err).
			Str("func", "profileService.recordFailure").
			Str("profile_id", profileID).
			Str("action", string(action)).
			Msg("failed to record failed sync attempt")
	}
}

// recordSuccess appends a successful sync record. A history write failure
// fails the operation: a sync whose outcome cannot be recorded did not
// complete.
func (s *profileService) recordSuccess(ctx context.Context, profileID string, action models.SyncAction) error {
	record := models.SyncRecord{
		ProfileID: profileID,
		Action:    action,
		Timestamp: s.now().UTC(),
		Success:   true,
	}
	return s.storages.SyncHistory.RecordSync(ctx, record)
}

func deriveProfileID(name string, at time.Time) string {
	sum := sha256.Sum256([]byte(name + "_" + at.Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])[:profileIDLength]
}

func checksumBytes(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
