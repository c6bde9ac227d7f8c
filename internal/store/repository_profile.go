// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-conf-sync/internal/logger"
	"github.com/MKhiriev/go-conf-sync/models"
)

type profileRepository struct {
	*DB
	logger *logger.Logger
}

func NewProfileRepository(db *DB, logger *logger.Logger) ProfileRepository {
	return &profileRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *profileRepository) SaveProfile(ctx context.Context, profile models.ConfigProfile) error {
	log := logger.FromContext(ctx)

	query, args, err := buildUpsertProfileQuery(profile)
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.SaveProfile").
			Str("profile_id", profile.ID).
			Msg("failed to build profile upsert")
		return err
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "profileRepository.SaveProfile").
			Str("profile_id", profile.ID).
			Msg("failed to execute profile upsert")
		return fmt.Errorf("failed to save profile (id=%s): %w", profile.ID, err)
	}

	return nil
}

func (r *profileRepository) GetProfile(ctx context.Context, id string) (models.ConfigProfile, bool, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildGetProfileQuery(id)
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.GetProfile").
			Str("profile_id", id).
			Msg("failed to build profile select")
		return models.ConfigProfile{}, false, err
	}

	row := r.DB.QueryRowContext(ctx, query, args...)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ConfigProfile{}, false, nil
	}
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.GetProfile").
			Str("profile_id", id).
			Msg("failed to scan profile row")
		return models.ConfigProfile{}, false, err
	}

	return profile, true, nil
}

func (r *profileRepository) ListProfiles(ctx context.Context) ([]models.ConfigProfile, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListProfilesQuery()
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.ListProfiles").
			Msg("failed to build profile list select")
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.ListProfiles").
			Msg("failed to execute profile list select")
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles []models.ConfigProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			log.Err(err).
				Str("func", "profileRepository.ListProfiles").
				Msg("failed to scan profile row")
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profile rows: %w", err)
	}

	return profiles, nil
}

func (r *profileRepository) DeleteProfile(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	query, args, err := buildDeleteProfileQuery(id)
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.DeleteProfile").
			Str("profile_id", id).
			Msg("failed to build profile delete")
		return err
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "profileRepository.DeleteProfile").
			Str("profile_id", id).
			Msg("failed to execute profile delete")
		return fmt.Errorf("failed to delete profile (id=%s): %w", id, err)
	}

	return nil
}

func (r *profileRepository) MarkSynced(ctx context.Context, id string, at time.Time) error {
	log := logger.FromContext(ctx)

	query, args, err := buildMarkSyncedQuery(id, at)
	if err != nil {
		log.Err(err).
			Str("func", "profileRepository.MarkSynced").
			Str("profile_id", id).
			Msg("failed to build synced_at update")
		return err
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "profileRepository.MarkSynced").
			Str("profile_id", id).
			Msg("failed to execute synced_at update")
		return fmt.Errorf("failed to mark profile synced (id=%s): %w", id, err)
	}

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (models.ConfigProfile, error) {
	var (
		profile    models.ConfigProfile
		tags       string
		components string
		features   string
		syncedAt   sql.NullTime
	)

	err := row.Scan(
		&profile.ID,
		&profile.Name,
		&profile.Description,
		&profile.Author,
		&profile.Version,
		&profile.CreatedAt,
		&profile.UpdatedAt,
		&tags,
		&components,
		&features,
		&profile.Preset,
		&profile.Checksum,
		&profile.Size,
		&profile.Downloads,
		&profile.Rating,
		&profile.Public,
		&profile.LocalPath,
		&syncedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ConfigProfile{}, err
	}
	if err != nil {
		return models.ConfigProfile{}, fmt.Errorf("%w: %v", ErrScanningRow, err)
	}

	if err = json.Unmarshal([]byte(tags), &profile.Tags); err != nil {
		return models.ConfigProfile{}, fmt.Errorf("%w: decode tags: %v", ErrScanningRow, err)
	}
	if err = json.Unmarshal([]byte(components), &profile.Components); err != nil {
		return models.ConfigProfile{}, fmt.Errorf("%w: decode components: %v", ErrScanningRow, err)
	}
	if err = json.Unmarshal([]byte(features), &profile.Features); err != nil {
		return models.ConfigProfile{}, fmt.Errorf("%w: decode features: %v", ErrScanningRow, err)
	}
	if syncedAt.Valid {
		t := syncedAt.Time
		profile.SyncedAt = &t
	}

	return profile, nil
}
