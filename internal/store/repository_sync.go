// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-conf-sync/internal/logger"
	"github.com/MKhiriev/go-conf-sync/models"
)

type syncHistoryRepository struct {
	*DB
	logger *logger.Logger
}

func NewSyncHistoryRepository(db *DB, logger *logger.Logger) SyncHistoryRepository {
	return &syncHistoryRepository{
		DB:     db,
		logger: logger,
	}
}

// RecordSync appends one attempt to the history log. A write failure is
// returned to the caller: a sync whose outcome cannot be recorded is treated
// as a failed sync.
func (r *syncHistoryRepository) RecordSync(ctx context.Context, record models.SyncRecord) error {
	log := logger.FromContext(ctx)

	query, args, err := buildInsertSyncRecordQuery(record)
	if err != nil {
		log.Err(err).
			Str("func", "syncHistoryRepository.RecordSync").
			Str("profile_id", record.ProfileID).
			Msg("failed to build sync history insert")
		return fmt.Errorf("%w: %v", ErrRecordingSync, err)
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "syncHistoryRepository.RecordSync").
			Str("profile_id", record.ProfileID).
			Str("action", string(record.Action)).
			Msg("failed to execute sync history insert")
		return fmt.Errorf("%w: %v", ErrRecordingSync, err)
	}

	return nil
}

func (r *syncHistoryRepository) GetHistory(ctx context.Context, profileID string) ([]models.SyncRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildGetSyncHistoryQuery(profileID)
	if err != nil {
		log.Err(err).
			Str("func", "syncHistoryRepository.GetHistory").
			Str("profile_id", profileID).
			Msg("failed to build sync history select")
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "syncHistoryRepository.GetHistory").
			Str("profile_id", profileID).
			Msg("failed to execute sync history select")
		return nil, fmt.Errorf("failed to get sync history (profile_id=%s): %w", profileID, err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.SyncRecord
	for rows.Next() {
		var (
			record models.SyncRecord
			action string
		)
		err = rows.Scan(
			&record.ID,
			&record.ProfileID,
			&action,
			&record.Timestamp,
			&record.Success,
			&record.ErrorMessage,
		)
		if err != nil {
			log.Err(err).
				Str("func", "syncHistoryRepository.GetHistory").
				Str("profile_id", profileID).
				Msg("failed to scan sync history row")
			return nil, fmt.Errorf("%w: %v", ErrScanningRow, err)
		}
		record.Action = models.SyncAction(action)
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync history rows: %w", err)
	}

	return records, nil
}
