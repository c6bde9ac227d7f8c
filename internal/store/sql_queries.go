// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-conf-sync/models"
)

// builder is the shared squirrel statement builder. SQLite uses ?
// placeholders, squirrel's default.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

var profileColumns = []string{
	"id",
	"name",
	"description",
	"author",
	"version",
	"created_at",
	"updated_at",
	"tags",
	"components",
	"features",
	"preset",
	"checksum",
	"size",
	"downloads",
	"rating",
	"public",
	"local_path",
	"synced_at",
}

// buildUpsertProfileQuery builds the profile upsert keyed by id. Re-creating
// a profile with the same id overwrites the previous row.
func buildUpsertProfileQuery(p models.ConfigProfile) (string, []any, error) {
	tags, err := json.Marshal(emptyIfNil(p.Tags))
	if err != nil {
		return "", nil, fmt.Errorf("%w: encode tags: %v", ErrBuildingSQLQuery, err)
	}
	components, err := json.Marshal(emptyIfNil(p.Components))
	if err != nil {
		return "", nil, fmt.Errorf("%w: encode components: %v", ErrBuildingSQLQuery, err)
	}
	features, err := json.Marshal(emptyIfNil(p.Features))
	if err != nil {
		return "", nil, fmt.Errorf("%w: encode features: %v", ErrBuildingSQLQuery, err)
	}

	query, args, err := builder.
		Insert("profiles").
		Columns(profileColumns...).
		Values(
			p.ID,
			p.Name,
			p.Description,
			p.Author,
			p.Version,
			p.CreatedAt,
			p.UpdatedAt,
			string(tags),
			string(components),
			string(features),
			p.Preset,
			p.Checksum,
			p.Size,
			p.Downloads,
			p.Rating,
			p.Public,
			p.LocalPath,
			p.SyncedAt,
		).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			name        = excluded.name,
			description = excluded.description,
			author      = excluded.author,
			version     = excluded.version,
			updated_at  = excluded.updated_at,
			tags        = excluded.tags,
			components  = excluded.components,
			features    = excluded.features,
			preset      = excluded.preset,
			checksum    = excluded.checksum,
			size        = excluded.size,
			downloads   = excluded.downloads,
			rating      = excluded.rating,
			public      = excluded.public,
			local_path  = excluded.local_path,
			synced_at   = excluded.synced_at`).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}

func buildGetProfileQuery(id string) (string, []any, error) {
	query, args, err := builder.
		Select(profileColumns...).
		From("profiles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

// buildListProfilesQuery lists all local profiles ordered by most recently
// updated first.
func buildListProfilesQuery() (string, []any, error) {
	query, args, err := builder.
		Select(profileColumns...).
		From("profiles").
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildDeleteProfileQuery(id string) (string, []any, error) {
	query, args, err := builder.
		Delete("profiles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildMarkSyncedQuery(id string, at time.Time) (string, []any, error) {
	query, args, err := builder.
		Update("profiles").
		Set("synced_at", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildInsertSyncRecordQuery(rec models.SyncRecord) (string, []any, error) {
	query, args, err := builder.
		Insert("sync_history").
		Columns("profile_id", "action", "timestamp", "success", "error_message").
		Values(rec.ProfileID, string(rec.Action), rec.Timestamp, rec.Success, rec.ErrorMessage).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildGetSyncHistoryQuery(profileID string) (string, []any, error) {
	query, args, err := builder.
		Select("id", "profile_id", "action", "timestamp", "success", "error_message").
		From("sync_history").
		Where(sq.Eq{"profile_id": profileID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
