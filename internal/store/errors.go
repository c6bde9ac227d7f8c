// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

var (
	ErrDatabaseConnection = errors.New("database connection error")
	ErrMigration          = errors.New("database migration error")
	ErrBuildingSQLQuery   = errors.New("error building sql query")
	ErrExecutingSQLQuery  = errors.New("error executing sql query")
	ErrScanningRow        = errors.New("error scanning row")
	ErrRecordingSync      = errors.New("error recording sync history")
)
