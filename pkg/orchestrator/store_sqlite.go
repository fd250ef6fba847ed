// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRunStore persists step records in SQLite.
type SQLiteRunStore struct {
	db *sql.DB
}

// NewSQLiteRunStore creates a SQLite-backed run store and ensures schema.
func NewSQLiteRunStore(db *sql.DB) (*SQLiteRunStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureRunSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteRunStore{db: db}, nil
}

// OpenSQLiteRunStore opens (or creates) the database at path and wraps it.
func OpenSQLiteRunStore(path string) (*SQLiteRunStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteRunStore(db)
}

// Record stores a single step record.
func (s *SQLiteRunStore) Record(ctx context.Context, rec StepRecord) error {
	payload, err := encodeRecordPayload(rec.Payload)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cacm_step_records (
			run_id, cacm_id, step_id, capability, status, error_text, payload_json, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.RunID,
		rec.CACMID,
		rec.StepID,
		rec.Capability,
		rec.Status,
		rec.Error,
		string(payload),
		normalizeRecordTime(rec.StartedAt),
		normalizeRecordTime(rec.FinishedAt),
	)
	return err
}

// List returns step records matching the filter.
func (s *SQLiteRunStore) List(ctx context.Context, filter RecordFilter) ([]StepRecord, error) {
	query := `
		SELECT run_id, cacm_id, step_id, capability, status, error_text, payload_json, started_at, finished_at
		FROM cacm_step_records
	`
	var args []any
	where := ""
	addFilter := func(clause string, value any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}
	if filter.RunID != "" {
		addFilter("run_id = ?", filter.RunID)
	}
	if filter.CACMID != "" {
		addFilter("cacm_id = ?", filter.CACMID)
	}
	if filter.StepID != "" {
		addFilter("step_id = ?", filter.StepID)
	}
	if filter.Status != "" {
		addFilter("status = ?", filter.Status)
	}
	query += where + " ORDER BY started_at ASC, rowid ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []StepRecord
	for rows.Next() {
		var (
			rec         StepRecord
			payloadJSON string
			started     sql.NullTime
			finished    sql.NullTime
		)
		if err := rows.Scan(
			&rec.RunID,
			&rec.CACMID,
			&rec.StepID,
			&rec.Capability,
			&rec.Status,
			&rec.Error,
			&payloadJSON,
			&started,
			&finished,
		); err != nil {
			return nil, err
		}
		if payloadJSON != "" {
			if payload, err := decodeRecordPayload([]byte(payloadJSON)); err == nil {
				rec.Payload = payload
			}
		}
		if started.Valid {
			rec.StartedAt = started.Time
		}
		if finished.Valid {
			rec.FinishedAt = finished.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the underlying database handle.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

func ensureRunSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cacm_step_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			cacm_id TEXT NOT NULL,
			step_id TEXT NOT NULL,
			capability TEXT NOT NULL,
			status TEXT NOT NULL,
			error_text TEXT,
			payload_json TEXT,
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_cacm_step_run ON cacm_step_records(run_id);
		CREATE INDEX IF NOT EXISTS idx_cacm_step_cacm ON cacm_step_records(cacm_id);
		CREATE INDEX IF NOT EXISTS idx_cacm_step_status ON cacm_step_records(status);
	`)
	return err
}

func normalizeRecordTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
