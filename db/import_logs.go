// ABOUTME: Database operations for hist_import_logs
// ABOUTME: Records one audit row per import run and lists recent runs
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/leadledger/models"
)

// CreateImportLog stores log, assigning a batch id if it has none.
func CreateImportLog(ctx context.Context, db *sql.DB, log *models.ImportLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	errs, err := encodeMessages(log.Errors)
	if err != nil {
		return err
	}
	warnings, err := encodeMessages(log.Warnings)
	if err != nil {
		return err
	}

	var completed any
	if !log.CompletedAt.IsZero() {
		completed = log.CompletedAt.UTC()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO hist_import_logs (
			id, source_file, source_type, rows_processed, rows_imported, rows_skipped,
			rows_updated, errors, warnings, import_started_at, import_completed_at,
			imported_by, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		log.ID.String(), log.SourceFile, log.SourceType, log.RowsProcessed, log.RowsImported,
		log.RowsSkipped, log.RowsUpdated, errs, warnings, log.StartedAt.UTC(), completed,
		log.ImportedBy, log.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create import log: %w", err)
	}
	return nil
}

// ListImportLogs returns the most recent runs first.
func ListImportLogs(ctx context.Context, db *sql.DB, limit int) ([]*models.ImportLog, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, source_file, source_type, rows_processed, rows_imported, rows_skipped,
			rows_updated, errors, warnings, import_started_at, import_completed_at,
			imported_by, notes
		FROM hist_import_logs
		ORDER BY import_started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []*models.ImportLog
	for rows.Next() {
		var l models.ImportLog
		var id string
		var errs, warnings, importedBy, notes sql.NullString
		var completed sql.NullTime

		err := rows.Scan(
			&id, &l.SourceFile, &l.SourceType, &l.RowsProcessed, &l.RowsImported, &l.RowsSkipped,
			&l.RowsUpdated, &errs, &warnings, &l.StartedAt, &completed, &importedBy, &notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", err)
		}

		if l.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse import log id %q: %w", id, err)
		}
		if l.Errors, err = decodeMessages(errs); err != nil {
			return nil, err
		}
		if l.Warnings, err = decodeMessages(warnings); err != nil {
			return nil, err
		}
		if completed.Valid {
			l.CompletedAt = completed.Time
		}
		l.ImportedBy = importedBy.String
		l.Notes = notes.String

		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

func encodeMessages(msgs []string) (any, error) {
	if len(msgs) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode messages: %w", err)
	}
	return string(raw), nil
}

func decodeMessages(s sql.NullString) ([]string, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var msgs []string
	if err := json.Unmarshal([]byte(s.String), &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return msgs, nil
}
