// ABOUTME: Database operations for hist_timeline
// ABOUTME: Appends per-contact events with JSON details and lists a contact's history
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/leadledger/models"
)

// InsertTimelineEvents appends events in one transaction.
func InsertTimelineEvents(ctx context.Context, db *sql.DB, events []*models.TimelineEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin timeline insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO hist_timeline (id, email, event_type, event_date, source, import_batch_id, event_details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare timeline insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, e := range events {
		if e.ID == "" {
			e.ID = newID()
		}

		var details any
		if len(e.Details) > 0 {
			raw, err := json.Marshal(e.Details)
			if err != nil {
				return 0, fmt.Errorf("failed to encode event details: %w", err)
			}
			details = string(raw)
		}

		_, err := stmt.ExecContext(ctx, e.ID, e.Email, e.EventType, e.EventDate.UTC(), e.Source, e.ImportBatchID, details, now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert %s event for %s: %w", e.EventType, e.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit timeline: %w", err)
	}
	return len(events), nil
}

// ListTimeline returns the events for email in date order.
func ListTimeline(ctx context.Context, db *sql.DB, email string) ([]*models.TimelineEvent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, email, event_type, event_date, source, import_batch_id, event_details
		FROM hist_timeline
		WHERE email = ?
		ORDER BY event_date, id
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*models.TimelineEvent
	for rows.Next() {
		var e models.TimelineEvent
		var batch, details sql.NullString
		if err := rows.Scan(&e.ID, &e.Email, &e.EventType, &e.EventDate, &e.Source, &batch, &details); err != nil {
			return nil, fmt.Errorf("failed to scan timeline event: %w", err)
		}
		e.ImportBatchID = batch.String
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				return nil, fmt.Errorf("failed to decode event details: %w", err)
			}
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
