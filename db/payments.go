// ABOUTME: Database operations for hist_payments
// ABOUTME: Appends payments with ULID ids and aggregates revenue per source with exact decimals
package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/harperreed/leadledger/models"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// newID returns a time-ordered unique id for append-only rows.
func newID() string {
	return ulid.Make().String()
}

// InsertPayments appends payments in one transaction, assigning ids to those
// without one. Payments are never deduplicated: importing the same file twice
// stores every payment twice.
func InsertPayments(ctx context.Context, db *sql.DB, payments []*models.Payment) (int, error) {
	if len(payments) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin payment insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO hist_payments (
			id, email, amount, currency, payment_date, payment_type, source,
			external_id, package_name, status, import_batch_id, is_suspicious,
			data_quality_notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare payment insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, p := range payments {
		if p.ID == "" {
			p.ID = newID()
		}
		if p.Currency == "" {
			p.Currency = models.DefaultCurrency
		}
		_, err := stmt.ExecContext(ctx,
			p.ID, p.Email, p.Amount, p.Currency, p.PaymentDate.UTC(), p.PaymentType, p.Source,
			p.ExternalID, p.PackageName, p.Status, p.ImportBatchID, p.IsSuspicious,
			p.DataQualityNotes, now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert payment for %s: %w", p.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit payments: %w", err)
	}
	return len(payments), nil
}

// ListPayments returns the payments stored for email, oldest first.
func ListPayments(ctx context.Context, db *sql.DB, email string) ([]*models.Payment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, email, amount, currency, payment_date, payment_type, source,
			external_id, package_name, status, import_batch_id, is_suspicious, data_quality_notes
		FROM hist_payments
		WHERE email = ?
		ORDER BY payment_date, id
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var payments []*models.Payment
	for rows.Next() {
		var p models.Payment
		var batch sql.NullString
		err := rows.Scan(
			&p.ID, &p.Email, &p.Amount, &p.Currency, &p.PaymentDate, &p.PaymentType, &p.Source,
			&p.ExternalID, &p.PackageName, &p.Status, &batch, &p.IsSuspicious, &p.DataQualityNotes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.ImportBatchID = batch.String
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

func CountPayments(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hist_payments").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return n, nil
}

// RevenueBySource sums stored payments per source. Amounts are summed in Go
// so that money never passes through floating point.
func RevenueBySource(ctx context.Context, db *sql.DB) ([]models.RevenueBreakdown, error) {
	rows, err := db.QueryContext(ctx, "SELECT source, amount, payment_type FROM hist_payments")
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue: %w", err)
	}
	defer func() { _ = rows.Close() }()

	bySource := make(map[string]*models.RevenueBreakdown)
	for rows.Next() {
		var source, paymentType string
		var amount decimal.Decimal
		if err := rows.Scan(&source, &amount, &paymentType); err != nil {
			return nil, fmt.Errorf("failed to scan revenue row: %w", err)
		}

		b, ok := bySource[source]
		if !ok {
			b = &models.RevenueBreakdown{Source: source}
			bySource[source] = b
		}
		if paymentType == models.PaymentRefund {
			b.Refunds = b.Refunds.Add(amount.Abs())
			continue
		}
		b.Payments++
		b.Revenue = b.Revenue.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.RevenueBreakdown, 0, len(bySource))
	for _, b := range bySource {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out, nil
}
