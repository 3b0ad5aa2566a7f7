// ABOUTME: Database operations for hist_contacts
// ABOUTME: Batched gap-preserving upserts keyed on email, lookups, purchase updates and funnel counts
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/leadledger/models"
	"github.com/shopspring/decimal"
)

// DefaultBatchSize is how many contacts go into one upsert transaction.
const DefaultBatchSize = 500

// contactColumns is the column order shared by inserts and selects.
var contactColumns = []string{
	"email", "first_name", "last_name", "phone", "instagram", "facebook",
	"mc_id", "ghl_id", "user_id", "thread_id", "ad_id",
	"stage", "reached_stage", "ad_type", "paid_vs_organic", "trigger_word", "campaign_name", "platform",
	"symptoms", "months_pp", "objections", "ab_test", "sent_link", "clicked_link", "booked", "attended",
	"first_seen", "last_seen", "subscription_date", "purchase_date",
	"has_purchase", "purchase_amount",
	"source", "import_batch_id", "is_suspicious", "data_quality_notes",
}

// contactFields returns pointers to c's fields in contactColumns order. The
// same slice serves as Exec args (database/sql dereferences them) and as Scan
// destinations.
func contactFields(c *models.Contact) []any {
	return []any{
		&c.Email, &c.FirstName, &c.LastName, &c.Phone, &c.Instagram, &c.Facebook,
		&c.MCID, &c.GHLID, &c.UserID, &c.ThreadID, &c.AdID,
		&c.Stage, &c.ReachedStage, &c.AdType, &c.PaidVsOrganic, &c.TriggerWord, &c.CampaignName, &c.Platform,
		&c.Symptoms, &c.MonthsPP, &c.Objections, &c.ABTest, &c.SentLink, &c.ClickedLink, &c.Booked, &c.Attended,
		&c.FirstSeen, &c.LastSeen, &c.SubscriptionDate, &c.PurchaseDate,
		&c.HasPurchase, &c.PurchaseAmount,
		&c.Source, &c.ImportBatchID, &c.IsSuspicious, &c.DataQualityNotes,
	}
}

func contactArgs(c *models.Contact) []any {
	fields := contactFields(c)
	args := make([]any, len(fields))
	for i, f := range fields {
		switch v := f.(type) {
		case *string:
			args[i] = *v
		case **string:
			args[i] = *v
		case **time.Time:
			if *v == nil {
				args[i] = nil
			} else {
				args[i] = (*v).UTC()
			}
		case **bool:
			args[i] = *v
		case *bool:
			args[i] = *v
		case *decimal.NullDecimal:
			args[i] = *v
		}
	}
	return args
}

var upsertContactSQL = buildUpsertContactSQL()

// buildUpsertContactSQL keeps known values when the incoming row has none,
// and never clears a recorded purchase or demotes a purchased contact.
func buildUpsertContactSQL() string {
	cols := append(append([]string{}, contactColumns...), "created_at", "updated_at")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	var sets []string
	for _, col := range contactColumns {
		switch col {
		case "email":
			continue
		case "has_purchase":
			sets = append(sets, "has_purchase = CASE WHEN excluded.has_purchase = 1 THEN 1 ELSE COALESCE(hist_contacts.has_purchase, excluded.has_purchase) END")
		case "reached_stage":
			sets = append(sets, "reached_stage = CASE WHEN hist_contacts.reached_stage = '"+models.StagePurchased+"' THEN hist_contacts.reached_stage ELSE COALESCE(excluded.reached_stage, hist_contacts.reached_stage) END")
		case "source", "import_batch_id", "is_suspicious":
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", col, col))
		default:
			sets = append(sets, fmt.Sprintf("%s = COALESCE(excluded.%s, hist_contacts.%s)", col, col, col))
		}
	}
	sets = append(sets, "updated_at = excluded.updated_at")

	return fmt.Sprintf("INSERT INTO hist_contacts (%s) VALUES (%s) ON CONFLICT(email) DO UPDATE SET %s",
		strings.Join(cols, ", "), placeholders, strings.Join(sets, ", "))
}

// UpsertContacts writes contacts in transactions of batchSize rows. It returns
// how many rows were written before the first failure.
func UpsertContacts(ctx context.Context, db *sql.DB, contacts []*models.Contact, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	written := 0
	for start := 0; start < len(contacts); start += batchSize {
		end := min(start+batchSize, len(contacts))
		if err := upsertContactBatch(ctx, db, contacts[start:end]); err != nil {
			return written, fmt.Errorf("failed to upsert contacts %d-%d: %w", start+1, end, err)
		}
		written += end - start
	}
	return written, nil
}

func upsertContactBatch(ctx context.Context, db *sql.DB, batch []*models.Contact) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertContactSQL)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, c := range batch {
		args := append(contactArgs(c), now, now)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("%s: %w", c.Email, err)
		}
	}
	return tx.Commit()
}

// GetContact returns the stored contact for email, or nil if there is none.
func GetContact(ctx context.Context, db *sql.DB, email string) (*models.Contact, error) {
	var c models.Contact
	query := fmt.Sprintf("SELECT %s FROM hist_contacts WHERE email = ?", strings.Join(contactColumns, ", "))
	err := db.QueryRowContext(ctx, query, email).Scan(contactFields(&c)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &c, nil
}

// FindContacts matches query against email and names. An empty query lists
// the most recently updated contacts.
func FindContacts(ctx context.Context, db *sql.DB, query string, limit int) ([]*models.Contact, error) {
	if limit <= 0 {
		limit = 50
	}

	sqlQuery := fmt.Sprintf("SELECT %s FROM hist_contacts", strings.Join(contactColumns, ", "))
	var args []any
	if query != "" {
		sqlQuery += " WHERE email LIKE ? OR first_name LIKE ? OR last_name LIKE ?"
		pattern := "%" + query + "%"
		args = append(args, pattern, pattern, pattern)
	}
	sqlQuery += " ORDER BY updated_at DESC, email LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contacts []*models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(contactFields(&c)...); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}

// ExistingSources returns the stored source of every email in emails that is
// already present.
func ExistingSources(ctx context.Context, db *sql.DB, emails []string) (map[string]string, error) {
	sources := make(map[string]string)

	// Stay well under SQLite's bound parameter limit.
	const chunk = 500
	for start := 0; start < len(emails); start += chunk {
		part := emails[start:min(start+chunk, len(emails))]
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(part)), ", ")
		args := make([]any, len(part))
		for i, e := range part {
			args[i] = e
		}

		rows, err := db.QueryContext(ctx,
			"SELECT email, source FROM hist_contacts WHERE email IN ("+placeholders+")", args...)
		if err != nil {
			return nil, fmt.Errorf("failed to look up existing contacts: %w", err)
		}
		for rows.Next() {
			var email, source string
			if err := rows.Scan(&email, &source); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("failed to scan existing contact: %w", err)
			}
			sources[email] = source
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return sources, nil
}

// UpdateContactPurchase marks an existing contact as a buyer. It reports
// whether a contact with that email exists.
func UpdateContactPurchase(ctx context.Context, db *sql.DB, email string, purchaseDate time.Time, amount decimal.Decimal) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE hist_contacts
		SET has_purchase = 1,
			purchase_date = ?,
			purchase_amount = ?,
			reached_stage = ?,
			updated_at = ?
		WHERE email = ?
	`, purchaseDate.UTC(), amount, models.StagePurchased, time.Now().UTC(), email)
	if err != nil {
		return false, fmt.Errorf("failed to update purchase for %s: %w", email, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update purchase for %s: %w", email, err)
	}
	return n > 0, nil
}

func CountContacts(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hist_contacts").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return n, nil
}

// FunnelCounts returns how many contacts reached each stage, in funnel order.
// Stages nobody reached are included with a zero count; unknown stage labels
// follow in alphabetical order.
func FunnelCounts(ctx context.Context, db *sql.DB) ([]models.FunnelCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT COALESCE(reached_stage, ?), COUNT(*)
		FROM hist_contacts
		GROUP BY 1
		ORDER BY 1
	`, models.StageContacted)
	if err != nil {
		return nil, fmt.Errorf("failed to count funnel stages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	var extra []string
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, fmt.Errorf("failed to scan funnel stage: %w", err)
		}
		counts[stage] = n
		if !isFunnelStage(stage) {
			extra = append(extra, stage)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.FunnelCount, 0, len(models.FunnelStages)+len(extra))
	for _, stage := range append(append([]string{}, models.FunnelStages...), extra...) {
		out = append(out, models.FunnelCount{Stage: stage, Count: counts[stage]})
	}
	return out, nil
}

func isFunnelStage(stage string) bool {
	for _, s := range models.FunnelStages {
		if s == stage {
			return true
		}
	}
	return false
}

// DeleteBatch removes everything a single import run wrote. Contacts that a
// later run touched are left alone.
func DeleteBatch(ctx context.Context, db *sql.DB, batchID string) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin purge: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for _, table := range []string{"hist_timeline", "hist_payments", "hist_contacts"} {
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE import_batch_id = ?", batchID)
		if err != nil {
			return 0, fmt.Errorf("failed to purge %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM hist_import_logs WHERE id = ?", batchID); err != nil {
		return 0, fmt.Errorf("failed to purge import log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit purge: %w", err)
	}
	return total, nil
}
