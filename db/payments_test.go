// ABOUTME: Tests for hist_payments, hist_timeline and hist_import_logs operations
// ABOUTME: Covers id assignment, append-only reruns, revenue aggregation and log round trips
package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/leadledger/models"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayments() []*models.Payment {
	return []*models.Payment{
		{Email: "jo@acme.io", Amount: decimal.RequireFromString("0.10"), PaymentDate: day(2024, 3, 1), PaymentType: models.PaymentBuyInFull, Source: models.SourceStripe, PackageName: models.String("VIP")},
		{Email: "jo@acme.io", Amount: decimal.RequireFromString("0.20"), PaymentDate: day(2024, 3, 2), PaymentType: models.PaymentBuyInFull, Source: models.SourceStripe},
		{Email: "jo@acme.io", Amount: decimal.RequireFromString("-0.10"), PaymentDate: day(2024, 3, 3), PaymentType: models.PaymentRefund, Source: models.SourceStripe},
		{Email: "al@acme.io", Amount: decimal.NewFromInt(3000), PaymentDate: day(2024, 2, 1), PaymentType: models.PaymentBuyNowPayLater, Source: models.SourceDenefits},
	}
}

func TestInsertPaymentsAssignsIDs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	payments := samplePayments()
	n, err := InsertPayments(ctx, db, payments)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	for _, p := range payments {
		_, err := ulid.Parse(p.ID)
		assert.NoError(t, err, "payment id should be a ULID")
		assert.Equal(t, models.DefaultCurrency, p.Currency)
	}

	got, err := ListPayments(ctx, db, "jo@acme.io")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "0.1", got[0].Amount.String())
	assert.Equal(t, "VIP", models.Deref(got[0].PackageName))
	assert.True(t, got[2].IsRefund())
}

func TestInsertPaymentsRerunAppends(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := InsertPayments(ctx, db, samplePayments())
	require.NoError(t, err)
	_, err = InsertPayments(ctx, db, samplePayments())
	require.NoError(t, err)

	n, err := CountPayments(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestInsertPaymentsEmpty(t *testing.T) {
	db := setupTestDB(t)

	n, err := InsertPayments(context.Background(), db, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRevenueBySource(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := InsertPayments(ctx, db, samplePayments())
	require.NoError(t, err)

	got, err := RevenueBySource(ctx, db)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, models.SourceDenefits, got[0].Source)
	assert.Equal(t, 1, got[0].Payments)
	assert.Equal(t, "3000", got[0].Revenue.String())

	assert.Equal(t, models.SourceStripe, got[1].Source)
	assert.Equal(t, 2, got[1].Payments)
	assert.Equal(t, "0.3", got[1].Revenue.String(), "sums must be exact")
	assert.Equal(t, "0.1", got[1].Refunds.String())
}

func TestTimelineRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	events := []*models.TimelineEvent{
		{Email: "jo@acme.io", EventType: models.EventPurchased, EventDate: day(2024, 3, 1), Source: models.SourceStripe, Details: map[string]any{"amount": "150.00", "payment_type": models.PaymentBuyInFull}},
		{Email: "jo@acme.io", EventType: models.EventContactCreated, EventDate: day(2024, 1, 1), Source: models.SourceGoogleSheets},
	}
	n, err := InsertTimelineEvents(ctx, db, events)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := ListTimeline(ctx, db, "jo@acme.io")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, models.EventContactCreated, got[0].EventType)
	assert.Nil(t, got[0].Details)
	assert.Equal(t, models.EventPurchased, got[1].EventType)
	assert.Equal(t, "150.00", got[1].Details["amount"])
}

func TestImportLogRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	started := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	older := &models.ImportLog{
		SourceFile: "old.csv",
		SourceType: models.SourceAirtable,
		StartedAt:  started.Add(-time.Hour),
	}
	newer := &models.ImportLog{
		SourceFile:    "contacts.csv",
		SourceType:    models.SourceGoogleSheets,
		RowsProcessed: 10,
		RowsImported:  7,
		RowsSkipped:   3,
		Errors:        []string{"Row 4: No email found"},
		Warnings:      []string{"Duplicate email a@acme.io: kept more complete record"},
		StartedAt:     started,
		CompletedAt:   started.Add(2 * time.Second),
		ImportedBy:    "cli",
		Notes:         "first run",
	}

	require.NoError(t, CreateImportLog(ctx, db, older))
	require.NoError(t, CreateImportLog(ctx, db, newer))
	assert.NotEqual(t, uuid.Nil, newer.ID)

	logs, err := ListImportLogs(ctx, db, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	got := logs[0]
	assert.Equal(t, newer.ID, got.ID)
	assert.Equal(t, "contacts.csv", got.SourceFile)
	assert.Equal(t, 7, got.RowsImported)
	assert.Equal(t, newer.Errors, got.Errors)
	assert.Equal(t, newer.Warnings, got.Warnings)
	assert.Equal(t, 2*time.Second, got.Duration())
	assert.Equal(t, "first run", got.Notes)

	assert.Nil(t, logs[1].Errors)
	assert.True(t, logs[1].CompletedAt.IsZero())

	limited, err := ListImportLogs(ctx, db, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
