// ABOUTME: Tests for the CSV importers and the unified loader against an in-memory store
// ABOUTME: Covers dedupe warnings, provenance merging, buyer updates, reruns, metrics and summaries
package importer

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/leadledger/csvio"
	"github.com/harperreed/leadledger/db"
	"github.com/harperreed/leadledger/mapping"
	"github.com/harperreed/leadledger/models"
	"github.com/harperreed/leadledger/unify"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

var testNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.InitSchema(database))
	return database
}

func newTestImporter(t *testing.T, database *sql.DB) (*Importer, *Metrics) {
	t.Helper()
	metrics := NewMetrics()
	imp := New(database, Options{
		Metrics: metrics,
		Out:     &bytes.Buffer{},
		Now:     func() time.Time { return testNow },
	})
	return imp, metrics
}

func writeCSV(t *testing.T, name string, header []string, records [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, csvio.WriteFile(path, header, records))
	return path
}

func sheetsFixture(t *testing.T) string {
	return writeCSV(t, "sheets.csv",
		[]string{"Email", "First Name", "Last Name", "Phone", "Timestamp", "Purchase Date"},
		[][]string{
			{"Jo@Acme.io", "Jo", "", "", "2024-01-02", ""},
			{"jo@acme.io ", "Jo", "Smith", "(555) 123-4567", "2024-01-02", ""},
			{"", "Nobody", "", "", "", ""},
			{"al@acme.io", "Al", "", "", "", "2024-02-10"},
		})
}

func TestImportSheets(t *testing.T) {
	database := setupTestDB(t)
	imp, metrics := newTestImporter(t, database)
	ctx := context.Background()

	b, err := imp.ImportSheets(ctx, sheetsFixture(t))
	require.NoError(t, err)

	assert.Equal(t, "sheets.csv", b.SourceFile)
	assert.Equal(t, 4, b.Processed)
	assert.Equal(t, 2, b.Imported)
	assert.Equal(t, 0, b.Updated)
	assert.Equal(t, 1, b.Skipped)
	assert.Equal(t, 2, b.TimelineEvents)
	assert.Empty(t, b.Errors)
	assert.Contains(t, b.Warnings, "Row 2: No email found")
	assert.Contains(t, b.Warnings, "Duplicate email jo@acme.io: kept more complete record")

	jo, err := db.GetContact(ctx, database, "jo@acme.io")
	require.NoError(t, err)
	require.NotNil(t, jo)
	assert.Equal(t, "Smith", models.Deref(jo.LastName))
	assert.Equal(t, "5551234567", models.Deref(jo.Phone))
	assert.Equal(t, b.BatchID(), jo.ImportBatchID)

	al, err := db.GetContact(ctx, database, "al@acme.io")
	require.NoError(t, err)
	assert.True(t, *al.HasPurchase)
	assert.Equal(t, models.StagePurchased, models.Deref(al.ReachedStage))

	logs, err := db.ListImportLogs(ctx, database, 5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, b.ID, logs[0].ID)
	assert.Equal(t, models.SourceGoogleSheets, logs[0].SourceType)
	assert.Equal(t, ImportedBy, logs[0].ImportedBy)

	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.rows.WithLabelValues(models.SourceGoogleSheets, "processed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.rows.WithLabelValues(models.SourceGoogleSheets, "skipped")))
}

func TestImportSheetsRerunIsIdempotent(t *testing.T) {
	database := setupTestDB(t)
	imp, _ := newTestImporter(t, database)
	ctx := context.Background()
	path := sheetsFixture(t)

	_, err := imp.ImportSheets(ctx, path)
	require.NoError(t, err)
	b, err := imp.ImportSheets(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, 0, b.Imported)
	assert.Equal(t, 2, b.Updated)

	n, err := db.CountContacts(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportAirtableMergesProvenance(t *testing.T) {
	database := setupTestDB(t)
	imp, _ := newTestImporter(t, database)
	ctx := context.Background()

	_, err := imp.ImportSheets(ctx, sheetsFixture(t))
	require.NoError(t, err)

	// Two "Email" columns: the first is blank for cy, the second carries it.
	path := writeCSV(t, "airtable.csv",
		[]string{"Email", "First Name", "Email", "Trigger Word"},
		[][]string{
			{"jo@acme.io", "Joanna", "", "HEAL"},
			{"", "Cy", "cy@acme.io", ""},
		})

	b, err := imp.ImportAirtable(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Imported)
	assert.Equal(t, 1, b.Updated)
	assert.Equal(t, 0, b.Skipped)

	jo, err := db.GetContact(ctx, database, "jo@acme.io")
	require.NoError(t, err)
	assert.Equal(t, models.SourceMerged, jo.Source)
	assert.Equal(t, "Merged from google_sheets and airtable", models.Deref(jo.DataQualityNotes))
	assert.Equal(t, "HEAL", models.Deref(jo.TriggerWord))
	assert.Equal(t, "Smith", models.Deref(jo.LastName), "stored values survive the upsert")

	cy, err := db.GetContact(ctx, database, "cy@acme.io")
	require.NoError(t, err)
	require.NotNil(t, cy)
	assert.Equal(t, models.SourceAirtable, cy.Source)
}

func TestImportContactsNoValidRecords(t *testing.T) {
	database := setupTestDB(t)
	imp, _ := newTestImporter(t, database)

	path := writeCSV(t, "empty.csv", []string{"Email", "First Name"}, [][]string{
		{"", "A"},
		{"not-an-email", "B"},
	})

	b, err := imp.ImportSheets(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoValidRecords))
	assert.Equal(t, 2, b.Skipped)

	logs, err := db.ListImportLogs(context.Background(), database, 5)
	require.NoError(t, err)
	assert.Empty(t, logs, "a run without records writes no log")
}

func TestImportMissingFile(t *testing.T) {
	database := setupTestDB(t)
	imp, _ := newTestImporter(t, database)

	_, err := imp.ImportAirtable(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoValidRecords))
}

func stripeFixture(t *testing.T) string {
	return writeCSV(t, "stripe.csv",
		[]string{"id", "Customer Email", "Amount", "Created", "Status"},
		[][]string{
			{"ch_1", "jo@acme.io", "100", "2024-03-05", "Paid"},
			{"ch_2", "jo@acme.io", "50", "2024-03-01", "Paid"},
			{"ch_3", "jo@acme.io", "20", "2024-03-07", "Refunded"},
			{"ch_4", "jo@acme.io", "", "2024-03-08", "Paid"},
			{"ch_5", "ghost@acme.io", "7000", "2024-03-09", "Paid"},
		})
}

func TestImportStripe(t *testing.T) {
	database := setupTestDB(t)
	imp, _ := newTestImporter(t, database)
	ctx := context.Background()

	_, err := imp.ImportSheets(ctx, sheetsFixture(t))
	require.NoError(t, err)

	pb, err := imp.ImportStripe(ctx, stripeFixture(t))
	require.NoError(t, err)

	assert.Equal(t, 5, pb.Processed)
	assert.Equal(t, 4, pb.Imported)
	assert.Equal(t, 1, pb.Skipped)
	assert.Equal(t, 1, pb.Updated, "only stored contacts are updated")
	assert.Equal(t, 3, pb.TimelineEvents, "refunds get no purchase event")
	assert.Contains(t, pb.Warnings, "Row 3: Missing required fields (email, amount, or date)")

	assert.Equal(t, "7150.00", pb.Revenue.StringFixed(2))
	assert.Equal(t, "20.00", pb.Refunds.StringFixed(2))
	assert.Equal(t, "7130.00", pb.NetRevenue().StringFixed(2))

	jo, err := db.GetContact(ctx, database, "jo@acme.io")
	require.NoError(t, err)
	assert.True(t, *jo.HasPurchase)
	assert.Equal(t, "150", jo.PurchaseAmount.Decimal.String())
	assert.Equal(t, "2024-03-01", jo.PurchaseDate.Format("2006-01-02"))
	assert.Equal(t, models.StagePurchased, models.Deref(jo.ReachedStage))

	ghost, err := db.GetContact(ctx, database, "ghost@acme.io")
	require.NoError(t, err)
	assert.Nil(t, ghost, "payments never create contacts")

	logs, err := db.ListImportLogs(ctx, database, 1)
	require.NoError(t, err)
	assert.Equal(t, "Imported 4 stripe payments, updated 1 contacts", logs[0].Notes)
}

func TestImportStripeRerunAppendsPayments(t *testing.T) {
	database := setupTestDB(t)
	imp, _ := newTestImporter(t, database)
	ctx := context.Background()
	path := stripeFixture(t)

	_, err := imp.ImportStripe(ctx, path)
	require.NoError(t, err)
	_, err = imp.ImportStripe(ctx, path)
	require.NoError(t, err)

	n, err := db.CountPayments(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestImportDenefits(t *testing.T) {
	database := setupTestDB(t)
	imp, _ := newTestImporter(t, database)
	ctx := context.Background()

	path := writeCSV(t, "denefits.csv",
		[]string{"Contract ID", "Customer Email", "Financed Amount", "Contract Date"},
		[][]string{{"c-1", "cy@acme.io", "$3,000.00", "2024-02-01"}})

	pb, err := imp.ImportDenefits(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, pb.Imported)
	assert.Equal(t, "3000.00", pb.Revenue.StringFixed(2))

	payments, err := db.ListPayments(ctx, database, "cy@acme.io")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentBuyNowPayLater, payments[0].PaymentType)
	assert.Equal(t, "c-1", models.Deref(payments[0].ExternalID))
}

func TestBuyersEarliestDateAndSum(t *testing.T) {
	stripeRows := []mapping.Row{
		{"Customer Email": "b@acme.io", "Amount": "10", "Created": "2024-01-05"},
		{"Customer Email": "a@acme.io", "Amount": "5", "Created": "2024-01-03"},
		{"Customer Email": "b@acme.io", "Amount": "2.50", "Created": "2024-01-01"},
		{"Customer Email": "b@acme.io", "Amount": "4", "Created": "2024-01-02", "Status": "refund"},
	}
	var payments []*models.Payment
	for _, row := range stripeRows {
		p, ok := mapping.MapStripePayment(row, "batch", testNow)
		require.True(t, ok)
		payments = append(payments, p)
	}

	got := buyers(payments)
	require.Len(t, got, 2)
	assert.Equal(t, "a@acme.io", got[0].email)
	assert.Equal(t, "b@acme.io", got[1].email)
	assert.Equal(t, "12.5", got[1].total.String())
	assert.Equal(t, "2024-01-01", got[1].first.Format("2006-01-02"))
}

func TestLoadUnified(t *testing.T) {
	database := setupTestDB(t)
	imp, _ := newTestImporter(t, database)
	ctx := context.Background()

	res := unify.Build(unify.Inputs{
		GoogleMain: []mapping.Row{
			{"Email Address": "jo@acme.io", "First Name": "Jo", "Subscription Date": "2024-01-01"},
			{"Email Address": "al@acme.io", "First Name": "Al"},
		},
		Stripe: []mapping.Row{
			{"Status": "Paid", "Customer Email": "jo@acme.io", "Amount": "100", "Created date (UTC)": "2024-03-01 10:00:00"},
			{"Status": "Paid", "Customer Email": "jo@acme.io", "Amount": "50", "Created date (UTC)": "2024-03-05 10:00:00"},
			{"Status": "Paid", "Customer Email": "al@acme.io", "Amount": "30"},
		},
		Denefits: []mapping.Row{
			{"Payment Plan Status": "Active", "Customer Email": "jo@acme.io", "Payment Plan Amount": "3000", "Payment Plan Sign Up Date": "2024-02-10"},
		},
	}, nil)

	ub, err := imp.LoadUnified(ctx, res, "unified_contacts.csv")
	require.NoError(t, err)

	assert.Equal(t, models.SourceUnified, ub.SourceType)
	assert.Equal(t, 2, ub.Imported)
	assert.Equal(t, 2, ub.Payments)
	// stripe purchased + denefits purchased + contact_created for jo.
	assert.Equal(t, 3, ub.TimelineEvents)
	assert.Contains(t, ub.Warnings, "Row 1: revenue for al@acme.io has no payment date")

	jo, err := db.GetContact(ctx, database, "jo@acme.io")
	require.NoError(t, err)
	assert.True(t, *jo.HasPurchase)
	assert.Equal(t, "3150", jo.PurchaseAmount.Decimal.String())
	assert.Equal(t, "2024-01-01", jo.FirstSeen.Format("2006-01-02"))

	payments, err := db.ListPayments(ctx, database, "jo@acme.io")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, models.SourceDenefits, payments[0].Source)
	assert.Equal(t, models.SourceStripe, payments[1].Source)
	assert.Equal(t, "150", payments[1].Amount.String())

	events, err := db.ListTimeline(ctx, database, "jo@acme.io")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, models.EventContactCreated, events[0].EventType)
	assert.Equal(t, 2.0, events[2].Details["payment_count"])
}

func TestLoadUnifiedEmpty(t *testing.T) {
	database := setupTestDB(t)
	imp, _ := newTestImporter(t, database)

	_, err := imp.LoadUnified(context.Background(), &unify.Result{}, "unified.csv")
	assert.True(t, errors.Is(err, ErrNoValidRecords))
}

func TestPrintMessagesTruncates(t *testing.T) {
	b := newBatch("x.csv", models.SourceStripe, testNow)
	for i := 0; i < 12; i++ {
		b.warnf("warning %d", i)
	}

	var buf bytes.Buffer
	b.PrintMessages(&buf)
	out := buf.String()

	assert.Contains(t, out, "warning 9")
	assert.NotContains(t, out, "warning 10")
	assert.Contains(t, out, "... and 2 more")
	assert.NotContains(t, out, "Errors")
}

func TestMetricsTextfile(t *testing.T) {
	database := setupTestDB(t)
	imp, metrics := newTestImporter(t, database)

	_, err := imp.ImportStripe(context.Background(), stripeFixture(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "leadledger.prom")
	require.NoError(t, metrics.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.Contains(text, `leadledger_import_rows_total{outcome="imported",source="stripe"} 4`), text)
	assert.Contains(t, text, fmt.Sprintf(`leadledger_imported_revenue_total{source="stripe"} %d`, 7150))
}
