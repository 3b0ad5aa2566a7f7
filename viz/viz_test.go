// ABOUTME: Tests for the funnel graph and dashboard
// ABOUTME: Seeds an in-memory store and checks counts and rendered output
package viz

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/leadledger/db"
	"github.com/harperreed/leadledger/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.InitSchema(database))
	return database
}

func seed(t *testing.T, database *sql.DB) {
	t.Helper()
	ctx := context.Background()
	stages := []string{"contacted", "contacted", "qualified", "booked", "purchased", "lost"}
	var contacts []*models.Contact
	for i, stage := range stages {
		contacts = append(contacts, &models.Contact{
			Email:        string(rune('a'+i)) + "@example.com",
			ReachedStage: models.String(stage),
			Source:       models.SourceGoogleSheets,
		})
	}
	_, err := db.UpsertContacts(ctx, database, contacts, 10)
	require.NoError(t, err)

	_, err = db.InsertPayments(ctx, database, []*models.Payment{
		{Email: "e@example.com", Amount: decimal.RequireFromString("150"), PaymentDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), PaymentType: models.PaymentBuyInFull, Source: models.SourceStripe},
		{Email: "e@example.com", Amount: decimal.RequireFromString("-20"), PaymentDate: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), PaymentType: models.PaymentRefund, Source: models.SourceStripe},
	})
	require.NoError(t, err)
}

func TestReachedCounts(t *testing.T) {
	counts := []models.FunnelCount{
		{Stage: "contacted", Count: 2},
		{Stage: "qualified", Count: 1},
		{Stage: "booked", Count: 1},
		{Stage: "attended", Count: 0},
		{Stage: "purchased", Count: 1},
		{Stage: "lost", Count: 1},
	}

	reached := ReachedCounts(counts)
	want := map[string]int{"contacted": 5, "qualified": 3, "booked": 2, "attended": 1, "purchased": 1}
	assert.Equal(t, want, reached)
}

func TestConversion(t *testing.T) {
	tests := []struct {
		n, of int
		want  string
	}{
		{0, 0, "-"},
		{1, 4, "25.0%"},
		{2, 3, "66.7%"},
		{5, 5, "100.0%"},
	}
	for _, tt := range tests {
		if got := conversion(tt.n, tt.of); got != tt.want {
			t.Errorf("conversion(%d, %d) = %q, want %q", tt.n, tt.of, got, tt.want)
		}
	}
}

func TestGenerateFunnelGraph(t *testing.T) {
	database := setupTestDB(t)
	seed(t, database)

	dot, err := NewGraphGenerator(database).GenerateFunnelGraph(context.Background())
	require.NoError(t, err)
	assert.Contains(t, dot, "digraph")
	for _, stage := range models.FunnelStages {
		assert.Contains(t, dot, stage)
	}
	assert.Contains(t, dot, "lost")
}

func TestDashboard(t *testing.T) {
	database := setupTestDB(t)
	seed(t, database)

	stats, err := GenerateDashboardStats(context.Background(), database)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.TotalContacts)
	assert.Equal(t, 2, stats.TotalPayments)
	assert.Equal(t, 5, stats.Reached[models.StageContacted])
	assert.Equal(t, "130", stats.NetRevenue.String())
	assert.InDelta(t, 16.67, stats.ConversionRate(), 0.01)

	out := RenderDashboard(stats, false)
	assert.Contains(t, out, "LEADLEDGER DASHBOARD")
	assert.Contains(t, out, "Conversion rate: 16.7%")
	assert.Contains(t, out, "(refunds $20.00)")
	assert.Contains(t, out, "none yet")
	assert.False(t, strings.Contains(out, "\x1b["), "plain output must not carry escape codes")
}

func TestDashboardEmptyStore(t *testing.T) {
	database := setupTestDB(t)

	stats, err := GenerateDashboardStats(context.Background(), database)
	require.NoError(t, err)
	assert.Zero(t, stats.ConversionRate())
	assert.Contains(t, RenderDashboard(stats, false), "no payments imported")
}
