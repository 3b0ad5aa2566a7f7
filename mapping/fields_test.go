// ABOUTME: Tests for candidate-column lookup and the paid/organic and stage heuristics
// ABOUTME: Verifies priority order, placeholder skipping, and the documented fallback ladder
package mapping

import (
	"testing"

	"github.com/harperreed/leadledger/models"
	"github.com/harperreed/leadledger/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupPriorityOrder(t *testing.T) {
	row := Row{
		"Email Address": "third@example.com",
		"Email":         "second@example.com",
	}

	got, ok := Lookup(row, AirtableFields.Candidates(FieldEmail))
	require.True(t, ok)
	assert.Equal(t, "second@example.com", got)
}

func TestLookupSkipsBlankAndPlaceholderCells(t *testing.T) {
	row := Row{
		"email":         "   ",
		"Email":         "nan",
		"Email Address": " real@example.com ",
	}

	got, ok := Lookup(row, AirtableFields.Candidates(FieldEmail))
	require.True(t, ok)
	assert.Equal(t, "real@example.com", got)
}

func TestLookupNothingFound(t *testing.T) {
	_, ok := Lookup(Row{"Name": "Jo"}, GoogleSheetsFields.Candidates(FieldEmail))
	assert.False(t, ok)

	_, ok = Lookup(Row{"email": "a@b.co"}, nil)
	assert.False(t, ok)
}

func TestFirstValidKeepsLooking(t *testing.T) {
	row := Row{"EMAIL": "not-an-email", "Email (Norm)": "Jo@Example.com"}

	got, ok := FirstValid(row, AirtableUnifiedFields.Candidates(FieldEmail), normalize.Email)
	require.True(t, ok)
	assert.Equal(t, "jo@example.com", got)

	// Lookup stops at the first populated cell.
	raw, ok := AirtableUnifiedFields.Value(row, FieldEmail)
	require.True(t, ok)
	assert.Equal(t, "not-an-email", raw)
}

func TestTablesCarryEmail(t *testing.T) {
	tables := map[string]Table{
		"google_sheets":     GoogleSheetsFields,
		"airtable":          AirtableFields,
		"stripe":            StripeFields,
		"denefits":          DenefitsFields,
		"google_main":       GoogleMainFields,
		"airtable_unified":  AirtableUnifiedFields,
		"google_simple":     GoogleSimpleFields,
		"stripe_ledger":     StripeLedgerFields,
		"denefits_contract": DenefitsContractFields,
	}
	for name, table := range tables {
		if len(table.Candidates(FieldEmail)) == 0 {
			t.Errorf("table %s has no email candidates", name)
		}
	}
}

func TestClassifyAdType(t *testing.T) {
	tests := []struct {
		input    string
		expected *string
	}{
		{"Paid", models.String(models.AdTypePaid)},
		{"Facebook Ads", models.String(models.AdTypePaid)},
		{"META", models.String(models.AdTypePaid)},
		{"Organic", models.String(models.AdTypeOrganic)},
		{"direct", models.String(models.AdTypeOrganic)},
		{"Free webinar", models.String(models.AdTypeOrganic)},
		// Paid markers win when both appear.
		{"free ad", models.String(models.AdTypePaid)},
		{"referral", nil},
		{"", nil},
		{"nan", nil},
	}

	for _, tt := range tests {
		got := ClassifyAdType(tt.input)
		if tt.expected == nil {
			if got != nil {
				t.Errorf("ClassifyAdType(%q) = %q, want nil", tt.input, *got)
			}
			continue
		}
		if got == nil || *got != *tt.expected {
			t.Errorf("ClassifyAdType(%q) = %v, want %q", tt.input, got, *tt.expected)
		}
	}
}

func TestInferReachedStage(t *testing.T) {
	tests := []struct {
		name     string
		row      Row
		expected string
	}{
		{"purchase wins", Row{"purchase_date": "2024-01-01", "booked": "yes"}, models.StagePurchased},
		{"attended over booked", Row{"attended": "yes", "booked": "yes"}, models.StageAttended},
		{"booked", Row{"appointment_date": "2024-01-01"}, models.StageBooked},
		{"qualified", Row{"symptoms": "fatigue"}, models.StageQualified},
		{"any filled cell counts", Row{"booked": "no", "q1": "yes"}, models.StageBooked},
		{"false purchase flag still purchased", Row{"has_purchase": "false"}, models.StagePurchased},
		{"empty row", Row{}, models.StageContacted},
		{"placeholders ignored", Row{"attended": "nan"}, models.StageContacted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InferReachedStage(tt.row))
		})
	}
}

func TestReachedStageForContact(t *testing.T) {
	c := &models.Contact{Email: "a@b.co"}
	assert.Equal(t, models.StageContacted, ReachedStageForContact(c))

	c.Symptoms = models.String("fatigue")
	assert.Equal(t, models.StageQualified, ReachedStageForContact(c))

	c.Booked = models.String("TRUE")
	assert.Equal(t, models.StageBooked, ReachedStageForContact(c))

	c.Attended = models.String("FALSE")
	assert.Equal(t, models.StageAttended, ReachedStageForContact(c))

	c.HasPurchase = models.Bool(true)
	assert.Equal(t, models.StagePurchased, ReachedStageForContact(c))
}
