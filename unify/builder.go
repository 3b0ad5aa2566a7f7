// ABOUTME: Multi-source unify pass that builds one record per contact with purchase data
// ABOUTME: Runs CRM, Airtable and enrichment passes, links Stripe and Denefits, then derives metrics
package unify

import (
	"sort"

	"github.com/harperreed/leadledger/mapping"
	"github.com/harperreed/leadledger/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Inputs holds the raw rows of each export. Any of them may be empty.
type Inputs struct {
	GoogleMain   []mapping.Row
	Airtable     []mapping.Row
	GoogleSimple []mapping.Row
	Stripe       []mapping.Row
	Denefits     []mapping.Row
}

// Unified is one output record.
type Unified struct {
	Contact *models.Contact
	Summary *PurchaseSummary
	Metrics Metrics
}

// BuildStats counts what each pass did.
type BuildStats struct {
	GoogleMainProcessed int
	GoogleMainMerged    int
	AirtableMerged      int
	AirtableNew         int
	Enriched            int

	StripeLinked     int
	StripeUnlinked   int
	StripeRefunds    int
	StripeSkipped    int
	StripeRevenue    decimal.Decimal
	DenefitsLinked   int
	DenefitsUnlinked int
	DenefitsSkipped  int
	DenefitsRevenue  decimal.Decimal
}

// Result is the output of Build, in first-seen order.
type Result struct {
	Records []Unified
	Stats   BuildStats
}

// Build runs the passes in a fixed order: main CRM sheet, Airtable, the
// simplified sheet (enrichment only), Stripe, Denefits, metrics. The order
// decides which value wins on conflicts, so it must not change.
func Build(in Inputs, logger *zap.Logger) *Result {
	if logger == nil {
		logger = zap.NewNop()
	}

	res := &Result{}
	st := &res.Stats
	resolver := NewResolver()

	for _, row := range in.GoogleMain {
		c, ok := mapping.MapGoogleMainContact(row)
		if !ok {
			continue
		}
		if resolver.Put(c) {
			st.GoogleMainMerged++
		}
		st.GoogleMainProcessed++
	}
	logger.Debug("google main pass done", zap.Int("processed", st.GoogleMainProcessed))

	for _, row := range in.Airtable {
		c, ok := mapping.MapAirtableUnifiedContact(row)
		if !ok {
			continue
		}
		if resolver.Put(c) {
			st.AirtableMerged++
		} else {
			st.AirtableNew++
		}
	}
	logger.Debug("airtable pass done", zap.Int("merged", st.AirtableMerged), zap.Int("new", st.AirtableNew))

	for _, row := range in.GoogleSimple {
		c, ok := mapping.MapGoogleSimpleContact(row)
		if !ok {
			continue
		}
		if resolver.Enrich(c) {
			st.Enriched++
		}
	}
	logger.Debug("enrichment pass done", zap.Int("enriched", st.Enriched))

	summaries := make(map[string]*PurchaseSummary, resolver.Len())
	summaryFor := func(email string) *PurchaseSummary {
		s, ok := summaries[email]
		if !ok {
			s = &PurchaseSummary{}
			summaries[email] = s
		}
		return s
	}

	for _, row := range in.Stripe {
		p, ok := mapping.MapStripeLedgerPayment(row)
		if !ok {
			st.StripeSkipped++
			continue
		}
		contact, found := resolver.Get(p.Email)
		if !found {
			st.StripeUnlinked++
			continue
		}
		if !Link(summaryFor(p.Email), contact, p) {
			st.StripeUnlinked++
			continue
		}
		if p.IsRefund() {
			st.StripeRefunds++
			continue
		}
		st.StripeLinked++
		st.StripeRevenue = st.StripeRevenue.Add(p.Amount)
	}
	logger.Debug("stripe pass done",
		zap.Int("linked", st.StripeLinked),
		zap.Int("unlinked", st.StripeUnlinked),
		zap.String("revenue", st.StripeRevenue.StringFixed(2)))

	for _, row := range in.Denefits {
		p, ok := mapping.MapDenefitsContract(row)
		if !ok {
			st.DenefitsSkipped++
			continue
		}
		contact, found := resolver.Get(p.Email)
		if !found || !Link(summaryFor(p.Email), contact, p) {
			st.DenefitsUnlinked++
			continue
		}
		st.DenefitsLinked++
		st.DenefitsRevenue = st.DenefitsRevenue.Add(p.Amount)
	}
	logger.Debug("denefits pass done",
		zap.Int("linked", st.DenefitsLinked),
		zap.Int("unlinked", st.DenefitsUnlinked),
		zap.String("revenue", st.DenefitsRevenue.StringFixed(2)))

	for _, c := range resolver.Contacts() {
		s := summaries[c.Email]
		if s == nil {
			s = &PurchaseSummary{}
		}
		m := Derive(c, s)

		stage := mapping.ReachedStageForContact(c)
		if m.HasPurchase {
			stage = models.StagePurchased
		}
		c.ReachedStage = &stage

		if m.PurchaseBeforeSubscription {
			logger.Debug("purchase predates subscription", zap.String("email", c.Email), zap.Intp("days", m.DaysToPurchase))
		}
		res.Records = append(res.Records, Unified{Contact: c, Summary: s, Metrics: m})
	}

	return res
}

// SortByRevenue orders records by total revenue, highest first. Ties keep
// first-seen order.
func (r *Result) SortByRevenue() {
	sort.SliceStable(r.Records, func(i, j int) bool {
		return r.Records[i].Metrics.TotalRevenue.GreaterThan(r.Records[j].Metrics.TotalRevenue)
	})
}
