// ABOUTME: Derived revenue metrics for a linked contact
// ABOUTME: Ledger vs estimated revenue, purchase flag and date, payment method, days to purchase
package unify

import (
	"time"

	"github.com/harperreed/leadledger/models"
	"github.com/shopspring/decimal"
)

// Metrics are computed once per contact after all linking is done.
type Metrics struct {
	// LedgerRevenue is what the payment processors recorded.
	LedgerRevenue decimal.Decimal
	// EstimatedRevenue is what the CRM sheet claims, zero when unknown.
	EstimatedRevenue decimal.Decimal
	// TotalRevenue is the larger of the two. When the estimate wins, ledger
	// rows are probably missing; compare the two fields to find those.
	TotalRevenue decimal.Decimal

	HasPurchase    bool
	PurchaseDate   *time.Time
	PaymentMethod  *string
	DaysToPurchase *int
	// PurchaseBeforeSubscription marks a negative DaysToPurchase.
	PurchaseBeforeSubscription bool
}

// EstimateExceedsLedger reports whether the sheet estimate is the figure
// being trusted.
func (m Metrics) EstimateExceedsLedger() bool {
	return m.EstimatedRevenue.GreaterThan(m.LedgerRevenue)
}

// Derive computes the metrics for c. A nil summary means no linked payments.
func Derive(c *models.Contact, s *PurchaseSummary) Metrics {
	if s == nil {
		s = &PurchaseSummary{}
	}

	var m Metrics
	m.LedgerRevenue = s.StripeRevenue.Add(s.DenefitsRevenue)
	if c.PurchaseAmount.Valid {
		m.EstimatedRevenue = c.PurchaseAmount.Decimal
	}
	m.TotalRevenue = decimal.Max(m.LedgerRevenue, m.EstimatedRevenue)

	stripePositive := s.StripeRevenue.IsPositive()
	denefitsPositive := s.DenefitsRevenue.IsPositive()
	m.HasPurchase = stripePositive || denefitsPositive || m.EstimatedRevenue.IsPositive()

	for _, d := range []*time.Time{s.StripeFirstPayment, s.DenefitsSignupDate, c.PurchaseDate} {
		if d != nil && (m.PurchaseDate == nil || d.Before(*m.PurchaseDate)) {
			m.PurchaseDate = d
		}
	}

	switch {
	case stripePositive && denefitsPositive:
		m.PaymentMethod = models.String(models.PaymentMethodBoth)
	case stripePositive:
		m.PaymentMethod = models.String(models.PaymentMethodStripe)
	case denefitsPositive:
		m.PaymentMethod = models.String(models.PaymentMethodDenefits)
	}

	if m.PurchaseDate != nil && c.SubscriptionDate != nil {
		days := DaysBetween(*c.SubscriptionDate, *m.PurchaseDate)
		m.DaysToPurchase = &days
		m.PurchaseBeforeSubscription = days < 0
	}

	return m
}

// DaysBetween returns the whole days from start to end, floored, so a gap of
// minus one hour is -1.
func DaysBetween(start, end time.Time) int {
	const day = 24 * time.Hour
	d := end.Sub(start)
	days := int(d / day)
	if d%day < 0 {
		days--
	}
	return days
}
