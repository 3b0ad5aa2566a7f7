// ABOUTME: Tests for payment linking and derived revenue metrics
// ABOUTME: Covers per-source accumulation, refunds, the max revenue rule and days to purchase
package unify

import (
	"testing"
	"time"

	"github.com/harperreed/leadledger/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stripe(email string, amount int64, at time.Time) *models.Payment {
	return &models.Payment{
		Email:       email,
		Amount:      decimal.NewFromInt(amount),
		PaymentDate: at,
		PaymentType: models.PaymentBuyInFull,
		Source:      models.SourceStripe,
	}
}

func TestLinkTwoPayments(t *testing.T) {
	c := &models.Contact{Email: "x@acme.io"}
	s := &PurchaseSummary{}

	require.True(t, Link(s, c, stripe("x@acme.io", 100, day(2024, 3, 10))))
	require.True(t, Link(s, c, stripe("x@acme.io", 50, day(2024, 3, 1))))

	assert.Equal(t, 2, s.StripePayments)
	assert.True(t, s.StripeRevenue.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, day(2024, 3, 1), *s.StripeFirstPayment)
	assert.Equal(t, day(2024, 3, 10), *s.StripeLastPayment)
}

func TestLinkRejectsMismatchedEmail(t *testing.T) {
	c := &models.Contact{Email: "x@acme.io"}
	s := &PurchaseSummary{}

	assert.False(t, Link(s, c, stripe("y@acme.io", 100, day(2024, 3, 10))))
	assert.False(t, Link(s, nil, stripe("x@acme.io", 100, day(2024, 3, 10))))
	assert.Equal(t, 0, s.StripePayments)
}

func TestLinkRefundTrackedSeparately(t *testing.T) {
	c := &models.Contact{Email: "x@acme.io"}
	s := &PurchaseSummary{}

	refund := stripe("x@acme.io", -80, day(2024, 3, 12))
	refund.PaymentType = models.PaymentRefund

	require.True(t, Link(s, c, refund))
	assert.Equal(t, 0, s.StripePayments)
	assert.True(t, s.StripeRevenue.IsZero())
	assert.Equal(t, 1, s.StripeRefunds)
	assert.True(t, s.StripeRefundTotal.Equal(decimal.NewFromInt(80)))

	m := Derive(c, s)
	assert.False(t, m.HasPurchase)
}

func TestLinkDenefits(t *testing.T) {
	c := &models.Contact{Email: "x@acme.io"}
	s := &PurchaseSummary{}

	p := &models.Payment{
		Email:       "x@acme.io",
		Amount:      decimal.NewFromInt(3000),
		PaymentDate: day(2024, 2, 1),
		PaymentType: models.PaymentBuyNowPayLater,
		Source:      models.SourceDenefits,
		Status:      models.String("Active"),
	}
	require.True(t, Link(s, c, p))

	later := *p
	later.PaymentDate = day(2024, 4, 1)
	later.Status = models.String("Completed")
	require.True(t, Link(s, c, &later))

	assert.Equal(t, 2, s.DenefitsContracts)
	assert.True(t, s.DenefitsRevenue.Equal(decimal.NewFromInt(6000)))
	assert.Equal(t, day(2024, 2, 1), *s.DenefitsSignupDate)
	assert.Equal(t, "Completed", models.Deref(s.DenefitsStatus))
}

func TestLinkKeepsFirstPackage(t *testing.T) {
	c := &models.Contact{Email: "x@acme.io"}
	s := &PurchaseSummary{}

	p1 := stripe("x@acme.io", 10, day(2024, 1, 1))
	p1.PackageName = models.String("VIP")
	p2 := stripe("x@acme.io", 10, day(2024, 1, 2))
	p2.PackageName = models.String("Basic")

	Link(s, c, p1)
	Link(s, c, p2)
	assert.Equal(t, "VIP", models.Deref(s.StripePackage))
}

func TestDeriveTotalRevenueMaxRule(t *testing.T) {
	estimate := decimal.NullDecimal{Decimal: decimal.NewFromInt(500), Valid: true}

	// Estimate wins when the ledger is empty.
	c := &models.Contact{Email: "x@acme.io", PurchaseAmount: estimate}
	m := Derive(c, &PurchaseSummary{})
	assert.True(t, m.TotalRevenue.Equal(decimal.NewFromInt(500)))
	assert.True(t, m.LedgerRevenue.IsZero())
	assert.True(t, m.HasPurchase)
	assert.True(t, m.EstimateExceedsLedger())
	assert.Nil(t, m.PaymentMethod)

	// Ledger wins when larger.
	s := &PurchaseSummary{StripeRevenue: decimal.NewFromInt(800)}
	m = Derive(c, s)
	assert.True(t, m.TotalRevenue.Equal(decimal.NewFromInt(800)))
	assert.True(t, m.LedgerRevenue.Equal(decimal.NewFromInt(800)))
	assert.False(t, m.EstimateExceedsLedger())
	assert.Equal(t, models.PaymentMethodStripe, models.Deref(m.PaymentMethod))
}

func TestDerivePaymentMethod(t *testing.T) {
	c := &models.Contact{Email: "x@acme.io"}

	m := Derive(c, &PurchaseSummary{DenefitsRevenue: decimal.NewFromInt(1)})
	assert.Equal(t, models.PaymentMethodDenefits, models.Deref(m.PaymentMethod))

	m = Derive(c, &PurchaseSummary{StripeRevenue: decimal.NewFromInt(1), DenefitsRevenue: decimal.NewFromInt(1)})
	assert.Equal(t, models.PaymentMethodBoth, models.Deref(m.PaymentMethod))

	m = Derive(c, nil)
	assert.Nil(t, m.PaymentMethod)
	assert.False(t, m.HasPurchase)
	assert.True(t, m.TotalRevenue.IsZero())
}

func TestDerivePurchaseDateEarliest(t *testing.T) {
	sub := day(2024, 1, 1)
	c := &models.Contact{Email: "x@acme.io", SubscriptionDate: &sub, PurchaseDate: ptr(day(2024, 1, 20))}
	s := &PurchaseSummary{
		StripeRevenue:      decimal.NewFromInt(10),
		StripeFirstPayment: ptr(day(2024, 1, 15)),
		DenefitsSignupDate: ptr(day(2024, 2, 1)),
	}

	m := Derive(c, s)
	require.NotNil(t, m.PurchaseDate)
	assert.Equal(t, day(2024, 1, 15), *m.PurchaseDate)
	require.NotNil(t, m.DaysToPurchase)
	assert.Equal(t, 14, *m.DaysToPurchase)
	assert.False(t, m.PurchaseBeforeSubscription)
}

func TestDeriveNegativeDaysFlagged(t *testing.T) {
	sub := day(2024, 3, 1)
	c := &models.Contact{Email: "x@acme.io", SubscriptionDate: &sub}
	s := &PurchaseSummary{StripeRevenue: decimal.NewFromInt(10), StripeFirstPayment: ptr(day(2024, 2, 20))}

	m := Derive(c, s)
	require.NotNil(t, m.DaysToPurchase)
	assert.Equal(t, -10, *m.DaysToPurchase)
	assert.True(t, m.PurchaseBeforeSubscription)
}

func TestDeriveNoDaysWithoutBothDates(t *testing.T) {
	c := &models.Contact{Email: "x@acme.io"}
	s := &PurchaseSummary{StripeRevenue: decimal.NewFromInt(10), StripeFirstPayment: ptr(day(2024, 2, 20))}

	m := Derive(c, s)
	assert.Nil(t, m.DaysToPurchase)
	assert.False(t, m.PurchaseBeforeSubscription)
}

func TestDaysBetweenFloors(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(start, start.Add(23*time.Hour)))
	assert.Equal(t, 1, DaysBetween(start, start.Add(25*time.Hour)))
	assert.Equal(t, -1, DaysBetween(start, start.Add(-time.Hour)))
	assert.Equal(t, -2, DaysBetween(start, start.Add(-25*time.Hour)))
}

func ptr(t time.Time) *time.Time {
	return &t
}
