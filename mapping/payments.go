// ABOUTME: Row mappers for payment exports (Stripe charges and Denefits financing)
// ABOUTME: Applies the cents heuristic, refund detection and currency defaults
package mapping

import (
	"strings"
	"time"

	"github.com/harperreed/leadledger/models"
	"github.com/harperreed/leadledger/normalize"
	"github.com/shopspring/decimal"
)

var (
	// CentsThreshold is the raw Stripe amount above which the value is
	// assumed to be in cents. A real $10,000.01 charge is misread; that is
	// accepted.
	CentsThreshold = decimal.NewFromInt(10000)
	hundred        = decimal.NewFromInt(100)
)

// MapStripePayment maps one Stripe export row. ok is false when email, a
// non-zero amount, or a date is missing.
func MapStripePayment(row Row, batchID string, now time.Time) (*models.Payment, bool) {
	t := StripeFields

	email, amount, date, ok := requiredPaymentFields(t, row)
	if !ok {
		return nil, false
	}
	if amount.GreaterThan(CentsThreshold) {
		amount = amount.Div(hundred)
	}

	p := &models.Payment{
		Email:         email,
		Amount:        amount,
		Currency:      models.DefaultCurrency,
		PaymentDate:   date,
		PaymentType:   models.PaymentBuyInFull,
		Source:        models.SourceStripe,
		ExternalID:    t.Text(row, FieldExternalID),
		PackageName:   t.Text(row, FieldPackageName),
		Status:        t.Text(row, FieldStatus),
		ImportBatchID: batchID,
	}
	if cur, ok := t.Value(row, FieldCurrency); ok {
		p.Currency = strings.ToUpper(cur)
	}

	for _, field := range []string{FieldStatus, FieldDescription, FieldType} {
		v, _ := t.Value(row, field)
		if strings.Contains(strings.ToLower(v), "refund") {
			p.PaymentType = models.PaymentRefund
			p.Amount = p.Amount.Abs().Neg()
			break
		}
	}

	FlagPayment(p, now)
	return p, true
}

// MapDenefitsPayment maps one Denefits export row. Denefits contracts are
// always buy-now-pay-later in USD.
func MapDenefitsPayment(row Row, batchID string, now time.Time) (*models.Payment, bool) {
	t := DenefitsFields

	email, amount, date, ok := requiredPaymentFields(t, row)
	if !ok {
		return nil, false
	}

	p := &models.Payment{
		Email:         email,
		Amount:        amount,
		Currency:      models.DefaultCurrency,
		PaymentDate:   date,
		PaymentType:   models.PaymentBuyNowPayLater,
		Source:        models.SourceDenefits,
		ExternalID:    t.Text(row, FieldExternalID),
		Status:        t.Text(row, FieldStatus),
		ImportBatchID: batchID,
	}

	FlagPayment(p, now)
	return p, true
}

func requiredPaymentFields(t Table, row Row) (string, decimal.Decimal, time.Time, bool) {
	raw, ok := t.Value(row, FieldEmail)
	if !ok {
		return "", decimal.Zero, time.Time{}, false
	}
	email, ok := normalize.EmailStrict(raw)
	if !ok {
		return "", decimal.Zero, time.Time{}, false
	}

	rawAmount, _ := t.Value(row, FieldAmount)
	amount, ok := normalize.Amount(rawAmount)
	if !ok || amount.IsZero() {
		return "", decimal.Zero, time.Time{}, false
	}

	rawDate, _ := t.Value(row, FieldPaymentDate)
	date, ok := normalize.Date(rawDate)
	if !ok {
		return "", decimal.Zero, time.Time{}, false
	}

	return email, amount, date, true
}
