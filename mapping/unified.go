// ABOUTME: Row mappers for the multi-source unify pass
// ABOUTME: Maps the main/simplified CRM sheets, the Airtable export, the Stripe ledger and Denefits contracts
package mapping

import (
	"strings"

	"github.com/harperreed/leadledger/models"
	"github.com/harperreed/leadledger/normalize"
	"github.com/shopspring/decimal"
)

// Ledger and contract statuses that count toward revenue.
const (
	StripeStatusPaid      = "Paid"
	DenefitsStatusActive  = "Active"
	DenefitsStatusDone    = "Completed"
	stripeRefundStatusTag = "refund"
)

// MapGoogleMainContact maps one row of the main CRM sheet.
func MapGoogleMainContact(row Row) (*models.Contact, bool) {
	t := GoogleMainFields

	email, ok := FirstValid(row, t.Candidates(FieldEmail), normalize.Email)
	if !ok {
		return nil, false
	}

	c := &models.Contact{
		Email:            email,
		FirstName:        t.Text(row, FieldFirstName),
		LastName:         t.Text(row, FieldLastName),
		Phone:            phoneField(t, row),
		Instagram:        t.Text(row, FieldInstagram),
		Facebook:         t.Text(row, FieldFacebook),
		UserID:           t.Text(row, FieldUserID),
		SubscriptionDate: t.Date(row, FieldSubscriptionDate),
		Stage:            t.Text(row, FieldStage),
		Symptoms:         t.Text(row, FieldSymptoms),
		MonthsPP:         t.Text(row, FieldMonthsPP),
		Objections:       t.Text(row, FieldObjections),
		TriggerWord:      t.Text(row, FieldTriggerWord),
		PaidVsOrganic:    t.Text(row, FieldPaidVsOrganic),
		Platform:         t.Text(row, FieldPlatform),
		ABTest:           t.Text(row, FieldABTest),
		SentLink:         t.Text(row, FieldSentLink),
		ClickedLink:      t.Text(row, FieldClickedLink),
		Booked:           t.Text(row, FieldBooked),
		Attended:         t.Text(row, FieldAttended),
		Source:           models.SourceGoogleSheets,
	}
	c.FirstSeen = c.SubscriptionDate
	if c.PaidVsOrganic != nil {
		c.AdType = ClassifyAdType(*c.PaidVsOrganic)
	}
	if raw, ok := t.Value(row, FieldTotalPurchased); ok {
		if amount, ok := normalize.Amount(raw); ok {
			c.PurchaseAmount.Decimal = amount
			c.PurchaseAmount.Valid = true
		}
	}

	return c, true
}

// MapAirtableUnifiedContact maps one row of the upper-case Airtable export.
// The email is taken from the first column that holds a valid address.
func MapAirtableUnifiedContact(row Row) (*models.Contact, bool) {
	t := AirtableUnifiedFields

	email, ok := FirstValid(row, t.Candidates(FieldEmail), normalize.Email)
	if !ok {
		return nil, false
	}

	c := &models.Contact{
		Email:            email,
		FirstName:        t.Text(row, FieldFirstName),
		LastName:         t.Text(row, FieldLastName),
		Phone:            phoneField(t, row),
		Instagram:        t.Text(row, FieldInstagram),
		MCID:             t.Text(row, FieldMCID),
		GHLID:            t.Text(row, FieldGHLID),
		AdID:             t.Text(row, FieldAdID),
		ThreadID:         t.Text(row, FieldThreadID),
		TriggerWord:      t.Text(row, FieldTriggerWord),
		PaidVsOrganic:    t.Text(row, FieldPaidVsOrganic),
		Stage:            t.Text(row, FieldStage),
		SubscriptionDate: t.Date(row, FieldSubscriptionDate),
		PurchaseDate:     t.Date(row, FieldPurchaseDate),
		Source:           models.SourceAirtable,
	}
	c.FirstSeen = c.SubscriptionDate
	if c.PaidVsOrganic != nil {
		c.AdType = ClassifyAdType(*c.PaidVsOrganic)
	}

	return c, true
}

// MapGoogleSimpleContact maps the simplified sheet, which only carries ids.
func MapGoogleSimpleContact(row Row) (*models.Contact, bool) {
	t := GoogleSimpleFields

	email, ok := FirstValid(row, t.Candidates(FieldEmail), normalize.Email)
	if !ok {
		return nil, false
	}

	return &models.Contact{
		Email:    email,
		ThreadID: t.Text(row, FieldThreadID),
		AdID:     t.Text(row, FieldAdID),
		Source:   models.SourceGoogleSheets,
	}, true
}

// MapStripeLedgerPayment maps one row of the Stripe ledger. Only Paid rows
// count as sales; rows whose status mentions a refund come back as refunds so
// the linker can track them; every other status is skipped. Ledger amounts
// are already in dollars. A row whose amount is blank or unparsable is
// skipped, since its value is unknown.
func MapStripeLedgerPayment(row Row) (*models.Payment, bool) {
	t := StripeLedgerFields

	status, _ := t.Value(row, FieldStatus)
	paymentType := models.PaymentBuyInFull
	switch {
	case status == StripeStatusPaid:
	case strings.Contains(strings.ToLower(status), stripeRefundStatusTag):
		paymentType = models.PaymentRefund
	default:
		return nil, false
	}

	email, ok := FirstValid(row, t.Candidates(FieldEmail), normalize.Email)
	if !ok {
		return nil, false
	}

	p := &models.Payment{
		Email:       email,
		Currency:    models.DefaultCurrency,
		PaymentType: paymentType,
		Source:      models.SourceStripe,
		ExternalID:  t.Text(row, FieldExternalID),
		PackageName: t.Text(row, FieldPackageName),
		Status:      models.String(status),
	}
	amount, ok := ledgerAmount(t, row)
	if !ok {
		return nil, false
	}
	p.Amount = amount
	if p.IsRefund() {
		p.Amount = p.Amount.Abs().Neg()
	}
	if raw, ok := t.Value(row, FieldPaymentDate); ok {
		if d, ok := normalize.Date(raw); ok {
			p.PaymentDate = d
		}
	}

	return p, true
}

// MapDenefitsContract maps one Denefits contract. Only Active and Completed
// contracts with a readable amount count.
func MapDenefitsContract(row Row) (*models.Payment, bool) {
	t := DenefitsContractFields

	status, _ := t.Value(row, FieldStatus)
	if status != DenefitsStatusActive && status != DenefitsStatusDone {
		return nil, false
	}

	email, ok := FirstValid(row, t.Candidates(FieldEmail), normalize.Email)
	if !ok {
		return nil, false
	}

	p := &models.Payment{
		Email:       email,
		Currency:    models.DefaultCurrency,
		PaymentType: models.PaymentBuyNowPayLater,
		Source:      models.SourceDenefits,
		ExternalID:  t.Text(row, FieldExternalID),
		Status:      models.String(status),
	}
	amount, ok := ledgerAmount(t, row)
	if !ok {
		return nil, false
	}
	p.Amount = amount
	if raw, ok := t.Value(row, FieldPaymentDate); ok {
		if d, ok := normalize.Date(raw); ok {
			p.PaymentDate = d
		}
	}

	return p, true
}

// ledgerAmount parses the amount cell. A missing or unparsable amount is not
// a zero.
func ledgerAmount(t Table, row Row) (decimal.Decimal, bool) {
	raw, ok := t.Value(row, FieldAmount)
	if !ok {
		return decimal.Zero, false
	}
	return normalize.Amount(raw)
}
