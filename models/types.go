// ABOUTME: Core data models for the lead ledger
// ABOUTME: Defines Contact, Payment, TimelineEvent, ImportLog and the tag constants they carry
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contact sources. A contact touched by two different sources becomes merged.
const (
	SourceGoogleSheets = "google_sheets"
	SourceAirtable     = "airtable"
	SourceStripe       = "stripe"
	SourceDenefits     = "denefits"
	SourceMerged       = "merged"
	SourceUnified      = "unified"
)

// Funnel stages, lowest to highest.
const (
	StageContacted = "contacted"
	StageQualified = "qualified"
	StageBooked    = "booked"
	StageAttended  = "attended"
	StagePurchased = "purchased"
)

// FunnelStages lists the stages in funnel order.
var FunnelStages = []string{StageContacted, StageQualified, StageBooked, StageAttended, StagePurchased}

const (
	AdTypePaid    = "paid"
	AdTypeOrganic = "organic"
)

// Payment types.
const (
	PaymentBuyInFull      = "buy_in_full"
	PaymentBuyNowPayLater = "buy_now_pay_later"
	PaymentRefund         = "refund"
)

const DefaultCurrency = "USD"

// Payment methods derived from which revenue sources are positive.
const (
	PaymentMethodStripe   = "Stripe"
	PaymentMethodDenefits = "Denefits"
	PaymentMethodBoth     = "Both"
)

const (
	EventContactCreated = "contact_created"
	EventPurchased      = "purchased"
)

// Contact is one person, keyed by normalized email. Nil fields are unknown.
type Contact struct {
	Email string `json:"email"`

	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	Facebook  *string `json:"facebook,omitempty"`

	MCID     *string `json:"mc_id,omitempty"`
	GHLID    *string `json:"ghl_id,omitempty"`
	UserID   *string `json:"user_id,omitempty"`
	ThreadID *string `json:"thread_id,omitempty"`
	AdID     *string `json:"ad_id,omitempty"`

	Stage         *string `json:"stage,omitempty"`
	ReachedStage  *string `json:"reached_stage,omitempty"`
	AdType        *string `json:"ad_type,omitempty"`
	PaidVsOrganic *string `json:"paid_vs_organic,omitempty"`
	TriggerWord   *string `json:"trigger_word,omitempty"`
	CampaignName  *string `json:"campaign_name,omitempty"`
	Platform      *string `json:"platform,omitempty"`

	Symptoms    *string `json:"symptoms,omitempty"`
	MonthsPP    *string `json:"months_pp,omitempty"`
	Objections  *string `json:"objections,omitempty"`
	ABTest      *string `json:"ab_test,omitempty"`
	SentLink    *string `json:"sent_link,omitempty"`
	ClickedLink *string `json:"clicked_link,omitempty"`
	Booked      *string `json:"booked,omitempty"`
	Attended    *string `json:"attended,omitempty"`

	FirstSeen        *time.Time `json:"first_seen,omitempty"`
	LastSeen         *time.Time `json:"last_seen,omitempty"`
	SubscriptionDate *time.Time `json:"subscription_date,omitempty"`
	PurchaseDate     *time.Time `json:"purchase_date,omitempty"`

	HasPurchase *bool `json:"has_purchase,omitempty"`
	// PurchaseAmount is revenue asserted by the source itself (a spreadsheet
	// "Total Purchased" column, or the summed payments after a payment import).
	PurchaseAmount decimal.NullDecimal `json:"purchase_amount"`

	Source           string  `json:"source"`
	ImportBatchID    string  `json:"import_batch_id,omitempty"`
	IsSuspicious     bool    `json:"is_suspicious"`
	DataQualityNotes *string `json:"data_quality_notes,omitempty"`
}

// Payment is one purchase-like event. Amount is negative only for refunds.
type Payment struct {
	ID               string          `json:"id"`
	Email            string          `json:"email"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	PaymentDate      time.Time       `json:"payment_date"`
	PaymentType      string          `json:"payment_type"`
	Source           string          `json:"source"`
	ExternalID       *string         `json:"external_id,omitempty"`
	PackageName      *string         `json:"package_name,omitempty"`
	Status           *string         `json:"status,omitempty"`
	ImportBatchID    string          `json:"import_batch_id,omitempty"`
	IsSuspicious     bool            `json:"is_suspicious"`
	DataQualityNotes *string         `json:"data_quality_notes,omitempty"`
}

// IsRefund reports whether the payment reverses an earlier one.
func (p *Payment) IsRefund() bool {
	return p.PaymentType == PaymentRefund
}

type TimelineEvent struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	EventType     string         `json:"event_type"`
	EventDate     time.Time      `json:"event_date"`
	Source        string         `json:"source"`
	ImportBatchID string         `json:"import_batch_id,omitempty"`
	Details       map[string]any `json:"event_details,omitempty"`
}

// ImportLog is the audit record written once per import run.
type ImportLog struct {
	ID            uuid.UUID `json:"id"`
	SourceFile    string    `json:"source_file"`
	SourceType    string    `json:"source_type"`
	RowsProcessed int       `json:"rows_processed"`
	RowsImported  int       `json:"rows_imported"`
	RowsSkipped   int       `json:"rows_skipped"`
	RowsUpdated   int       `json:"rows_updated"`
	Errors        []string  `json:"errors,omitempty"`
	Warnings      []string  `json:"warnings,omitempty"`
	StartedAt     time.Time `json:"import_started_at"`
	CompletedAt   time.Time `json:"import_completed_at"`
	ImportedBy    string    `json:"imported_by"`
	Notes         string    `json:"notes,omitempty"`
}

// Duration returns how long the import took.
func (l *ImportLog) Duration() time.Duration {
	if l.CompletedAt.IsZero() {
		return 0
	}
	return l.CompletedAt.Sub(l.StartedAt)
}

// FunnelCount is one row of the stage breakdown.
type FunnelCount struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// RevenueBreakdown summarizes stored payments by source.
type RevenueBreakdown struct {
	Source   string          `json:"source"`
	Payments int             `json:"payments"`
	Revenue  decimal.Decimal `json:"revenue"`
	Refunds  decimal.Decimal `json:"refunds"`
}

// String returns a pointer to s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// Time returns a pointer to t, or nil for the zero time.
func Time(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
