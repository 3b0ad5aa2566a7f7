// ABOUTME: Flattens unified records into CSV rows and summary statistics
// ABOUTME: Fixed column order, date and money formatting, and the run summary
package unify

import (
	"strconv"
	"time"

	"github.com/harperreed/leadledger/models"
	"github.com/shopspring/decimal"
)

// Columns is the unified CSV header, in output order.
var Columns = []string{
	"email",
	"first_name",
	"last_name",
	"phone",
	"instagram",
	"facebook",
	"mc_id",
	"ghl_id",
	"user_id",
	"thread_id",
	"ad_id",
	"subscription_date",
	"trigger_word",
	"paid_vs_organic",
	"ad_type",
	"platform",
	"stage",
	"reached_stage",
	"symptoms",
	"months_pp",
	"objections",
	"ab_test",
	"sent_link",
	"clicked_link",
	"booked",
	"attended",
	"has_purchase",
	"purchase_date",
	"payment_method",
	"total_revenue",
	"ledger_revenue",
	"estimated_revenue",
	"stripe_payments",
	"stripe_revenue",
	"stripe_first_payment",
	"stripe_last_payment",
	"stripe_package",
	"stripe_refunds",
	"stripe_refund_total",
	"denefits_contracts",
	"denefits_revenue",
	"denefits_signup_date",
	"denefits_status",
	"days_to_purchase",
	"purchase_before_subscription",
	"source",
}

// DateTimeLayout is how timestamps are written to the unified CSV.
const DateTimeLayout = "2006-01-02 15:04:05"

// Record flattens u in Columns order. Unknown values are empty cells.
func (u Unified) Record() []string {
	c, s, m := u.Contact, u.Summary, u.Metrics
	if s == nil {
		s = &PurchaseSummary{}
	}

	return []string{
		c.Email,
		models.Deref(c.FirstName),
		models.Deref(c.LastName),
		models.Deref(c.Phone),
		models.Deref(c.Instagram),
		models.Deref(c.Facebook),
		models.Deref(c.MCID),
		models.Deref(c.GHLID),
		models.Deref(c.UserID),
		models.Deref(c.ThreadID),
		models.Deref(c.AdID),
		formatTime(c.SubscriptionDate),
		models.Deref(c.TriggerWord),
		models.Deref(c.PaidVsOrganic),
		models.Deref(c.AdType),
		models.Deref(c.Platform),
		models.Deref(c.Stage),
		models.Deref(c.ReachedStage),
		models.Deref(c.Symptoms),
		models.Deref(c.MonthsPP),
		models.Deref(c.Objections),
		models.Deref(c.ABTest),
		models.Deref(c.SentLink),
		models.Deref(c.ClickedLink),
		models.Deref(c.Booked),
		models.Deref(c.Attended),
		strconv.FormatBool(m.HasPurchase),
		formatTime(m.PurchaseDate),
		models.Deref(m.PaymentMethod),
		money(m.TotalRevenue),
		money(m.LedgerRevenue),
		money(m.EstimatedRevenue),
		strconv.Itoa(s.StripePayments),
		money(s.StripeRevenue),
		formatTime(s.StripeFirstPayment),
		formatTime(s.StripeLastPayment),
		models.Deref(s.StripePackage),
		strconv.Itoa(s.StripeRefunds),
		money(s.StripeRefundTotal),
		strconv.Itoa(s.DenefitsContracts),
		money(s.DenefitsRevenue),
		formatTime(s.DenefitsSignupDate),
		models.Deref(s.DenefitsStatus),
		formatDays(m.DaysToPurchase),
		strconv.FormatBool(m.PurchaseBeforeSubscription),
		c.Source,
	}
}

// Table flattens every record of r in Columns order.
func (r *Result) Table() [][]string {
	out := make([][]string, 0, len(r.Records))
	for _, u := range r.Records {
		out = append(out, u.Record())
	}
	return out
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateTimeLayout)
}

func formatDays(d *int) string {
	if d == nil {
		return ""
	}
	return strconv.Itoa(*d)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Summary is the end-of-run overview printed after a unify pass.
type Summary struct {
	Contacts       int
	WithPurchase   int
	ConversionRate float64

	TotalRevenue       decimal.Decimal
	LedgerRevenue      decimal.Decimal
	StripeRevenue      decimal.Decimal
	DenefitsRevenue    decimal.Decimal
	AveragePerCustomer decimal.Decimal
	// EstimateOnly counts buyers whose total comes from the sheet estimate
	// rather than the ledger.
	EstimateOnly int

	PaymentMethods map[string]int
	Sources        map[string]int
	PaidVsOrganic  map[string]int
}

// Summarize aggregates r.
func (r *Result) Summarize() Summary {
	sum := Summary{
		Contacts:       len(r.Records),
		PaymentMethods: make(map[string]int),
		Sources:        make(map[string]int),
		PaidVsOrganic:  make(map[string]int),
	}

	for _, u := range r.Records {
		m := u.Metrics
		sum.TotalRevenue = sum.TotalRevenue.Add(m.TotalRevenue)
		sum.LedgerRevenue = sum.LedgerRevenue.Add(m.LedgerRevenue)
		if u.Summary != nil {
			sum.StripeRevenue = sum.StripeRevenue.Add(u.Summary.StripeRevenue)
			sum.DenefitsRevenue = sum.DenefitsRevenue.Add(u.Summary.DenefitsRevenue)
		}
		if m.HasPurchase {
			sum.WithPurchase++
		}
		if m.EstimateExceedsLedger() {
			sum.EstimateOnly++
		}
		if m.PaymentMethod != nil {
			sum.PaymentMethods[*m.PaymentMethod]++
		}
		sum.Sources[u.Contact.Source]++
		if u.Contact.PaidVsOrganic != nil {
			sum.PaidVsOrganic[*u.Contact.PaidVsOrganic]++
		}
	}

	if sum.Contacts > 0 {
		sum.ConversionRate = float64(sum.WithPurchase) / float64(sum.Contacts) * 100
	}
	if sum.WithPurchase > 0 {
		sum.AveragePerCustomer = sum.TotalRevenue.Div(decimal.NewFromInt(int64(sum.WithPurchase)))
	}
	return sum
}
