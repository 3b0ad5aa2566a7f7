// ABOUTME: Links payment events onto known contacts
// ABOUTME: Accumulates per-source counts, revenue and first/last dates; refunds are tracked apart
package unify

import (
	"time"

	"github.com/harperreed/leadledger/models"
	"github.com/shopspring/decimal"
)

// PurchaseSummary is the per-contact payment aggregate built during linking.
type PurchaseSummary struct {
	StripePayments     int
	StripeRevenue      decimal.Decimal
	StripeFirstPayment *time.Time
	StripeLastPayment  *time.Time
	StripePackage      *string
	StripeRefunds      int
	StripeRefundTotal  decimal.Decimal

	DenefitsContracts   int
	DenefitsRevenue     decimal.Decimal
	DenefitsSignupDate  *time.Time
	DenefitsStatus      *string
	DenefitsRefunds     int
	DenefitsRefundTotal decimal.Decimal
}

// Link adds p to the summary of contact. It refuses (returns false) when
// there is no contact or the emails differ; payment-only emails never
// create contacts.
func Link(summary *PurchaseSummary, contact *models.Contact, p *models.Payment) bool {
	if summary == nil || contact == nil || p == nil || p.Email != contact.Email {
		return false
	}

	switch p.Source {
	case models.SourceStripe:
		if p.IsRefund() {
			summary.StripeRefunds++
			summary.StripeRefundTotal = summary.StripeRefundTotal.Add(p.Amount.Abs())
			return true
		}
		summary.StripePayments++
		summary.StripeRevenue = summary.StripeRevenue.Add(p.Amount)
		if !p.PaymentDate.IsZero() {
			summary.StripeFirstPayment = earliest(summary.StripeFirstPayment, p.PaymentDate)
			summary.StripeLastPayment = latest(summary.StripeLastPayment, p.PaymentDate)
		}
		if summary.StripePackage == nil {
			summary.StripePackage = p.PackageName
		}

	case models.SourceDenefits:
		if p.IsRefund() {
			summary.DenefitsRefunds++
			summary.DenefitsRefundTotal = summary.DenefitsRefundTotal.Add(p.Amount.Abs())
			return true
		}
		summary.DenefitsContracts++
		summary.DenefitsRevenue = summary.DenefitsRevenue.Add(p.Amount)
		if !p.PaymentDate.IsZero() {
			summary.DenefitsSignupDate = earliest(summary.DenefitsSignupDate, p.PaymentDate)
		}
		if p.Status != nil {
			summary.DenefitsStatus = p.Status
		}

	default:
		return false
	}
	return true
}

func earliest(current *time.Time, t time.Time) *time.Time {
	if current == nil || t.Before(*current) {
		return &t
	}
	return current
}

func latest(current *time.Time, t time.Time) *time.Time {
	if current == nil || t.After(*current) {
		return &t
	}
	return current
}
