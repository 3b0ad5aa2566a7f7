// ABOUTME: Advisory data-quality checks on mapped contacts and payments
// ABOUTME: Flags records as suspicious with reasons; flagged records are still imported
package mapping

import (
	"strings"
	"time"

	"github.com/harperreed/leadledger/models"
	"github.com/shopspring/decimal"
)

// SuspiciousAmount is the single-payment ceiling above which a payment is flagged.
var SuspiciousAmount = decimal.NewFromInt(50000)

var placeholderEmailMarkers = []string{"test", "fake", "example"}

// ContactSuspicion returns the reasons a contact looks wrong, relative to now.
func ContactSuspicion(c *models.Contact, now time.Time) []string {
	var reasons []string

	if c.FirstSeen != nil && c.FirstSeen.After(now) {
		reasons = append(reasons, "future first_seen date")
	}
	if c.PurchaseDate != nil && c.PurchaseDate.After(now) {
		reasons = append(reasons, "future purchase date")
	}
	if c.FirstSeen != nil && c.PurchaseDate != nil && c.PurchaseDate.Before(*c.FirstSeen) {
		reasons = append(reasons, "purchase before first contact")
	}
	for _, m := range placeholderEmailMarkers {
		if strings.Contains(c.Email, m) {
			reasons = append(reasons, "test/fake email")
			break
		}
	}

	return reasons
}

// PaymentSuspicion returns the reasons a payment looks wrong, relative to now.
func PaymentSuspicion(p *models.Payment, now time.Time) []string {
	var reasons []string

	if p.PaymentDate.After(now) {
		reasons = append(reasons, "future payment date")
	}
	if p.Amount.IsNegative() && !p.IsRefund() {
		reasons = append(reasons, "negative amount (not a refund)")
	}
	if p.Amount.GreaterThan(SuspiciousAmount) {
		reasons = append(reasons, "suspiciously high amount")
	}

	return reasons
}

// FlagContact stamps the suspicion result onto c.
func FlagContact(c *models.Contact, now time.Time) {
	if reasons := ContactSuspicion(c, now); len(reasons) > 0 {
		c.IsSuspicious = true
		c.DataQualityNotes = models.String(strings.Join(reasons, "; "))
	}
}

// FlagPayment stamps the suspicion result onto p.
func FlagPayment(p *models.Payment, now time.Time) {
	if reasons := PaymentSuspicion(p, now); len(reasons) > 0 {
		p.IsSuspicious = true
		p.DataQualityNotes = models.String(strings.Join(reasons, "; "))
	}
}
