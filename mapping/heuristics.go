// ABOUTME: Best-effort classifiers over noisy free-text columns
// ABOUTME: Paid/organic attribution and funnel-stage inference; both are approximate by nature
package mapping

import (
	"strings"

	"github.com/harperreed/leadledger/models"
	"github.com/harperreed/leadledger/normalize"
)

var (
	paidMarkers    = []string{"paid", "ad", "facebook", "meta"}
	organicMarkers = []string{"organic", "free", "direct"}
)

// ClassifyAdType labels a raw traffic-source string as paid or organic by
// substring match. Paid markers are checked first, so "free ad" is paid and
// "headline" is paid too (it contains "ad"). Anything unmatched stays nil.
func ClassifyAdType(raw string) *string {
	if normalize.IsMissing(raw) {
		return nil
	}
	s := strings.ToLower(raw)
	for _, m := range paidMarkers {
		if strings.Contains(s, m) {
			adType := models.AdTypePaid
			return &adType
		}
	}
	for _, m := range organicMarkers {
		if strings.Contains(s, m) {
			adType := models.AdTypeOrganic
			return &adType
		}
	}
	return nil
}

type stageRung struct {
	stage   string
	columns []string
}

// stageLadder is checked top to bottom; the first rung with any populated
// column wins.
var stageLadder = []stageRung{
	{models.StagePurchased, []string{"purchase_date", "has_purchase"}},
	{models.StageAttended, []string{"meeting_held", "attended", "showed_up", "attended_date"}},
	{models.StageBooked, []string{"meeting_booked", "booked", "booking_date", "appointment_date"}},
	{models.StageQualified, []string{"qualified", "dm_qualified", "q1", "q2", "symptoms"}},
}

// InferReachedStage guesses the furthest funnel stage from whichever raw
// columns happen to be filled in. Any non-missing cell counts, including
// "no" or "false". It is not a state machine: a row with an attendance
// column but no booking column still reads as attended.
func InferReachedStage(row Row) string {
	for _, rung := range stageLadder {
		for _, col := range rung.columns {
			if !normalize.IsMissing(row[col]) {
				return rung.stage
			}
		}
	}
	return models.StageContacted
}

// ReachedStageForContact applies the same ladder to an already-mapped contact.
func ReachedStageForContact(c *models.Contact) string {
	switch {
	case c.PurchaseDate != nil || (c.HasPurchase != nil && *c.HasPurchase):
		return models.StagePurchased
	case c.Attended != nil:
		return models.StageAttended
	case c.Booked != nil:
		return models.StageBooked
	case c.Symptoms != nil:
		return models.StageQualified
	}
	return models.StageContacted
}

// truthy reads an explicit yes/no flag column. Blank cells and explicit
// negatives are false.
func truthy(v string) bool {
	if normalize.IsMissing(v) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "false", "no", "n", "0", "f":
		return false
	}
	return true
}
