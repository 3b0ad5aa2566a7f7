// ABOUTME: Completeness helpers on Contact
// ABOUTME: Counts known fields so duplicate records can be ranked
package models

import "time"

// FieldCount returns how many descriptive fields are known. Bookkeeping
// fields (source, batch id, suspicion flag) are not counted.
func (c *Contact) FieldCount() int {
	n := 0
	if c.Email != "" {
		n++
	}

	for _, s := range []*string{
		c.FirstName, c.LastName, c.Phone, c.Instagram, c.Facebook,
		c.MCID, c.GHLID, c.UserID, c.ThreadID, c.AdID,
		c.Stage, c.ReachedStage, c.AdType, c.PaidVsOrganic, c.TriggerWord, c.CampaignName, c.Platform,
		c.Symptoms, c.MonthsPP, c.Objections, c.ABTest,
		c.SentLink, c.ClickedLink, c.Booked, c.Attended,
		c.DataQualityNotes,
	} {
		if s != nil {
			n++
		}
	}

	for _, t := range []*time.Time{c.FirstSeen, c.LastSeen, c.SubscriptionDate, c.PurchaseDate} {
		if t != nil {
			n++
		}
	}

	if c.HasPurchase != nil {
		n++
	}
	if c.PurchaseAmount.Valid {
		n++
	}
	return n
}
