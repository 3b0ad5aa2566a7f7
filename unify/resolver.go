// ABOUTME: Identity resolution keyed by normalized email
// ABOUTME: Gap-filling merge, completeness ranking, and the per-run Resolver arena
package unify

import (
	"github.com/harperreed/leadledger/models"
)

// Resolve folds incoming into existing and returns the surviving contact.
// With no existing contact, incoming is returned as is. Otherwise existing is
// updated in place: empty fields are filled from incoming, known fields are
// never overwritten, except the source-system identifiers (mc_id, ghl_id,
// ad_id, thread_id), where the latest non-empty value wins. Provenance
// becomes merged once two different sources have contributed.
func Resolve(existing, incoming *models.Contact) *models.Contact {
	if existing == nil {
		return incoming
	}
	if incoming == nil {
		return existing
	}

	takeLatest(&existing.MCID, incoming.MCID)
	takeLatest(&existing.GHLID, incoming.GHLID)
	takeLatest(&existing.AdID, incoming.AdID)
	takeLatest(&existing.ThreadID, incoming.ThreadID)

	fillGaps(existing, incoming)

	if existing.Source != incoming.Source && incoming.Source != "" {
		existing.Source = models.SourceMerged
	}
	return existing
}

// MoreComplete reports whether a carries strictly more known fields than b.
// Ties go to b, the record seen first.
func MoreComplete(a, b *models.Contact) bool {
	return a.FieldCount() > b.FieldCount()
}

func takeLatest[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

func fill[T any](dst **T, src *T) bool {
	if *dst == nil && src != nil {
		*dst = src
		return true
	}
	return false
}

// fillGaps copies every field that dst lacks and src has. It reports whether
// anything was copied.
func fillGaps(dst, src *models.Contact) bool {
	filled := false
	for _, f := range []struct {
		dst **string
		src *string
	}{
		{&dst.FirstName, src.FirstName},
		{&dst.LastName, src.LastName},
		{&dst.Phone, src.Phone},
		{&dst.Instagram, src.Instagram},
		{&dst.Facebook, src.Facebook},
		{&dst.MCID, src.MCID},
		{&dst.GHLID, src.GHLID},
		{&dst.UserID, src.UserID},
		{&dst.ThreadID, src.ThreadID},
		{&dst.AdID, src.AdID},
		{&dst.Stage, src.Stage},
		{&dst.ReachedStage, src.ReachedStage},
		{&dst.AdType, src.AdType},
		{&dst.PaidVsOrganic, src.PaidVsOrganic},
		{&dst.TriggerWord, src.TriggerWord},
		{&dst.CampaignName, src.CampaignName},
		{&dst.Platform, src.Platform},
		{&dst.Symptoms, src.Symptoms},
		{&dst.MonthsPP, src.MonthsPP},
		{&dst.Objections, src.Objections},
		{&dst.ABTest, src.ABTest},
		{&dst.SentLink, src.SentLink},
		{&dst.ClickedLink, src.ClickedLink},
		{&dst.Booked, src.Booked},
		{&dst.Attended, src.Attended},
		{&dst.DataQualityNotes, src.DataQualityNotes},
	} {
		if fill(f.dst, f.src) {
			filled = true
		}
	}

	if fill(&dst.FirstSeen, src.FirstSeen) {
		filled = true
	}
	if fill(&dst.LastSeen, src.LastSeen) {
		filled = true
	}
	if fill(&dst.SubscriptionDate, src.SubscriptionDate) {
		filled = true
	}
	if fill(&dst.PurchaseDate, src.PurchaseDate) {
		filled = true
	}

	// A known purchase outranks a known "no purchase".
	if src.HasPurchase != nil && (dst.HasPurchase == nil || (*src.HasPurchase && !*dst.HasPurchase)) {
		dst.HasPurchase = src.HasPurchase
		filled = true
	}
	if !dst.PurchaseAmount.Valid && src.PurchaseAmount.Valid {
		dst.PurchaseAmount = src.PurchaseAmount
		filled = true
	}
	if dst.ImportBatchID == "" {
		dst.ImportBatchID = src.ImportBatchID
	}
	if src.IsSuspicious {
		dst.IsSuspicious = true
	}

	return filled
}

// Resolver is the identity table for one run. It is not safe for concurrent
// use and is discarded once the run's sink write finishes.
type Resolver struct {
	byEmail map[string]*models.Contact
	order   []string
}

func NewResolver() *Resolver {
	return &Resolver{byEmail: make(map[string]*models.Contact)}
}

// Put resolves c against the contact already stored under its email. It
// reports whether an existing contact absorbed c.
func (r *Resolver) Put(c *models.Contact) bool {
	existing, found := r.byEmail[c.Email]
	if !found {
		r.byEmail[c.Email] = c
		r.order = append(r.order, c.Email)
		return false
	}
	Resolve(existing, c)
	return true
}

// Dedupe handles a repeated email inside one export: the more complete of the
// two records becomes the base and the other fills its gaps. It reports
// whether c replaced the stored base.
func (r *Resolver) Dedupe(c *models.Contact) bool {
	existing, found := r.byEmail[c.Email]
	if !found {
		r.byEmail[c.Email] = c
		r.order = append(r.order, c.Email)
		return false
	}
	if MoreComplete(c, existing) {
		fillGaps(c, existing)
		r.byEmail[c.Email] = c
		return true
	}
	fillGaps(existing, c)
	return false
}

// Enrich fills gaps on an already known contact and never inserts. Source
// identifiers are gap-filled too, and provenance is left alone. It reports
// whether anything was filled.
func (r *Resolver) Enrich(c *models.Contact) bool {
	existing, found := r.byEmail[c.Email]
	if !found {
		return false
	}
	return fillGaps(existing, c)
}

func (r *Resolver) Get(email string) (*models.Contact, bool) {
	c, ok := r.byEmail[email]
	return c, ok
}

// Contacts returns every contact in first-seen order.
func (r *Resolver) Contacts() []*models.Contact {
	out := make([]*models.Contact, 0, len(r.order))
	for _, email := range r.order {
		out = append(out, r.byEmail[email])
	}
	return out
}

func (r *Resolver) Len() int {
	return len(r.order)
}
