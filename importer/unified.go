// ABOUTME: Loads a unified contact table into the store
// ABOUTME: Upserts contacts in batches, adds one aggregate payment per revenue source and timeline events
package importer

import (
	"context"
	"fmt"

	"github.com/harperreed/leadledger/db"
	"github.com/harperreed/leadledger/models"
	"github.com/harperreed/leadledger/unify"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UnifiedBatch is a unified load run.
type UnifiedBatch struct {
	*Batch

	Payments int
}

// LoadUnified writes every record of res. sourceFile is only recorded in the
// import log.
func (imp *Importer) LoadUnified(ctx context.Context, res *unify.Result, sourceFile string) (*UnifiedBatch, error) {
	ub := &UnifiedBatch{Batch: newBatch(sourceFile, models.SourceUnified, imp.now())}
	b := ub.Batch
	b.Processed = len(res.Records)

	contacts := make([]*models.Contact, 0, len(res.Records))
	var payments []*models.Payment
	var events []*models.TimelineEvent

	for idx, u := range res.Records {
		if u.Contact == nil || u.Contact.Email == "" {
			b.skipRow(idx, "No email found")
			continue
		}
		c := unifiedContact(u, b.BatchID())
		contacts = append(contacts, c)

		ps, evs := unifiedPurchases(u, b.BatchID())
		if len(ps) < positiveSources(u.Summary) {
			b.warnf("Row %d: revenue for %s has no payment date", idx, c.Email)
		}
		payments = append(payments, ps...)
		events = append(events, evs...)

		if c.SubscriptionDate != nil {
			events = append(events, &models.TimelineEvent{
				Email:         c.Email,
				EventType:     models.EventContactCreated,
				EventDate:     *c.SubscriptionDate,
				Source:        c.Source,
				ImportBatchID: b.BatchID(),
			})
		}
	}

	if len(contacts) == 0 {
		return ub, fmt.Errorf("%s: %w", b.SourceFile, ErrNoValidRecords)
	}
	imp.printf("✓ Mapped %d contacts, %d payments, %d timeline events\n", len(contacts), len(payments), len(events))

	n, err := db.UpsertContacts(ctx, imp.db, contacts, imp.batchSize)
	if err != nil {
		imp.logger.Error("unified contact upsert failed", zap.Int("written", n), zap.Error(err))
		b.errorf("Database insert failed: %v", err)
		b.Imported = n
		imp.finish(ctx, b, fmt.Sprintf("Unified load stopped after %d contacts", n))
		return ub, err
	}
	b.Imported = n
	imp.printf("✓ Upserted %d contacts\n", n)

	if len(payments) > 0 {
		if _, err := db.InsertPayments(ctx, imp.db, payments); err != nil {
			imp.logger.Warn("unified payment insert failed", zap.Error(err))
			b.warnf("Could not insert payments: %v", err)
		} else {
			ub.Payments = len(payments)
			imp.printf("✓ Inserted %d payments\n", len(payments))
		}
	}

	imp.insertTimeline(ctx, b, events)

	imp.finish(ctx, b, fmt.Sprintf("Imported %d contacts, %d payments, %d timeline events from unified file",
		n, ub.Payments, b.TimelineEvents))
	return ub, nil
}

// unifiedContact copies the resolved contact and stamps the derived purchase
// fields onto it.
func unifiedContact(u unify.Unified, batchID string) *models.Contact {
	c := *u.Contact
	m := u.Metrics

	if c.Source == "" {
		c.Source = models.SourceUnified
	}
	c.ImportBatchID = batchID
	if c.FirstSeen == nil {
		c.FirstSeen = c.SubscriptionDate
	}
	if c.LastSeen == nil {
		c.LastSeen = c.FirstSeen
	}
	c.HasPurchase = models.Bool(m.HasPurchase)
	if m.PurchaseDate != nil {
		c.PurchaseDate = m.PurchaseDate
	}
	if m.TotalRevenue.IsPositive() {
		c.PurchaseAmount = decimal.NewNullDecimal(m.TotalRevenue)
	}
	return &c
}

// unifiedPurchases turns positive per-source revenue into one aggregate
// payment each, with a purchased event. Sources without a date are skipped.
func unifiedPurchases(u unify.Unified, batchID string) ([]*models.Payment, []*models.TimelineEvent) {
	s := u.Summary
	if s == nil {
		return nil, nil
	}
	email := u.Contact.Email

	var payments []*models.Payment
	var events []*models.TimelineEvent

	if s.StripeRevenue.IsPositive() && s.StripeFirstPayment != nil {
		payments = append(payments, &models.Payment{
			Email:         email,
			Amount:        s.StripeRevenue,
			Currency:      models.DefaultCurrency,
			PaymentDate:   *s.StripeFirstPayment,
			PaymentType:   models.PaymentBuyInFull,
			Source:        models.SourceStripe,
			PackageName:   s.StripePackage,
			ImportBatchID: batchID,
		})
		events = append(events, &models.TimelineEvent{
			Email:         email,
			EventType:     models.EventPurchased,
			EventDate:     *s.StripeFirstPayment,
			Source:        models.SourceStripe,
			ImportBatchID: batchID,
			Details:       map[string]any{"payment_count": s.StripePayments},
		})
	}

	if s.DenefitsRevenue.IsPositive() && s.DenefitsSignupDate != nil {
		payments = append(payments, &models.Payment{
			Email:         email,
			Amount:        s.DenefitsRevenue,
			Currency:      models.DefaultCurrency,
			PaymentDate:   *s.DenefitsSignupDate,
			PaymentType:   models.PaymentBuyNowPayLater,
			Source:        models.SourceDenefits,
			Status:        s.DenefitsStatus,
			ImportBatchID: batchID,
		})
		events = append(events, &models.TimelineEvent{
			Email:         email,
			EventType:     models.EventPurchased,
			EventDate:     *s.DenefitsSignupDate,
			Source:        models.SourceDenefits,
			ImportBatchID: batchID,
			Details:       map[string]any{"contract_count": s.DenefitsContracts},
		})
	}

	return payments, events
}

func positiveSources(s *unify.PurchaseSummary) int {
	if s == nil {
		return 0
	}
	n := 0
	if s.StripeRevenue.IsPositive() {
		n++
	}
	if s.DenefitsRevenue.IsPositive() {
		n++
	}
	return n
}
