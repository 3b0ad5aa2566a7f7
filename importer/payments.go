// ABOUTME: Stripe and Denefits payment CSV importers
// ABOUTME: Appends payments, marks buyers on existing contacts, writes purchase events and revenue stats
package importer

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/harperreed/leadledger/csvio"
	"github.com/harperreed/leadledger/db"
	"github.com/harperreed/leadledger/mapping"
	"github.com/harperreed/leadledger/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type paymentMapper func(row mapping.Row, batchID string, now time.Time) (*models.Payment, bool)

// PaymentBatch is a payment import run with its revenue totals.
type PaymentBatch struct {
	*Batch

	Revenue decimal.Decimal
	Refunds decimal.Decimal
}

// NetRevenue is revenue less refunds.
func (pb *PaymentBatch) NetRevenue() decimal.Decimal {
	return pb.Revenue.Sub(pb.Refunds)
}

// PrintSummary writes the batch summary followed by the revenue stats.
func (pb *PaymentBatch) PrintSummary(w io.Writer) {
	pb.Batch.PrintSummary(w)
	_, _ = fmt.Fprintf(w, "\nRevenue:\n")
	_, _ = fmt.Fprintf(w, "  Total:   $%s\n", pb.Revenue.StringFixed(2))
	_, _ = fmt.Fprintf(w, "  Refunds: $%s\n", pb.Refunds.StringFixed(2))
	_, _ = fmt.Fprintf(w, "  Net:     $%s\n", pb.NetRevenue().StringFixed(2))
}

// ImportStripe imports a Stripe payments export.
func (imp *Importer) ImportStripe(ctx context.Context, path string) (*PaymentBatch, error) {
	return imp.importPayments(ctx, path, models.SourceStripe, mapping.MapStripePayment)
}

// ImportDenefits imports a Denefits contract export.
func (imp *Importer) ImportDenefits(ctx context.Context, path string) (*PaymentBatch, error) {
	return imp.importPayments(ctx, path, models.SourceDenefits, mapping.MapDenefitsPayment)
}

func (imp *Importer) importPayments(ctx context.Context, path, source string, mapRow paymentMapper) (*PaymentBatch, error) {
	pb := &PaymentBatch{Batch: newBatch(path, source, imp.now())}
	b := pb.Batch
	imp.printf("Importing %s payments from %s\n", source, b.SourceFile)

	sheet, err := csvio.ReadFile(path)
	if err != nil {
		return pb, err
	}
	imp.printf("✓ Found %d rows\n", sheet.Len())

	var payments []*models.Payment
	for idx, row := range sheet.Rows() {
		b.Processed++
		p, ok := mapRow(row, b.BatchID(), b.StartedAt)
		if !ok {
			b.skipRow(idx, "Missing required fields (email, amount, or date)")
			continue
		}
		payments = append(payments, p)
	}

	imp.printf("✓ Mapped %d payments (%d rows skipped)\n", len(payments), b.Skipped)
	if len(payments) == 0 {
		return pb, fmt.Errorf("%s: %w", b.SourceFile, ErrNoValidRecords)
	}

	n, err := db.InsertPayments(ctx, imp.db, payments)
	if err != nil {
		imp.logger.Error("payment insert failed", zap.String("batch", b.BatchID()), zap.Error(err))
		b.errorf("Database insert failed: %v", err)
		imp.finish(ctx, b, fmt.Sprintf("Payment insert failed for %s export", source))
		return pb, nil
	}
	b.Imported = n
	imp.printf("✓ Inserted %d payments\n", n)

	for _, p := range payments {
		if p.IsRefund() {
			pb.Refunds = pb.Refunds.Add(p.Amount.Abs())
		} else {
			pb.Revenue = pb.Revenue.Add(p.Amount)
		}
	}

	b.Updated = imp.markBuyers(ctx, b, payments)
	imp.printf("✓ Updated %d contacts with purchase info\n", b.Updated)

	imp.insertTimeline(ctx, b, purchaseEvents(payments, source, b.BatchID()))

	revenue, _ := pb.Revenue.Float64()
	imp.metrics.ObserveRevenue(source, revenue)
	imp.finish(ctx, b, fmt.Sprintf("Imported %d %s payments, updated %d contacts", n, source, b.Updated))
	return pb, nil
}

type buyer struct {
	email string
	first time.Time
	total decimal.Decimal
}

// buyers sums non-refund payments per email, keeping the earliest date.
func buyers(payments []*models.Payment) []buyer {
	byEmail := make(map[string]*buyer)
	var order []string
	for _, p := range payments {
		if p.IsRefund() {
			continue
		}
		bu, ok := byEmail[p.Email]
		if !ok {
			bu = &buyer{email: p.Email, first: p.PaymentDate}
			byEmail[p.Email] = bu
			order = append(order, p.Email)
		}
		bu.total = bu.total.Add(p.Amount)
		if p.PaymentDate.Before(bu.first) {
			bu.first = p.PaymentDate
		}
	}

	sort.Strings(order)
	out := make([]buyer, 0, len(order))
	for _, email := range order {
		out = append(out, *byEmail[email])
	}
	return out
}

// markBuyers updates existing contacts with their purchase totals. Payments
// for unknown emails stay stored but update nothing.
func (imp *Importer) markBuyers(ctx context.Context, b *Batch, payments []*models.Payment) int {
	updated := 0
	for _, bu := range buyers(payments) {
		found, err := db.UpdateContactPurchase(ctx, imp.db, bu.email, bu.first, bu.total)
		if err != nil {
			b.warnf("Could not update contact %s: %v", bu.email, err)
			continue
		}
		if found {
			updated++
		}
	}
	return updated
}

func purchaseEvents(payments []*models.Payment, source, batchID string) []*models.TimelineEvent {
	var events []*models.TimelineEvent
	for _, p := range payments {
		if p.IsRefund() {
			continue
		}
		events = append(events, &models.TimelineEvent{
			Email:         p.Email,
			EventType:     models.EventPurchased,
			EventDate:     p.PaymentDate,
			Source:        source,
			ImportBatchID: batchID,
			Details: map[string]any{
				"amount":       p.Amount.StringFixed(2),
				"payment_type": p.PaymentType,
			},
		})
	}
	return events
}
