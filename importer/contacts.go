// ABOUTME: Google Sheets and Airtable contact CSV importers
// ABOUTME: Maps rows, dedupes by email keeping the most complete record, tracks provenance and upserts
package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/leadledger/csvio"
	"github.com/harperreed/leadledger/db"
	"github.com/harperreed/leadledger/mapping"
	"github.com/harperreed/leadledger/models"
	"github.com/harperreed/leadledger/unify"
	"go.uber.org/zap"
)

type contactMapper func(row mapping.Row, batchID string, now time.Time) (*models.Contact, bool)

// ImportSheets imports a Google Sheets contact export.
func (imp *Importer) ImportSheets(ctx context.Context, path string) (*Batch, error) {
	return imp.importContacts(ctx, path, models.SourceGoogleSheets, mapping.MapGoogleSheetsContact, false)
}

// ImportAirtable imports an Airtable contact export. Airtable exports can
// repeat a column name, so duplicate columns are merged first.
func (imp *Importer) ImportAirtable(ctx context.Context, path string) (*Batch, error) {
	return imp.importContacts(ctx, path, models.SourceAirtable, mapping.MapAirtableContact, true)
}

func (imp *Importer) importContacts(ctx context.Context, path, source string, mapRow contactMapper, mergeColumns bool) (*Batch, error) {
	b := newBatch(path, source, imp.now())
	imp.printf("Importing %s contacts from %s\n", source, b.SourceFile)

	sheet, err := csvio.ReadFile(path)
	if err != nil {
		return b, err
	}
	imp.printf("✓ Found %d rows\n", sheet.Len())

	if mergeColumns {
		if merged := sheet.MergeDuplicateColumns(); len(merged) > 0 {
			imp.printf("✓ Merged duplicate columns: %s\n", strings.Join(merged, ", "))
		}
	}

	resolver := unify.NewResolver()
	for idx, row := range sheet.Rows() {
		b.Processed++
		c, ok := mapRow(row, b.BatchID(), b.StartedAt)
		if !ok {
			b.skipRow(idx, "No email found")
			continue
		}
		if existing, dup := resolver.Get(c.Email); dup && unify.MoreComplete(c, existing) {
			b.warnf("Duplicate email %s: kept more complete record", c.Email)
		}
		resolver.Dedupe(c)
	}

	contacts := resolver.Contacts()
	imp.printf("✓ Mapped %d unique contacts (%d rows skipped)\n", len(contacts), b.Skipped)
	if len(contacts) == 0 {
		return b, fmt.Errorf("%s: %w", b.SourceFile, ErrNoValidRecords)
	}

	emails := make([]string, len(contacts))
	for i, c := range contacts {
		emails[i] = c.Email
	}
	existing, err := db.ExistingSources(ctx, imp.db, emails)
	if err != nil {
		imp.logger.Warn("could not check existing contacts", zap.Error(err))
		b.warnf("Could not check for existing contacts: %v", err)
		existing = map[string]string{}
	}

	created, updated := markProvenance(contacts, existing, source)

	if _, err := db.UpsertContacts(ctx, imp.db, contacts, imp.batchSize); err != nil {
		imp.logger.Error("contact upsert failed", zap.String("batch", b.BatchID()), zap.Error(err))
		b.errorf("Database insert failed: %v", err)
	} else {
		b.Imported = created
		b.Updated = updated
		imp.printf("✓ Upserted %d contacts (%d new, %d updated)\n", len(contacts), created, updated)
		imp.insertTimeline(ctx, b, contactEvents(contacts, source, b.BatchID()))
	}

	imp.finish(ctx, b, fmt.Sprintf("Imported %d unique contacts from %s export", len(contacts), source))
	return b, nil
}

// markProvenance tags contacts already stored under a different source as
// merged. It returns how many contacts are new and how many already existed.
func markProvenance(contacts []*models.Contact, existing map[string]string, source string) (created, updated int) {
	for _, c := range contacts {
		prev, ok := existing[c.Email]
		if !ok {
			created++
			continue
		}
		updated++
		if prev == source {
			continue
		}
		c.Source = models.SourceMerged
		if prev != models.SourceMerged {
			note := fmt.Sprintf("Merged from %s and %s", prev, source)
			if c.DataQualityNotes != nil {
				note = *c.DataQualityNotes + "; " + note
			}
			c.DataQualityNotes = &note
		}
	}
	return created, updated
}

func contactEvents(contacts []*models.Contact, source, batchID string) []*models.TimelineEvent {
	var events []*models.TimelineEvent
	for _, c := range contacts {
		if c.FirstSeen != nil {
			events = append(events, &models.TimelineEvent{
				Email:         c.Email,
				EventType:     models.EventContactCreated,
				EventDate:     *c.FirstSeen,
				Source:        source,
				ImportBatchID: batchID,
			})
		}
		if c.PurchaseDate != nil {
			events = append(events, &models.TimelineEvent{
				Email:         c.Email,
				EventType:     models.EventPurchased,
				EventDate:     *c.PurchaseDate,
				Source:        source,
				ImportBatchID: batchID,
			})
		}
	}
	return events
}
