// ABOUTME: Row mappers for contact exports (CRM spreadsheet and Airtable)
// ABOUTME: Turns a raw CSV row into a canonical Contact or reports it as skippable
package mapping

import (
	"time"

	"github.com/harperreed/leadledger/models"
	"github.com/harperreed/leadledger/normalize"
)

// MapGoogleSheetsContact maps one CRM spreadsheet row. ok is false when the
// row has no usable email.
func MapGoogleSheetsContact(row Row, batchID string, now time.Time) (*models.Contact, bool) {
	return mapImportedContact(row, GoogleSheetsFields, models.SourceGoogleSheets, batchID, now)
}

// MapAirtableContact maps one Airtable export row. ok is false when the row
// has no usable email.
func MapAirtableContact(row Row, batchID string, now time.Time) (*models.Contact, bool) {
	return mapImportedContact(row, AirtableFields, models.SourceAirtable, batchID, now)
}

func mapImportedContact(row Row, table Table, source, batchID string, now time.Time) (*models.Contact, bool) {
	raw, ok := table.Value(row, FieldEmail)
	if !ok {
		return nil, false
	}
	email, ok := normalize.EmailStrict(raw)
	if !ok {
		return nil, false
	}

	c := &models.Contact{
		Email:         email,
		FirstName:     table.Text(row, FieldFirstName),
		LastName:      table.Text(row, FieldLastName),
		Phone:         phoneField(table, row),
		TriggerWord:   table.Text(row, FieldTriggerWord),
		CampaignName:  table.Text(row, FieldCampaignName),
		AdID:          table.Text(row, FieldAdID),
		FirstSeen:     table.Date(row, FieldFirstSeen),
		PurchaseDate:  table.Date(row, FieldPurchaseDate),
		Source:        source,
		ImportBatchID: batchID,
	}
	c.LastSeen = c.FirstSeen

	if rawAdType, ok := table.Value(row, FieldAdType); ok {
		c.PaidVsOrganic = normalize.Text(rawAdType)
		c.AdType = ClassifyAdType(rawAdType)
	}

	purchased := c.PurchaseDate != nil
	if v, ok := table.Value(row, FieldPurchased); ok && truthy(v) {
		purchased = true
	}
	c.HasPurchase = models.Bool(purchased)

	stage := InferReachedStage(row)
	if purchased {
		stage = models.StagePurchased
	}
	c.ReachedStage = &stage

	FlagContact(c, now)
	return c, true
}

func phoneField(table Table, row Row) *string {
	raw, ok := table.Value(row, FieldPhone)
	if !ok {
		return nil
	}
	phone, ok := normalize.Phone(raw)
	if !ok {
		return nil
	}
	return &phone
}
