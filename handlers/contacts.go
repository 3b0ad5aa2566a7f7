// ABOUTME: Contact MCP tool handlers
// ABOUTME: Read-only search and per-contact history over the imported store
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/leadledger/db"
	"github.com/harperreed/leadledger/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ContactHandlers struct {
	db *sql.DB
}

func NewContactHandlers(database *sql.DB) *ContactHandlers {
	return &ContactHandlers{db: database}
}

type FindContactsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Search text matched against email, first and last name"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results (default 10)"`
}

type ContactOutput struct {
	Email            string `json:"email"`
	Name             string `json:"name,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Source           string `json:"source"`
	ReachedStage     string `json:"reached_stage,omitempty"`
	AdType           string `json:"ad_type,omitempty"`
	CampaignName     string `json:"campaign_name,omitempty"`
	FirstSeen        string `json:"first_seen,omitempty"`
	HasPurchase      bool   `json:"has_purchase"`
	PurchaseDate     string `json:"purchase_date,omitempty"`
	PurchaseAmount   string `json:"purchase_amount,omitempty"`
	IsSuspicious     bool   `json:"is_suspicious"`
	DataQualityNotes string `json:"data_quality_notes,omitempty"`
}

type FindContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
	Count    int             `json:"count"`
}

func (h *ContactHandlers) FindContacts(ctx context.Context, _ *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 10
	}

	contacts, err := db.FindContacts(ctx, h.db, input.Query, input.Limit)
	if err != nil {
		return nil, FindContactsOutput{}, fmt.Errorf("failed to find contacts: %w", err)
	}

	out := FindContactsOutput{Contacts: make([]ContactOutput, 0, len(contacts))}
	for _, c := range contacts {
		out.Contacts = append(out.Contacts, contactToOutput(c))
	}
	out.Count = len(out.Contacts)
	return nil, out, nil
}

type ContactHistoryInput struct {
	Email string `json:"email" jsonschema:"Email address of the contact"`
}

type PaymentOutput struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	PaymentDate string `json:"payment_date"`
	PaymentType string `json:"payment_type"`
	Source      string `json:"source"`
}

type EventOutput struct {
	EventType string `json:"event_type"`
	EventDate string `json:"event_date"`
	Source    string `json:"source"`
}

type ContactHistoryOutput struct {
	Contact  ContactOutput   `json:"contact"`
	Payments []PaymentOutput `json:"payments"`
	Timeline []EventOutput   `json:"timeline"`
}

// ContactHistory returns a contact with its payments and timeline.
func (h *ContactHandlers) ContactHistory(ctx context.Context, _ *mcp.CallToolRequest, input ContactHistoryInput) (*mcp.CallToolResult, ContactHistoryOutput, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, ContactHistoryOutput{}, fmt.Errorf("email is required")
	}

	contact, err := db.GetContact(ctx, h.db, email)
	if err != nil {
		return nil, ContactHistoryOutput{}, fmt.Errorf("failed to fetch contact: %w", err)
	}
	if contact == nil {
		return nil, ContactHistoryOutput{}, fmt.Errorf("contact not found: %s", email)
	}

	payments, err := db.ListPayments(ctx, h.db, email)
	if err != nil {
		return nil, ContactHistoryOutput{}, fmt.Errorf("failed to fetch payments: %w", err)
	}
	events, err := db.ListTimeline(ctx, h.db, email)
	if err != nil {
		return nil, ContactHistoryOutput{}, fmt.Errorf("failed to fetch timeline: %w", err)
	}

	out := ContactHistoryOutput{
		Contact:  contactToOutput(contact),
		Payments: make([]PaymentOutput, 0, len(payments)),
		Timeline: make([]EventOutput, 0, len(events)),
	}
	for _, p := range payments {
		out.Payments = append(out.Payments, PaymentOutput{
			ID:          p.ID,
			Amount:      p.Amount.StringFixed(2),
			Currency:    p.Currency,
			PaymentDate: formatDate(&p.PaymentDate),
			PaymentType: p.PaymentType,
			Source:      p.Source,
		})
	}
	for _, e := range events {
		out.Timeline = append(out.Timeline, EventOutput{
			EventType: e.EventType,
			EventDate: formatDate(&e.EventDate),
			Source:    e.Source,
		})
	}
	return nil, out, nil
}

func contactToOutput(c *models.Contact) ContactOutput {
	out := ContactOutput{
		Email:            c.Email,
		Name:             strings.TrimSpace(models.Deref(c.FirstName) + " " + models.Deref(c.LastName)),
		Phone:            models.Deref(c.Phone),
		Source:           c.Source,
		ReachedStage:     models.Deref(c.ReachedStage),
		AdType:           models.Deref(c.AdType),
		CampaignName:     models.Deref(c.CampaignName),
		FirstSeen:        formatDate(c.FirstSeen),
		HasPurchase:      c.HasPurchase != nil && *c.HasPurchase,
		PurchaseDate:     formatDate(c.PurchaseDate),
		IsSuspicious:     c.IsSuspicious,
		DataQualityNotes: models.Deref(c.DataQualityNotes),
	}
	if c.PurchaseAmount.Valid {
		out.PurchaseAmount = c.PurchaseAmount.Decimal.StringFixed(2)
	}
	return out
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
