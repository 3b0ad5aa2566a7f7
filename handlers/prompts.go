// ABOUTME: MCP prompt handlers for reusable analysis templates
// ABOUTME: Builds contact and funnel review prompts from stored data
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/harperreed/leadledger/db"
	"github.com/harperreed/leadledger/models"
	"github.com/harperreed/leadledger/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	db *sql.DB
}

func NewPromptHandlers(database *sql.DB) *PromptHandlers {
	return &PromptHandlers{db: database}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "contact-summary":
		return h.contactSummary(ctx, request.Params.Arguments)
	case "funnel-review":
		return h.funnelReview(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) contactSummary(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	email := strings.ToLower(strings.TrimSpace(args["email"]))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	contact, err := db.GetContact(ctx, h.db, email)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	if contact == nil {
		return nil, fmt.Errorf("contact not found: %s", email)
	}
	payments, err := db.ListPayments(ctx, h.db, email)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}

	c := contactToOutput(contact)
	var text strings.Builder
	text.WriteString("Please summarize this lead:\n\n")
	text.WriteString(fmt.Sprintf("Email: %s\n", c.Email))
	if c.Name != "" {
		text.WriteString(fmt.Sprintf("Name: %s\n", c.Name))
	}
	text.WriteString(fmt.Sprintf("Source: %s\n", c.Source))
	if c.ReachedStage != "" {
		text.WriteString(fmt.Sprintf("Reached stage: %s\n", c.ReachedStage))
	}
	if c.AdType != "" {
		text.WriteString(fmt.Sprintf("Traffic: %s\n", c.AdType))
	}
	if c.FirstSeen != "" {
		text.WriteString(fmt.Sprintf("First seen: %s\n", c.FirstSeen))
	}
	if len(payments) > 0 {
		text.WriteString(fmt.Sprintf("\nPayments: %d\n", len(payments)))
		for _, p := range payments {
			text.WriteString(fmt.Sprintf("  - %s %s %s (%s)\n",
				p.PaymentDate.Format("2006-01-02"), p.Amount.StringFixed(2), p.Currency, p.Source))
		}
	}
	if c.DataQualityNotes != "" {
		text.WriteString(fmt.Sprintf("\nData quality notes: %s\n", c.DataQualityNotes))
	}

	text.WriteString("\nPlease describe where this lead is in the funnel and suggest the next action.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Summary for lead: %s", email),
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text.String()}},
		},
	}, nil
}

func (h *PromptHandlers) funnelReview(ctx context.Context) (*mcp.GetPromptResult, error) {
	stats, err := viz.GenerateDashboardStats(ctx, h.db)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	text.WriteString("Please review this marketing funnel:\n\n")
	for _, stage := range models.FunnelStages {
		text.WriteString(fmt.Sprintf("  - %s: %d\n", stage, stats.Reached[stage]))
	}
	text.WriteString(fmt.Sprintf("\nTotal contacts: %d\n", stats.TotalContacts))
	text.WriteString(fmt.Sprintf("Conversion rate: %.1f%%\n", stats.ConversionRate()))
	text.WriteString(fmt.Sprintf("Net revenue: $%s\n", stats.NetRevenue.StringFixed(2)))

	text.WriteString("\nPlease provide:")
	text.WriteString("\n1. The weakest step in the funnel")
	text.WriteString("\n2. Suggestions for improving it")

	return &mcp.GetPromptResult{
		Description: "Funnel review",
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text.String()}},
		},
	}, nil
}
