// ABOUTME: Funnel, revenue and import history MCP tool handlers
// ABOUTME: Summaries computed from the stored contacts, payments and import logs
package handlers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harperreed/leadledger/db"
	"github.com/harperreed/leadledger/models"
	"github.com/harperreed/leadledger/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"
)

type ReportHandlers struct {
	db *sql.DB
}

func NewReportHandlers(database *sql.DB) *ReportHandlers {
	return &ReportHandlers{db: database}
}

type FunnelSummaryInput struct{}

type StageOutput struct {
	Stage string `json:"stage"`
	// Count is contacts whose highest stage is this one.
	Count int `json:"count"`
	// Reached is contacts at this stage or beyond.
	Reached int `json:"reached"`
}

type FunnelSummaryOutput struct {
	Stages         []StageOutput `json:"stages"`
	TotalContacts  int           `json:"total_contacts"`
	ConversionRate float64       `json:"conversion_rate"`
}

func (h *ReportHandlers) FunnelSummary(ctx context.Context, _ *mcp.CallToolRequest, _ FunnelSummaryInput) (*mcp.CallToolResult, FunnelSummaryOutput, error) {
	counts, err := db.FunnelCounts(ctx, h.db)
	if err != nil {
		return nil, FunnelSummaryOutput{}, fmt.Errorf("failed to fetch funnel: %w", err)
	}
	total, err := db.CountContacts(ctx, h.db)
	if err != nil {
		return nil, FunnelSummaryOutput{}, fmt.Errorf("failed to count contacts: %w", err)
	}

	reached := viz.ReachedCounts(counts)
	out := FunnelSummaryOutput{TotalContacts: total}
	for _, fc := range counts {
		stage := StageOutput{Stage: fc.Stage, Count: fc.Count}
		if r, ok := reached[fc.Stage]; ok {
			stage.Reached = r
		} else {
			stage.Reached = fc.Count
		}
		out.Stages = append(out.Stages, stage)
	}
	if total > 0 {
		out.ConversionRate = float64(reached[models.StagePurchased]) * 100 / float64(total)
	}
	return nil, out, nil
}

type RevenueSummaryInput struct{}

type SourceRevenueOutput struct {
	Source   string `json:"source"`
	Payments int    `json:"payments"`
	Revenue  string `json:"revenue"`
	Refunds  string `json:"refunds"`
}

type RevenueSummaryOutput struct {
	Sources []SourceRevenueOutput `json:"sources"`
	Revenue string                `json:"revenue"`
	Refunds string                `json:"refunds"`
	Net     string                `json:"net"`
}

func (h *ReportHandlers) RevenueSummary(ctx context.Context, _ *mcp.CallToolRequest, _ RevenueSummaryInput) (*mcp.CallToolResult, RevenueSummaryOutput, error) {
	breakdown, err := db.RevenueBySource(ctx, h.db)
	if err != nil {
		return nil, RevenueSummaryOutput{}, fmt.Errorf("failed to fetch revenue: %w", err)
	}

	var revenue, refunds decimal.Decimal
	out := RevenueSummaryOutput{Sources: make([]SourceRevenueOutput, 0, len(breakdown))}
	for _, r := range breakdown {
		out.Sources = append(out.Sources, SourceRevenueOutput{
			Source:   r.Source,
			Payments: r.Payments,
			Revenue:  r.Revenue.StringFixed(2),
			Refunds:  r.Refunds.StringFixed(2),
		})
		revenue = revenue.Add(r.Revenue)
		refunds = refunds.Add(r.Refunds)
	}
	out.Revenue = revenue.StringFixed(2)
	out.Refunds = refunds.StringFixed(2)
	out.Net = revenue.Sub(refunds).StringFixed(2)
	return nil, out, nil
}

type ListImportsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum import runs to return (default 20)"`
}

type ImportOutput struct {
	ID            string   `json:"id"`
	SourceFile    string   `json:"source_file"`
	SourceType    string   `json:"source_type"`
	RowsProcessed int      `json:"rows_processed"`
	RowsImported  int      `json:"rows_imported"`
	RowsUpdated   int      `json:"rows_updated"`
	RowsSkipped   int      `json:"rows_skipped"`
	Errors        []string `json:"errors,omitempty"`
	Warnings      int      `json:"warnings"`
	StartedAt     string   `json:"started_at"`
	Notes         string   `json:"notes,omitempty"`
}

type ListImportsOutput struct {
	Imports []ImportOutput `json:"imports"`
	Count   int            `json:"count"`
}

func (h *ReportHandlers) ListImports(ctx context.Context, _ *mcp.CallToolRequest, input ListImportsInput) (*mcp.CallToolResult, ListImportsOutput, error) {
	logs, err := db.ListImportLogs(ctx, h.db, input.Limit)
	if err != nil {
		return nil, ListImportsOutput{}, fmt.Errorf("failed to list imports: %w", err)
	}

	out := ListImportsOutput{Imports: make([]ImportOutput, 0, len(logs))}
	for _, l := range logs {
		out.Imports = append(out.Imports, ImportOutput{
			ID:            l.ID.String(),
			SourceFile:    l.SourceFile,
			SourceType:    l.SourceType,
			RowsProcessed: l.RowsProcessed,
			RowsImported:  l.RowsImported,
			RowsUpdated:   l.RowsUpdated,
			RowsSkipped:   l.RowsSkipped,
			Errors:        l.Errors,
			Warnings:      len(l.Warnings),
			StartedAt:     l.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
			Notes:         l.Notes,
		})
	}
	out.Count = len(out.Imports)
	return nil, out, nil
}
