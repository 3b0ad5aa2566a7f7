// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Funnel bars, revenue by source and recent imports from the store
package viz

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/leadledger/db"
	"github.com/harperreed/leadledger/models"
	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	Funnel  []models.FunnelCount
	Reached map[string]int

	TotalContacts int
	TotalPayments int

	Revenue    []models.RevenueBreakdown
	NetRevenue decimal.Decimal

	RecentImports []*models.ImportLog
}

// ConversionRate is the share of contacts that reached purchased, in percent.
func (s *DashboardStats) ConversionRate() float64 {
	if s.TotalContacts == 0 {
		return 0
	}
	return float64(s.Reached[models.StagePurchased]) * 100 / float64(s.TotalContacts)
}

func GenerateDashboardStats(ctx context.Context, database *sql.DB) (*DashboardStats, error) {
	stats := &DashboardStats{}
	var err error

	stats.Funnel, err = db.FunnelCounts(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch funnel: %w", err)
	}
	stats.Reached = ReachedCounts(stats.Funnel)

	stats.TotalContacts, err = db.CountContacts(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}
	stats.TotalPayments, err = db.CountPayments(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	stats.Revenue, err = db.RevenueBySource(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch revenue: %w", err)
	}
	for _, r := range stats.Revenue {
		stats.NetRevenue = stats.NetRevenue.Add(r.Revenue).Sub(r.Refunds)
	}

	stats.RecentImports, err = db.ListImportLogs(ctx, database, 5)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch import history: %w", err)
	}

	return stats, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color("240"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// RenderDashboard draws the dashboard. With styled false no escape codes are
// emitted, for pipes and files.
func RenderDashboard(stats *DashboardStats, styled bool) string {
	style := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var out strings.Builder

	out.WriteString(style(titleStyle, "LEADLEDGER DASHBOARD"))
	out.WriteString("\n\n")

	out.WriteString(style(sectionStyle, "FUNNEL"))
	out.WriteString("\n")
	renderFunnel(&out, stats, func(bar string) string { return style(barStyle, bar) })
	out.WriteString(fmt.Sprintf("  Conversion rate: %.1f%%\n\n", stats.ConversionRate()))

	out.WriteString(style(sectionStyle, "REVENUE"))
	out.WriteString("\n")
	if len(stats.Revenue) == 0 {
		out.WriteString(style(mutedStyle, "  no payments imported"))
		out.WriteString("\n")
	}
	for _, r := range stats.Revenue {
		line := fmt.Sprintf("  %-10s %4d payments  $%12s", r.Source, r.Payments, r.Revenue.StringFixed(2))
		if r.Refunds.IsPositive() {
			line += style(warnStyle, fmt.Sprintf("  (refunds $%s)", r.Refunds.StringFixed(2)))
		}
		out.WriteString(line + "\n")
	}
	out.WriteString(fmt.Sprintf("  %-10s %4d payments  $%12s\n\n", "net", stats.TotalPayments, stats.NetRevenue.StringFixed(2)))

	out.WriteString(style(sectionStyle, "RECENT IMPORTS"))
	out.WriteString("\n")
	if len(stats.RecentImports) == 0 {
		out.WriteString(style(mutedStyle, "  none yet"))
		out.WriteString("\n")
	}
	for _, l := range stats.RecentImports {
		line := fmt.Sprintf("  %s  %-13s %-28s +%d ~%d -%d",
			l.StartedAt.Format("2006-01-02 15:04"), l.SourceType, l.SourceFile,
			l.RowsImported, l.RowsUpdated, l.RowsSkipped)
		if len(l.Errors) > 0 {
			line += style(warnStyle, fmt.Sprintf("  %d errors", len(l.Errors)))
		}
		out.WriteString(line + "\n")
	}

	return out.String()
}

func renderFunnel(out *strings.Builder, stats *DashboardStats, paint func(string) string) {
	maxCount := stats.Reached[models.StageContacted]
	if maxCount == 0 {
		maxCount = 1
	}

	for _, stage := range models.FunnelStages {
		n := stats.Reached[stage]
		barLength := (n * 20) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 20-barLength)
		out.WriteString(fmt.Sprintf("  %-10s %s %5d\n", stage, paint(bar), n))
	}

	for _, fc := range stats.Funnel {
		if !isFunnelStage(fc.Stage) {
			out.WriteString(fmt.Sprintf("  %-10s %s %5d\n", fc.Stage, strings.Repeat(" ", 20), fc.Count))
		}
	}
}
