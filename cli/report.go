// ABOUTME: Report and history CLI commands
// ABOUTME: Dashboard of funnel and revenue, plus the import log listing
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/harperreed/leadledger/db"
	"github.com/harperreed/leadledger/viz"
)

// ReportCommand prints the funnel and revenue dashboard.
func ReportCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	plain := fs.Bool("plain", false, "Disable colors")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, err := app.DB()
	if err != nil {
		return err
	}
	stats, err := viz.GenerateDashboardStats(ctx, database)
	if err != nil {
		return fmt.Errorf("failed to generate dashboard stats: %w", err)
	}

	app.printf("%s", viz.RenderDashboard(stats, app.styled() && !*plain))
	return nil
}

// HistoryCommand lists recent import runs.
func HistoryCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum runs to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, err := app.DB()
	if err != nil {
		return err
	}
	logs, err := db.ListImportLogs(ctx, database, *limit)
	if err != nil {
		return err
	}

	if len(logs) == 0 {
		app.printf("No imports yet.\n")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STARTED\tSOURCE\tFILE\tPROCESSED\tIMPORTED\tUPDATED\tSKIPPED\tERRORS\tBATCH")
	_, _ = fmt.Fprintln(w, "-------\t------\t----\t---------\t--------\t-------\t-------\t------\t-----")
	for _, l := range logs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			l.StartedAt.Format("2006-01-02 15:04"),
			l.SourceType,
			l.SourceFile,
			l.RowsProcessed,
			l.RowsImported,
			l.RowsUpdated,
			l.RowsSkipped,
			len(l.Errors),
			l.ID.String()[:8],
		)
	}
	return w.Flush()
}

// VizFunnelCommand writes the funnel graph as DOT.
func VizFunnelCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("viz funnel", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, err := app.DB()
	if err != nil {
		return err
	}
	dot, err := viz.NewGraphGenerator(database).GenerateFunnelGraph(ctx)
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(dot), 0644)
	}
	app.printf("%s\n", dot)
	return nil
}
