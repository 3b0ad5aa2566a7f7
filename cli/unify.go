// ABOUTME: Unify CLI command
// ABOUTME: Builds the unified contact table from all exports, writes it as CSV and optionally loads it
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/harperreed/leadledger/config"
	"github.com/harperreed/leadledger/csvio"
	"github.com/harperreed/leadledger/importer"
	"github.com/harperreed/leadledger/mapping"
	"github.com/harperreed/leadledger/models"
	"github.com/harperreed/leadledger/unify"
)

// DefaultUnifiedFile is where unify writes when --out is not given.
const DefaultUnifiedFile = "unified_contacts.csv"

// UnifyCommand builds the unified table.
func UnifyCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("unify", flag.ExitOnError)
	googleMain := fs.String("google-main", "", "Main Google Sheets CRM export")
	googleSimple := fs.String("google-simple", "", "Simplified Google Sheets export (enrichment only)")
	airtable := fs.String("airtable", "", "Airtable contacts export")
	stripePath := fs.String("stripe", "", "Stripe payments export")
	denefitsPath := fs.String("denefits", "", "Denefits contracts export")
	out := fs.String("out", DefaultUnifiedFile, "Output CSV file")
	load := fs.Bool("load", false, "Also load the unified table into the database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *googleMain == "" && *airtable == "" {
		return fmt.Errorf("%w: unify needs --google-main and/or --airtable", config.ErrMissingInput)
	}

	app.printf("Loading data...\n")
	var in unify.Inputs
	loads := []struct {
		label string
		path  string
		dest  *[]mapping.Row
		merge bool
	}{
		{"Google Sheets main", *googleMain, &in.GoogleMain, false},
		{"Airtable", *airtable, &in.Airtable, true},
		{"Google Sheets simplified", *googleSimple, &in.GoogleSimple, false},
		{"Stripe", *stripePath, &in.Stripe, false},
		{"Denefits", *denefitsPath, &in.Denefits, false},
	}
	for _, l := range loads {
		if l.path == "" {
			continue
		}
		rows, err := readRows(l.path, l.merge)
		if err != nil {
			return err
		}
		*l.dest = rows
		app.printf("  ✓ %s: %d rows\n", l.label, len(rows))
	}

	res := unify.Build(in, app.Logger)
	printBuildStats(app.Out, res.Stats)
	if len(res.Records) == 0 {
		return fmt.Errorf("unify: %w", importer.ErrNoValidRecords)
	}

	res.SortByRevenue()
	if err := csvio.WriteFile(*out, unify.Columns, res.Table()); err != nil {
		return fmt.Errorf("failed to write unified file: %w", err)
	}
	app.printf("✓ Saved %d contacts to %s\n", len(res.Records), *out)

	PrintUnifySummary(app.Out, res.Summarize())

	if !*load {
		return nil
	}

	imp, metrics, err := app.Importer()
	if err != nil {
		return err
	}
	batch, err := imp.LoadUnified(ctx, res, *out)
	if err != nil {
		if batch != nil {
			batch.PrintMessages(app.Out)
		}
		return err
	}
	batch.PrintSummary(app.Out)
	app.printf("  Payments:        %d\n", batch.Payments)
	app.WriteMetrics(metrics)
	return nil
}

func readRows(path string, mergeColumns bool) ([]mapping.Row, error) {
	sheet, err := csvio.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if mergeColumns {
		sheet.MergeDuplicateColumns()
	}
	return sheet.Rows(), nil
}

func printBuildStats(w io.Writer, st unify.BuildStats) {
	_, _ = fmt.Fprintf(w, "\nBuilding unified contact list...\n")
	_, _ = fmt.Fprintf(w, "  ✓ Google main: %d contacts (%d duplicates merged)\n", st.GoogleMainProcessed, st.GoogleMainMerged)
	_, _ = fmt.Fprintf(w, "  ✓ Airtable: merged %d, added %d new\n", st.AirtableMerged, st.AirtableNew)
	_, _ = fmt.Fprintf(w, "  ✓ Enriched %d contacts from the simplified sheet\n", st.Enriched)
	_, _ = fmt.Fprintf(w, "  ✓ Linked %d Stripe payments ($%s), %d unlinked, %d refunds\n",
		st.StripeLinked, st.StripeRevenue.StringFixed(2), st.StripeUnlinked, st.StripeRefunds)
	_, _ = fmt.Fprintf(w, "  ✓ Linked %d Denefits contracts ($%s), %d unlinked\n",
		st.DenefitsLinked, st.DenefitsRevenue.StringFixed(2), st.DenefitsUnlinked)
	if skipped := st.StripeSkipped + st.DenefitsSkipped; skipped > 0 {
		_, _ = fmt.Fprintf(w, "  ⚠ Skipped %d payment rows (not paid, inactive or incomplete)\n", skipped)
	}
}

// PrintUnifySummary writes the end-of-run statistics.
func PrintUnifySummary(w io.Writer, sum unify.Summary) {
	line := strings.Repeat("=", 60)
	_, _ = fmt.Fprintf(w, "\n%s\nSUMMARY STATISTICS\n%s\n\n", line, line)

	_, _ = fmt.Fprintf(w, "Total unique contacts: %d\n", sum.Contacts)
	_, _ = fmt.Fprintf(w, "Contacts with purchases: %d\n", sum.WithPurchase)
	_, _ = fmt.Fprintf(w, "Conversion rate: %.2f%%\n\n", sum.ConversionRate)

	_, _ = fmt.Fprintf(w, "Revenue breakdown:\n")
	_, _ = fmt.Fprintf(w, "  Total revenue:  $%s\n", sum.TotalRevenue.StringFixed(2))
	_, _ = fmt.Fprintf(w, "  Ledger revenue: $%s\n", sum.LedgerRevenue.StringFixed(2))
	_, _ = fmt.Fprintf(w, "  From Stripe:    $%s\n", sum.StripeRevenue.StringFixed(2))
	_, _ = fmt.Fprintf(w, "  From Denefits:  $%s\n", sum.DenefitsRevenue.StringFixed(2))
	_, _ = fmt.Fprintf(w, "  Average per customer: $%s\n", sum.AveragePerCustomer.StringFixed(2))
	if sum.EstimateOnly > 0 {
		_, _ = fmt.Fprintf(w, "  ⚠ %d buyers have a sheet estimate above their ledger total\n", sum.EstimateOnly)
	}

	_, _ = fmt.Fprintf(w, "\nPayment method breakdown:\n")
	_, _ = fmt.Fprintf(w, "  Stripe only:   %d\n", sum.PaymentMethods[models.PaymentMethodStripe])
	_, _ = fmt.Fprintf(w, "  Denefits only: %d\n", sum.PaymentMethods[models.PaymentMethodDenefits])
	_, _ = fmt.Fprintf(w, "  Both:          %d\n", sum.PaymentMethods[models.PaymentMethodBoth])

	_, _ = fmt.Fprintf(w, "\nSource breakdown:\n")
	printCounts(w, sum.Sources)
	_, _ = fmt.Fprintf(w, "\nPaid vs Organic:\n")
	printCounts(w, sum.PaidVsOrganic)
	_, _ = fmt.Fprintln(w)
}

// printCounts lists counts highest first, ties by name.
func printCounts(w io.Writer, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %-20s %d\n", k, counts[k])
	}
}
