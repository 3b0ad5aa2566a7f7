// ABOUTME: Import CLI commands
// ABOUTME: Loads Google Sheets, Airtable, Stripe and Denefits exports into the store
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/harperreed/leadledger/config"
	"github.com/harperreed/leadledger/importer"
)

// ImportCommand routes import subcommands.
func ImportCommand(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: import requires a source (sheets, airtable or payments)", config.ErrMissingInput)
	}

	switch args[0] {
	case "sheets":
		return importContactsCommand(ctx, app, "import sheets", args[1:], (*importer.Importer).ImportSheets)
	case "airtable":
		return importContactsCommand(ctx, app, "import airtable", args[1:], (*importer.Importer).ImportAirtable)
	case "payments":
		return ImportPaymentsCommand(ctx, app, args[1:])
	default:
		return fmt.Errorf("unknown import source: %s", args[0])
	}
}

type contactImport func(*importer.Importer, context.Context, string) (*importer.Batch, error)

func importContactsCommand(ctx context.Context, app *App, name string, args []string, run contactImport) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("%w: %s requires a CSV file", config.ErrMissingInput, name)
	}

	imp, metrics, err := app.Importer()
	if err != nil {
		return err
	}

	batch, err := run(imp, ctx, fs.Arg(0))
	if err != nil {
		if batch != nil {
			batch.PrintMessages(app.Out)
		}
		return err
	}

	batch.PrintSummary(app.Out)
	app.WriteMetrics(metrics)
	return nil
}

// ImportPaymentsCommand imports Stripe and/or Denefits exports.
func ImportPaymentsCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("import payments", flag.ExitOnError)
	stripePath := fs.String("stripe", "", "Stripe payments CSV")
	denefitsPath := fs.String("denefits", "", "Denefits contracts CSV")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *stripePath == "" && *denefitsPath == "" {
		return fmt.Errorf("%w: provide --stripe and/or --denefits", config.ErrMissingInput)
	}

	imp, metrics, err := app.Importer()
	if err != nil {
		return err
	}

	runs := []struct {
		path string
		run  func(context.Context, string) (*importer.PaymentBatch, error)
	}{
		{*stripePath, imp.ImportStripe},
		{*denefitsPath, imp.ImportDenefits},
	}
	for _, r := range runs {
		if r.path == "" {
			continue
		}
		batch, err := r.run(ctx, r.path)
		if err != nil {
			if batch != nil {
				batch.PrintMessages(app.Out)
			}
			return err
		}
		batch.PrintSummary(app.Out)
		app.printf("\n")
	}

	app.WriteMetrics(metrics)
	return nil
}
