// ABOUTME: Export CLI commands
// ABOUTME: Uploads a CSV file to a Google Sheets tab with optional formula columns
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/harperreed/leadledger/config"
	"github.com/harperreed/leadledger/csvio"
	"github.com/harperreed/leadledger/sheets"
)

// ExportCommand routes export subcommands.
func ExportCommand(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: export requires a target (sheet)", config.ErrMissingInput)
	}
	switch args[0] {
	case "sheet":
		return ExportSheetCommand(ctx, app, args[1:], nil)
	default:
		return fmt.Errorf("unknown export target: %s", args[0])
	}
}

// ExportSheetCommand uploads a CSV. A nil api connects to Google with the
// configured credentials.
func ExportSheetCommand(ctx context.Context, app *App, args []string, api sheets.ValuesAPI) error {
	cfg := app.Config.Sheets

	fs := flag.NewFlagSet("export sheet", flag.ExitOnError)
	spreadsheet := fs.String("spreadsheet", cfg.SpreadsheetID, "Spreadsheet ID")
	tab := fs.String("tab", cfg.Tab, "Worksheet tab name")
	credentials := fs.String("credentials", cfg.CredentialsFile, "Service account JSON (default: application default credentials)")
	hyperlinkCols := fs.String("hyperlink-col", "", "Comma-separated columns rendered as HYPERLINK formulas")
	imageCols := fs.String("image-col", "", "Comma-separated columns rendered as IMAGE formulas")
	batchRows := fs.Int("batch-rows", cfg.BatchRows, "Data rows per update call (at most 10)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("%w: export sheet requires a CSV file", config.ErrMissingInput)
	}
	if *batchRows <= 0 || *batchRows > config.MaxBatchRows {
		return fmt.Errorf("--batch-rows must be between 1 and %d, got %d", config.MaxBatchRows, *batchRows)
	}

	target := *app.Config
	target.Sheets.SpreadsheetID = *spreadsheet
	target.Sheets.Tab = *tab
	if err := target.RequireSheets(); err != nil {
		return err
	}

	sheet, err := csvio.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	app.printf("✓ Read %d rows from %s\n", sheet.Len(), fs.Arg(0))

	formulas, err := formulaColumns(sheet.Header, *hyperlinkCols, *imageCols)
	if err != nil {
		return err
	}

	if api == nil {
		client, err := sheets.NewClient(ctx, *credentials)
		if err != nil {
			return err
		}
		api = client
	}

	uploader := &sheets.Uploader{
		API:           sheets.NewResilient(api, sheets.DefaultRetry),
		SpreadsheetID: *spreadsheet,
		Tab:           *tab,
		BatchRows:     *batchRows,
		Formulas:      formulas,
		Logger:        app.Logger,
		Out:           app.Out,
	}
	res, err := uploader.Upload(ctx, sheet.Header, sheet.Records)
	if err != nil {
		return err
	}

	app.printf("\n✓ Upload complete: %d rows, %d columns, %d API calls\n", res.Rows, res.Columns, res.Calls)
	app.printf("  https://docs.google.com/spreadsheets/d/%s\n", *spreadsheet)
	return nil
}

// formulaColumns maps the named columns to their formula. Every name must
// exist in header.
func formulaColumns(header []string, hyperlinks, images string) (map[string]sheets.Formula, error) {
	known := make(map[string]bool, len(header))
	for _, h := range header {
		known[h] = true
	}

	formulas := make(map[string]sheets.Formula)
	add := func(list string, f sheets.Formula) error {
		for _, name := range strings.Split(list, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if !known[name] {
				return fmt.Errorf("column %q not found in CSV header", name)
			}
			formulas[name] = f
		}
		return nil
	}
	if err := add(hyperlinks, sheets.Hyperlink); err != nil {
		return nil, err
	}
	if err := add(images, sheets.Image); err != nil {
		return nil, err
	}
	return formulas, nil
}
