// ABOUTME: Entry point for the leadledger CLI and MCP server
// ABOUTME: Loads config, builds the logger and routes to subcommands
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/leadledger/cli"
	"github.com/harperreed/leadledger/config"
	"github.com/harperreed/leadledger/logging"
	"go.uber.org/zap"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/leadledger/leadledger.db)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	initOnly := flag.Bool("init", false, "Initialize database and exit")
	flag.Usage = printUsage

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("leadledger version %s\n", version)
		os.Exit(0)
	}

	if err := config.LoadEnvFiles("."); err != nil {
		log.Fatalf("Failed to load env files: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	app := cli.NewApp(cfg, logger)
	defer func() { _ = app.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *initOnly {
		if _, err := app.DB(); err != nil {
			logger.Fatal("failed to initialize database", zap.Error(err))
		}
		fmt.Printf("✓ Database initialized at %s\n", cfg.DBPath)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	if err := run(ctx, app, args[0], args[1:]); err != nil {
		stop()
		_ = app.Close()
		fmt.Fprintf(os.Stderr, "✗ Error: %v\n", err)
		if errors.Is(err, errUnknownCommand) {
			printUsage()
		}
		os.Exit(1)
	}
}

var errUnknownCommand = errors.New("unknown command")

func run(ctx context.Context, app *cli.App, command string, args []string) error {
	switch command {
	case "import":
		return cli.ImportCommand(ctx, app, args)
	case "unify":
		return cli.UnifyCommand(ctx, app, args)
	case "export":
		return cli.ExportCommand(ctx, app, args)
	case "report":
		return cli.ReportCommand(ctx, app, args)
	case "history":
		return cli.HistoryCommand(ctx, app, args)
	case "contacts":
		return cli.ContactsCommand(ctx, app, args)
	case "show":
		return cli.ShowContactCommand(ctx, app, args)
	case "viz":
		if len(args) == 0 || args[0] != "funnel" {
			return fmt.Errorf("%w: viz requires a graph type (funnel)", errUnknownCommand)
		}
		return cli.VizFunnelCommand(ctx, app, args[1:])
	case "mcp":
		return cli.MCPCommand(ctx, app, version)
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, command)
	}
}

func printUsage() {
	fmt.Printf(`leadledger v%s - marketing lead and revenue ledger

USAGE:
  leadledger [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/leadledger/leadledger.db)
  --log-level <level>    debug, info, warn or error (default: warn)
  --init                 Initialize database and exit

IMPORT COMMANDS:
  leadledger import sheets <file.csv>      Import Google Sheets contacts
  leadledger import airtable <file.csv>    Import Airtable contacts
  leadledger import payments               Import payment exports
    --stripe <file.csv>                      Stripe payments export
    --denefits <file.csv>                    Denefits contracts export

UNIFY:
  leadledger unify                         Build the unified contact table
    --google-main <file.csv>                 Main Google Sheets CRM export
    --airtable <file.csv>                    Airtable contacts export
    --google-simple <file.csv>               Simplified sheet (enrichment only)
    --stripe <file.csv>                      Stripe payments export
    --denefits <file.csv>                    Denefits contracts export
    --out <file.csv>                         Output file (default: unified_contacts.csv)
    --load                                   Also load the result into the database

EXPORT:
  leadledger export sheet <file.csv>       Upload a CSV to Google Sheets
    --spreadsheet <id>                       Spreadsheet ID (or sheets.spreadsheet_id)
    --tab <name>                             Tab name (default: Sheet1)
    --credentials <file.json>                Service account credentials
    --hyperlink-col <a,b>                    Columns rendered as HYPERLINK formulas
    --image-col <a,b>                        Columns rendered as IMAGE formulas
    --batch-rows <n>                         Data rows per API call (default: 10)

REPORTING:
  leadledger report [--plain]              Funnel and revenue dashboard
  leadledger history [--limit n]           Recent import runs
  leadledger contacts [--query q]          Search stored contacts
  leadledger show <email>                  One contact with payments and timeline
  leadledger viz funnel [--output f]       Funnel graph as Graphviz DOT

MCP SERVER:
  leadledger mcp                           Start MCP server on stdio

CONFIGURATION:
  ~/.config/leadledger/config.yaml, or the file named by LEADLEDGER_CONFIG.
  Environment overrides use the LEADLEDGER_ prefix, e.g.
  LEADLEDGER_SHEETS_SPREADSHEET_ID. .env.local and .env are read from the
  working directory.

EXAMPLES:
  leadledger import sheets leads.csv
  leadledger import payments --stripe stripe.csv --denefits denefits.csv
  leadledger unify --google-main main.csv --airtable airtable.csv --stripe stripe.csv --load
  leadledger export sheet outliers.csv --tab Outliers --hyperlink-col url --image-col thumbnail_url

`, version)
}
