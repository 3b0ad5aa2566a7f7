// ABOUTME: Shared state for CLI commands
// ABOUTME: Lazily opened store, config, logger and importer construction
package cli

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/harperreed/leadledger/config"
	"github.com/harperreed/leadledger/db"
	"github.com/harperreed/leadledger/importer"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// App carries what every command needs. The database is opened on first use
// so commands that only touch files never create one.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Out    io.Writer

	database *sql.DB
}

func NewApp(cfg *config.Config, logger *zap.Logger) *App {
	return &App{Config: cfg, Logger: logger, Out: os.Stdout}
}

// DB opens the configured store once.
func (a *App) DB() (*sql.DB, error) {
	if a.database != nil {
		return a.database, nil
	}
	database, err := db.OpenDatabase(a.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.Logger.Debug("database opened", zap.String("path", a.Config.DBPath))
	a.database = database
	return database, nil
}

// UseDB sets an already open store, for tests.
func (a *App) UseDB(database *sql.DB) {
	a.database = database
}

func (a *App) Close() error {
	if a.database == nil {
		return nil
	}
	return a.database.Close()
}

// Importer builds an importer with fresh run metrics.
func (a *App) Importer() (*importer.Importer, *importer.Metrics, error) {
	database, err := a.DB()
	if err != nil {
		return nil, nil, err
	}
	metrics := importer.NewMetrics()
	imp := importer.New(database, importer.Options{
		Logger:    a.Logger,
		Metrics:   metrics,
		Out:       a.Out,
		BatchSize: a.Config.Store.BatchSize,
	})
	return imp, metrics, nil
}

// WriteMetrics exports run metrics when a metrics file is configured.
func (a *App) WriteMetrics(metrics *importer.Metrics) {
	if a.Config.MetricsFile == "" || metrics == nil {
		return
	}
	if err := metrics.WriteTextfile(a.Config.MetricsFile); err != nil {
		a.Logger.Warn("could not write metrics", zap.String("path", a.Config.MetricsFile), zap.Error(err))
		return
	}
	a.printf("✓ Metrics written to %s\n", a.Config.MetricsFile)
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.Out, format, args...)
}

// styled reports whether Out is a terminal that can take colors.
func (a *App) styled() bool {
	f, ok := a.Out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
