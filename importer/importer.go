// ABOUTME: Importer wiring shared by the CSV importers and the unified loader
// ABOUTME: Holds the store, logger, metrics, progress writer and clock
package importer

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harperreed/leadledger/db"
	"github.com/harperreed/leadledger/models"
	"go.uber.org/zap"
)

// ImportedBy is recorded on every import log written by this tool.
const ImportedBy = "leadledger"

// Options configures an Importer. Zero values pick sensible defaults.
type Options struct {
	Logger    *zap.Logger
	Metrics   *Metrics
	Out       io.Writer
	BatchSize int
	Now       func() time.Time
}

// Importer loads CSV exports into the store.
type Importer struct {
	db        *sql.DB
	logger    *zap.Logger
	metrics   *Metrics
	out       io.Writer
	batchSize int
	now       func() time.Time
}

func New(database *sql.DB, opts Options) *Importer {
	imp := &Importer{
		db:        database,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		out:       opts.Out,
		batchSize: opts.BatchSize,
		now:       opts.Now,
	}
	if imp.logger == nil {
		imp.logger = zap.NewNop()
	}
	if imp.out == nil {
		imp.out = os.Stdout
	}
	if imp.batchSize <= 0 {
		imp.batchSize = db.DefaultBatchSize
	}
	if imp.now == nil {
		imp.now = func() time.Time { return time.Now().UTC() }
	}
	return imp
}

// finish stamps completion, writes the audit log and records metrics. A
// failed log write is a warning: the data is already stored.
func (imp *Importer) finish(ctx context.Context, b *Batch, notes string) {
	b.CompletedAt = imp.now()

	if err := db.CreateImportLog(ctx, imp.db, b.Log(ImportedBy, notes)); err != nil {
		imp.logger.Warn("could not log import", zap.String("batch", b.BatchID()), zap.Error(err))
		b.warnf("Import log failed: %v", err)
	}
	imp.metrics.Observe(b)

	imp.logger.Info("import finished",
		zap.String("batch", b.BatchID()),
		zap.String("source", b.SourceType),
		zap.Int("processed", b.Processed),
		zap.Int("imported", b.Imported),
		zap.Int("updated", b.Updated),
		zap.Int("skipped", b.Skipped),
		zap.Int("errors", len(b.Errors)),
		zap.Int("warnings", len(b.Warnings)),
		zap.Duration("took", b.CompletedAt.Sub(b.StartedAt)))
}

// insertTimeline writes events; failure is a warning.
func (imp *Importer) insertTimeline(ctx context.Context, b *Batch, events []*models.TimelineEvent) {
	if len(events) == 0 {
		return
	}
	n, err := db.InsertTimelineEvents(ctx, imp.db, events)
	if err != nil {
		imp.logger.Warn("timeline insert failed", zap.String("batch", b.BatchID()), zap.Error(err))
		b.warnf("Timeline insert failed: %v", err)
		return
	}
	b.TimelineEvents += n
	imp.printf("✓ Created %d timeline events\n", n)
}

func (imp *Importer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(imp.out, format, args...)
}
