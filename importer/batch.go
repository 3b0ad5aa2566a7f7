// ABOUTME: Import batch bookkeeping shared by all importers
// ABOUTME: Counts, row-level errors and warnings, the audit log record and the printed run summary
package importer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/leadledger/models"
)

// ErrNoValidRecords means no row in the input produced a usable record.
var ErrNoValidRecords = errors.New("no valid records to import")

// MaxPrintedMessages caps how many errors or warnings a summary prints.
const MaxPrintedMessages = 10

// Batch is one import run. Every record it writes carries its ID.
type Batch struct {
	ID          uuid.UUID
	SourceFile  string
	SourceType  string
	StartedAt   time.Time
	CompletedAt time.Time

	Processed      int
	Imported       int
	Skipped        int
	Updated        int
	TimelineEvents int

	Errors   []string
	Warnings []string
}

func newBatch(path, sourceType string, now time.Time) *Batch {
	return &Batch{
		ID:         uuid.New(),
		SourceFile: filepath.Base(path),
		SourceType: sourceType,
		StartedAt:  now,
	}
}

// BatchID is the string form stamped on stored rows.
func (b *Batch) BatchID() string {
	return b.ID.String()
}

func (b *Batch) warnf(format string, args ...any) {
	b.Warnings = append(b.Warnings, fmt.Sprintf(format, args...))
}

func (b *Batch) errorf(format string, args ...any) {
	b.Errors = append(b.Errors, fmt.Sprintf(format, args...))
}

// skipRow records a row that produced no record.
func (b *Batch) skipRow(idx int, reason string) {
	b.Skipped++
	b.warnf("Row %d: %s", idx, reason)
}

// Log builds the audit record for the batch.
func (b *Batch) Log(importedBy, notes string) *models.ImportLog {
	return &models.ImportLog{
		ID:            b.ID,
		SourceFile:    b.SourceFile,
		SourceType:    b.SourceType,
		RowsProcessed: b.Processed,
		RowsImported:  b.Imported,
		RowsSkipped:   b.Skipped,
		RowsUpdated:   b.Updated,
		Errors:        b.Errors,
		Warnings:      b.Warnings,
		StartedAt:     b.StartedAt,
		CompletedAt:   b.CompletedAt,
		ImportedBy:    importedBy,
		Notes:         notes,
	}
}

// PrintMessages writes the errors and warnings, at most MaxPrintedMessages of
// each.
func (b *Batch) PrintMessages(w io.Writer) {
	printList(w, "✗ Errors:", b.Errors)
	printList(w, "⚠ Warnings:", b.Warnings)
}

func printList(w io.Writer, title string, msgs []string) {
	if len(msgs) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\n%s\n", title)
	for i, msg := range msgs {
		if i == MaxPrintedMessages {
			_, _ = fmt.Fprintf(w, "  ... and %d more\n", len(msgs)-MaxPrintedMessages)
			break
		}
		_, _ = fmt.Fprintf(w, "  - %s\n", msg)
	}
}

// PrintSummary writes the end-of-run counts.
func (b *Batch) PrintSummary(w io.Writer) {
	_, _ = fmt.Fprintf(w, "\n✓ Import complete (%s)\n", b.SourceType)
	_, _ = fmt.Fprintf(w, "  Rows processed:  %d\n", b.Processed)
	_, _ = fmt.Fprintf(w, "  Imported:        %d\n", b.Imported)
	_, _ = fmt.Fprintf(w, "  Updated:         %d\n", b.Updated)
	_, _ = fmt.Fprintf(w, "  Skipped:         %d\n", b.Skipped)
	_, _ = fmt.Fprintf(w, "  Timeline events: %d\n", b.TimelineEvents)
	_, _ = fmt.Fprintf(w, "  Errors:          %d\n", len(b.Errors))
	_, _ = fmt.Fprintf(w, "  Warnings:        %d\n", len(b.Warnings))
	_, _ = fmt.Fprintf(w, "  Batch ID:        %s\n", b.ID)
	b.PrintMessages(w)
}
