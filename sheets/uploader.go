// ABOUTME: Uploads a CSV table to a Google Sheets tab
// ABOUTME: Clears the tab, writes the header to row 1 and data in small row ranges
package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// DefaultBatchRows is the most data rows sent per update call. Larger
// payloads hit the host's request size limit, so bigger settings are capped.
const DefaultBatchRows = 10

// ErrEmptyHeader is returned for tables without columns.
var ErrEmptyHeader = errors.New("table has no header")

// Uploader writes tables into one tab of one spreadsheet.
type Uploader struct {
	API           ValuesAPI
	SpreadsheetID string
	Tab           string
	BatchRows     int
	Formulas      map[string]Formula
	Logger        *zap.Logger
	Out           io.Writer
}

// Result describes a finished upload.
type Result struct {
	Rows    int
	Columns int
	Calls   int
}

// Upload replaces the tab contents with header and records.
func (u *Uploader) Upload(ctx context.Context, header []string, records [][]string) (*Result, error) {
	if len(header) == 0 {
		return nil, ErrEmptyHeader
	}
	batch := u.BatchRows
	if batch <= 0 || batch > DefaultBatchRows {
		batch = DefaultBatchRows
	}
	logger := u.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := u.Out
	if out == nil {
		out = os.Stdout
	}

	res := &Result{Columns: len(header)}
	cols := len(header)

	if err := u.API.Clear(ctx, u.SpreadsheetID, quoteTab(u.Tab)); err != nil {
		return res, fmt.Errorf("failed to clear tab %s: %w", u.Tab, err)
	}
	res.Calls++
	_, _ = fmt.Fprintf(out, "✓ Cleared %s\n", u.Tab)

	if err := u.API.Update(ctx, u.SpreadsheetID, Range(u.Tab, cols, 1, 1), [][]any{cells(header)}); err != nil {
		return res, fmt.Errorf("failed to write header: %w", err)
	}
	res.Calls++

	kinds := u.columnFormulas(header)
	for start := 0; start < len(records); start += batch {
		end := start + batch
		if end > len(records) {
			end = len(records)
		}

		values := make([][]any, 0, end-start)
		for _, rec := range records[start:end] {
			values = append(values, u.renderRow(rec, kinds, cols))
		}

		// Data starts on sheet row 2.
		rng := Range(u.Tab, cols, start+2, end+1)
		if err := u.API.Update(ctx, u.SpreadsheetID, rng, values); err != nil {
			logger.Error("sheet update failed", zap.String("range", rng), zap.Error(err))
			return res, fmt.Errorf("failed to write rows %d-%d: %w", start+1, end, err)
		}
		res.Calls++
		res.Rows = end
		logger.Debug("sheet range written", zap.String("range", rng), zap.Int("rows", end-start))
		_, _ = fmt.Fprintf(out, "✓ Uploaded %s\n", rng)
	}

	logger.Info("sheet upload finished",
		zap.String("tab", u.Tab),
		zap.Int("rows", res.Rows),
		zap.Int("calls", res.Calls))
	return res, nil
}

func (u *Uploader) columnFormulas(header []string) []Formula {
	kinds := make([]Formula, len(header))
	for i, name := range header {
		kinds[i] = u.Formulas[name]
	}
	return kinds
}

func (u *Uploader) renderRow(rec []string, kinds []Formula, cols int) []any {
	row := make([]any, cols)
	for i := 0; i < cols; i++ {
		v := ""
		if i < len(rec) {
			v = rec[i]
		}
		row[i] = kinds[i].Render(v)
	}
	return row
}

func cells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
