// ABOUTME: CSV input and output for source exports and the unified contact file
// ABOUTME: Strips the UTF-8 byte-order mark, merges duplicated columns, and yields header-keyed rows
package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/harperreed/leadledger/mapping"
	"github.com/harperreed/leadledger/normalize"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Sheet is a fully loaded CSV file.
type Sheet struct {
	Header  []string
	Records [][]string
}

// ReadFile loads a CSV file into memory.
func ReadFile(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	sheet, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return sheet, nil
}

// Read parses a comma-delimited CSV with a required header row. Ragged
// records are padded or truncated to the header width.
func Read(r io.Reader) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("missing header row")
	}

	sheet := &Sheet{Header: all[0]}
	width := len(sheet.Header)
	for _, rec := range all[1:] {
		if isBlankRecord(rec) {
			continue
		}
		switch {
		case len(rec) < width:
			padded := make([]string, width)
			copy(padded, rec)
			rec = padded
		case len(rec) > width:
			rec = rec[:width]
		}
		sheet.Records = append(sheet.Records, rec)
	}
	return sheet, nil
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if v != "" {
			return false
		}
	}
	return true
}

// Len returns the number of data records.
func (s *Sheet) Len() int {
	return len(s.Records)
}

// MergeDuplicateColumns collapses columns that share a header name into the
// first of them. For each record the merged cell takes the first non-empty
// value across the duplicates, left to right. It returns the names that were
// duplicated, in header order.
func (s *Sheet) MergeDuplicateColumns() []string {
	first := make(map[string]int)
	groups := make(map[string][]int)
	var duplicated []string

	for i, name := range s.Header {
		if j, seen := first[name]; seen {
			if _, grouped := groups[name]; !grouped {
				groups[name] = []int{j}
				duplicated = append(duplicated, name)
			}
			groups[name] = append(groups[name], i)
			continue
		}
		first[name] = i
	}
	if len(duplicated) == 0 {
		return nil
	}

	drop := make(map[int]bool)
	for _, name := range duplicated {
		idx := groups[name]
		for _, rec := range s.Records {
			for _, i := range idx {
				if !normalize.IsMissing(rec[i]) {
					rec[idx[0]] = rec[i]
					break
				}
			}
		}
		for _, i := range idx[1:] {
			drop[i] = true
		}
	}

	s.Header = keepColumns(s.Header, drop)
	for r, rec := range s.Records {
		s.Records[r] = keepColumns(rec, drop)
	}
	return duplicated
}

func keepColumns(rec []string, drop map[int]bool) []string {
	out := make([]string, 0, len(rec)-len(drop))
	for i, v := range rec {
		if !drop[i] {
			out = append(out, v)
		}
	}
	return out
}

// Rows returns every record keyed by header name. When a header name repeats,
// the leftmost column wins.
func (s *Sheet) Rows() []mapping.Row {
	rows := make([]mapping.Row, 0, len(s.Records))
	for _, rec := range s.Records {
		row := make(mapping.Row, len(s.Header))
		for i, name := range s.Header {
			if _, exists := row[name]; exists {
				continue
			}
			row[name] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteFile writes header and records to path, creating parent directories.
func WriteFile(path string, header []string, records [][]string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := Write(f, header, records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Write encodes header and records as CSV.
func Write(w io.Writer, header []string, records [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Error()
}
