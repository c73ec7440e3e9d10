// Package ingest turns uploaded spreadsheets into ordered rows of named columns.
// It knows nothing about what the columns mean; schema checks belong to callers.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrMissingHeader     = errors.New("spreadsheet has no header row")
	ErrTooManyRows       = errors.New("spreadsheet exceeds row limit")
)

// Table is a parsed sheet. Headers keep their original spelling and order.
type Table struct {
	Headers []string
	Rows    []Row
}

// Row is one data line. Line is the 1-based record number, header included.
type Row struct {
	Line   int
	values map[string]string
}

// Get returns the trimmed cell for column, matched case- and space-insensitively.
func (r Row) Get(column string) string {
	return r.values[normalize(column)]
}

// Has reports whether the row carries a column of that name, even if empty.
func (r Row) Has(column string) bool {
	_, ok := r.values[normalize(column)]
	return ok
}

// HasColumn reports whether the header row contains column.
func (t *Table) HasColumn(column string) bool {
	key := normalize(column)
	for _, h := range t.Headers {
		if normalize(h) == key {
			return true
		}
	}
	return false
}

// Parse dispatches on the file extension. maxRows <= 0 disables the limit.
func Parse(filename string, r io.Reader, maxRows int) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r, maxRows)
	case ".xlsx", ".xlsm":
		return ParseXLSX(r, maxRows)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ParseCSV reads a comma separated sheet with a header row.
func ParseCSV(r io.Reader, maxRows int) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return build(records, maxRows)
}

// ParseXLSX reads the first worksheet of an Excel workbook.
func ParseXLSX(r io.Reader, maxRows int) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrMissingHeader
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return build(records, maxRows)
}

func build(records [][]string, maxRows int) (*Table, error) {
	headerIdx := -1
	for i, rec := range records {
		if !blank(rec) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrMissingHeader
	}

	headers := make([]string, len(records[headerIdx]))
	for i, h := range records[headerIdx] {
		// Excel exports often carry a UTF-8 BOM on the first cell.
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	table := &Table{Headers: headers}
	for i := headerIdx + 1; i < len(records); i++ {
		rec := records[i]
		if blank(rec) {
			continue
		}
		if maxRows > 0 && len(table.Rows) >= maxRows {
			return nil, fmt.Errorf("%w (%d)", ErrTooManyRows, maxRows)
		}
		values := make(map[string]string, len(headers))
		for col, header := range headers {
			if header == "" {
				continue
			}
			var cell string
			if col < len(rec) {
				cell = strings.TrimSpace(rec[col])
			}
			values[normalize(header)] = cell
		}
		table.Rows = append(table.Rows, Row{Line: i + 1, values: values})
	}
	return table, nil
}

func blank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func normalize(column string) string {
	return strings.ToLower(strings.Join(strings.Fields(column), " "))
}
