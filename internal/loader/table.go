package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "salespulse/internal/errors"
	"salespulse/internal/validation"
)

// Table is a raw input table: one header row and string cells addressed by
// column name.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	index  map[string]int
}

func newTable(name string, header []string, rows [][]string) *Table {
	t := &Table{Name: name, Header: header, Rows: rows, index: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		t.Header[i] = h
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	return t
}

// Require fails with a SchemaError naming the first absent column
func (t *Table) Require(columns ...string) error {
	for _, c := range columns {
		if _, ok := t.index[c]; !ok {
			return apperrors.NewSchemaError(t.Name, c)
		}
	}
	return nil
}

// Cell returns the trimmed value of column in data row i. Short rows read as
// empty cells.
func (t *Table) Cell(i int, column string) string {
	idx, ok := t.index[column]
	if !ok {
		return ""
	}
	row := t.Rows[i]
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// ReadTable reads the table at path in the given format
func ReadTable(ctx context.Context, name, path, format string) (*Table, error) {
	switch format {
	case validation.FormatCSV:
		return readCSV(ctx, name, path)
	case validation.FormatXLSX:
		return readXLSX(ctx, name, path)
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported table format %q", format), nil).
			WithContext("table", name)
	}
}

const ctxCheckEvery = 4096

func readCSV(ctx context.Context, name, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewInputNotFoundError(name, err).WithContext("path", path)
	}
	defer f.Close()

	return parseCSV(ctx, name, f)
}

func parseCSV(ctx context.Context, name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewSchemaError(name, "header row")
	}
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("table %s: invalid header", name), err).
			WithContext("table", name)
	}

	var rows [][]string
	for {
		if len(rows)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("table %s: malformed row", name), err).
				WithContext("table", name).
				WithContext("row", len(rows)+1)
		}
		if isBlank(record) {
			continue
		}
		rows = append(rows, record)
	}

	return newTable(name, header, rows), nil
}

// readXLSX reads the first worksheet of an Excel workbook
func readXLSX(ctx context.Context, name, path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("table %s: failed to open workbook", name), err).
			WithContext("table", name).
			WithContext("path", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewSchemaError(name, "header row")
	}

	iter, err := f.Rows(sheets[0])
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("table %s: failed to read sheet %s", name, sheets[0]), err).
			WithContext("table", name)
	}
	defer iter.Close()

	var header []string
	var rows [][]string
	for iter.Next() {
		if len(rows)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		cols, err := iter.Columns()
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("table %s: malformed row", name), err).
				WithContext("table", name)
		}
		if isBlank(cols) {
			continue
		}
		if header == nil {
			header = cols
			continue
		}
		rows = append(rows, cols)
	}
	if err := iter.Error(); err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("table %s: failed to read sheet", name), err).
			WithContext("table", name)
	}
	if header == nil {
		return nil, apperrors.NewSchemaError(name, "header row")
	}

	return newTable(name, header, rows), nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
