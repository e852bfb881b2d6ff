// Package dataset reads and writes the CSV and JSONL files a screening run
// works from: scraped articles, labeled folds, answers and embeddings.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrMissingColumn is returned when a required column is absent
var ErrMissingColumn = errors.New("missing column")

// Table is a CSV file held in memory with a header row
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable creates an empty table with the given header
func NewTable(header ...string) *Table {
	t := &Table{Header: append([]string(nil), header...)}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
}

// ReadTable reads a CSV file whose first row is the header
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	t, err := DecodeTable(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// DecodeTable reads CSV from r. Short rows are padded to the header width.
func DecodeTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	t := NewTable(header...)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %d fields, header has %d", line, len(rec), len(header))
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func trimBOM(s string) string {
	const bom = "\ufeff"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}

// Write writes the table to path, creating parent directories
func (t *Table) Write(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := t.Encode(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes the table as CSV to w
func (t *Table) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of column name
func (t *Table) Index(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q (have %v)", ErrMissingColumn, name, t.Header)
	}
	return i, nil
}

// Has reports whether column name exists
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of every value in column name
func (t *Table) Column(name string) ([]string, error) {
	i, err := t.Index(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// SetColumn replaces column name, appending it if absent
func (t *Table) SetColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}
	i, ok := t.index[name]
	if !ok {
		t.Header = append(t.Header, name)
		t.reindex()
		i = len(t.Header) - 1
		for r := range t.Rows {
			t.Rows[r] = append(t.Rows[r], "")
		}
	}
	for r := range t.Rows {
		t.Rows[r][i] = values[r]
	}
	return nil
}

// Select returns a new table with only the named columns, in that order
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for n, name := range names {
		i, err := t.Index(name)
		if err != nil {
			return nil, err
		}
		idx[n] = i
	}

	out := NewTable(names...)
	out.Rows = make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		rec := make([]string, len(idx))
		for n, i := range idx {
			rec[n] = row[i]
		}
		out.Rows[r] = rec
	}
	return out, nil
}

// Subset returns a new table holding the given rows in the given order
func (t *Table) Subset(rows []int) *Table {
	out := NewTable(t.Header...)
	out.Rows = make([][]string, len(rows))
	for n, r := range rows {
		out.Rows[n] = append([]string(nil), t.Rows[r]...)
	}
	return out
}

// Append adds a row. It must have one value per column.
func (t *Table) Append(row ...string) error {
	if len(row) != len(t.Header) {
		return fmt.Errorf("row has %d values, header has %d", len(row), len(t.Header))
	}
	t.Rows = append(t.Rows, row)
	return nil
}
