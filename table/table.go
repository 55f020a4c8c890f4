// Package table holds the in-memory representation of a delimited dataset.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultNullValues are the cell values read as null from source files.
var DefaultNullValues = []string{
	"", "NA", "N/A", "n/a", "NaN", "nan", "-NaN", "-nan", "null", "NULL", "None", "#N/A", "<NA>",
}

// Cell is a nullable string value. The zero Cell is null.
type Cell struct {
	Value string
	Valid bool
}

// Str returns a non-null cell.
func Str(v string) Cell { return Cell{Value: v, Valid: true} }

// Null returns a null cell.
func Null() Cell { return Cell{} }

type Table struct {
	Header []string
	Rows   [][]Cell
}

type Options struct {
	Delimiter  rune
	NullValues []string
}

// Parse reads delimited text with a header row. Duplicate header names are
// suffixed with ".1", ".2", ... in order of appearance. Rows shorter than the
// header are padded with nulls.
func Parse(r io.Reader, opts Options) (*Table, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	nulls := make(map[string]struct{}, len(opts.NullValues))
	for _, v := range opts.NullValues {
		nulls[v] = struct{}{}
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Line: 1, Msg: "no header row"}
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Msg: "failed to read header", Err: err}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: MangleDuplicates(header)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, &ParseError{Line: csvErr.Line, Msg: "failed to read record", Err: csvErr.Err}
			}
			return nil, &ParseError{Msg: "failed to read record", Err: err}
		}
		if len(record) > len(t.Header) {
			line, _ := reader.FieldPos(0)
			return nil, &ParseError{
				Line: line,
				Msg:  fmt.Sprintf("expected %d fields, saw %d", len(t.Header), len(record)),
			}
		}

		row := make([]Cell, len(t.Header))
		for i, v := range record {
			if _, isNull := nulls[v]; isNull {
				continue
			}
			row[i] = Str(v)
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// MangleDuplicates renames repeated header names the way pandas does:
// the second "1970" becomes "1970.1", the third "1970.2".
func MangleDuplicates(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}
	for i, h := range header {
		n := seen[h]
		name := h
		if n > 0 {
			name = h + "." + strconv.Itoa(n)
			for taken[name] {
				n++
				name = h + "." + strconv.Itoa(n)
			}
			taken[name] = true
		}
		seen[h] = n + 1
		out[i] = name
	}
	return out
}

// ColumnIndex returns the position of a column.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, &SchemaError{Column: name}
}

// HasColumn reports whether name is part of the header.
func (t *Table) HasColumn(name string) bool {
	_, err := t.ColumnIndex(name)
	return err == nil
}

// Drop returns a copy of t without the named columns. Every name must exist.
func (t *Table) Drop(columns ...string) (*Table, error) {
	drop := make(map[int]bool, len(columns))
	for _, c := range columns {
		i, err := t.ColumnIndex(c)
		if err != nil {
			return nil, err
		}
		drop[i] = true
	}

	out := &Table{Header: make([]string, 0, len(t.Header)-len(drop))}
	for i, h := range t.Header {
		if !drop[i] {
			out.Header = append(out.Header, h)
		}
	}
	out.Rows = make([][]Cell, len(t.Rows))
	for r, row := range t.Rows {
		kept := make([]Cell, 0, len(out.Header))
		for i, c := range row {
			if !drop[i] {
				kept = append(kept, c)
			}
		}
		out.Rows[r] = kept
	}
	return out, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// WriteCSV writes t comma-delimited with a header row. Null cells become empty fields.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	record := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) && row[i].Valid {
				record[i] = row[i].Value
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV data: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// CSV returns t rendered by WriteCSV.
func (t *Table) CSV() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

