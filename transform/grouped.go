// Package transform reshapes parsed tables into their sanitized form.
package transform

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/techchallenge/vitibrasil-etl/table"
)

// IDColumn is the synthetic 1-based row identifier of grouped datasets.
const IDColumn = "id"

// IsGroupHeader reports whether a trimmed label names a group: it must hold
// at least one cased letter and no lower or title case letters.
func IsGroupHeader(label string) bool {
	cased := false
	for _, r := range label {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

type scanRow struct {
	cells []table.Cell
	group table.Cell
}

// SegmentGroups turns interleaved group header rows into an explicit group
// column. Header rows are removed, the remaining rows keep their order and get
// an id column (first) and the group column (last).
func SegmentGroups(t *table.Table, labelColumn, groupColumn string) (*table.Table, error) {
	labelIdx, err := t.ColumnIndex(labelColumn)
	if err != nil {
		return nil, err
	}

	current := table.Null()
	rows := make([]scanRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]table.Cell, len(row))
		copy(cells, row)

		label := cells[labelIdx]
		if label.Valid {
			label.Value = strings.TrimSpace(label.Value)
			cells[labelIdx] = label
		}

		if label.Valid && IsGroupHeader(label.Value) {
			current = label
			continue
		}
		rows = append(rows, scanRow{cells: cells, group: current})
	}

	groupIdx := -1
	header := make([]string, 0, len(t.Header)+2)
	header = append(header, IDColumn)
	for i, h := range t.Header {
		if h == groupColumn {
			groupIdx = i
		}
		header = append(header, h)
	}
	if groupIdx < 0 {
		header = append(header, groupColumn)
	}

	out := &table.Table{Header: header, Rows: make([][]table.Cell, 0, len(rows))}
	for i, r := range rows {
		cells := make([]table.Cell, 0, len(header))
		cells = append(cells, table.Str(strconv.Itoa(i+1)))
		cells = append(cells, r.cells...)
		if groupIdx < 0 {
			cells = append(cells, r.group)
		} else {
			cells[groupIdx+1] = r.group
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// OverrideFrom sets the group column to constant on every row from the first
// label containing needle (case-insensitive) to the end. It is a no-op when
// no label matches.
func OverrideFrom(t *table.Table, labelColumn, groupColumn, needle, constant string) error {
	labelIdx, err := t.ColumnIndex(labelColumn)
	if err != nil {
		return err
	}
	groupIdx, err := t.ColumnIndex(groupColumn)
	if err != nil {
		return err
	}

	needle = strings.ToLower(needle)
	start := -1
	for i, row := range t.Rows {
		if row[labelIdx].Valid && strings.Contains(strings.ToLower(row[labelIdx].Value), needle) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	for _, row := range t.Rows[start:] {
		row[groupIdx] = table.Str(constant)
	}
	return nil
}
