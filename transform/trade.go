package transform

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/techchallenge/vitibrasil-etl/table"
)

var yearHeader = regexp.MustCompile(`^\d{4}$`)

// TradeRecord is one (country, year) observation of an import or export dataset.
type TradeRecord struct {
	Country  string  `json:"País"`
	Year     int     `json:"ano"`
	Quantity float64 `json:"quantidade"`
	ValueUSD float64 `json:"valor_usd"`
}

// TradeHeader is the column order of the long-format trade table.
var TradeHeader = []string{"País", "ano", "quantidade", "valor_usd"}

type yearPair struct {
	year     int
	quantity int
	value    int
}

// yearPairs returns the paired quantity/value columns in header order. A year
// without its "<year>.1" value column has no pair and is left out.
func yearPairs(t *table.Table) []yearPair {
	var cols []yearPair
	for i, h := range t.Header {
		if !yearHeader.MatchString(h) {
			continue
		}
		valueIdx, err := t.ColumnIndex(h + ".1")
		if err != nil {
			continue
		}
		year, _ := strconv.Atoi(h)
		cols = append(cols, yearPair{year: year, quantity: i, value: valueIdx})
	}
	return cols
}

// WideToLong emits one record per country and year where both the quantity
// and the value are present. Rows without a country are skipped. Countries
// keep their row order and years their column order.
func WideToLong(t *table.Table, countryColumn string) ([]TradeRecord, error) {
	countryIdx, err := t.ColumnIndex(countryColumn)
	if err != nil {
		return nil, err
	}
	years := yearPairs(t)

	records := make([]TradeRecord, 0, len(t.Rows))
	for r, row := range t.Rows {
		country := strings.TrimSpace(row[countryIdx].Value)
		if !row[countryIdx].Valid || country == "" {
			continue
		}
		for _, y := range years {
			q, v := row[y.quantity], row[y.value]
			if !q.Valid || !v.Valid {
				continue
			}

			quantity, err := parseNumber(q.Value)
			if err != nil {
				return nil, &table.ParseError{Line: r + 2, Msg: fmt.Sprintf("quantity for %s in %d", country, y.year), Err: err}
			}
			value, err := parseNumber(v.Value)
			if err != nil {
				return nil, &table.ParseError{Line: r + 2, Msg: fmt.Sprintf("value for %s in %d", country, y.year), Err: err}
			}

			records = append(records, TradeRecord{Country: country, Year: y.year, Quantity: quantity, ValueUSD: value})
		}
	}
	return records, nil
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return f, nil
}

// FormatNumber renders f the shortest way that parses back to the same value.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// TradeTable renders records as the long-format table written to CSV.
func TradeTable(records []TradeRecord) *table.Table {
	t := &table.Table{Header: append([]string(nil), TradeHeader...), Rows: make([][]table.Cell, 0, len(records))}
	for _, rec := range records {
		t.Rows = append(t.Rows, []table.Cell{
			table.Str(rec.Country),
			table.Str(strconv.Itoa(rec.Year)),
			table.Str(FormatNumber(rec.Quantity)),
			table.Str(FormatNumber(rec.ValueUSD)),
		})
	}
	return t
}
