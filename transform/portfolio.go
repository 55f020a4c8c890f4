package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/techchallenge/vitibrasil-etl/table"
)

// PortfolioHeader replaces the header line of the B3 theoretical portfolio.
const PortfolioHeader = "Data;Codigo;Acao;Tipo;QuantTeorica;Partic"

// Portfolio is the reshaped B3 theoretical portfolio of one trading day.
type Portfolio struct {
	Date  string
	Table *table.Table
}

// ReshapePortfolio turns the decoded B3 export into a dated table. The first
// line ends with the portfolio date (dd/mm/yy), the second is the header and
// the last two are totals. Data lines end with a trailing delimiter and use
// Brazilian number formatting.
func ReshapePortfolio(text string) (*Portfolio, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	if len(lines) < 4 {
		return nil, &table.ParseError{Line: len(lines), Msg: fmt.Sprintf("portfolio has %d lines, expected at least 4", len(lines))}
	}

	title := strings.Fields(lines[0])
	if len(title) == 0 {
		return nil, &table.ParseError{Line: 1, Msg: "missing portfolio date"}
	}
	day, err := time.Parse("02/01/06", title[len(title)-1])
	if err != nil {
		return nil, &table.ParseError{Line: 1, Msg: "invalid portfolio date", Err: err}
	}
	date := day.Format(time.DateOnly)

	data := lines[2 : len(lines)-2]
	var b strings.Builder
	b.WriteString(PortfolioHeader)
	for _, line := range data {
		line = strings.TrimSuffix(line, ";")
		line = strings.ReplaceAll(line, ".", "")
		line = strings.ReplaceAll(line, ",", ".")
		b.WriteString("\n" + date + ";" + line)
	}

	t, err := table.Parse(strings.NewReader(b.String()), table.Options{Delimiter: ';', NullValues: table.DefaultNullValues})
	if err != nil {
		return nil, fmt.Errorf("error parsing portfolio: %w", err)
	}
	return &Portfolio{Date: date, Table: t}, nil
}
