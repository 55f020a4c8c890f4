// Package dataset describes the five viticulture datasets published by Embrapa.
package dataset

import (
	"fmt"
	"strings"

	"github.com/techchallenge/vitibrasil-etl/config"
)

type Kind int

const (
	Producao Kind = iota
	Processamento
	Comercio
	Importacao
	Exportacao
)

var names = [...]string{"producao", "processamento", "comercio", "importacao", "exportacao"}

func (k Kind) String() string {
	if k < Producao || k > Exportacao {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return names[k]
}

// All returns every kind in processing order.
func All() []Kind {
	return []Kind{Producao, Processamento, Comercio, Importacao, Exportacao}
}

func ParseKind(s string) (Kind, error) {
	for i, n := range names {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown dataset %q (expected one of %s)", s, strings.Join(names[:], ", "))
}

// ParseKinds parses a list of names; an empty list selects every dataset.
func ParseKinds(args []string) ([]Kind, error) {
	if len(args) == 0 {
		return All(), nil
	}
	kinds := make([]Kind, 0, len(args))
	for _, a := range args {
		k, err := ParseKind(a)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Behavior selects how a dataset is sanitized.
type Behavior int

const (
	// Grouped datasets interleave upper-case group headers with data rows.
	Grouped Behavior = iota
	// Trade datasets hold one row per country with a quantity/value column pair per year.
	Trade
)

const (
	GroupColumn   = "Tipo"
	CountryColumn = "País"

	// OutrosNeedle marks the first Comercio row of the trailing "other wines" block.
	OutrosNeedle = "Outros vinhos"
	OutrosGroup  = "OUTROS"
)

// Override forces the group column to Constant from the first row whose
// label contains Needle (case-insensitive) to the end of the table.
type Override struct {
	Needle   string
	Constant string
}

type Spec struct {
	Kind        Kind
	Behavior    Behavior
	URL         string
	Delimiter   rune
	Encoding    string
	LabelColumn string
	GroupColumn string
	DropColumns []string
	Override    *Override
	// FieldMappings renames normalized JSON keys before relational import.
	FieldMappings map[string]string
}

const downloadBase = "http://vitibrasil.cnpuv.embrapa.br/download/"

func defaults(k Kind) Spec {
	switch k {
	case Producao:
		return Spec{
			Kind: k, Behavior: Grouped, URL: downloadBase + "Producao.csv",
			LabelColumn: "produto", GroupColumn: GroupColumn, DropColumns: []string{"control", "id"},
		}
	case Processamento:
		return Spec{
			Kind: k, Behavior: Grouped, URL: downloadBase + "ProcessaViniferas.csv",
			LabelColumn: "cultivar", GroupColumn: GroupColumn, DropColumns: []string{"control", "id"},
			FieldMappings: map[string]string{"cultivar": "produto"},
		}
	case Comercio:
		return Spec{
			Kind: k, Behavior: Grouped, URL: downloadBase + "Comercio.csv",
			LabelColumn: "Produto", GroupColumn: GroupColumn, DropColumns: []string{"control", "id"},
			Override: &Override{Needle: OutrosNeedle, Constant: OutrosGroup},
		}
	case Importacao:
		return Spec{Kind: k, Behavior: Trade, URL: downloadBase + "ImpVinhos.csv", LabelColumn: CountryColumn}
	default:
		return Spec{Kind: k, Behavior: Trade, URL: downloadBase + "ExpVinho.csv", LabelColumn: CountryColumn}
	}
}

// SpecFor returns the defaults for k merged with the non-empty fields of the
// matching entry in cfg.Datasets.
func SpecFor(k Kind, cfg *config.Config) Spec {
	s := defaults(k)
	s.Delimiter = ';'
	s.Encoding = "utf-8"
	if cfg == nil {
		return s
	}

	dc, ok := cfg.Datasets[k.String()]
	if !ok {
		return s
	}
	if dc.URL != "" {
		s.URL = dc.URL
	}
	for _, r := range dc.Delimiter {
		s.Delimiter = r
		break
	}
	if dc.Encoding != "" {
		s.Encoding = dc.Encoding
	}
	if dc.LabelColumn != "" {
		s.LabelColumn = dc.LabelColumn
	}
	if dc.DropColumns != nil {
		s.DropColumns = dc.DropColumns
	}
	return s
}

// ArtifactBase is the file name prefix of the sanitized artifacts.
func (k Kind) ArtifactBase() string {
	return k.String() + "_sanitizado"
}
