package transform

import (
	"fmt"

	"github.com/techchallenge/vitibrasil-etl/dataset"
	"github.com/techchallenge/vitibrasil-etl/table"
)

// Sanitized is the outcome of one dataset. Trade is set only for trade datasets;
// Table always holds the rows written to CSV.
type Sanitized struct {
	Kind  dataset.Kind
	Table *table.Table
	Trade []TradeRecord
}

// Sanitize applies the behavior of spec to a freshly parsed table.
func Sanitize(spec dataset.Spec, t *table.Table) (*Sanitized, error) {
	switch spec.Behavior {
	case dataset.Grouped:
		return sanitizeGrouped(spec, t)
	case dataset.Trade:
		records, err := WideToLong(t, spec.LabelColumn)
		if err != nil {
			return nil, fmt.Errorf("error reshaping %s: %w", spec.Kind, err)
		}
		return &Sanitized{Kind: spec.Kind, Table: TradeTable(records), Trade: records}, nil
	default:
		return nil, fmt.Errorf("unknown behavior %d for %s", spec.Behavior, spec.Kind)
	}
}

func sanitizeGrouped(spec dataset.Spec, t *table.Table) (*Sanitized, error) {
	var drop []string
	for _, c := range spec.DropColumns {
		if t.HasColumn(c) {
			drop = append(drop, c)
		}
	}
	trimmed, err := t.Drop(drop...)
	if err != nil {
		return nil, err
	}

	out, err := SegmentGroups(trimmed, spec.LabelColumn, spec.GroupColumn)
	if err != nil {
		return nil, fmt.Errorf("error segmenting %s: %w", spec.Kind, err)
	}

	if o := spec.Override; o != nil {
		if err := OverrideFrom(out, spec.LabelColumn, spec.GroupColumn, o.Needle, o.Constant); err != nil {
			return nil, fmt.Errorf("error applying override to %s: %w", spec.Kind, err)
		}
	}
	return &Sanitized{Kind: spec.Kind, Table: out}, nil
}
