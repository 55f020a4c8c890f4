package load

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	xtransform "golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/techchallenge/vitibrasil-etl/dataset"
	"github.com/techchallenge/vitibrasil-etl/table"
)

// Record is one decoded JSON artifact record.
type Record map[string]any

// ImportStats counts the rows written for one dataset.
type ImportStats struct {
	Entities int
	Facts    int
}

type Importer struct {
	Store  *Store
	Logger *slog.Logger
}

func NewImporter(store *Store, logger *slog.Logger) *Importer {
	return &Importer{Store: store, Logger: logger}
}

// ReadRecords decodes a JSON artifact, keeping numbers as json.Number.
func ReadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}
	return records, nil
}

// NormalizeKey lower-cases key and strips its combining marks.
func NormalizeKey(key string) string {
	t := xtransform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := xtransform.String(t, strings.ToLower(key))
	if err != nil {
		return strings.ToLower(key)
	}
	return out
}

func normalizeRecord(rec Record, mappings map[string]string) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[NormalizeKey(k)] = v
	}
	for from, to := range mappings {
		if v, ok := out[from]; ok {
			delete(out, from)
			out[to] = v
		}
	}
	return out
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func nullableString(v any) any {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

type fact struct {
	year  int
	value float64
	kind  string
}

// factsOf decomposes a record into (year, value, kind) facts. Trade records
// carry ano with valor_usd and quantidade, grouped records one key per year.
func factsOf(rec Record) []fact {
	var facts []fact
	if ano, ok := rec["ano"]; ok {
		year, ok := asNumber(ano)
		if !ok {
			return nil
		}
		for _, field := range []string{"valor_usd", "quantidade"} {
			if v, ok := asNumber(rec[field]); ok {
				facts = append(facts, fact{year: int(year), value: v, kind: field})
			}
		}
		return facts
	}

	var years []string
	for k := range rec {
		if isDigits(k) {
			years = append(years, k)
		}
	}
	sort.Strings(years)
	for _, k := range years {
		if f, ok := asNumber(rec[k]); ok {
			year, _ := strconv.Atoi(k)
			facts = append(facts, fact{year: year, value: f, kind: "valor"})
		}
	}
	return facts
}

// Import replaces every row of spec's dataset with records, in one transaction.
func (i *Importer) Import(ctx context.Context, spec dataset.Spec, records []Record) (ImportStats, error) {
	var stats ImportStats
	name := spec.Kind.String()
	mappings := spec.FieldMappings

	tx, err := i.Store.DB.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("error starting transaction for %s: %w", name, err)
	}
	defer tx.Rollback()

	q := i.Store.Rebind
	nextEntity, err := nextID(ctx, tx, name)
	if err != nil {
		return stats, err
	}
	nextFact, err := nextID(ctx, tx, "ano_valor")
	if err != nil {
		return stats, err
	}

	if _, err := tx.ExecContext(ctx, q("DELETE FROM ano_valor WHERE dataset = ?"), name); err != nil {
		return stats, fmt.Errorf("error deleting facts of %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", name)); err != nil {
		return stats, fmt.Errorf("error deleting %s: %w", name, err)
	}
	i.Logger.Info(fmt.Sprintf("Removed previous rows of %s", name))

	entities := make(map[string]int)
	paises := newPaisCache(tx, q)
	for _, raw := range records {
		rec := normalizeRecord(raw, mappings)

		var key string
		var args []any
		var insert string
		switch spec.Behavior {
		case dataset.Trade:
			nome, ok := rec["pais"]
			if !ok {
				return stats, &table.SchemaError{Column: "pais"}
			}
			paisID, err := paises.getOrCreate(ctx, fmt.Sprint(nullableString(nome)))
			if err != nil {
				return stats, err
			}
			key = strconv.Itoa(paisID)
			insert = fmt.Sprintf("INSERT INTO %s (id, pais_id) VALUES (?, ?)", name)
			args = []any{paisID}
		default:
			for _, field := range []string{"produto", "tipo"} {
				if _, ok := rec[field]; !ok {
					return stats, &table.SchemaError{Column: field}
				}
			}
			produto, tipo := nullableString(rec["produto"]), nullableString(rec["tipo"])
			key = fmt.Sprintf("%v\x00%v\x00%t", produto, tipo, tipo == nil)
			insert = fmt.Sprintf("INSERT INTO %s (id, produto, tipo) VALUES (?, ?, ?)", name)
			args = []any{produto, tipo}
		}

		entityID, ok := entities[key]
		if !ok {
			entityID = nextEntity
			nextEntity++
			if _, err := tx.ExecContext(ctx, q(insert), append([]any{entityID}, args...)...); err != nil {
				return stats, fmt.Errorf("error inserting into %s: %w", name, err)
			}
			entities[key] = entityID
			stats.Entities++
		}

		for _, f := range factsOf(rec) {
			_, err := tx.ExecContext(ctx,
				q("INSERT INTO ano_valor (id, dataset, entidade_id, ano, valor, tipo_valor) VALUES (?, ?, ?, ?, ?, ?)"),
				nextFact, name, entityID, f.year, f.value, f.kind,
			)
			if err != nil {
				return stats, fmt.Errorf("error inserting facts of %s: %w", name, err)
			}
			nextFact++
			stats.Facts++
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("error committing %s: %w", name, err)
	}
	return stats, nil
}

// nextID continues after the highest id ever seen so that rows deleted and
// reinserted in one transaction never reuse a key.
func nextID(ctx context.Context, tx *sql.Tx, tableName string) (int, error) {
	var maxID sql.NullInt64
	if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT MAX(id) FROM %s", tableName)).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("error reading max id of %s: %w", tableName, err)
	}
	return int(maxID.Int64) + 1, nil
}

type paisCache struct {
	tx     *sql.Tx
	rebind func(string) string
	ids    map[string]int
	next   int
}

func newPaisCache(tx *sql.Tx, rebind func(string) string) *paisCache {
	return &paisCache{tx: tx, rebind: rebind, ids: make(map[string]int)}
}

func (p *paisCache) getOrCreate(ctx context.Context, nome string) (int, error) {
	if id, ok := p.ids[nome]; ok {
		return id, nil
	}

	var id int
	err := p.tx.QueryRowContext(ctx, p.rebind("SELECT id FROM pais WHERE nome = ?"), nome).Scan(&id)
	switch {
	case err == nil:
		p.ids[nome] = id
		return id, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("error looking up pais %q: %w", nome, err)
	}

	if p.next == 0 {
		if p.next, err = nextID(ctx, p.tx, "pais"); err != nil {
			return 0, err
		}
	}
	id = p.next
	if _, err := p.tx.ExecContext(ctx, p.rebind("INSERT INTO pais (id, nome) VALUES (?, ?)"), id, nome); err != nil {
		return 0, fmt.Errorf("error inserting pais %q: %w", nome, err)
	}
	p.next++
	p.ids[nome] = id
	return id, nil
}
