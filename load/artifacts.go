package load

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/techchallenge/vitibrasil-etl/table"
	"github.com/techchallenge/vitibrasil-etl/transform"
)

// ArtifactPaths returns the CSV and JSON paths of a sanitized dataset.
func ArtifactPaths(dir, base string) (csvPath, jsonPath string) {
	return filepath.Join(dir, base+".csv"), filepath.Join(dir, base+".json")
}

// Artifacts is the rendered CSV and JSON of one sanitized dataset.
type Artifacts struct {
	CSV  []byte
	JSON []byte
}

// RenderTable renders t comma-delimited with a header and no index column,
// and as an array of flat records with keys in column order.
func RenderTable(t *table.Table) (Artifacts, error) {
	csv, err := t.CSV()
	if err != nil {
		return Artifacts{}, fmt.Errorf("error rendering CSV: %w", err)
	}
	data, err := TableJSON(t)
	if err != nil {
		return Artifacts{}, fmt.Errorf("error rendering JSON: %w", err)
	}
	return Artifacts{CSV: csv, JSON: data}, nil
}

// RenderTrade renders records as the long-format CSV and an indented array of
// flat tagged records.
func RenderTrade(records []transform.TradeRecord) (Artifacts, error) {
	csv, err := transform.TradeTable(records).CSV()
	if err != nil {
		return Artifacts{}, fmt.Errorf("error rendering CSV: %w", err)
	}
	data, err := TradeJSON(records)
	if err != nil {
		return Artifacts{}, fmt.Errorf("error rendering JSON: %w", err)
	}
	return Artifacts{CSV: csv, JSON: data}, nil
}

// Write stages both files next to their targets before replacing either, so a
// failure while staging leaves the previous artifacts untouched.
func (a Artifacts) Write(csvPath, jsonPath string) error {
	csvTmp, err := stageFile(csvPath, a.CSV)
	if err != nil {
		return err
	}
	defer os.Remove(csvTmp)

	jsonTmp, err := stageFile(jsonPath, a.JSON)
	if err != nil {
		return err
	}
	defer os.Remove(jsonTmp)

	if err := os.Rename(csvTmp, csvPath); err != nil {
		return fmt.Errorf("error writing %s: %w", csvPath, err)
	}
	if err := os.Rename(jsonTmp, jsonPath); err != nil {
		return fmt.Errorf("error writing %s: %w", jsonPath, err)
	}
	return nil
}

// ReadTableCSV reads a CSV artifact written by Artifacts.Write. Only empty fields are null.
func ReadTableCSV(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := table.Parse(f, table.Options{Delimiter: ',', NullValues: []string{""}})
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return t, nil
}

func stageFile(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating directory for %s: %w", path, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("error staging %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("error staging %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("error staging %s: %w", path, err)
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("error staging %s: %w", path, err)
	}
	return f.Name(), nil
}

// isNumber accepts decimal notation only; hex floats and non-finite values are text.
func isNumber(s string) (float64, bool) {
	if strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NumericColumns reports, per column, whether every non-empty cell is a number.
// Columns without any value are not numeric.
func NumericColumns(t *table.Table) []bool {
	numeric := make([]bool, len(t.Header))
	for c := range t.Header {
		seen := false
		numeric[c] = true
		for _, row := range t.Rows {
			cell := row[c]
			if !cell.Valid || cell.Value == "" {
				continue
			}
			seen = true
			if _, ok := isNumber(cell.Value); !ok {
				numeric[c] = false
				break
			}
		}
		numeric[c] = numeric[c] && seen
	}
	return numeric
}

// TableJSON renders t as a JSON array of records. Null and empty cells are
// null, numeric columns are numbers and everything else is a string.
func TableJSON(t *table.Table) ([]byte, error) {
	numeric := NumericColumns(t)
	keys := make([][]byte, len(t.Header))
	for i, h := range t.Header {
		k, err := marshal(h)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for r, row := range t.Rows {
		if r > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for c, cell := range row {
			if c > 0 {
				buf.WriteByte(',')
			}
			buf.Write(keys[c])
			buf.WriteByte(':')

			switch {
			case !cell.Valid || cell.Value == "":
				buf.WriteString("null")
			case numeric[c]:
				f, _ := isNumber(cell.Value)
				buf.WriteString(transform.FormatNumber(f))
			default:
				v, err := marshal(cell.Value)
				if err != nil {
					return nil, err
				}
				buf.Write(v)
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func TradeJSON(records []transform.TradeRecord) ([]byte, error) {
	if records == nil {
		records = []transform.TradeRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
