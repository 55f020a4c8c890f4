package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/techchallenge/vitibrasil-etl/dataset"
	"github.com/techchallenge/vitibrasil-etl/load"
)

// DescribeTemplate returns the structure of a decoded JSON value: objects map
// keys to the structure of their values, arrays keep their first element.
func DescribeTemplate(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = DescribeTemplate(val)
		}
		return out
	case []any:
		if len(t) == 0 {
			return []any{"empty list"}
		}
		return []any{DescribeTemplate(t[0])}
	case json.Number:
		if strings.ContainsAny(t.String(), ".eE") {
			return "float"
		}
		return "int"
	case string:
		return "str"
	case bool:
		return "bool"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", t)
	}
}

// Describe writes the JSON template of kind's JSON artifact followed by
// descriptive statistics of the numeric columns of its CSV artifact.
func (p *Pipeline) Describe(kind dataset.Kind, w io.Writer) error {
	csvPath, jsonPath := load.ArtifactPaths(p.Config.Output.Dir, kind.ArtifactBase())

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", jsonPath, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("error decoding %s: %w", jsonPath, err)
	}

	tmpl, err := json.MarshalIndent(DescribeTemplate(doc), "", "    ")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Template of %s\n%s\n\n", jsonPath, tmpl)

	stats, err := DescribeCSV(csvPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Statistics of %s\n%s\n", csvPath, stats)
	return nil
}

// DescribeCSV loads a sanitized CSV into a gota DataFrame and describes its
// numeric columns. Empty fields are missing values.
func DescribeCSV(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.WithDelimiter(','),
		dataframe.HasHeader(true),
		dataframe.NaNValues([]string{"", "NA", "NaN"}),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("error loading %s: %w", path, df.Err)
	}

	var numeric []string
	for i, t := range df.Types() {
		if t == series.Int || t == series.Float {
			numeric = append(numeric, df.Names()[i])
		}
	}
	if len(numeric) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("no numeric columns in %s", path)
	}

	desc := df.Select(numeric).Describe()
	if desc.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("error describing %s: %w", path, desc.Err)
	}
	return desc, nil
}
