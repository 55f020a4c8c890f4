package load

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techchallenge/vitibrasil-etl/table"
	"github.com/techchallenge/vitibrasil-etl/transform"
)

func groupedTable() *table.Table {
	return &table.Table{
		Header: []string{"id", "produto", "1970", "1971", "Tipo"},
		Rows: [][]table.Cell{
			{table.Str("1"), table.Str("Tinto <seco>"), table.Str("174224052"), table.Null(), table.Str("VINHO DE MESA")},
			{table.Str("2"), table.Str("Branco, suave"), table.Str("1.50"), table.Str("0"), table.Null()},
			{table.Str("3"), table.Str(""), table.Str("7"), table.Str("x"), table.Str("OUTROS")},
		},
	}
}

func TestNumericColumns(t *testing.T) {
	tbl := groupedTable()
	tbl.Header = append(tbl.Header, "vazio", "hex")
	tbl.Rows[0] = append(tbl.Rows[0], table.Null(), table.Str("0x10"))
	tbl.Rows[1] = append(tbl.Rows[1], table.Str(""), table.Str("1"))
	tbl.Rows[2] = append(tbl.Rows[2], table.Null(), table.Str("2"))

	assert.Equal(t, []bool{true, false, true, false, false, false, false}, NumericColumns(tbl))
}

func TestTableJSON(t *testing.T) {
	got, err := TableJSON(groupedTable())
	require.NoError(t, err)

	want := `[{"id":1,"produto":"Tinto <seco>","1970":174224052,"1971":null,"Tipo":"VINHO DE MESA"},` +
		`{"id":2,"produto":"Branco, suave","1970":1.5,"1971":"0","Tipo":null},` +
		`{"id":3,"produto":null,"1970":7,"1971":"x","Tipo":"OUTROS"}]`
	assert.Equal(t, want, string(got))
	assert.True(t, json.Valid(got))

	empty, err := TableJSON(&table.Table{Header: []string{"id"}})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestTradeJSON(t *testing.T) {
	got, err := TradeJSON([]transform.TradeRecord{{Country: "Japão", Year: 1970, Quantity: 100, ValueUSD: 50.5}})
	require.NoError(t, err)
	assert.Equal(t, "[\n    {\n        \"País\": \"Japão\",\n        \"ano\": 1970,\n        \"quantidade\": 100,\n        \"valor_usd\": 50.5\n    }\n]\n", string(got))

	empty, err := TradeJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(empty))
}

func TestArtifactRoundTrip(t *testing.T) {
	dir := t.TempDir()
	csvPath, jsonPath := ArtifactPaths(dir, "producao_sanitizado")
	assert.True(t, strings.HasSuffix(csvPath, "producao_sanitizado.csv"))

	tbl := groupedTable()
	artifacts, err := RenderTable(tbl)
	require.NoError(t, err)
	require.NoError(t, artifacts.Write(csvPath, jsonPath))

	back, err := ReadTableCSV(csvPath)
	require.NoError(t, err)
	assert.Equal(t, tbl.Header, back.Header)

	direct, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	roundTrip, err := TableJSON(back)
	require.NoError(t, err)
	assert.Equal(t, string(direct), string(roundTrip))
}

func TestTradeArtifacts(t *testing.T) {
	dir := t.TempDir()
	csvPath, jsonPath := ArtifactPaths(dir, "exportacao_sanitizado")
	records := []transform.TradeRecord{
		{Country: "Argentina", Year: 1970, Quantity: 100, ValueUSD: 50.5},
		{Country: "Chile", Year: 1971, Quantity: 3, ValueUSD: 4},
	}

	artifacts, err := RenderTrade(records)
	require.NoError(t, err)
	require.NoError(t, artifacts.Write(csvPath, jsonPath))

	csvData, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "País,ano,quantidade,valor_usd\nArgentina,1970,100,50.5\nChile,1971,3,4\n", string(csvData))

	decoded, err := ReadRecords(jsonPath)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, json.Number("50.5"), decoded[0]["valor_usd"])
	assert.Equal(t, "Chile", decoded[1]["País"])
}

func TestArtifacts_Write_Unwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	artifacts, err := RenderTable(groupedTable())
	require.NoError(t, err)

	err = artifacts.Write(filepath.Join(blocker, "out.csv"), filepath.Join(dir, "out.json"))
	assert.ErrorContains(t, err, "error creating directory")
	assert.NoFileExists(t, filepath.Join(dir, "out.json"))
}

func TestArtifacts_Write_KeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	csvPath, _ := ArtifactPaths(dir, "producao_sanitizado")
	require.NoError(t, os.WriteFile(csvPath, []byte("old"), 0o644))

	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	artifacts, err := RenderTable(groupedTable())
	require.NoError(t, err)

	err = artifacts.Write(csvPath, filepath.Join(blocker, "producao_sanitizado.json"))
	require.Error(t, err)

	old, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "staged files are removed")
}

func TestArtifacts_Write_Replaces(t *testing.T) {
	dir := t.TempDir()
	csvPath, jsonPath := ArtifactPaths(dir, "comercio_sanitizado")
	require.NoError(t, os.WriteFile(csvPath, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(jsonPath, []byte("old"), 0o644))

	require.NoError(t, Artifacts{CSV: []byte("a\n1\n"), JSON: []byte(`[{"a":1}]`)}.Write(csvPath, jsonPath))

	csvData, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(csvData))
	jsonData, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, `[{"a":1}]`, string(jsonData))

	info, err := os.Stat(csvPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}
