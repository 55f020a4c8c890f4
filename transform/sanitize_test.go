package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techchallenge/vitibrasil-etl/dataset"
	"github.com/techchallenge/vitibrasil-etl/table"
)

func TestSanitize(t *testing.T) {
	t.Run("comercio", func(t *testing.T) {
		src := parse(t, "control;id;Produto;1970\n"+
			"VINHO DE MESA;1;VINHO DE MESA;10\n"+
			"vm_Tinto;2;  Tinto  ;5\n"+
			"ESPUMANTES;3;ESPUMANTES;1\n"+
			"ot_Outros;4;Outros vinhos;2\n"+
			"ot_Suco;5;Suco;3\n")

		got, err := Sanitize(dataset.SpecFor(dataset.Comercio, nil), src)
		require.NoError(t, err)
		assert.Nil(t, got.Trade)
		assert.Equal(t, []string{"id", "Produto", "1970", "Tipo"}, got.Table.Header)
		assert.Equal(t, []table.Cell{table.Str("1"), table.Str("Tinto"), table.Str("5"), table.Str("VINHO DE MESA")}, got.Table.Rows[0])
		assert.Equal(t, []table.Cell{table.Str("OUTROS"), table.Str("OUTROS")}, column(got.Table, "Tipo")[1:])
	})

	t.Run("producao without control column", func(t *testing.T) {
		got, err := Sanitize(dataset.SpecFor(dataset.Producao, nil), parse(t, "id;produto;1970\n1;TINTOS;1\n2;Bordo;2\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "produto", "1970", "Tipo"}, got.Table.Header)
		assert.Equal(t, 1, got.Table.Len())
	})

	t.Run("exportacao", func(t *testing.T) {
		got, err := Sanitize(dataset.SpecFor(dataset.Exportacao, nil), parse(t, "Id;País;1970;1970\n1;Japão;3;4\n"))
		require.NoError(t, err)
		assert.Equal(t, []TradeRecord{{Country: "Japão", Year: 1970, Quantity: 3, ValueUSD: 4}}, got.Trade)
		assert.Equal(t, TradeHeader, got.Table.Header)
	})

	t.Run("processamento label missing", func(t *testing.T) {
		_, err := Sanitize(dataset.SpecFor(dataset.Processamento, nil), parse(t, "produto;1970\nA;1\n"))
		assert.ErrorContains(t, err, `column "cultivar" not found`)
	})
}
