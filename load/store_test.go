package load

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techchallenge/vitibrasil-etl/config"
)

func openTestStore(t *testing.T, driver string) *Store {
	t.Helper()
	store, err := OpenStore(&config.Config{Store: config.StoreConfig{Driver: driver}}, testLogger())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestOpenStore(t *testing.T) {
	for _, driver := range []string{"", DriverDuckDB, DriverSQLite} {
		t.Run("driver "+driver, func(t *testing.T) {
			store := openTestStore(t, driver)

			// Migrate twice to check it is idempotent.
			require.NoError(t, store.Migrate(context.Background()))

			for _, name := range []string{"pais", "producao", "processamento", "comercio", "importacao", "exportacao", "ano_valor"} {
				var n int
				require.NoError(t, store.DB.QueryRow("SELECT COUNT(*) FROM "+name).Scan(&n), name)
				assert.Zero(t, n)
			}
		})
	}

	_, err := OpenStore(&config.Config{Store: config.StoreConfig{Driver: "oracle"}}, testLogger())
	assert.ErrorContains(t, err, `unsupported store driver "oracle"`)
}

func TestRebind(t *testing.T) {
	pg := &Store{Driver: DriverPostgres}
	assert.Equal(t, "INSERT INTO pais (id, nome) VALUES ($1, $2)", pg.Rebind("INSERT INTO pais (id, nome) VALUES (?, ?)"))

	lite := &Store{Driver: DriverSQLite}
	assert.Equal(t, "SELECT id FROM pais WHERE nome = ?", lite.Rebind("SELECT id FROM pais WHERE nome = ?"))
}
