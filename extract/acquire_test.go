package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techchallenge/vitibrasil-etl/table"
)

const producaoCSV = "control;id;produto;1970;1971\n" +
	"VINHO DE MESA;1;VINHO DE MESA;217208604;154264651\n" +
	"vm_Tinto;2;Tinto;174224052;121133369\n" +
	"vm_Branco;3;Branco;;1098679\n"

func TestAcquire(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/download/Producao.csv":
			w.Write([]byte(producaoCSV))
		case "/download/Latin.csv":
			w.Write([]byte("Pa\xeds;1970\nJap\xe3o;10\n"))
		case "/download/Ragged.csv":
			w.Write([]byte("a;b\n1;2;3\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(getTestConfig(), getTestLogger(&bytes.Buffer{}))
	ctx := context.Background()

	t.Run("stores raw file and parses", func(t *testing.T) {
		rawDir := filepath.Join(t.TempDir(), "raw")
		got, err := client.Acquire(ctx, server.URL+"/download/Producao.csv", ';', "utf-8", rawDir)
		require.NoError(t, err)

		assert.Equal(t, []string{"control", "id", "produto", "1970", "1971"}, got.Header)
		assert.Equal(t, 3, got.Len())
		assert.Equal(t, table.Null(), got.Rows[2][3])
		assert.Equal(t, table.Str("Tinto"), got.Rows[1][2])

		raw, err := os.ReadFile(filepath.Join(rawDir, "Producao.csv"))
		require.NoError(t, err)
		assert.Equal(t, producaoCSV, string(raw))
	})

	t.Run("decodes latin1", func(t *testing.T) {
		got, err := client.Acquire(ctx, server.URL+"/download/Latin.csv", ';', "iso-8859-1", t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "País", got.Header[0])
		assert.Equal(t, table.Str("Japão"), got.Rows[0][0])
	})

	t.Run("raw file kept when decoding fails", func(t *testing.T) {
		rawDir := t.TempDir()
		_, err := client.Acquire(ctx, server.URL+"/download/Latin.csv", ';', "utf-8", rawDir)
		var decErr *DecodeError
		require.True(t, errors.As(err, &decErr))
		assert.FileExists(t, filepath.Join(rawDir, "Latin.csv"))
	})

	t.Run("ragged row", func(t *testing.T) {
		_, err := client.Acquire(ctx, server.URL+"/download/Ragged.csv", ';', "utf-8", t.TempDir())
		var parseErr *table.ParseError
		assert.True(t, errors.As(err, &parseErr))
	})

	t.Run("missing file", func(t *testing.T) {
		rawDir := t.TempDir()
		_, err := client.Acquire(ctx, server.URL+"/download/Nope.csv", ';', "utf-8", rawDir)
		var dlErr *DownloadError
		require.True(t, errors.As(err, &dlErr))
		assert.Equal(t, http.StatusNotFound, dlErr.StatusCode)
		assert.NoFileExists(t, filepath.Join(rawDir, "Nope.csv"))
	})
}

func TestRawFileName(t *testing.T) {
	assert.Equal(t, "ExpVinho.csv", RawFileName("http://vitibrasil.cnpuv.embrapa.br/download/ExpVinho.csv"))
	assert.Equal(t, "download.csv", RawFileName("http://localhost/"))
}

func TestFetchPortfolio(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("IBOV - Carteira do Dia 19/06/24\r\nC\xf3digo;A\xe7\xe3o\r\n"))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.Write([]byte("not base64!"))
			return
		}
		w.Write([]byte(payload + "\n"))
	}))
	defer server.Close()

	client := NewClient(getTestConfig(), getTestLogger(&bytes.Buffer{}))

	got, err := client.FetchPortfolio(context.Background(), server.URL+"/ok", "iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "IBOV - Carteira do Dia 19/06/24\r\nCódigo;Ação\r\n", got)

	_, err = client.FetchPortfolio(context.Background(), server.URL+"/bad", "iso-8859-1")
	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, "base64", decErr.Encoding)
}
