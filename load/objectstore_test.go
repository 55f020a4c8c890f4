package load

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techchallenge/vitibrasil-etl/config"
)

// fakeS3 records bucket creation and object uploads.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	puts    []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	io.Copy(io.Discard, r.Body)

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	bucket, key := parts[0], ""
	if len(parts) == 2 {
		key = parts[1]
	}
	switch {
	case r.Method == http.MethodHead && key == "":
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && key == "":
		f.buckets[bucket] = true
	case r.Method == http.MethodPut:
		f.puts = append(f.puts, r.URL.Path)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func TestNewObjectStore(t *testing.T) {
	t.Setenv("OBJECT_STORE_ACCESS_KEY", "")
	t.Setenv("OBJECT_STORE_SECRET_KEY", "")

	_, err := NewObjectStore(&config.Config{}, testLogger())
	assert.ErrorContains(t, err, "object_store.endpoint is not set")

	_, err = NewObjectStore(&config.Config{ObjectStore: config.ObjectStoreConfig{Endpoint: "localhost:9000"}}, testLogger())
	assert.ErrorContains(t, err, "OBJECT_STORE_ACCESS_KEY")
}

func TestObjectStore_Upload(t *testing.T) {
	fake := &fakeS3{buckets: map[string]bool{"refined": true}}
	server := httptest.NewServer(fake)
	defer server.Close()

	t.Setenv("OBJECT_STORE_ACCESS_KEY", "admin")
	t.Setenv("OBJECT_STORE_SECRET_KEY", "admin123")
	store, err := NewObjectStore(&config.Config{
		ObjectStore: config.ObjectStoreConfig{Endpoint: strings.TrimPrefix(server.URL, "http://")},
	}, testLogger())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "b3-2024-06-19.parquet")
	require.NoError(t, os.WriteFile(path, []byte("PAR1"), 0o644))

	ctx := context.Background()
	require.NoError(t, store.Upload(ctx, "raw", "b3-portfolio.parquet", path))
	require.NoError(t, store.Upload(ctx, "refined", "b3-refined.parquet", path))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.True(t, fake.buckets["raw"])
	assert.Equal(t, []string{"/raw/b3-portfolio.parquet", "/refined/b3-refined.parquet"}, fake.puts)
}
