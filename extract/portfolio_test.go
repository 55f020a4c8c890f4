package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchPortfolio(t *testing.T) {
	latin1 := []byte("C\xf3digo;A\xe7\xe3o\nALPA4;ALPARGATAS\n")

	tests := []struct {
		name     string
		body     string
		encoding string
		expected string
		wantErr  string
	}{
		{
			name:     "latin1 payload",
			body:     base64.StdEncoding.EncodeToString(latin1) + "\n",
			encoding: "iso-8859-1",
			expected: "Código;Ação\nALPA4;ALPARGATAS\n",
		},
		{
			name:     "utf-8 payload",
			body:     base64.StdEncoding.EncodeToString([]byte("Código\n")),
			encoding: "utf-8",
			expected: "Código\n",
		},
		{
			name:     "not base64",
			body:     "%%%",
			encoding: "utf-8",
			wantErr:  "base64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(getTestConfig(), getTestLogger(&bytes.Buffer{}))
			text, err := client.FetchPortfolio(context.Background(), server.URL, tt.encoding)
			if tt.wantErr != "" {
				var decErr *DecodeError
				require.True(t, errors.As(err, &decErr))
				assert.Equal(t, tt.wantErr, decErr.Encoding)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
		})
	}
}
