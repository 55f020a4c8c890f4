package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		encoding string
		want     string
		wantErr  bool
	}{
		{name: "utf-8", data: []byte("País;Vinho"), encoding: "utf-8", want: "País;Vinho"},
		{name: "utf-8 bom stripped", data: []byte("\xef\xbb\xbfid;produto"), encoding: "UTF-8", want: "id;produto"},
		{name: "latin1", data: []byte("Pa\xeds;A\xe7\xe3o"), encoding: "iso-8859-1", want: "País;Ação"},
		{name: "latin1 alias", data: []byte("Jap\xe3o"), encoding: "latin1", want: "Japão"},
		{name: "windows-1252", data: []byte("\x93x\x94"), encoding: "windows-1252", want: "“x”"},
		{name: "invalid utf-8", data: []byte("Pa\xeds"), encoding: "utf-8", wantErr: true},
		{name: "unknown label", data: []byte("x"), encoding: "klingon-8", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data, tt.encoding)
			if tt.wantErr {
				var decErr *DecodeError
				require.True(t, errors.As(err, &decErr))
				assert.Equal(t, tt.encoding, decErr.Encoding)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
