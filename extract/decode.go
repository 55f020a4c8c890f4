package extract

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// lookupEncoding resolves IANA names first so that iso-8859-1 means Latin-1
// rather than the WHATWG windows-1252 alias.
func lookupEncoding(label string) (encoding.Encoding, error) {
	name := strings.TrimSpace(label)
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, &DecodeError{Encoding: label, Err: errors.New("unknown encoding")}
	}
	return enc, nil
}

// Decode converts data in the named encoding to a UTF-8 string without a BOM.
func Decode(data []byte, label string) (string, error) {
	enc, err := lookupEncoding(label)
	if err != nil {
		return "", err
	}

	if isUTF8(enc) {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", &DecodeError{Encoding: label, Err: errors.New("invalid utf-8 byte sequence")}
		}
		return string(data), nil
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", &DecodeError{Encoding: label, Err: err}
	}
	return strings.TrimPrefix(string(decoded), "\ufeff"), nil
}

func isUTF8(enc encoding.Encoding) bool {
	if enc == unicode.UTF8 || enc == unicode.UTF8BOM {
		return true
	}
	name, err := htmlindex.Name(enc)
	return err == nil && name == "utf-8"
}
