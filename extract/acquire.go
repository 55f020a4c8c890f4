package extract

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/techchallenge/vitibrasil-etl/table"
)

// RawFileName is the base name of the URL path, used for the raw copy on disk.
func RawFileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return "download.csv"
	}
	return path.Base(u.Path)
}

// Acquire downloads a delimited file, stores the raw bytes in rawDir before
// decoding them, and parses the decoded text into a table.
func (c *Client) Acquire(ctx context.Context, rawURL string, delimiter rune, encoding, rawDir string) (*table.Table, error) {
	body, err := c.FetchData(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating raw directory %s: %w", rawDir, err)
	}
	rawPath := filepath.Join(rawDir, RawFileName(rawURL))
	if err := os.WriteFile(rawPath, body, 0o644); err != nil {
		return nil, fmt.Errorf("error writing raw file %s: %w", rawPath, err)
	}
	c.Logger.Debug(fmt.Sprintf("Stored %d raw bytes from %s at %s", len(body), rawURL, rawPath))

	text, err := Decode(body, encoding)
	if err != nil {
		return nil, err
	}

	t, err := table.Parse(strings.NewReader(text), table.Options{
		Delimiter:  delimiter,
		NullValues: table.DefaultNullValues,
	})
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", rawURL, err)
	}
	return t, nil
}
