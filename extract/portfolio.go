package extract

import (
	"bytes"
	"context"
	"encoding/base64"
)

// FetchPortfolio downloads the B3 theoretical portfolio, which is served as
// base64 text, and returns the decoded file contents as UTF-8.
func (c *Client) FetchPortfolio(ctx context.Context, url, encoding string) (string, error) {
	body, err := c.FetchData(ctx, url)
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(body)))
	if err != nil {
		return "", &DecodeError{Encoding: "base64", Err: err}
	}

	return Decode(raw, encoding)
}
