package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/techchallenge/vitibrasil-etl/config"
)

type Client struct {
	HTTPClient *retryablehttp.Client
	Logger     *slog.Logger
}

func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	client := &Client{
		HTTPClient: retryablehttp.NewClient(),
		Logger:     logger,
	}

	client.HTTPClient.RetryWaitMin = cfg.Extract.Backoff.RetryWaitMin
	client.HTTPClient.RetryWaitMax = cfg.Extract.Backoff.RetryWaitMax
	client.HTTPClient.RetryMax = cfg.Extract.Backoff.RetryMax
	if cfg.Extract.Timeout > 0 {
		client.HTTPClient.HTTPClient.Timeout = cfg.Extract.Timeout
	}
	client.HTTPClient.Logger = logger
	// Exhausted retries should surface the last response, not a generic error.
	client.HTTPClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return client
}

// FetchData makes the HTTP request and checks the response status.
func (c *Client) FetchData(ctx context.Context, url string) ([]byte, error) {
	body, resp, err := c.get(ctx, url)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DownloadError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status: %s, body: %.200s", resp.Status, string(body)),
		}
	}

	return body, nil
}

// get fetches the URL and returns the body and response
func (c *Client) get(ctx context.Context, url string) (body []byte, resp *http.Response, err error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err = c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	return body, resp, nil
}
