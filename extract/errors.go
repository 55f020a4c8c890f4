package extract

import "fmt"

// DownloadError reports a transport failure or a non-2xx response.
// StatusCode is zero when no response was received.
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download of %s failed with status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download of %s failed: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// DecodeError reports bytes that could not be decoded with the requested encoding.
type DecodeError struct {
	Encoding string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding content as %s: %v", e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
