package backend

import (
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds every adapter call that does not configure its own.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a daemon response is read. Every response
// the adapters care about is tiny.
const maxBodyBytes = 1 << 20

func defaultHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func readBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
