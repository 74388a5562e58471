// Package status polls streaming server status endpoints and normalizes
// what they report into StreamRecords.
package status

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxStatusBody caps how much of a status response is read.
const maxStatusBody = 8 << 20

// StreamRecord is one live stream as reported by a status endpoint.
// This also matches the JSON shape served by the admin /streams endpoint.
type StreamRecord struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FetchError reports a failed poll of a status endpoint.
type FetchError struct {
	Source string // "rtmp" or "srt"
	Op     string // "request", "status", "decode"
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s status %s: %v", e.Source, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// getStatus issues a bounded GET and returns the body of a 2xx response.
func getStatus(ctx context.Context, client *http.Client, source, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Source: source, Op: "request", Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: source, Op: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Source: source, Op: "status", Err: fmt.Errorf("unexpected HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBody))
	if err != nil {
		return nil, &FetchError{Source: source, Op: "request", Err: err}
	}
	return body, nil
}

// dedupe drops records whose name was already seen, keeping the first.
func dedupe(records []StreamRecord) []StreamRecord {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, r := range records {
		if _, ok := seen[r.Name]; ok {
			continue
		}
		seen[r.Name] = struct{}{}
		out = append(out, r)
	}
	return out
}
