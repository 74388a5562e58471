package status

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// SRTFetcher reads a JSON list of active SRT streams.
type SRTFetcher struct {
	statusURL string
	baseURL   string
	timeout   time.Duration
	client    *http.Client
}

// srtStream is one element of the SRT status array. Unknown fields are ignored.
type srtStream struct {
	Name string `json:"name"`
}

// NewSRTFetcher returns a fetcher for statusURL. Playback URLs are built as
// baseURL + name, so baseURL usually ends in "?streamid=" or "/".
func NewSRTFetcher(client *http.Client, statusURL, baseURL string, timeout time.Duration) *SRTFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &SRTFetcher{
		statusURL: statusURL,
		baseURL:   baseURL,
		timeout:   timeout,
		client:    client,
	}
}

// Name identifies the source in logs and metrics.
func (f *SRTFetcher) Name() string { return "srt" }

// Fetch returns the streams currently connected to the SRT server.
func (f *SRTFetcher) Fetch(ctx context.Context) ([]StreamRecord, error) {
	body, err := getStatus(ctx, f.client, f.Name(), f.statusURL, f.timeout)
	if err != nil {
		return nil, err
	}

	var streams []srtStream
	if err := json.Unmarshal(body, &streams); err != nil {
		return nil, &FetchError{Source: f.Name(), Op: "decode", Err: err}
	}

	records := make([]StreamRecord, 0, len(streams))
	for _, s := range streams {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		records = append(records, StreamRecord{Name: name, URL: f.baseURL + name})
	}
	return dedupe(records), nil
}
