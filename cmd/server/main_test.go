package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"obs-stream-sync/internal/platform/metrics"
	"obs-stream-sync/internal/scenesync"
	"obs-stream-sync/internal/status"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Action", "Scene"}, [][]string{{"create", "stream_a"}, {"remove"}})
	for _, want := range []string{"ACTION", "SCENE", "create", "stream_a", "remove"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil) != "" {
		t.Error("no headers should render nothing")
	}
}

func TestWritePlan(t *testing.T) {
	var buf bytes.Buffer
	writePlan(&buf, "stream_", scenesync.Plan{
		Create: []status.StreamRecord{{Name: "a", URL: "rtmp://h/a"}},
		Remove: []string{"stream_old"},
	})
	out := buf.String()
	for _, want := range []string{"stream_a", "rtmp://h/a", "stream_old"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	writePlan(&buf, "stream_", scenesync.Plan{})
	if !strings.Contains(buf.String(), "nothing to do") {
		t.Errorf("unexpected empty plan output %q", buf.String())
	}
}

func TestWriteCycle(t *testing.T) {
	var buf bytes.Buffer
	writeCycle(&buf, scenesync.Cycle{
		ID:          "c1",
		Streams:     []status.StreamRecord{{Name: "a"}},
		FetchErrors: map[string]string{"srt": "srt status request: refused"},
		Result:      scenesync.Result{Created: []string{"stream_a"}, Removed: []string{"stream_b"}},
	})
	out := buf.String()
	for _, want := range []string{"cycle c1: ok", "srt unavailable", "created", "stream_a", "removed", "stream_b"} {
		if !strings.Contains(out, want) {
			t.Errorf("cycle output missing %q:\n%s", want, out)
		}
	}
}

func TestAdminRouter(t *testing.T) {
	store := scenesync.NewInMemoryStore()
	store.SetLastCycle(scenesync.Cycle{ID: "c1"})
	met := metrics.New()
	r := newAdminRouter(scenesync.NewHandler(store, nil, quietLogger()), quietLogger(), met)

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/streams", http.StatusOK},
		{http.MethodPost, "/sync", http.StatusServiceUnavailable},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != tc.want {
			t.Errorf("%s %s = %d, want %d", tc.method, tc.path, rec.Code, tc.want)
		}
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "obs_sync_http_requests_total") {
		t.Errorf("metrics output missing request counter:\n%s", rec.Body.String())
	}
}

func TestRootCommand_invalid_config(t *testing.T) {
	t.Setenv("SOURCE_KIND", "browser")
	cmd := newRootCommand()
	cmd.SetArgs([]string{"plan", "--env-file", t.TempDir() + "/none.env"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "SOURCE_KIND") {
		t.Errorf("expected configuration error, got %v", err)
	}
}
