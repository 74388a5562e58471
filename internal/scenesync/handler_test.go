package scenesync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type countingTrigger struct{ n int }

func (c *countingTrigger) Trigger() bool {
	c.n++
	return c.n == 1
}

func newTestRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/healthz", h.Healthz)
	r.Get("/streams", h.GetStreams)
	r.Post("/sync", h.Sync)
	return r
}

func TestHandler_GetStreams_before_first_cycle(t *testing.T) {
	h := NewHandler(NewInMemoryStore(), nil, testLogger())
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/streams", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_GetStreams(t *testing.T) {
	store := NewInMemoryStore()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.SetLastCycle(Cycle{
		ID:          "c1",
		StartedAt:   start,
		FinishedAt:  start.Add(time.Second),
		Streams:     rtmp("a"),
		FetchErrors: map[string]string{"srt": "srt status decode: unexpected EOF"},
		Result:      Result{Created: []string{"stream_a"}},
	})
	h := NewHandler(store, nil, testLogger())
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/streams", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}
	var body cycleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID != "c1" || body.Outcome != "ok" {
		t.Errorf("unexpected body %+v", body)
	}
	if len(body.Streams) != 1 || body.Streams[0].Name != "a" {
		t.Errorf("Streams = %v", body.Streams)
	}
	if body.FetchErrors["srt"] == "" {
		t.Error("fetch errors missing")
	}
	if !equalStrings(body.Created, []string{"stream_a"}) {
		t.Errorf("Created = %v", body.Created)
	}
}

func TestHandler_GetStreams_skipped_cycle(t *testing.T) {
	store := NewInMemoryStore()
	store.SetLastCycle(Cycle{ID: "c2", Skipped: true, FetchErrors: map[string]string{"rtmp": "down"}})
	r := newTestRouter(NewHandler(store, nil, testLogger()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/streams", nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["skipped"] != true || body["outcome"] != "skipped" {
		t.Errorf("unexpected body %v", body)
	}
	if streams, ok := body["streams"].([]any); !ok || len(streams) != 0 {
		t.Errorf("streams should be an empty list, got %v", body["streams"])
	}
}

func TestHandler_Sync(t *testing.T) {
	trig := &countingTrigger{}
	r := newTestRouter(NewHandler(NewInMemoryStore(), trig, testLogger()))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))
		if rec.Code != http.StatusAccepted {
			t.Errorf("request %d: expected 202, got %d", i, rec.Code)
		}
	}
	if trig.n != 2 {
		t.Errorf("trigger called %d times", trig.n)
	}
}

func TestHandler_Sync_without_loop(t *testing.T) {
	r := newTestRouter(NewHandler(NewInMemoryStore(), nil, testLogger()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestHandler_Sync_wrong_method(t *testing.T) {
	r := newTestRouter(NewHandler(NewInMemoryStore(), &countingTrigger{}, testLogger()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestHandler_Healthz(t *testing.T) {
	r := newTestRouter(NewHandler(NewInMemoryStore(), nil, testLogger()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}
