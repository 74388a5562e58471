package scenesync

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"obs-stream-sync/internal/status"
)

// Triggerer wakes the sync loop early. *Loop implements it.
type Triggerer interface {
	Trigger() bool
}

// Handler exposes the admin HTTP endpoints.
type Handler struct {
	store   Store
	trigger Triggerer
	log     *slog.Logger
}

// NewHandler returns a Handler reading cycles from store. trigger may be nil,
// in which case POST /sync answers 503.
func NewHandler(store Store, trigger Triggerer, log *slog.Logger) *Handler {
	return &Handler{store: store, trigger: trigger, log: log}
}

type cycleResponse struct {
	ID          string                `json:"id"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  time.Time             `json:"finished_at"`
	Outcome     string                `json:"outcome"`
	Skipped     bool                  `json:"skipped"`
	Streams     []status.StreamRecord `json:"streams"`
	FetchErrors map[string]string     `json:"fetch_errors,omitempty"`
	Created     []string              `json:"created,omitempty"`
	Removed     []string              `json:"removed,omitempty"`
	Failed      []string              `json:"failed,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// GetStreams handles GET /streams: the live streams and outcome of the last cycle.
func (h *Handler) GetStreams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	c, ok := h.store.LastCycle()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	resp := cycleResponse{
		ID:          c.ID,
		StartedAt:   c.StartedAt,
		FinishedAt:  c.FinishedAt,
		Outcome:     c.Outcome(),
		Skipped:     c.Skipped,
		Streams:     c.Streams,
		FetchErrors: c.FetchErrors,
		Created:     c.Result.Created,
		Removed:     c.Result.Removed,
		Failed:      c.Result.Failed,
	}
	if resp.Streams == nil {
		resp.Streams = []status.StreamRecord{}
	}
	if c.Result.Err != nil {
		resp.Error = c.Result.Err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Debug("write streams response", slog.String("error", err.Error()))
	}
}

// Sync handles POST /sync: run the next cycle now.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.trigger == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	queued := h.trigger.Trigger()
	h.log.Info("sync requested", slog.Bool("queued", queued))
	w.WriteHeader(http.StatusAccepted)
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
