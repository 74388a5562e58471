package scenesync

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"obs-stream-sync/internal/platform/metrics"
	"obs-stream-sync/internal/status"
)

// Fetcher polls one status endpoint.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]status.StreamRecord, error)
}

// Source is a Fetcher registered with the loop.
// When a Required source fails the whole cycle is skipped and OBS is left
// untouched; any other source that fails counts as reporting no streams.
type Source struct {
	Fetcher
	Required bool
}

// Loop polls the sources and reconciles on a fixed interval, one cycle at a time.
type Loop struct {
	sources  []Source
	rec      *Reconciler
	interval time.Duration
	store    Store
	log      *slog.Logger
	metrics  *metrics.Metrics
	trigger  chan struct{}
	now      func() time.Time
}

// NewLoop wires the reconciler to its sources. Sources are polled in order and
// the first occurrence of a stream name wins. store and m may be nil.
func NewLoop(rec *Reconciler, interval time.Duration, store Store, log *slog.Logger, m *metrics.Metrics, sources ...Source) *Loop {
	return &Loop{
		sources:  sources,
		rec:      rec,
		interval: interval,
		store:    store,
		log:      log,
		metrics:  m,
		trigger:  make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Trigger asks a running loop to start the next cycle without waiting for the
// rest of the interval. It returns false if a trigger is already pending.
func (l *Loop) Trigger() bool {
	select {
	case l.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run executes cycles until ctx is cancelled. After every cycle it waits the
// full interval regardless of how long the cycle took.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("sync loop started",
		slog.Duration("interval", l.interval),
		slog.String("prefix", l.rec.Prefix()),
		slog.Int("sources", len(l.sources)))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.RunOnce(ctx)

		timer := time.NewTimer(l.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.log.Info("sync loop stopped")
			return ctx.Err()
		case <-l.trigger:
			timer.Stop()
			l.log.Debug("cycle triggered early")
		case <-timer.C:
		}
	}
}

// RunOnce polls every source and, unless a required source failed, reconciles.
func (l *Loop) RunOnce(ctx context.Context) Cycle {
	cycle := Cycle{ID: uuid.NewString(), StartedAt: l.now()}
	log := l.log.With(slog.String("cycle_id", cycle.ID))

	live, ok := l.poll(ctx, log, &cycle)
	if ok {
		cycle.Streams = live
		cycle.Result = l.rec.withLogger(log).Reconcile(live)
	} else {
		cycle.Skipped = true
	}
	cycle.FinishedAt = l.now()

	attrs := []any{
		slog.String("outcome", cycle.Outcome()),
		slog.Int("streams", len(cycle.Streams)),
		slog.Int("created", len(cycle.Result.Created)),
		slog.Int("removed", len(cycle.Result.Removed)),
		slog.Int("failed", len(cycle.Result.Failed)),
		slog.Int64("duration_ms", cycle.FinishedAt.Sub(cycle.StartedAt).Milliseconds()),
	}
	if cycle.Result.Changed() || cycle.Result.Err != nil {
		log.Info("cycle finished", attrs...)
	} else {
		log.Debug("cycle finished", attrs...)
	}

	if l.metrics != nil {
		l.metrics.ObserveCycle(cycle.Outcome(), cycle.FinishedAt.Sub(cycle.StartedAt).Seconds(), cycle.FinishedAt.Unix())
		if !cycle.Skipped {
			l.metrics.SetLiveStreams(len(cycle.Streams))
		}
	}
	if l.store != nil {
		l.store.SetLastCycle(cycle)
	}
	return cycle
}

// Poll fetches and merges the sources without touching OBS. The returned
// cycle carries no Result and is not stored.
func (l *Loop) Poll(ctx context.Context) Cycle {
	cycle := Cycle{ID: uuid.NewString(), StartedAt: l.now()}
	live, ok := l.poll(ctx, l.log.With(slog.String("cycle_id", cycle.ID)), &cycle)
	cycle.Streams, cycle.Skipped = live, !ok
	cycle.FinishedAt = l.now()
	return cycle
}

// poll merges the sources' results. ok is false when a required source failed.
func (l *Loop) poll(ctx context.Context, log *slog.Logger, cycle *Cycle) (live []status.StreamRecord, ok bool) {
	live = []status.StreamRecord{}
	seen := make(map[string]string)

	for _, src := range l.sources {
		records, err := src.Fetch(ctx)
		if err != nil {
			if cycle.FetchErrors == nil {
				cycle.FetchErrors = make(map[string]string)
			}
			cycle.FetchErrors[src.Name()] = err.Error()
			if l.metrics != nil {
				l.metrics.IncFetchErrors(src.Name())
			}
			if src.Required {
				log.Warn("required source unavailable, skipping cycle",
					slog.String("source", src.Name()),
					slog.String("error", err.Error()))
				return nil, false
			}
			log.Warn("source unavailable, treating as no streams",
				slog.String("source", src.Name()),
				slog.String("error", err.Error()))
			continue
		}

		for _, r := range records {
			if first, dup := seen[r.Name]; dup {
				log.Debug("stream reported by more than one source",
					slog.String("stream", r.Name),
					slog.String("kept", first),
					slog.String("ignored", src.Name()))
				continue
			}
			seen[r.Name] = src.Name()
			live = append(live, r)
		}
	}
	return live, true
}
