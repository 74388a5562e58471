package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"obs-stream-sync/internal/platform/logger"
	"obs-stream-sync/internal/platform/metrics"
	"obs-stream-sync/internal/scenesync"
)

const shutdownTimeout = 10 * time.Second

// ErrAlreadyRunning is returned when another instance holds the lock file.
var ErrAlreadyRunning = errors.New("another obs-stream-sync instance is already running")

func newRunCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll status endpoints and keep OBS scenes in sync until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx)
		},
	}
}

func (a *app) run(ctx context.Context) error {
	log := a.log

	lock := flock.New(a.cfg.LockFile)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", a.cfg.LockFile, err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("failed to release lock", slog.String("lock", a.cfg.LockFile), slog.String("error", err.Error()))
		}
	}()

	client, err := a.connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Warn("obs disconnect", slog.String("error", err.Error()))
		}
	}()

	met := metrics.New()
	store := scenesync.NewInMemoryStore()
	loop := scenesync.NewLoop(a.reconciler(client, met), a.cfg.PollInterval, store, log, met, a.sources()...)

	var srv *http.Server
	if a.cfg.AdminAddr != "" {
		srv = &http.Server{
			Addr:              a.cfg.AdminAddr,
			Handler:           newAdminRouter(scenesync.NewHandler(store, loop, log), log, met),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("admin server error", "error", err)
			}
		}()
	}

	log.Info("obs-stream-sync starting",
		"obs", a.cfg.OBSAddr(),
		"rtmp_status_url", a.cfg.RTMPStatusURL,
		"srt_status_url", a.cfg.SRTStatusURL,
		"scene_prefix", a.cfg.ScenePrefix,
		"source_kind", a.cfg.SourceKind,
		"interval", a.cfg.PollInterval.String(),
		"admin_addr", a.cfg.AdminAddr,
	)

	err = loop.Run(ctx)

	log.Info("shutdown signal received, stopping")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("admin shutdown error", "error", err)
		}
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newAdminRouter(h *scenesync.Handler, log *slog.Logger, met *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/healthz", h.Healthz)
	r.Get("/streams", h.GetStreams)
	r.Post("/sync", h.Sync)
	r.Method(http.MethodGet, "/metrics", met.Handler())
	return r
}
