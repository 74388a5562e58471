package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"obs-stream-sync/internal/obsclient"
	"obs-stream-sync/internal/platform/config"
	"obs-stream-sync/internal/platform/logger"
	"obs-stream-sync/internal/platform/metrics"
	"obs-stream-sync/internal/scenesync"
	"obs-stream-sync/internal/status"
)

// app holds what every subcommand needs once configuration is loaded.
type app struct {
	envFiles []string
	cfg      config.Config
	log      *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "obs-stream-sync",
		Short:         "Mirror live RTMP and SRT streams into OBS scenes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "Environment file to load (repeatable, default .env)")

	rootCmd.AddCommand(newRunCommand(a))
	rootCmd.AddCommand(newOnceCommand(a))
	rootCmd.AddCommand(newPlanCommand(a))

	return rootCmd
}

func (a *app) load() error {
	if err := config.Load(a.envFiles...); err != nil {
		return err
	}
	cfg := config.FromEnv(logger.DefaultFormat())
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	a.log = logger.New(cfg.LogLevel, cfg.LogFormat)
	return nil
}

func (a *app) connect() (*obsclient.Client, error) {
	return obsclient.Connect(obsclient.Options{
		Addr:     a.cfg.OBSAddr(),
		Password: a.cfg.OBSPassword,
		Timeout:  a.cfg.OBSTimeout,
	}, a.log)
}

// sources returns the status fetchers in poll order. RTMP is required, SRT is not.
func (a *app) sources() []scenesync.Source {
	client := &http.Client{Timeout: a.cfg.HTTPTimeout}
	srcs := []scenesync.Source{{
		Fetcher:  status.NewRTMPFetcher(client, a.cfg.RTMPStatusURL, a.cfg.RTMPBaseURL, a.cfg.HTTPTimeout),
		Required: true,
	}}
	if a.cfg.SRTEnabled() {
		srcs = append(srcs, scenesync.Source{
			Fetcher: status.NewSRTFetcher(client, a.cfg.SRTStatusURL, a.cfg.SRTBaseURL, a.cfg.HTTPTimeout),
		})
	}
	return srcs
}

func (a *app) reconciler(ctl scenesync.Controller, m *metrics.Metrics) *scenesync.Reconciler {
	src := scenesync.SourceSpec{Kind: a.cfg.SourceKind, BufferMB: a.cfg.SourceBufferMB}
	return scenesync.NewReconciler(ctl, a.cfg.ScenePrefix, src, a.log, m)
}
