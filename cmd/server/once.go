package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"obs-stream-sync/internal/scenesync"
)

var errCycleSkipped = errors.New("cycle skipped: a required status source is unavailable")

func newOnceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single poll-and-reconcile cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect()
			if err != nil {
				return err
			}
			defer func() {
				if err := client.Close(); err != nil {
					a.log.Warn("obs disconnect", slog.String("error", err.Error()))
				}
			}()

			loop := scenesync.NewLoop(a.reconciler(client, nil), a.cfg.PollInterval, nil, a.log, nil, a.sources()...)
			cycle := loop.RunOnce(cmd.Context())

			writeCycle(cmd.OutOrStdout(), cycle)
			switch {
			case cycle.Skipped:
				return errCycleSkipped
			case cycle.Result.Err != nil:
				return fmt.Errorf("cycle finished with errors: %w", cycle.Result.Err)
			}
			return nil
		},
	}
}

func writeCycle(w io.Writer, c scenesync.Cycle) {
	rows := make([][]string, 0)
	for _, s := range c.Result.Created {
		rows = append(rows, []string{"created", s})
	}
	for _, s := range c.Result.Removed {
		rows = append(rows, []string{"removed", s})
	}
	for _, s := range c.Result.Failed {
		rows = append(rows, []string{"failed", s})
	}

	fmt.Fprintf(w, "cycle %s: %s, %d live stream(s)\n", c.ID, c.Outcome(), len(c.Streams))
	if len(c.FetchErrors) > 0 {
		sources := make([]string, 0, len(c.FetchErrors))
		for src := range c.FetchErrors {
			sources = append(sources, src)
		}
		sort.Strings(sources)
		for _, src := range sources {
			fmt.Fprintf(w, "  %s unavailable: %s\n", src, c.FetchErrors[src])
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "no scene changes")
		return
	}
	fmt.Fprintln(w, strings.TrimRight(renderTable([]string{"Action", "Scene"}, rows), "\n"))
}
