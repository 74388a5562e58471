package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"obs-stream-sync/internal/scenesync"
)

func newPlanCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show which scenes the next cycle would create or remove, without changing OBS",
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

			rec := a.reconciler(client, nil)
			loop := scenesync.NewLoop(rec, a.cfg.PollInterval, nil, a.log, nil, a.sources()...)

			cycle := loop.Poll(cmd.Context())
			if cycle.Skipped {
				for src, msg := range cycle.FetchErrors {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s unavailable: %s\n", src, msg)
				}
				return errCycleSkipped
			}

			plan, err := rec.Plan(cycle.Streams)
			if err != nil {
				return err
			}
			writePlan(cmd.OutOrStdout(), a.cfg.ScenePrefix, plan)
			return nil
		},
	}
}

func writePlan(w io.Writer, prefix string, plan scenesync.Plan) {
	if plan.Empty() {
		fmt.Fprintln(w, "OBS is in sync, nothing to do")
		return
	}

	rows := make([][]string, 0, len(plan.Create)+len(plan.Remove))
	for _, s := range plan.Create {
		rows = append(rows, []string{"create", scenesync.SceneName(prefix, s.Name), s.URL})
	}
	for _, name := range plan.Remove {
		rows = append(rows, []string{"remove", name, ""})
	}
	fmt.Fprintln(w, renderTable([]string{"Action", "Scene", "Source URL"}, rows))
}
