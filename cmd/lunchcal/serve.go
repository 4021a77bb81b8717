package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tazhate/lunchcal/internal/scheduler"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the weekly sync on the configured schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root.cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			svc, err := a.lunchService(ctx, false)
			if err != nil {
				return err
			}

			if runNow {
				if _, err := svc.RunCurrentWeek(ctx); err != nil {
					a.logger.Error("initial sync failed", "err", err)
				}
			}

			sched := scheduler.New(a.cfg.Schedule, a.cfg.Location, svc, a.logger)
			if err := sched.Start(ctx); err != nil {
				return err
			}

			a.logger.Info("shutting down")
			sched.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "sync the current week once before waiting for the schedule")
	return cmd
}

