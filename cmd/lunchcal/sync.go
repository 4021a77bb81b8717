package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/tazhate/lunchcal/internal/clients/caldav"
	"github.com/tazhate/lunchcal/internal/domain"
	"github.com/tazhate/lunchcal/internal/service"
)

func newSyncCmd(root *rootOptions) *cobra.Command {
	var (
		weekOf  string
		dryRun  bool
		showICS bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync one week of lunch menus into the calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root.cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			day := time.Now().In(a.cfg.Location)
			if weekOf != "" {
				day, err = time.ParseInLocation(domain.DateKeyLayout, weekOf, a.cfg.Location)
				if err != nil {
					return fmt.Errorf("invalid --week-of %q, want YYYY-MM-DD", weekOf)
				}
			}

			svc, err := a.lunchService(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			result, runErr := svc.Run(cmd.Context(), day)
			if result != nil {
				printResult(cmd.OutOrStdout(), result, showICS)
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&weekOf, "week-of", "", "any date in the week to sync (YYYY-MM-DD), default today")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would change without writing to the calendar")
	cmd.Flags().BoolVar(&showICS, "ics", false, "print the iCalendar body of each event")
	return cmd
}

func printResult(w io.Writer, r *service.RunResult, showICS bool) {
	fmt.Fprintf(w, "Week %s", r.Window.String())
	if r.ServingLine != "" {
		fmt.Fprintf(w, ", serving line %q", r.ServingLine)
	}
	fmt.Fprintln(w)

	if r.Summary != nil {
		for _, d := range r.Summary.Days {
			fmt.Fprintf(w, "  %s  %-11s %s\n", d.Date, d.State, d.Title)
		}
	}
	for _, d := range r.MissingDays {
		fmt.Fprintf(w, "  %s  %-11s\n", d, "no menu")
	}

	if showICS {
		for _, d := range r.Drafts {
			fmt.Fprintln(w)
			fmt.Fprint(w, caldav.EventICS(service.DraftEvent(d)))
		}
	}
}
