package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tazhate/lunchcal/internal/domain"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var (
		limit   int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root.cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.openStorage()
			if err != nil {
				return err
			}
			runs, err := store.ListRuns(limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if verbose {
				for _, r := range runs {
					days, err := store.ListRunDays(r.ID)
					if err != nil {
						return fmt.Errorf("list run %d days: %w", r.ID, err)
					}
					r.Days = days
				}
			}
			printHistory(cmd.OutOrStdout(), runs, a.cfg.Location)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include per-day outcomes")
	return cmd
}

func printHistory(w io.Writer, runs []*domain.RunRecord, loc *time.Location) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tSTARTED (%s)\tWEEK\tCREATED\tUPDATED\tSKIPPED\tRESULT\n", loc)
	for _, r := range runs {
		result := "ok"
		switch {
		case !r.Succeeded():
			result = r.Error
		case r.DryRun:
			result = "dry run"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.In(loc).Format("2006-01-02 15:04"), r.WeekStart, r.Created, r.Updated, r.Skipped, result)
		for _, d := range r.Days {
			fmt.Fprintf(tw, "\t\t%s\t%s\t\t\t%s\n", d.Date, d.State, d.Title)
		}
	}
	tw.Flush()
}
