package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newCalendarsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "calendars",
		Short: "List the calendars on the CalDAV server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root.cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.calendar.IsConfigured() {
				return errors.New("calendar.url is not set")
			}
			cals, err := a.calendar.DiscoverCalendars(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range cals {
				fmt.Fprintf(out, "%s\t%s\n", c.ID, c.DisplayName)
			}
			if len(cals) == 0 {
				fmt.Fprintln(out, "no calendars found")
			}
			return nil
		},
	}
}
