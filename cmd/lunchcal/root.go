package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	cfgFile string
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "lunchcal",
		Short: "Sync SchoolCafé lunch menus into a CalDAV calendar",
		Long: `lunchcal fetches one week of school lunch menus from the SchoolCafé API
and keeps one calendar event per school day up to date, without creating
duplicates when run repeatedly.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(opts.envFile)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./lunchcal.yaml or ~/.config/lunchcal/lunchcal.yaml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading config")

	cmd.AddCommand(
		newSyncCmd(opts),
		newServeCmd(opts),
		newCalendarsCmd(opts),
		newHistoryCmd(opts),
		newConfigCmd(),
	)
	return cmd
}

// loadEnvFile loads KEY=VALUE pairs without overriding the real
// environment. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
