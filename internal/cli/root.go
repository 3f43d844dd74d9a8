// Package cli implements the lifetracker command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	dataDir    string
	storage    string
	jsonOutput bool
	verbose    bool
}

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	root := newRootCommand(version, commit, buildDate)
	return root.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "lifetracker",
		Short: "Track daily blocks, streaks, and recurring habits",
		Long: `lifetracker keeps a list of blocks (small tasks) for each day.

Blocks can be completed, reordered, and marked recurring. Recurring blocks
are copied onto each new day the first time the tracker is used that day.
Progress, streaks, and a seven-day histogram are derived from history.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path (default ~/.lifetracker/config.yaml)")
	pf.StringVar(&opts.dataDir, "data-dir", "", "data directory, overrides config and LIFETRACKER_DATA_DIR")
	pf.StringVar(&opts.storage, "storage", "", "snapshot backend: file, sqlite or memory")
	pf.BoolVar(&opts.jsonOutput, "json", false, "output in JSON format")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newAddCommand(opts),
		newListCommand(opts),
		newDoneCommand(opts),
		newRemoveCommand(opts),
		newMoveCommand(opts),
		newStopCommand(opts),
		newStatsCommand(opts),
		newWeekCommand(opts),
		newExportCommand(opts),
		newActivityCommand(opts),
		newBackupCommand(opts),
		newRestoreCommand(opts),
	)
	return root
}
