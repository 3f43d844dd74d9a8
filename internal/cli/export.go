package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/shekified/life-tracker/internal/clock"
	"github.com/shekified/life-tracker/internal/export"
)

func newExportCommand(opts *globalOptions) *cobra.Command {
	var (
		date string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a day's blocks as an iCalendar (.ics) to-do list",
		Example: `  lifetracker export > today.ics
  lifetracker export --date 2024-01-02 --out jan2.ics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			today := s.tracker.TodaysBlocks(cmd.Context())
			blocks := today
			if date == "" {
				date = s.tracker.Today()
			} else if _, err := clock.ParseDate(date); err != nil {
				return newPrinter(cmd).Error("Invalid date", fmt.Sprintf("%q is not a YYYY-MM-DD date.", date))
			} else if date != s.tracker.Today() {
				blocks = s.tracker.BlocksOn(date)
			}

			if out == "" {
				return export.WriteDayICS(cmd.OutOrStdout(), blocks, date, time.Now())
			}
			body, err := export.BuildDayICS(blocks, date, time.Now())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			newPrinter(cmd).Success("Exported %d blocks to %s\n", len(blocks), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "day to export (YYYY-MM-DD), default today")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}
