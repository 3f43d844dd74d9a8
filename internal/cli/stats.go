package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shekified/life-tracker/internal/metrics"
	"github.com/shekified/life-tracker/internal/telemetry"
)

type statsView struct {
	Date       string                  `json:"date"`
	Progress   int                     `json:"progress"`
	Streak     int                     `json:"streak"`
	BestStreak int                     `json:"best_streak"`
	Categories []metrics.CategoryCount `json:"categories"`
}

func newStatsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show today's progress, streaks, and category breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			v := statsView{
				Date:       s.tracker.Today(),
				Progress:   s.tracker.Progress(ctx),
				Streak:     s.tracker.Streak(ctx),
				BestStreak: s.tracker.BestStreak(ctx),
				Categories: s.tracker.CategoryBreakdown(ctx),
			}

			p := newPrinter(cmd)
			if opts.jsonOutput {
				return p.JSON(v)
			}
			p.Step("%s\n", v.Date)
			p.Info("Progress:    %d%%\n", v.Progress)
			p.Info("Streak:      %s\n", days(v.Streak))
			p.Info("Best streak: %s\n", days(v.BestStreak))
			p.Info("\n")
			for _, c := range v.Categories {
				p.Info("  %-9s %d/%d\n", c.Category, c.Completed, c.Total)
			}
			return nil
		},
	}
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func newWeekCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show completed blocks per day for the last seven days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			week := s.tracker.WeeklyHistogram(cmd.Context())
			p := newPrinter(cmd)
			if opts.jsonOutput {
				return p.JSON(week)
			}
			for _, d := range week {
				p.Info("%s %s %s %d\n", d.Label, d.Date, cyan.Sprint(strings.Repeat("█", d.Count)), d.Count)
			}
			return nil
		},
	}
}

func newActivityCommand(opts *globalOptions) *cobra.Command {
	var (
		sinceDays int
		clearLog  bool
	)

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Summarize the recorded activity log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			p := newPrinter(cmd)
			if clearLog {
				if err := s.events.Clear(); err != nil {
					return fmt.Errorf("clear activity log: %w", err)
				}
				p.Success("Activity log cleared\n")
				return nil
			}

			since := time.Now().AddDate(0, 0, -sinceDays)
			events, err := s.events.GetEvents(since, nil)
			if err != nil {
				return fmt.Errorf("read activity log: %w", err)
			}
			stats, err := telemetry.CalculateStats(events, since)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return p.JSON(stats)
			}

			p.Step("Activity since %s\n", stats.Period)
			p.Info("Added:        %d\n", stats.BlocksAdded)
			p.Info("Completed:    %d\n", stats.Completions)
			p.Info("Reopened:     %d\n", stats.Reopens)
			p.Info("Deleted:      %d\n", stats.Deletions)
			p.Info("Generated:    %d\n", stats.RecurringGenerated)
			p.Info("Active days:  %d (%.1f completions/day)\n", stats.ActiveDays, stats.CompletionsPerDay)
			return nil
		},
	}

	cmd.Flags().IntVar(&sinceDays, "days", 30, "look back this many days")
	cmd.Flags().BoolVar(&clearLog, "clear", false, "delete the activity log")
	return cmd
}
