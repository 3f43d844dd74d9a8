package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shekified/life-tracker/internal/block"
	"github.com/shekified/life-tracker/internal/model"
	"github.com/shekified/life-tracker/internal/ordering"
	"github.com/shekified/life-tracker/internal/tracker"
)

func categoryNames() string {
	names := make([]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

func newAddCommand(opts *globalOptions) *cobra.Command {
	var (
		category  string
		recurring bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a block to today's list",
		Example: `  lifetracker add "Write report" --category work
  lifetracker add "Morning run" -k health --recurring`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd)
			cat, ok := model.ParseCategory(category)
			if !ok {
				return p.Error("Unknown category", fmt.Sprintf("%q is not a category.", category),
					"Use one of: "+categoryNames())
			}

			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			b, err := s.tracker.AddBlock(cmd.Context(), strings.Join(args, " "), cat, recurring)
			if errors.Is(err, tracker.ErrEmptyTitle) {
				return p.Error("Empty title", "A block needs a title.")
			}
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return p.JSON(b)
			}
			suffix := ""
			if b.IsRecurring {
				suffix = " (daily)"
			}
			p.Success("Added %q to %s [%s]%s\n", b.Title, b.Date, b.Category, suffix)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "k", string(model.CategoryPersonal), "category: "+categoryNames())
	cmd.Flags().BoolVarP(&recurring, "recurring", "r", false, "repeat this block every day")
	return cmd
}

func newListCommand(opts *globalOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List today's blocks, or another day's with --date",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			today := s.tracker.TodaysBlocks(cmd.Context())
			day := s.tracker.Today()
			blocks := today
			if date != "" && date != day {
				day = date
				blocks = s.tracker.BlocksOn(date)
			}

			p := newPrinter(cmd)
			if opts.jsonOutput {
				return p.JSON(blocks)
			}
			printBlocks(p, day, blocks)
			if day == s.tracker.Today() && len(blocks) > 0 {
				p.Info("\nProgress: %d%%\n", s.tracker.Progress(cmd.Context()))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "day to list (YYYY-MM-DD)")
	return cmd
}

func printBlocks(p printer, day string, blocks []model.Block) {
	p.Step("%s\n", day)
	if len(blocks) == 0 {
		p.Info("  no blocks\n")
		return
	}
	for i, b := range blocks {
		mark := "[ ]"
		if b.Completed {
			mark = green.Sprint("[x]")
		}
		recur := ""
		if b.IsRecurring {
			recur = " ↻"
		}
		p.Info("%3d. %s %s (%s)%s %s\n", i+1, mark, b.Title, b.Category, recur, faint.Sprint(shortID(b.ID)))
	}
}

func shortID(id model.BlockID) string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// refError turns lookup failures into printed, user-facing errors.
func refError(p printer, ref string, err error) error {
	switch {
	case errors.Is(err, block.ErrNotFound):
		return p.Error("Block not found", fmt.Sprintf("Nothing in today's list matches %q.", ref),
			"Run 'lifetracker list' to see positions and ids.")
	case errors.Is(err, errAmbiguousRef):
		return p.Error("Ambiguous block", fmt.Sprintf("More than one block id starts with %q.", ref),
			"Use a longer id prefix or the list position.")
	}
	return err
}

func newDoneCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <position|id>",
		Short: "Toggle a block's completed state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			p := newPrinter(cmd)
			id, err := s.resolve(cmd, args[0])
			if err != nil {
				return refError(p, args[0], err)
			}
			b, err := s.tracker.ToggleCompleted(cmd.Context(), id)
			if err != nil {
				return refError(p, args[0], err)
			}
			if opts.jsonOutput {
				return p.JSON(b)
			}
			if b.Completed {
				p.Success("Completed %q (%d%% today)\n", b.Title, s.tracker.Progress(cmd.Context()))
			} else {
				p.Info("Reopened %q\n", b.Title)
			}
			return nil
		},
	}
}

func newRemoveCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <position|id>",
		Aliases: []string{"delete"},
		Short:   "Delete one block from today's list",
		Long: `Delete one block from today's list.

Other days' copies of a recurring block are kept. Use 'lifetracker stop'
to end a recurring series.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			p := newPrinter(cmd)
			id, err := s.resolve(cmd, args[0])
			if err != nil {
				return refError(p, args[0], err)
			}
			b, err := s.tracker.DeleteBlock(cmd.Context(), id)
			if err != nil {
				return refError(p, args[0], err)
			}
			p.Success("Deleted %q\n", b.Title)
			if b.IsRecurring {
				p.Warning("%q still repeats daily; run 'lifetracker stop' to end it\n", b.Title)
			}
			return nil
		},
	}
}

func newMoveCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <position|id> <target position|id>",
		Short: "Move a block into another block's slot in today's list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			p := newPrinter(cmd)
			moved, err := s.resolve(cmd, args[0])
			if err != nil {
				return refError(p, args[0], err)
			}
			target, err := s.resolve(cmd, args[1])
			if err != nil {
				return refError(p, args[1], err)
			}
			if err := s.tracker.Reorder(cmd.Context(), moved, target); err != nil {
				if errors.Is(err, ordering.ErrNotInPartition) {
					return p.Error("Cannot move block", "Both blocks must be in today's list.")
				}
				return err
			}
			blocks := s.tracker.TodaysBlocks(cmd.Context())
			if opts.jsonOutput {
				return p.JSON(blocks)
			}
			printBlocks(p, s.tracker.Today(), blocks)
			return nil
		},
	}
}

func newStopCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <position|id>",
		Short: "Stop a recurring block from repeating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			p := newPrinter(cmd)
			id, err := s.resolve(cmd, args[0])
			if err != nil {
				return refError(p, args[0], err)
			}
			n, err := s.tracker.StopRecurring(cmd.Context(), id)
			if err != nil {
				return refError(p, args[0], err)
			}
			if n == 0 {
				p.Info("Block was not recurring\n")
				return nil
			}
			p.Success("Stopped recurrence (%d records updated)\n", n)
			return nil
		},
	}
}
