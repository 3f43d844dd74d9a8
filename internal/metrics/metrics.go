// Package metrics derives progress, streak and histogram figures from a
// block snapshot. Nothing here is persisted; every value is recomputed.
package metrics

import (
	"math"

	"github.com/shekified/life-tracker/internal/clock"
	"github.com/shekified/life-tracker/internal/model"
)

const (
	// DefaultStreakLookback bounds how far back Streak walks.
	DefaultStreakLookback = 365
	// WeekDays is the length of the weekly histogram.
	WeekDays = 7
)

type DayCount struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type CategoryCount struct {
	Category  model.Category `json:"category"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
}

// Progress is the rounded completion percentage of blocks on date; 0 when
// the date has no blocks.
func Progress(blocks []model.Block, date string) int {
	total, done := 0, 0
	for _, b := range blocks {
		if b.Date != date {
			continue
		}
		total++
		if b.Completed {
			done++
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}

// Streak counts consecutive days ending at today that have at least one
// completed block. A today without a completion breaks the streak.
func Streak(blocks []model.Block, today string, lookback int) int {
	if lookback <= 0 {
		lookback = DefaultStreakLookback
	}
	active := completedDates(blocks)
	days := clock.TrailingFrom(today, lookback)

	streak := 0
	for i := len(days) - 1; i >= 0; i-- {
		if !active[days[i]] {
			break
		}
		streak++
	}
	return streak
}

// BestStreak is the longest run of active days inside the lookback window
// ending at today.
func BestStreak(blocks []model.Block, today string, lookback int) int {
	if lookback <= 0 {
		lookback = DefaultStreakLookback
	}
	active := completedDates(blocks)

	best, run := 0, 0
	for _, d := range clock.TrailingFrom(today, lookback) {
		if active[d] {
			run++
			best = max(best, run)
			continue
		}
		run = 0
	}
	return best
}

// Histogram returns completed counts for each date in days, preserving
// their order. Days without blocks report zero.
func Histogram(blocks []model.Block, days []string) []DayCount {
	counts := map[string]int{}
	for _, b := range blocks {
		if b.Completed {
			counts[b.Date]++
		}
	}
	out := make([]DayCount, 0, len(days))
	for _, d := range days {
		out = append(out, DayCount{Date: d, Label: clock.Weekday(d), Count: counts[d]})
	}
	return out
}

// Weekly is the seven-day histogram ending at today, oldest first.
func Weekly(blocks []model.Block, today string) []DayCount {
	return Histogram(blocks, clock.TrailingFrom(today, WeekDays))
}

// ByCategory reports completed and total counts for every category on date.
func ByCategory(blocks []model.Block, date string) []CategoryCount {
	idx := map[model.Category]int{}
	out := make([]CategoryCount, 0, len(model.Categories))
	for i, c := range model.Categories {
		idx[c] = i
		out = append(out, CategoryCount{Category: c})
	}
	for _, b := range blocks {
		if b.Date != date {
			continue
		}
		i, ok := idx[b.Category]
		if !ok {
			continue
		}
		out[i].Total++
		if b.Completed {
			out[i].Completed++
		}
	}
	return out
}

func completedDates(blocks []model.Block) map[string]bool {
	out := map[string]bool{}
	for _, b := range blocks {
		if b.Completed {
			out[b.Date] = true
		}
	}
	return out
}
