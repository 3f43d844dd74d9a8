package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shekified/life-tracker/internal/model"
)

func done(date string) model.Block {
	return model.Block{Date: date, Completed: true, Category: model.CategoryWork}
}

func open(date string) model.Block {
	return model.Block{Date: date, Category: model.CategoryWork}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name   string
		blocks []model.Block
		want   int
	}{
		{name: "empty day", blocks: []model.Block{done("2024-01-01")}, want: 0},
		{name: "one of three", blocks: []model.Block{done("2024-01-02"), open("2024-01-02"), open("2024-01-02")}, want: 33},
		{name: "two of three", blocks: []model.Block{done("2024-01-02"), done("2024-01-02"), open("2024-01-02")}, want: 67},
		{name: "all", blocks: []model.Block{done("2024-01-02")}, want: 100},
		{name: "none done", blocks: []model.Block{open("2024-01-02")}, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Progress(tc.blocks, "2024-01-02"))
		})
	}
}

func TestStreak_ConsecutiveDays(t *testing.T) {
	blocks := []model.Block{
		done("2024-03-01"), open("2024-03-01"),
		done("2024-02-29"),
		done("2024-02-28"),
		open("2024-02-27"),
		done("2024-02-20"),
	}
	assert.Equal(t, 3, Streak(blocks, "2024-03-01", 0))
}

func TestStreak_TodayWithoutCompletionIsZero(t *testing.T) {
	blocks := []model.Block{open("2024-03-01"), done("2024-02-29"), done("2024-02-28")}
	assert.Equal(t, 0, Streak(blocks, "2024-03-01", DefaultStreakLookback))
	assert.Equal(t, 0, Streak(nil, "2024-03-01", DefaultStreakLookback))
}

func TestStreak_BoundedByLookback(t *testing.T) {
	blocks := make([]model.Block, 0, 10)
	for _, d := range []string{
		"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05",
	} {
		blocks = append(blocks, done(d))
	}
	assert.Equal(t, 5, Streak(blocks, "2024-01-05", 365))
	assert.Equal(t, 3, Streak(blocks, "2024-01-05", 3))
}

func TestBestStreak(t *testing.T) {
	blocks := []model.Block{
		done("2024-01-01"), done("2024-01-02"), done("2024-01-03"), done("2024-01-04"),
		done("2024-01-07"),
		done("2024-01-09"), done("2024-01-10"),
	}
	assert.Equal(t, 4, BestStreak(blocks, "2024-01-10", 0))
	assert.Equal(t, 2, Streak(blocks, "2024-01-10", 0))
}

func TestWeekly_AlwaysSevenOldestFirst(t *testing.T) {
	empty := Weekly(nil, "2024-01-07")
	require.Len(t, empty, 7)
	assert.Equal(t, "2024-01-01", empty[0].Date)
	assert.Equal(t, "Mon", empty[0].Label)
	assert.Equal(t, "2024-01-07", empty[6].Date)
	assert.Equal(t, "Sun", empty[6].Label)
	for _, d := range empty {
		assert.Zero(t, d.Count)
	}

	blocks := []model.Block{
		done("2024-01-07"), done("2024-01-07"), open("2024-01-07"),
		done("2024-01-03"),
		done("2023-12-31"), // outside the window
	}
	got := Weekly(blocks, "2024-01-07")
	require.Len(t, got, 7)
	assert.Equal(t, 2, got[6].Count)
	assert.Equal(t, 1, got[2].Count)
	total := 0
	for _, d := range got {
		total += d.Count
	}
	assert.Equal(t, 3, total)
}

func TestByCategory(t *testing.T) {
	blocks := []model.Block{
		{Date: "2024-01-02", Category: model.CategoryHealth, Completed: true},
		{Date: "2024-01-02", Category: model.CategoryHealth},
		{Date: "2024-01-02", Category: model.CategorySkill},
		{Date: "2024-01-01", Category: model.CategorySkill, Completed: true},
	}
	got := ByCategory(blocks, "2024-01-02")
	require.Len(t, got, 4)
	assert.Equal(t, CategoryCount{Category: model.CategoryWork}, got[0])
	assert.Equal(t, CategoryCount{Category: model.CategoryHealth, Completed: 1, Total: 2}, got[1])
	assert.Equal(t, CategoryCount{Category: model.CategorySkill, Completed: 0, Total: 1}, got[2])
}
