package recurrence

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shekified/life-tracker/internal/block"
	"github.com/shekified/life-tracker/internal/model"
	"github.com/shekified/life-tracker/internal/snapshot"
)

func openStore(t *testing.T, seed string) *block.Store {
	t.Helper()
	s, err := block.Open(context.Background(), snapshot.NewMemoryRepoWith([]byte(seed)))
	require.NoError(t, err)
	return s
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModePerTemplate, m)

	m, err = ParseMode(" PER_RECORD ")
	require.NoError(t, err)
	assert.Equal(t, ModePerRecord, m)

	_, err = ParseMode("weekly")
	assert.Error(t, err)
}

func TestPropagator_RunScenario(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, `[{"id":"1","title":"Run","category":"Health","date":"2024-01-01","isRecurring":true,"completed":true,"order":0}]`)
	p := NewPropagator(s, ModePerTemplate, zerolog.Nop())

	added, err := p.Run(ctx, "2024-01-02")
	require.NoError(t, err)
	require.Len(t, added, 1)

	gen := added[0]
	assert.NotEqual(t, model.BlockID("1"), gen.ID)
	assert.Equal(t, "Run", gen.Title)
	assert.Equal(t, model.CategoryHealth, gen.Category)
	assert.Equal(t, "2024-01-02", gen.Date)
	assert.True(t, gen.IsRecurring)
	assert.False(t, gen.Completed)
	assert.Equal(t, 0, gen.Order)
	assert.Equal(t, model.BlockID("1"), gen.TemplateID)

	orig, ok := s.Get("1")
	require.True(t, ok)
	assert.True(t, orig.Completed)
	assert.Equal(t, "2024-01-01", orig.Date)

	again, err := p.Run(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Len(t, s.List(), 2)
}

func TestPropagator_AppendsAfterExistingTodayBlocks(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, `[
		{"id":"r1","title":"Run","date":"2024-01-01","isRecurring":true,"order":0},
		{"id":"r2","title":"Read","date":"2024-01-01","isRecurring":true,"order":1},
		{"id":"t1","title":"Email","date":"2024-01-02","order":0}
	]`)
	p := NewPropagator(s, ModePerTemplate, zerolog.Nop())

	added, err := p.Run(ctx, "2024-01-02")
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, "Run", added[0].Title)
	assert.Equal(t, 1, added[0].Order)
	assert.Equal(t, "Read", added[1].Title)
	assert.Equal(t, 2, added[1].Order)
}

func TestPlan_ModesOverHistory(t *testing.T) {
	// "Run" was generated on three prior days, each instance pointing at r1.
	history := []model.Block{
		{ID: "r1", Title: "Run", Date: "2024-01-01", IsRecurring: true},
		{ID: "r2", Title: "Run", Date: "2024-01-02", IsRecurring: true, TemplateID: "r1"},
		{ID: "r3", Title: "Run", Date: "2024-01-03", IsRecurring: true, TemplateID: "r1"},
		{ID: "s1", Title: "Stretch", Date: "2024-01-03", IsRecurring: true, Order: 1},
		{ID: "x", Title: "One-off", Date: "2024-01-03", Order: 2},
	}

	perTemplate := Plan(history, "2024-01-04", ModePerTemplate)
	require.Len(t, perTemplate, 2)
	assert.Equal(t, "Run", perTemplate[0].Title)
	assert.Equal(t, model.BlockID("r1"), perTemplate[0].TemplateID)
	assert.Equal(t, "Stretch", perTemplate[1].Title)
	assert.Equal(t, model.BlockID("s1"), perTemplate[1].TemplateID)

	perRecord := Plan(history, "2024-01-04", ModePerRecord)
	assert.Len(t, perRecord, 4)
	for _, b := range perRecord {
		assert.Equal(t, "2024-01-04", b.Date)
		assert.False(t, b.Completed)
		assert.Empty(t, b.ID)
	}
}

func TestPlan_ShortCircuitsWhenAnyRecurringExistsToday(t *testing.T) {
	blocks := []model.Block{
		{ID: "r1", Title: "Run", Date: "2024-01-01", IsRecurring: true},
		{ID: "s1", Title: "Stretch", Date: "2024-01-01", IsRecurring: true},
		{ID: "r2", Title: "Run", Date: "2024-01-02", IsRecurring: true, TemplateID: "r1"},
	}
	assert.True(t, Satisfied(blocks, "2024-01-02"))
	assert.Nil(t, Plan(blocks, "2024-01-02", ModePerTemplate))
}

func TestPlan_NoRecurringBlocks(t *testing.T) {
	blocks := []model.Block{{ID: "a", Title: "a", Date: "2024-01-01", Completed: true}}
	assert.Nil(t, Plan(blocks, "2024-01-02", ModePerTemplate))
	assert.Nil(t, Plan(nil, "2024-01-02", ModePerRecord))
}

func TestPropagator_IdempotentPerRecord(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, `[
		{"id":"a","title":"Run","date":"2024-01-01","isRecurring":true},
		{"id":"b","title":"Run","date":"2024-01-02","isRecurring":true}
	]`)
	p := NewPropagator(s, ModePerRecord, zerolog.Nop())

	first, err := p.Run(ctx, "2024-01-03")
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := p.Run(ctx, "2024-01-03")
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Len(t, s.OnDate("2024-01-03"), 2)
}
