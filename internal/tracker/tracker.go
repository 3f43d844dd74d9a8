// Package tracker is the session object a presentation layer talks to. It
// owns the block store, observes the calendar, keeps recurring blocks
// materialized for today, and exposes the derived metrics.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/shekified/life-tracker/internal/block"
	"github.com/shekified/life-tracker/internal/clock"
	"github.com/shekified/life-tracker/internal/metrics"
	"github.com/shekified/life-tracker/internal/model"
	"github.com/shekified/life-tracker/internal/recurrence"
	"github.com/shekified/life-tracker/internal/telemetry"
)

var (
	ErrEmptyTitle      = errors.New("title is empty")
	ErrUnknownCategory = errors.New("unknown category")
)

type Options struct {
	Store          *block.Store
	Clock          clock.Clock
	RecurrenceMode recurrence.Mode
	StreakLookback int
	Events         telemetry.Repository // optional
	Logger         zerolog.Logger
}

type Tracker struct {
	mu sync.Mutex

	store    *block.Store
	cal      clock.Calendar
	prop     *recurrence.Propagator
	lookback int
	events   telemetry.Repository
	log      zerolog.Logger

	lastObserved string // date the recurrence pass last ran for
}

func New(opts Options) (*Tracker, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.StreakLookback <= 0 {
		opts.StreakLookback = metrics.DefaultStreakLookback
	}
	return &Tracker{
		store:    opts.Store,
		cal:      clock.NewCalendar(opts.Clock),
		prop:     recurrence.NewPropagator(opts.Store, opts.RecurrenceMode, opts.Logger),
		lookback: opts.StreakLookback,
		events:   opts.Events,
		log:      opts.Logger.With().Str("component", "tracker").Logger(),
	}, nil
}

func (t *Tracker) Today() string { return t.cal.Today() }

// EnsureRecurring runs the recurrence pass if this session has not yet done
// so for today. It returns the blocks generated, if any.
func (t *Tracker) EnsureRecurring(ctx context.Context) ([]model.Block, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.observeLocked(ctx)
}

func (t *Tracker) observeLocked(ctx context.Context) ([]model.Block, error) {
	today := t.cal.Today()
	if today == t.lastObserved {
		return []model.Block{}, nil
	}

	added, err := t.prop.Run(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("recurrence pass for %s: %w", today, err)
	}
	t.lastObserved = today

	if len(added) > 0 {
		t.record(telemetry.EventRecurrenceGenerated, telemetry.EventMetadata{
			"date":  today,
			"count": len(added),
		})
	}
	return added, nil
}

// observe is the read-path variant: a failed pass is logged and retried on
// the next call instead of failing the read.
func (t *Tracker) observe(ctx context.Context) {
	if _, err := t.observeLocked(ctx); err != nil {
		t.log.Warn().Err(err).Msg("recurrence pass failed")
	}
}

// AddBlock records a new block for today, appended after today's blocks.
func (t *Tracker) AddBlock(ctx context.Context, title string, category model.Category, isRecurring bool) (model.Block, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		t.log.Debug().Msg("add ignored: empty title")
		return model.Block{}, ErrEmptyTitle
	}
	if !category.Valid() {
		t.log.Debug().Str("category", string(category)).Msg("add ignored: unknown category")
		return model.Block{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.observe(ctx)

	added, err := t.store.Insert(ctx, model.Block{
		Title:       title,
		Category:    category,
		Date:        t.cal.Today(),
		IsRecurring: isRecurring,
	})
	if err != nil {
		return model.Block{}, err
	}
	b := added[0]
	t.record(telemetry.EventBlockAdded, blockMeta(b))
	return b, nil
}

// ToggleCompleted flips the completed flag of any stored block.
func (t *Tracker) ToggleCompleted(ctx context.Context, id model.BlockID) (model.Block, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observe(ctx)

	b, err := t.store.Update(ctx, id, func(b *model.Block) { b.Completed = !b.Completed })
	if err != nil {
		if errors.Is(err, block.ErrNotFound) {
			t.log.Debug().Str("id", string(id)).Msg("toggle ignored: unknown block")
		}
		return model.Block{}, err
	}
	if b.Completed {
		t.record(telemetry.EventBlockCompleted, blockMeta(b))
	} else {
		t.record(telemetry.EventBlockReopened, blockMeta(b))
	}
	return b, nil
}

// DeleteBlock removes one record. Other instances of a recurring task are
// left alone; use StopRecurring to end the series.
func (t *Tracker) DeleteBlock(ctx context.Context, id model.BlockID) (model.Block, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observe(ctx)

	b, err := t.store.Remove(ctx, id)
	if err != nil {
		if errors.Is(err, block.ErrNotFound) {
			t.log.Debug().Str("id", string(id)).Msg("delete ignored: unknown block")
		}
		return model.Block{}, err
	}
	t.record(telemetry.EventBlockDeleted, blockMeta(b))
	return b, nil
}

// Reorder moves movedID into targetID's slot within today's list.
func (t *Tracker) Reorder(ctx context.Context, movedID, targetID model.BlockID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observe(ctx)

	today := t.cal.Today()
	if err := t.store.Reorder(ctx, today, movedID, targetID); err != nil {
		t.log.Debug().Err(err).Str("moved", string(movedID)).Str("target", string(targetID)).Msg("reorder ignored")
		return err
	}
	if movedID != targetID {
		t.record(telemetry.EventBlockReordered, telemetry.EventMetadata{
			"date":   today,
			"moved":  string(movedID),
			"target": string(targetID),
		})
	}
	return nil
}

// StopRecurring clears the recurring flag on every record sharing the
// block's template, so no further instances are generated. It returns the
// number of records changed.
func (t *Tracker) StopRecurring(ctx context.Context, id model.BlockID) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.store.Get(id)
	if !ok {
		return 0, block.ErrNotFound
	}
	key := b.TemplateKey()

	changed, err := t.store.UpdateWhere(ctx,
		func(x model.Block) bool { return x.IsRecurring && x.TemplateKey() == key },
		func(x *model.Block) { x.IsRecurring = false },
	)
	if err != nil {
		return 0, err
	}
	if len(changed) > 0 {
		t.record(telemetry.EventRecurrenceStopped, telemetry.EventMetadata{
			"template": string(key),
			"title":    b.Title,
			"count":    len(changed),
		})
	}
	return len(changed), nil
}

// TodaysBlocks returns today's blocks in display order.
func (t *Tracker) TodaysBlocks(ctx context.Context) []model.Block {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observe(ctx)
	return t.store.OnDate(t.cal.Today())
}

// BlocksOn returns any day's blocks in display order.
func (t *Tracker) BlocksOn(date string) []model.Block {
	return t.store.OnDate(date)
}

func (t *Tracker) Progress(ctx context.Context) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observe(ctx)
	return metrics.Progress(t.store.List(), t.cal.Today())
}

func (t *Tracker) Streak(ctx context.Context) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observe(ctx)
	return metrics.Streak(t.store.List(), t.cal.Today(), t.lookback)
}

func (t *Tracker) BestStreak(ctx context.Context) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observe(ctx)
	return metrics.BestStreak(t.store.List(), t.cal.Today(), t.lookback)
}

// WeeklyHistogram returns completed counts for the last seven days, oldest first.
func (t *Tracker) WeeklyHistogram(ctx context.Context) []metrics.DayCount {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observe(ctx)
	return metrics.Weekly(t.store.List(), t.cal.Today())
}

func (t *Tracker) CategoryBreakdown(ctx context.Context) []metrics.CategoryCount {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observe(ctx)
	return metrics.ByCategory(t.store.List(), t.cal.Today())
}

func (t *Tracker) record(kind telemetry.EventType, meta telemetry.EventMetadata) {
	if t.events == nil {
		return
	}
	if err := t.events.RecordEvent(kind, meta); err != nil {
		t.log.Warn().Err(err).Str("event", string(kind)).Msg("activity event dropped")
	}
}

func blockMeta(b model.Block) telemetry.EventMetadata {
	return telemetry.EventMetadata{
		"id":        string(b.ID),
		"title":     b.Title,
		"category":  string(b.Category),
		"date":      b.Date,
		"recurring": b.IsRecurring,
	}
}
