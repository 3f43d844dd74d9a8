// Package recurrence materializes today's instances of recurring blocks.
package recurrence

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shekified/life-tracker/internal/model"
)

type Mode string

const (
	// ModePerTemplate generates one instance per logical recurring task,
	// grouping historical records by template key.
	ModePerTemplate Mode = "per_template"
	// ModePerRecord generates one instance per recurring record found on
	// other dates, duplicates included.
	ModePerRecord Mode = "per_record"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePerTemplate:
		return ModePerTemplate, nil
	case ModePerRecord:
		return ModePerRecord, nil
	}
	return "", fmt.Errorf("unknown recurrence mode %q", s)
}

// Satisfied reports whether a recurring block already exists on today.
func Satisfied(blocks []model.Block, today string) bool {
	for _, b := range blocks {
		if b.IsRecurring && b.Date == today {
			return true
		}
	}
	return false
}

// Sources returns the recurring records that today's instances are cloned
// from, oldest date first.
func Sources(blocks []model.Block, today string, mode Mode) []model.Block {
	recurring := make([]model.Block, 0)
	for _, b := range blocks {
		if b.IsRecurring && b.Date != today {
			recurring = append(recurring, b)
		}
	}
	sort.SliceStable(recurring, func(i, j int) bool {
		if recurring[i].Date != recurring[j].Date {
			return recurring[i].Date < recurring[j].Date
		}
		return recurring[i].Order < recurring[j].Order
	})
	if mode == ModePerRecord {
		return recurring
	}

	// Latest record per template wins; output keeps first-seen key order.
	latest := map[model.BlockID]model.Block{}
	keys := make([]model.BlockID, 0)
	for _, b := range recurring {
		k := b.TemplateKey()
		if _, ok := latest[k]; !ok {
			keys = append(keys, k)
		}
		latest[k] = b
	}
	out := make([]model.Block, 0, len(keys))
	for _, k := range keys {
		out = append(out, latest[k])
	}
	return out
}

// Instance builds today's copy of a source. The id and order are left for
// the store to assign.
func Instance(src model.Block, today string) model.Block {
	return model.Block{
		Title:       src.Title,
		Category:    src.Category,
		IsRecurring: src.IsRecurring,
		Completed:   false,
		Date:        today,
		TemplateID:  src.TemplateKey(),
	}
}

// Plan returns the blocks a propagation pass for today must insert, or nil
// when today is already satisfied.
func Plan(blocks []model.Block, today string, mode Mode) []model.Block {
	if Satisfied(blocks, today) {
		return nil
	}
	srcs := Sources(blocks, today, mode)
	if len(srcs) == 0 {
		return nil
	}
	out := make([]model.Block, 0, len(srcs))
	for _, src := range srcs {
		out = append(out, Instance(src, today))
	}
	return out
}
