// Package ordering keeps the manual display order of blocks within a day.
//
// Every function here is pure: it takes a snapshot of blocks and returns a new
// slice. Blocks on other dates are returned untouched and in place.
package ordering

import (
	"errors"
	"sort"

	"github.com/shekified/life-tracker/internal/model"
)

// ErrNotInPartition is returned when a reorder names a block that is not on the date.
var ErrNotInPartition = errors.New("block not in date partition")

// Partition returns copies of the blocks on date sorted by ascending order.
func Partition(blocks []model.Block, date string) []model.Block {
	out := make([]model.Block, 0)
	for _, b := range blocks {
		if b.Date == date {
			out = append(out, b)
		}
	}
	sortByOrder(out)
	return out
}

// Append returns the order value for a block added last on date.
func Append(blocks []model.Block, date string) int {
	n := 0
	for _, b := range blocks {
		if b.Date == date {
			n++
		}
	}
	return n
}

// Reorder moves movedID to targetID's position in the date partition and
// re-indexes the partition 0..n-1. Equal ids are a no-op.
func Reorder(blocks []model.Block, date string, movedID, targetID model.BlockID) ([]model.Block, error) {
	part := Partition(blocks, date)

	from, to := -1, -1
	for i, b := range part {
		if b.ID == movedID {
			from = i
		}
		if b.ID == targetID {
			to = i
		}
	}
	if from == -1 || to == -1 {
		return clone(blocks), ErrNotInPartition
	}
	if from == to {
		return clone(blocks), nil
	}

	moved := part[from]
	part = append(part[:from], part[from+1:]...)
	part = append(part[:to], append([]model.Block{moved}, part[to:]...)...)

	return writeBack(blocks, date, part), nil
}

// Normalize re-indexes the date partition to 0..n-1, keeping relative order.
func Normalize(blocks []model.Block, date string) []model.Block {
	return writeBack(blocks, date, Partition(blocks, date))
}

// NormalizeAll repairs every date partition.
func NormalizeAll(blocks []model.Block) []model.Block {
	out := clone(blocks)
	seen := map[string]bool{}
	for _, b := range blocks {
		if seen[b.Date] {
			continue
		}
		seen[b.Date] = true
		out = Normalize(out, b.Date)
	}
	return out
}

// Dense reports whether the orders on date are exactly 0..n-1.
func Dense(blocks []model.Block, date string) bool {
	part := Partition(blocks, date)
	for i, b := range part {
		if b.Order != i {
			return false
		}
	}
	return true
}

func writeBack(blocks []model.Block, date string, part []model.Block) []model.Block {
	pos := make(map[model.BlockID]int, len(part))
	for i, b := range part {
		pos[b.ID] = i
	}
	out := clone(blocks)
	for i := range out {
		if out[i].Date != date {
			continue
		}
		if idx, ok := pos[out[i].ID]; ok {
			out[i].Order = idx
		}
	}
	return out
}

func sortByOrder(part []model.Block) {
	sort.SliceStable(part, func(i, j int) bool {
		a, b := part[i], part[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func clone(blocks []model.Block) []model.Block {
	out := make([]model.Block, len(blocks))
	copy(out, blocks)
	return out
}
