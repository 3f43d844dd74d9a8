// Package block owns the durable collection of blocks for one session.
//
// All writes go through Store so that id uniqueness and per-date order
// density are enforced in one place. Each write builds the next state on a
// copy, persists the full snapshot, and only then swaps it in.
package block

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shekified/life-tracker/internal/model"
	"github.com/shekified/life-tracker/internal/ordering"
	"github.com/shekified/life-tracker/internal/snapshot"
)

var (
	ErrNotFound    = errors.New("block not found")
	ErrDuplicateID = errors.New("duplicate block id")
)

type Store struct {
	mu     sync.RWMutex
	blocks []model.Block
	ids    map[model.BlockID]struct{} // every id ever seen, including removed ones

	repo  snapshot.Repo
	log   zerolog.Logger
	newID func() model.BlockID
	now   func() time.Time
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l.With().Str("component", "block_store").Logger() }
}

// WithIDGenerator replaces the UUID generator, mainly for tests.
func WithIDGenerator(fn func() model.BlockID) Option {
	return func(s *Store) { s.newID = fn }
}

func WithNow(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

func NewID() model.BlockID {
	return model.BlockID(uuid.NewString())
}

// Open loads the snapshot from repo. An unreadable snapshot is logged and
// the store starts empty; Open only fails when repo is nil.
func Open(ctx context.Context, repo snapshot.Repo, opts ...Option) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("snapshot repo is required")
	}
	s := &Store{
		repo:  repo,
		log:   zerolog.Nop(),
		newID: NewID,
		now:   time.Now,
		ids:   map[model.BlockID]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("snapshot unreadable, starting with an empty store")
		loaded = []model.Block{}
	}

	blocks := make([]model.Block, 0, len(loaded))
	for _, b := range loaded {
		if b.ID == "" {
			b.ID = s.freshIDLocked()
		}
		if _, dup := s.ids[b.ID]; dup {
			s.log.Warn().Str("id", string(b.ID)).Msg("dropping duplicate block from snapshot")
			continue
		}
		s.ids[b.ID] = struct{}{}
		blocks = append(blocks, b)
	}
	s.blocks = ordering.NormalizeAll(blocks)

	s.log.Debug().Int("blocks", len(s.blocks)).Msg("store opened")
	return s, nil
}

// List returns a copy of every block, sorted by date then order.
func (s *Store) List() []model.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Block, len(s.blocks))
	copy(out, s.blocks)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Order < out[j].Order
	})
	return out
}

// OnDate returns the date partition in display order.
func (s *Store) OnDate(date string) []model.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ordering.Partition(s.blocks, date)
}

func (s *Store) Get(id model.BlockID) (model.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := indexOf(s.blocks, id); i >= 0 {
		return s.blocks[i], true
	}
	return model.Block{}, false
}

// Insert adds blocks as one batch. Empty ids are generated; orders are
// assigned by appending to each block's date in argument order.
func (s *Store) Insert(ctx context.Context, blocks ...model.Block) ([]model.Block, error) {
	if len(blocks) == 0 {
		return []model.Block{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := clone(s.blocks)
	added := make([]model.Block, 0, len(blocks))
	batch := map[model.BlockID]struct{}{}

	for _, b := range blocks {
		if b.ID == "" {
			b.ID = s.freshIDLocked(batch)
		} else if _, dup := s.ids[b.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, b.ID)
		} else if _, dup := batch[b.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, b.ID)
		}
		batch[b.ID] = struct{}{}

		b.Title = strings.TrimSpace(b.Title)
		if b.CreatedAt.IsZero() {
			b.CreatedAt = s.now()
		}
		b.Order = ordering.Append(next, b.Date)

		next = append(next, b)
		added = append(added, b)
	}

	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}
	for id := range batch {
		s.ids[id] = struct{}{}
	}
	return added, nil
}

// Update applies fn to the block. Only Completed and IsRecurring may change;
// identity, date, title, category and order are restored after fn runs.
func (s *Store) Update(ctx context.Context, id model.BlockID, fn func(*model.Block)) (model.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.blocks, id)
	if i < 0 {
		return model.Block{}, ErrNotFound
	}

	next := clone(s.blocks)
	orig := next[i]
	b := orig
	fn(&b)
	orig.Completed = b.Completed
	orig.IsRecurring = b.IsRecurring
	next[i] = orig

	if err := s.commitLocked(ctx, next); err != nil {
		return model.Block{}, err
	}
	return orig, nil
}

// UpdateWhere applies fn to every block matching pred in one write and
// returns the updated blocks.
func (s *Store) UpdateWhere(ctx context.Context, pred func(model.Block) bool, fn func(*model.Block)) ([]model.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := clone(s.blocks)
	changed := make([]model.Block, 0)
	for i := range next {
		if !pred(next[i]) {
			continue
		}
		b := next[i]
		fn(&b)
		next[i].Completed = b.Completed
		next[i].IsRecurring = b.IsRecurring
		changed = append(changed, next[i])
	}
	if len(changed) == 0 {
		return changed, nil
	}

	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}
	return changed, nil
}

// Remove deletes the block and repacks its date partition.
func (s *Store) Remove(ctx context.Context, id model.BlockID) (model.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.blocks, id)
	if i < 0 {
		return model.Block{}, ErrNotFound
	}
	removed := s.blocks[i]

	next := make([]model.Block, 0, len(s.blocks)-1)
	next = append(next, s.blocks[:i]...)
	next = append(next, s.blocks[i+1:]...)
	next = ordering.Normalize(next, removed.Date)

	if err := s.commitLocked(ctx, next); err != nil {
		return model.Block{}, err
	}
	return removed, nil
}

// Reorder moves movedID to targetID's slot within date.
func (s *Store) Reorder(ctx context.Context, date string, movedID, targetID model.BlockID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := ordering.Reorder(s.blocks, date, movedID, targetID)
	if err != nil {
		return err
	}
	if movedID == targetID {
		return nil
	}
	return s.commitLocked(ctx, next)
}

func (s *Store) commitLocked(ctx context.Context, next []model.Block) error {
	if err := s.repo.Save(ctx, next); err != nil {
		s.log.Error().Err(err).Msg("snapshot write failed, keeping previous state")
		return fmt.Errorf("persist blocks: %w", err)
	}
	s.blocks = next
	return nil
}

func (s *Store) freshIDLocked(pending ...map[model.BlockID]struct{}) model.BlockID {
	for {
		id := s.newID()
		taken := false
		if _, ok := s.ids[id]; ok {
			taken = true
		}
		for _, p := range pending {
			if _, ok := p[id]; ok {
				taken = true
			}
		}
		if !taken {
			return id
		}
		s.log.Warn().Str("id", string(id)).Msg("id generator collision, retrying")
	}
}

func indexOf(blocks []model.Block, id model.BlockID) int {
	for i, b := range blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func clone(blocks []model.Block) []model.Block {
	out := make([]model.Block, len(blocks))
	copy(out, blocks)
	return out
}
