package snapshot

import (
	"context"
	"sync"

	"github.com/shekified/life-tracker/internal/model"
)

// MemoryRepo keeps the encoded snapshot in memory (dev/test use).
type MemoryRepo struct {
	mu    sync.Mutex
	body  []byte
	saves int
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// NewMemoryRepoWith seeds the repo with raw snapshot text.
func NewMemoryRepoWith(body []byte) *MemoryRepo {
	return &MemoryRepo{body: append([]byte(nil), body...)}
}

func (r *MemoryRepo) Load(ctx context.Context) ([]model.Block, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	return Decode(r.body)
}

func (r *MemoryRepo) Save(ctx context.Context, blocks []model.Block) error {
	_ = ctx
	b, err := Encode(blocks)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.body = b
	r.saves++
	r.mu.Unlock()
	return nil
}

// Saves reports how many times Save succeeded.
func (r *MemoryRepo) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// Body returns a copy of the current snapshot text.
func (r *MemoryRepo) Body() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.body...)
}
