package recurrence

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/shekified/life-tracker/internal/model"
)

// Store is the slice of block.Store the propagator needs.
type Store interface {
	List() []model.Block
	Insert(ctx context.Context, blocks ...model.Block) ([]model.Block, error)
}

type Propagator struct {
	store Store
	mode  Mode
	log   zerolog.Logger
}

func NewPropagator(store Store, mode Mode, log zerolog.Logger) *Propagator {
	if mode == "" {
		mode = ModePerTemplate
	}
	return &Propagator{
		store: store,
		mode:  mode,
		log:   log.With().Str("component", "recurrence").Logger(),
	}
}

func (p *Propagator) Mode() Mode { return p.mode }

// Run ensures today has its recurring instances, inserting them in one batch.
// It returns the generated blocks; a satisfied day returns none.
func (p *Propagator) Run(ctx context.Context, today string) ([]model.Block, error) {
	planned := Plan(p.store.List(), today, p.mode)
	if len(planned) == 0 {
		p.log.Debug().Str("date", today).Msg("recurrence already satisfied")
		return []model.Block{}, nil
	}

	added, err := p.store.Insert(ctx, planned...)
	if err != nil {
		return nil, err
	}
	p.log.Info().Str("date", today).Int("generated", len(added)).Str("mode", string(p.mode)).Msg("recurring blocks generated")
	return added, nil
}
