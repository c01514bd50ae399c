package breeding

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"genecards/internal/model"
)

var ErrEmptyPool = errors.New("no cards to select from")

// Selector chooses a parent from cards ranked by value, best first.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []model.CardRecord) (model.CardRecord, error)
}

// EliteSelector picks uniformly from the Count best cards.
type EliteSelector struct {
	Count int
}

func (EliteSelector) Name() string {
	return "elite"
}

func (s EliteSelector) PickParent(rng *rand.Rand, ranked []model.CardRecord) (model.CardRecord, error) {
	if rng == nil {
		return model.CardRecord{}, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return model.CardRecord{}, ErrEmptyPool
	}
	count := s.Count
	if count <= 0 || count > len(ranked) {
		count = len(ranked)
	}
	return ranked[rng.Intn(count)], nil
}

// TournamentSelector samples TournamentSize cards from the PoolSize best and
// keeps the most valuable one.
type TournamentSelector struct {
	PoolSize       int
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []model.CardRecord) (model.CardRecord, error) {
	if rng == nil {
		return model.CardRecord{}, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return model.CardRecord{}, ErrEmptyPool
	}

	poolSize := s.PoolSize
	if poolSize <= 0 || poolSize > len(ranked) {
		poolSize = len(ranked)
	}
	tournamentSize := s.TournamentSize
	if tournamentSize <= 0 {
		tournamentSize = 3
	}
	if tournamentSize > poolSize {
		tournamentSize = poolSize
	}

	best := ranked[rng.Intn(poolSize)]
	for i := 1; i < tournamentSize; i++ {
		candidate := ranked[rng.Intn(poolSize)]
		if candidate.Value > best.Value {
			best = candidate
		}
	}
	return best, nil
}

func SelectorFromName(name string) (Selector, error) {
	switch name {
	case "", "tournament":
		return TournamentSelector{}, nil
	case "elite":
		return EliteSelector{Count: 2}, nil
	default:
		return nil, fmt.Errorf("unknown selection: %s", name)
	}
}

// Evolve runs rounds of selection and breeding over the stored cards. Each
// round ranks the current store, so offspring compete in later rounds.
func (b *Breeder) Evolve(ctx context.Context, selector Selector, rounds int) ([]model.CardRecord, error) {
	if selector == nil {
		return nil, errors.New("selector is required")
	}
	if rounds <= 0 {
		return nil, fmt.Errorf("rounds must be > 0: %d", rounds)
	}

	out := make([]model.CardRecord, 0, rounds)
	for round := 0; round < rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ranked, err := b.Rank(ctx, 0)
		if err != nil {
			return nil, err
		}

		b.mu.Lock()
		a, errA := selector.PickParent(b.rng, ranked)
		other, errB := selector.PickParent(b.rng, ranked)
		b.mu.Unlock()
		if err := errors.Join(errA, errB); err != nil {
			return nil, fmt.Errorf("round %d: %s selection: %w", round, selector.Name(), err)
		}

		child, err := b.Breed(ctx, a.ID, other.ID)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		out = append(out, child)
	}
	return out, nil
}
