// Package breeding persists cards produced by genesis, merge and mutation and
// scores them with a weight engine.
package breeding

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"genecards/internal/genome"
	"genecards/internal/model"
	"genecards/internal/storage"
	"genecards/internal/weight"
)

var ErrCardNotFound = errors.New("card not found")

type Config struct {
	Store  storage.Store
	Engine *weight.Engine
	Seed   int64
	Now    func() time.Time
}

// Breeder owns the random stream used for every operation it performs. Calls
// are safe for concurrent use; the stream is serialised internally.
type Breeder struct {
	store  storage.Store
	engine *weight.Engine
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewBreeder(cfg Config) (*Breeder, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	engine := cfg.Engine
	if engine == nil {
		engine = weight.DefaultEngine()
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Breeder{
		store:  cfg.Store,
		engine: engine,
		now:    now,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (b *Breeder) Init(ctx context.Context) error {
	return b.store.Init(ctx)
}

func (b *Breeder) Engine() *weight.Engine {
	return b.engine
}

// Genesis creates and stores a random generation-zero card.
func (b *Breeder) Genesis(ctx context.Context) (model.CardRecord, error) {
	b.mu.Lock()
	card := genome.CardGenesis(b.rng)
	id, err := newCardID(b.rng)
	b.mu.Unlock()
	if err != nil {
		return model.CardRecord{}, err
	}
	return b.persist(ctx, id, card, 0, nil, model.OperationGenesis, nil)
}

// Populate creates count genesis cards using up to workers goroutines. Each
// card is built from its own stream seeded from the breeder, so the result
// does not depend on scheduling. Cards are stored in order; if storing one
// fails, the cards already stored stay stored and are returned with the error.
func (b *Breeder) Populate(ctx context.Context, count, workers int) ([]model.CardRecord, error) {
	if count <= 0 {
		return nil, fmt.Errorf("population size must be > 0: %d", count)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > count {
		workers = count
	}

	seeds := make([]int64, count)
	b.mu.Lock()
	for i := range seeds {
		seeds[i] = b.rng.Int63()
	}
	b.mu.Unlock()

	type built struct {
		id   string
		card genome.Card
		err  error
	}
	results := make([]built, count)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rng := rand.New(rand.NewSource(seeds[i]))
				card := genome.CardGenesis(rng)
				id, err := newCardID(rng)
				results[i] = built{id: id, card: card, err: err}
			}
		}()
	}
	for i := 0; i < count; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
	}
	out := make([]model.CardRecord, 0, count)
	for _, r := range results {
		record, err := b.persist(ctx, r.id, r.card, 0, nil, model.OperationGenesis, nil)
		if err != nil {
			return out, fmt.Errorf("populate stored %d of %d cards: %w", len(out), count, err)
		}
		out = append(out, record)
	}
	return out, nil
}

// Breed merges two stored cards into a new offspring one generation past the
// older parent.
func (b *Breeder) Breed(ctx context.Context, parentA, parentB string) (model.CardRecord, error) {
	a, err := b.Get(ctx, parentA)
	if err != nil {
		return model.CardRecord{}, err
	}
	other, err := b.Get(ctx, parentB)
	if err != nil {
		return model.CardRecord{}, err
	}

	b.mu.Lock()
	child, mutations := a.Card.Merge(b.rng, other.Card)
	id, err := newCardID(b.rng)
	b.mu.Unlock()
	if err != nil {
		return model.CardRecord{}, err
	}

	generation := max(a.Generation, other.Generation) + 1
	return b.persist(ctx, id, child, generation, []string{a.ID, other.ID}, model.OperationMerge, mutations)
}

// Mutate stores a copy of the card with one gene of slot mutated.
func (b *Breeder) Mutate(ctx context.Context, id string, slot genome.Slot) (model.CardRecord, error) {
	parent, err := b.Get(ctx, id)
	if err != nil {
		return model.CardRecord{}, err
	}

	b.mu.Lock()
	child, mutation, err := parent.Card.Mutate(b.rng, slot)
	if err != nil {
		b.mu.Unlock()
		return model.CardRecord{}, err
	}
	childID, err := newCardID(b.rng)
	b.mu.Unlock()
	if err != nil {
		return model.CardRecord{}, err
	}

	return b.persist(ctx, childID, child, parent.Generation+1, []string{parent.ID}, model.OperationMutate, []genome.CardMutation{mutation})
}

func (b *Breeder) Get(ctx context.Context, id string) (model.CardRecord, error) {
	record, ok, err := b.store.GetCard(ctx, id)
	if err != nil {
		return model.CardRecord{}, fmt.Errorf("get card %s: %w", id, err)
	}
	if !ok {
		return model.CardRecord{}, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	return record, nil
}

// Delete removes a stored card and its lineage record. Descendants keep their
// records; lineage walks through them skip the removed ancestor.
func (b *Breeder) Delete(ctx context.Context, id string) error {
	if _, err := b.Get(ctx, id); err != nil {
		return err
	}
	if err := b.store.DeleteCard(ctx, id); err != nil {
		return fmt.Errorf("delete card %s: %w", id, err)
	}
	return nil
}

// Rank returns stored cards ordered by their value under the current engine,
// highest first. A limit <= 0 returns every card.
func (b *Breeder) Rank(ctx context.Context, limit int) ([]model.CardRecord, error) {
	cards, err := b.store.ListCards(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cards {
		cards[i].Value = cards[i].Card.Value(b.engine)
	}
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Value != cards[j].Value {
			return cards[i].Value > cards[j].Value
		}
		return cards[i].ID < cards[j].ID
	})
	if limit > 0 && limit < len(cards) {
		cards = cards[:limit]
	}
	return cards, nil
}

func (b *Breeder) persist(
	ctx context.Context,
	id string,
	card genome.Card,
	generation int,
	parents []string,
	operation string,
	mutations []genome.CardMutation,
) (model.CardRecord, error) {
	now := b.now()
	record := model.CardRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              id,
		Card:            card,
		Generation:      generation,
		ParentIDs:       parents,
		Value:           card.Value(b.engine),
		CreatedAt:       now,
	}
	if err := b.store.SaveCard(ctx, record); err != nil {
		return model.CardRecord{}, fmt.Errorf("save card %s: %w", id, err)
	}
	lineage := model.LineageRecord{
		VersionedRecord: storage.CurrentVersion(),
		CardID:          id,
		ParentIDs:       parents,
		Generation:      generation,
		Operation:       operation,
		Mutations:       mutations,
		CreatedAt:       now,
	}
	if err := b.store.SaveLineage(ctx, lineage); err != nil {
		return model.CardRecord{}, fmt.Errorf("save lineage %s: %w", id, err)
	}
	return record, nil
}

// newCardID draws a v4 UUID from rng so seeded breeders produce stable ids.
func newCardID(rng *rand.Rand) (string, error) {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return "", fmt.Errorf("card id: %w", err)
	}
	return id.String(), nil
}
