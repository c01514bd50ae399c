package breeding

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"genecards/internal/model"
)

func rankedFixture() []model.CardRecord {
	return []model.CardRecord{
		{ID: "a", Value: 900},
		{ID: "b", Value: 700},
		{ID: "c", Value: 500},
		{ID: "d", Value: 100},
	}
}

func TestEliteSelectorPicksFromTop(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	selector := EliteSelector{Count: 2}
	for i := 0; i < 50; i++ {
		picked, err := selector.PickParent(rng, rankedFixture())
		if err != nil {
			t.Fatalf("pick parent: %v", err)
		}
		if picked.ID != "a" && picked.ID != "b" {
			t.Fatalf("picked outside elite set: %s", picked.ID)
		}
	}
}

func TestTournamentSelectorStaysInPool(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	selector := TournamentSelector{PoolSize: 2, TournamentSize: 2}
	for i := 0; i < 50; i++ {
		picked, err := selector.PickParent(rng, rankedFixture())
		if err != nil {
			t.Fatalf("pick parent: %v", err)
		}
		if picked.ID != "a" && picked.ID != "b" {
			t.Fatalf("picked outside pool: %s", picked.ID)
		}
	}
}

func TestTournamentSelectorPoolOfOne(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	selector := TournamentSelector{PoolSize: 1, TournamentSize: 3}
	picked, err := selector.PickParent(rng, rankedFixture())
	if err != nil {
		t.Fatalf("pick parent: %v", err)
	}
	if picked.ID != "a" {
		t.Fatalf("expected pool of one to pick the best card, got %s", picked.ID)
	}
}

func TestSelectorsRejectEmptyPool(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for _, selector := range []Selector{EliteSelector{}, TournamentSelector{}} {
		if _, err := selector.PickParent(rng, nil); !errors.Is(err, ErrEmptyPool) {
			t.Fatalf("%s: expected ErrEmptyPool, got %v", selector.Name(), err)
		}
		if _, err := selector.PickParent(nil, rankedFixture()); err == nil {
			t.Fatalf("%s: expected missing rng error", selector.Name())
		}
	}
}

func TestSelectorFromName(t *testing.T) {
	for _, name := range []string{"", "tournament", "elite"} {
		if _, err := SelectorFromName(name); err != nil {
			t.Fatalf("selector %q: %v", name, err)
		}
	}
	if _, err := SelectorFromName("roulette"); err == nil {
		t.Fatal("expected unknown selection error")
	}
}

func TestEvolveBreedsFromStoredCards(t *testing.T) {
	ctx := context.Background()
	b := newTestBreeder(t, 17)
	if _, err := b.Populate(ctx, 4, 2); err != nil {
		t.Fatalf("populate: %v", err)
	}

	children, err := b.Evolve(ctx, TournamentSelector{}, 3)
	if err != nil {
		t.Fatalf("evolve: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("expected 3 offspring, got %d", len(children))
	}
	for _, child := range children {
		if child.Generation < 1 || len(child.ParentIDs) != 2 {
			t.Fatalf("unexpected offspring: %+v", child)
		}
	}

	cards, err := b.Rank(ctx, 0)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(cards) != 7 {
		t.Fatalf("expected 7 stored cards, got %d", len(cards))
	}
}

func TestEvolveErrors(t *testing.T) {
	ctx := context.Background()
	b := newTestBreeder(t, 18)

	if _, err := b.Evolve(ctx, TournamentSelector{}, 1); !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool on empty store, got %v", err)
	}
	if _, err := b.Evolve(ctx, nil, 1); err == nil {
		t.Fatal("expected missing selector error")
	}
	if _, err := b.Evolve(ctx, EliteSelector{}, 0); err == nil {
		t.Fatal("expected rounds error")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := b.Evolve(cancelled, EliteSelector{}, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
