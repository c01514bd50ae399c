package breeding

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"genecards/internal/genome"
	"genecards/internal/model"
	"genecards/internal/storage"
	"genecards/internal/weight"
)

func newTestBreeder(t *testing.T, seed int64) *Breeder {
	t.Helper()
	fixed := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	b, err := NewBreeder(Config{
		Store: storage.NewMemoryStore(),
		Seed:  seed,
		Now:   func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("new breeder: %v", err)
	}
	if err := b.Init(context.Background()); err != nil {
		t.Fatalf("init breeder: %v", err)
	}
	return b
}

func TestNewBreederRequiresStore(t *testing.T) {
	if _, err := NewBreeder(Config{}); err == nil {
		t.Fatal("expected missing store error")
	}
}

func TestGenesisStoresGenerationZeroCard(t *testing.T) {
	ctx := context.Background()
	b := newTestBreeder(t, 1)

	record, err := b.Genesis(ctx)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	if record.ID == "" || record.Generation != 0 || len(record.ParentIDs) != 0 {
		t.Fatalf("unexpected genesis record: %+v", record)
	}
	for i := genome.TailStart; i < genome.SequenceLength; i++ {
		if record.Card.Alpha[i] != genome.DefaultGene() {
			t.Fatalf("alpha tail gene %d is not default: %s", i, record.Card.Alpha[i])
		}
	}
	if want := record.Card.Value(weight.DefaultEngine()); record.Value != want {
		t.Fatalf("value: got %v want %v", record.Value, want)
	}

	stored, err := b.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Card != record.Card {
		t.Fatal("stored card differs from returned card")
	}

	lineage, err := b.Lineage(ctx, record.ID, 0)
	if err != nil {
		t.Fatalf("lineage: %v", err)
	}
	if len(lineage) != 1 || lineage[0].Operation != model.OperationGenesis {
		t.Fatalf("unexpected lineage: %+v", lineage)
	}
}

func TestGenesisIsReproducibleForSeed(t *testing.T) {
	ctx := context.Background()
	first, err := newTestBreeder(t, 42).Genesis(ctx)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	second, err := newTestBreeder(t, 42).Genesis(ctx)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	if first.ID != second.ID || first.Card != second.Card {
		t.Fatalf("expected identical genesis for identical seeds: %s vs %s", first.ID, second.ID)
	}
}

func TestBreedMergesParents(t *testing.T) {
	ctx := context.Background()
	b := newTestBreeder(t, 2)

	a, err := b.Genesis(ctx)
	if err != nil {
		t.Fatalf("genesis a: %v", err)
	}
	other, err := b.Genesis(ctx)
	if err != nil {
		t.Fatalf("genesis b: %v", err)
	}
	child, err := b.Breed(ctx, a.ID, other.ID)
	if err != nil {
		t.Fatalf("breed: %v", err)
	}

	if child.Generation != 1 {
		t.Fatalf("generation: got %d want 1", child.Generation)
	}
	if len(child.ParentIDs) != 2 || child.ParentIDs[0] != a.ID || child.ParentIDs[1] != other.ID {
		t.Fatalf("unexpected parents: %v", child.ParentIDs)
	}
	for i := 0; i < genome.TailStart; i++ {
		if want := a.Card.Gamma[i].Merge(other.Card.Gamma[i]); child.Card.Gamma[i] != want {
			t.Fatalf("gamma gene %d: got %s want %s", i, child.Card.Gamma[i], want)
		}
	}

	lineage, err := b.Lineage(ctx, child.ID, 1)
	if err != nil {
		t.Fatalf("lineage: %v", err)
	}
	if lineage[0].Operation != model.OperationMerge || len(lineage[0].Mutations) != 20 {
		t.Fatalf("unexpected merge lineage: %+v", lineage[0])
	}
}

func TestBreedMissingParent(t *testing.T) {
	ctx := context.Background()
	b := newTestBreeder(t, 3)
	a, err := b.Genesis(ctx)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	if _, err := b.Breed(ctx, a.ID, "missing"); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}

func TestMutateCreatesChildCard(t *testing.T) {
	ctx := context.Background()
	b := newTestBreeder(t, 4)
	parent, err := b.Genesis(ctx)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}

	child, err := b.Mutate(ctx, parent.ID, genome.SlotDelta)
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if child.ID == parent.ID || child.Generation != 1 || child.ParentIDs[0] != parent.ID {
		t.Fatalf("unexpected child: %+v", child)
	}
	if child.Card.Delta == parent.Card.Delta {
		t.Fatal("delta slot unchanged")
	}
	if child.Card.Alpha != parent.Card.Alpha || child.Card.Epsilon != parent.Card.Epsilon {
		t.Fatal("unrelated slots changed")
	}

	if _, err := b.Mutate(ctx, parent.ID, genome.Slot("zeta")); !errors.Is(err, genome.ErrUnknownSlot) {
		t.Fatalf("expected ErrUnknownSlot, got %v", err)
	}
}

func TestPopulateIsIndependentOfWorkerCount(t *testing.T) {
	ctx := context.Background()
	serial, err := newTestBreeder(t, 9).Populate(ctx, 12, 1)
	if err != nil {
		t.Fatalf("populate serial: %v", err)
	}
	parallel, err := newTestBreeder(t, 9).Populate(ctx, 12, 4)
	if err != nil {
		t.Fatalf("populate parallel: %v", err)
	}
	if len(serial) != 12 || len(parallel) != 12 {
		t.Fatalf("unexpected sizes: %d %d", len(serial), len(parallel))
	}
	for i := range serial {
		if serial[i].ID != parallel[i].ID || serial[i].Card != parallel[i].Card {
			t.Fatalf("card %d differs between worker counts", i)
		}
	}

	if _, err := newTestBreeder(t, 9).Populate(ctx, 0, 2); err == nil {
		t.Fatal("expected invalid size error")
	}
}

func TestPopulateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestBreeder(t, 10).Populate(ctx, 50, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// failingStore fails every SaveCard after the first okSaves calls.
type failingStore struct {
	storage.Store
	okSaves int
	saves   int
}

func (s *failingStore) SaveCard(ctx context.Context, card model.CardRecord) error {
	s.saves++
	if s.saves > s.okSaves {
		return errors.New("disk full")
	}
	return s.Store.SaveCard(ctx, card)
}

func TestPopulateReturnsStoredCardsOnSaveFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: storage.NewMemoryStore(), okSaves: 3}
	b, err := NewBreeder(Config{Store: store, Seed: 12})
	if err != nil {
		t.Fatalf("new breeder: %v", err)
	}
	if err := b.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	records, err := b.Populate(ctx, 6, 2)
	if err == nil {
		t.Fatal("expected save error")
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 stored records with the error, got %d", len(records))
	}
	stored, err := store.ListCards(ctx)
	if err != nil {
		t.Fatalf("list cards: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 cards in store, got %d", len(stored))
	}
	for _, record := range records {
		if _, err := b.Get(ctx, record.ID); err != nil {
			t.Fatalf("returned record %s not stored: %v", record.ID, err)
		}
	}
}

func TestDeleteRemovesCardAndLineage(t *testing.T) {
	ctx := context.Background()
	b := newTestBreeder(t, 13)

	a, err := b.Genesis(ctx)
	if err != nil {
		t.Fatalf("genesis a: %v", err)
	}
	other, err := b.Genesis(ctx)
	if err != nil {
		t.Fatalf("genesis b: %v", err)
	}
	child, err := b.Breed(ctx, a.ID, other.ID)
	if err != nil {
		t.Fatalf("breed: %v", err)
	}

	if err := b.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := b.Get(ctx, a.ID); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected deleted card to be gone, got %v", err)
	}
	lineage, err := b.Lineage(ctx, child.ID, 0)
	if err != nil {
		t.Fatalf("lineage: %v", err)
	}
	if len(lineage) != 2 || lineage[0].CardID != child.ID || lineage[1].CardID != other.ID {
		t.Fatalf("expected child and surviving parent, got %+v", lineage)
	}

	if err := b.Delete(ctx, a.ID); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound on second delete, got %v", err)
	}
}

func TestRankOrdersByValue(t *testing.T) {
	ctx := context.Background()
	b := newTestBreeder(t, 5)
	if _, err := b.Populate(ctx, 8, 2); err != nil {
		t.Fatalf("populate: %v", err)
	}

	ranked, err := b.Rank(ctx, 0)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(ranked) != 8 {
		t.Fatalf("expected 8 ranked cards, got %d", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].Value < ranked[i].Value {
			t.Fatalf("rank not descending at %d: %v < %v", i, ranked[i-1].Value, ranked[i].Value)
		}
	}

	top, err := b.Rank(ctx, 3)
	if err != nil {
		t.Fatalf("rank limit: %v", err)
	}
	if len(top) != 3 || top[0].ID != ranked[0].ID {
		t.Fatalf("unexpected limited rank: %+v", top)
	}
}

func TestScoreMatchesCardValue(t *testing.T) {
	ctx := context.Background()
	b := newTestBreeder(t, 6)
	record, err := b.Genesis(ctx)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}

	score, err := b.Score(ctx, record.ID)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(score.Slots) != 5 || score.Slots[0].Slot != genome.SlotAlpha {
		t.Fatalf("unexpected slots: %+v", score.Slots)
	}
	if math.Abs(score.Total-record.Value) > 1e-9 {
		t.Fatalf("total: got %v want %v", score.Total, record.Value)
	}
	if score.Slots[0].Sequence != record.Card.Alpha.String() {
		t.Fatalf("unexpected rendered sequence: %s", score.Slots[0].Sequence)
	}
	if len(score.Slots[0].Rules) != 1 || score.Slots[0].Rules[0].Rule != "palindrome_edges" {
		t.Fatalf("unexpected rule breakdown: %+v", score.Slots[0].Rules)
	}
}

func TestLineageWalksAncestry(t *testing.T) {
	ctx := context.Background()
	b := newTestBreeder(t, 7)

	a, err := b.Genesis(ctx)
	if err != nil {
		t.Fatalf("genesis a: %v", err)
	}
	other, err := b.Genesis(ctx)
	if err != nil {
		t.Fatalf("genesis b: %v", err)
	}
	child, err := b.Breed(ctx, a.ID, other.ID)
	if err != nil {
		t.Fatalf("breed: %v", err)
	}
	grandchild, err := b.Mutate(ctx, child.ID, genome.SlotAlpha)
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	lineage, err := b.Lineage(ctx, grandchild.ID, 0)
	if err != nil {
		t.Fatalf("lineage: %v", err)
	}
	want := []string{grandchild.ID, child.ID, a.ID, other.ID}
	if len(lineage) != len(want) {
		t.Fatalf("expected %d lineage records, got %d", len(want), len(lineage))
	}
	for i, id := range want {
		if lineage[i].CardID != id {
			t.Fatalf("lineage[%d]: got %s want %s", i, lineage[i].CardID, id)
		}
	}
	if grandchild.Generation != 2 {
		t.Fatalf("grandchild generation: got %d want 2", grandchild.Generation)
	}

	limited, err := b.Lineage(ctx, grandchild.ID, 2)
	if err != nil {
		t.Fatalf("limited lineage: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 lineage records, got %d", len(limited))
	}
}

func TestHistoryPairsCardsWithLineage(t *testing.T) {
	ctx := context.Background()
	b := newTestBreeder(t, 23)

	parents, err := b.Populate(ctx, 2, 2)
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if _, err := b.Breed(ctx, parents[0].ID, parents[1].ID); err != nil {
		t.Fatalf("breed: %v", err)
	}

	cards, lineage, err := b.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(cards) != 3 || len(lineage) != 3 {
		t.Fatalf("expected 3 cards and lineage rows, got %d/%d", len(cards), len(lineage))
	}
	for i := range cards {
		if cards[i].ID != lineage[i].CardID {
			t.Fatalf("row %d: card %s paired with lineage %s", i, cards[i].ID, lineage[i].CardID)
		}
	}
}
