package storage

import (
	"context"
	"sort"
	"sync"

	"genecards/internal/genome"
	"genecards/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	cards       map[string]model.CardRecord
	lineage     map[string]model.LineageRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.cards = make(map[string]model.CardRecord)
	s.lineage = make(map[string]model.LineageRecord)
	return nil
}

func (s *MemoryStore) SaveCard(_ context.Context, card model.CardRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.cards[card.ID] = cloneCardRecord(card)
	return nil
}

func (s *MemoryStore) GetCard(_ context.Context, id string) (model.CardRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.CardRecord{}, false, ErrNotInitialized
	}
	card, ok := s.cards[id]
	if !ok {
		return model.CardRecord{}, false, nil
	}
	return cloneCardRecord(card), true, nil
}

// ListCards returns every card ordered by creation time, then id.
func (s *MemoryStore) ListCards(_ context.Context) ([]model.CardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	out := make([]model.CardRecord, 0, len(s.cards))
	for _, card := range s.cards {
		out = append(out, cloneCardRecord(card))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) DeleteCard(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	delete(s.cards, id)
	delete(s.lineage, id)
	return nil
}

func (s *MemoryStore) SaveLineage(_ context.Context, record model.LineageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.lineage[record.CardID] = cloneLineageRecord(record)
	return nil
}

func (s *MemoryStore) GetLineage(_ context.Context, cardID string) (model.LineageRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.LineageRecord{}, false, ErrNotInitialized
	}
	record, ok := s.lineage[cardID]
	if !ok {
		return model.LineageRecord{}, false, nil
	}
	return cloneLineageRecord(record), true, nil
}

func cloneCardRecord(card model.CardRecord) model.CardRecord {
	card.ParentIDs = append([]string(nil), card.ParentIDs...)
	return card
}

func cloneLineageRecord(record model.LineageRecord) model.LineageRecord {
	record.ParentIDs = append([]string(nil), record.ParentIDs...)
	if record.Mutations != nil {
		mutations := make([]genome.CardMutation, len(record.Mutations))
		copy(mutations, record.Mutations)
		record.Mutations = mutations
	}
	return record
}
