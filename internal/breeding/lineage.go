package breeding

import (
	"context"
	"fmt"

	"genecards/internal/model"
)

// Lineage walks a card's ancestry breadth first, starting with the card
// itself. Ancestors shared through several paths are reported once. A limit
// <= 0 returns the whole ancestry.
func (b *Breeder) Lineage(ctx context.Context, id string, limit int) ([]model.LineageRecord, error) {
	if _, err := b.Get(ctx, id); err != nil {
		return nil, err
	}

	var out []model.LineageRecord
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		if limit > 0 && len(out) >= limit {
			break
		}
		current := queue[0]
		queue = queue[1:]

		record, ok, err := b.store.GetLineage(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("get lineage %s: %w", current, err)
		}
		if !ok {
			continue
		}
		out = append(out, record)
		for _, parent := range record.ParentIDs {
			if seen[parent] {
				continue
			}
			seen[parent] = true
			queue = append(queue, parent)
		}
	}
	return out, nil
}

// History returns every stored card with its lineage record, in store order.
// Cards without a lineage record are reported without one.
func (b *Breeder) History(ctx context.Context) ([]model.CardRecord, []model.LineageRecord, error) {
	cards, err := b.store.ListCards(ctx)
	if err != nil {
		return nil, nil, err
	}
	lineage := make([]model.LineageRecord, 0, len(cards))
	for _, card := range cards {
		record, ok, err := b.store.GetLineage(ctx, card.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("get lineage %s: %w", card.ID, err)
		}
		if ok {
			lineage = append(lineage, record)
		}
	}
	return cards, lineage, nil
}
