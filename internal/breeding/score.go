package breeding

import (
	"context"

	"genecards/internal/genome"
	"genecards/internal/weight"
)

// SlotScore is the scoring detail of one card slot.
type SlotScore struct {
	Slot     genome.Slot            `json:"slot"`
	Sequence string                 `json:"sequence"`
	Value    float64                `json:"value"`
	Weight   float64                `json:"weight"`
	Rules    []weight.RuleBreakdown `json:"rules,omitempty"`
}

type Score struct {
	CardID string      `json:"card_id"`
	Total  float64     `json:"total"`
	Slots  []SlotScore `json:"slots"`
}

// Score values a stored card slot by slot under the breeder's engine.
func (b *Breeder) Score(ctx context.Context, id string) (Score, error) {
	record, err := b.Get(ctx, id)
	if err != nil {
		return Score{}, err
	}
	return ScoreCard(record.ID, record.Card, b.engine), nil
}

func ScoreCard(id string, card genome.Card, engine *weight.Engine) Score {
	out := Score{CardID: id, Slots: make([]SlotScore, 0, len(genome.Slots()))}
	for _, slot := range genome.Slots() {
		seq, _ := card.Slot(slot)
		proteins := seq.Proteins()
		s := SlotScore{
			Slot:     slot,
			Sequence: seq.String(),
			Value:    seq.Value(engine),
			Weight:   engine.SequenceWeight(proteins),
		}
		if engine != nil {
			s.Rules = weight.Explain(engine.SequenceRules, proteins[:])
		}
		out.Total += s.Value
		out.Slots = append(out.Slots, s)
	}
	return out
}
