package genome

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

var ErrUnknownSlot = errors.New("unknown card slot")

// Slot names one of the five sequences carried by a card.
type Slot string

const (
	SlotAlpha   Slot = "alpha"
	SlotBeta    Slot = "beta"
	SlotGamma   Slot = "gamma"
	SlotDelta   Slot = "delta"
	SlotEpsilon Slot = "epsilon"
)

var slots = [...]Slot{SlotAlpha, SlotBeta, SlotGamma, SlotDelta, SlotEpsilon}

// Slots returns the slot names in card order.
func Slots() []Slot {
	out := make([]Slot, len(slots))
	copy(out, slots[:])
	return out
}

func ParseSlot(name string) (Slot, error) {
	for _, s := range slots {
		if string(s) == strings.ToLower(strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownSlot, name)
}

// Card bundles five independent sequences.
type Card struct {
	Alpha   Sequence `json:"alpha"`
	Beta    Sequence `json:"beta"`
	Gamma   Sequence `json:"gamma"`
	Delta   Sequence `json:"delta"`
	Epsilon Sequence `json:"epsilon"`
}

// CardMutation locates a gene mutation inside a card.
type CardMutation struct {
	Slot Slot `json:"slot"`
	SequenceMutation
}

func CardGenesis(rng *rand.Rand) Card {
	return Card{
		Alpha:   SequenceGenesis(rng),
		Beta:    SequenceGenesis(rng),
		Gamma:   SequenceGenesis(rng),
		Delta:   SequenceGenesis(rng),
		Epsilon: SequenceGenesis(rng),
	}
}

func NewCard(alpha, beta, gamma, delta, epsilon Sequence) Card {
	return Card{Alpha: alpha, Beta: beta, Gamma: gamma, Delta: delta, Epsilon: epsilon}
}

func (c *Card) slot(s Slot) (*Sequence, error) {
	switch s {
	case SlotAlpha:
		return &c.Alpha, nil
	case SlotBeta:
		return &c.Beta, nil
	case SlotGamma:
		return &c.Gamma, nil
	case SlotDelta:
		return &c.Delta, nil
	case SlotEpsilon:
		return &c.Epsilon, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSlot, s)
	}
}

func (c Card) Slot(s Slot) (Sequence, error) {
	seq, err := c.slot(s)
	if err != nil {
		return Sequence{}, err
	}
	return *seq, nil
}

// WithSlot returns a copy of the card with slot s replaced by seq.
func (c Card) WithSlot(s Slot, seq Sequence) (Card, error) {
	target, err := c.slot(s)
	if err != nil {
		return Card{}, err
	}
	*target = seq
	return c, nil
}

// Sequences returns the five sequences in slot order.
func (c Card) Sequences() [5]Sequence {
	return [5]Sequence{c.Alpha, c.Beta, c.Gamma, c.Delta, c.Epsilon}
}

// Merge breeds each slot independently with Sequence.Merge.
func (c Card) Merge(rng *rand.Rand, other Card) (Card, []CardMutation) {
	var out Card
	var mutations []CardMutation
	for _, s := range slots {
		mine, _ := c.Slot(s)
		theirs, _ := other.Slot(s)
		merged, seqMutations := mine.Merge(rng, theirs)
		out, _ = out.WithSlot(s, merged)
		for _, m := range seqMutations {
			mutations = append(mutations, CardMutation{Slot: s, SequenceMutation: m})
		}
	}
	return out, mutations
}

// Mutate applies Sequence.Mutate to the named slot.
func (c Card) Mutate(rng *rand.Rand, s Slot) (Card, CardMutation, error) {
	seq, err := c.Slot(s)
	if err != nil {
		return Card{}, CardMutation{}, err
	}
	mutated, m := seq.Mutate(rng)
	out, err := c.WithSlot(s, mutated)
	if err != nil {
		return Card{}, CardMutation{}, err
	}
	return out, CardMutation{Slot: s, SequenceMutation: m}, nil
}

// Value is the sum of the five sequence values.
func (c Card) Value(w Weigher) float64 {
	var total float64
	for _, seq := range c.Sequences() {
		total += seq.Value(w)
	}
	return total
}

func (c Card) String() string {
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		seq, _ := c.slot(s)
		parts = append(parts, fmt.Sprintf("%s=%s", s, *seq))
	}
	return strings.Join(parts, " ")
}
