package genome

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	// SequenceLength is the number of genes in a sequence.
	SequenceLength = 8
	// SequenceProteins is the length of a flattened sequence.
	SequenceProteins = SequenceLength * GeneLength

	// TailStart is the first gene index of the tail half. Tail genes are the
	// genesis placeholders and are mutated on every merge.
	TailStart = 4
	// MutableStart is the first gene index Sequence.Mutate may select.
	MutableStart = 5

	geneSeparator = "-"
)

// Sequence is an ordered tuple of genes.
type Sequence [SequenceLength]Gene

// SequenceMutation locates a gene mutation inside a sequence.
type SequenceMutation struct {
	Gene int `json:"gene"`
	Mutation
}

// SequenceGenesis builds a sequence whose head genes are random and whose
// tail genes are all DefaultGene.
func SequenceGenesis(rng *rand.Rand) Sequence {
	var s Sequence
	for i := 0; i < TailStart; i++ {
		s[i] = GeneGenesis(rng)
	}
	for i := TailStart; i < SequenceLength; i++ {
		s[i] = DefaultGene()
	}
	return s
}

func NewSequence(genes [SequenceLength]Gene) Sequence {
	return Sequence(genes)
}

func (s Sequence) Genes() [SequenceLength]Gene {
	return [SequenceLength]Gene(s)
}

// Proteins flattens the sequence in gene order.
func (s Sequence) Proteins() [SequenceProteins]Protein {
	var out [SequenceProteins]Protein
	for i, g := range s {
		copy(out[i*GeneLength:], g[:])
	}
	return out
}

// Value sums the gene values and scales the total by the weigher's sequence
// modifier over the flattened proteins.
func (s Sequence) Value(w Weigher) float64 {
	w = weigherOrNeutral(w)
	var sum float64
	for _, g := range s {
		sum += g.Value(w)
	}
	return sum * w.SequenceWeight(s.Proteins())
}

// Merge crosses every gene position with Gene.Merge and mutates each tail
// gene exactly once afterwards. No further mutation pass is applied.
func (s Sequence) Merge(rng *rand.Rand, other Sequence) (Sequence, []SequenceMutation) {
	var out Sequence
	mutations := make([]SequenceMutation, 0, SequenceLength-TailStart)
	for i := range s {
		gene := s[i].Merge(other[i])
		if i >= TailStart {
			var m Mutation
			gene, m = gene.Mutate(rng)
			mutations = append(mutations, SequenceMutation{Gene: i, Mutation: m})
		}
		out[i] = gene
	}
	return out, mutations
}

// Mutate mutates one gene chosen uniformly from indices MutableStart..7.
func (s Sequence) Mutate(rng *rand.Rand) (Sequence, SequenceMutation) {
	idx := MutableStart + rng.Intn(SequenceLength-MutableStart)
	gene, m := s[idx].Mutate(rng)
	s[idx] = gene
	return s, SequenceMutation{Gene: idx, Mutation: m}
}

func (s Sequence) String() string {
	parts := make([]string, len(s))
	for i, g := range s {
		parts[i] = g.String()
	}
	return strings.Join(parts, geneSeparator)
}

func ParseSequence(text string) (Sequence, error) {
	parts := strings.Split(text, geneSeparator)
	if len(parts) != SequenceLength {
		return Sequence{}, fmt.Errorf("sequence %q: expected %d genes, got %d", text, SequenceLength, len(parts))
	}
	var s Sequence
	for i, part := range parts {
		g, err := ParseGene(part)
		if err != nil {
			return Sequence{}, fmt.Errorf("sequence gene %d: %w", i, err)
		}
		s[i] = g
	}
	return s, nil
}

func (s Sequence) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Sequence) UnmarshalText(text []byte) error {
	parsed, err := ParseSequence(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
