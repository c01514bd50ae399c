package genome

import (
	"fmt"
	"math/rand"
	"strings"
)

// GeneLength is the number of proteins in a gene.
const GeneLength = 4

// Gene is an ordered tuple of proteins. Genes are values; Mutate returns a
// modified copy.
type Gene [GeneLength]Protein

// Mutation records a single protein replacement inside a gene.
type Mutation struct {
	Index  int     `json:"index"`
	Before Protein `json:"before"`
	After  Protein `json:"after"`
}

// Weigher supplies the multiplicative scoring modifiers used by Value.
type Weigher interface {
	GeneWeight(proteins [GeneLength]Protein) float64
	SequenceWeight(proteins [SequenceProteins]Protein) float64
}

type neutralWeigher struct{}

func (neutralWeigher) GeneWeight([GeneLength]Protein) float64 { return 1 }

func (neutralWeigher) SequenceWeight([SequenceProteins]Protein) float64 { return 1 }

// NeutralWeigher scores every input with the multiplicative identity.
var NeutralWeigher Weigher = neutralWeigher{}

func weigherOrNeutral(w Weigher) Weigher {
	if w == nil {
		return NeutralWeigher
	}
	return w
}

func GeneGenesis(rng *rand.Rand) Gene {
	var g Gene
	for i := range g {
		g[i] = RandomProtein(rng)
	}
	return g
}

func NewGene(proteins [GeneLength]Protein) Gene {
	return Gene(proteins)
}

// DefaultGene is the fixed placeholder used for the tail of a genesis sequence.
func DefaultGene() Gene {
	return Gene{T, G, C, A}
}

// Proteins returns the gene's proteins in positional order.
func (g Gene) Proteins() [GeneLength]Protein {
	return [GeneLength]Protein(g)
}

// Value is the index-weighted protein sum, position i counting i+1 times,
// scaled by the weigher's gene modifier.
func (g Gene) Value(w Weigher) float64 {
	var sum uint64
	for i, p := range g {
		sum += uint64(i+1) * uint64(p.Value())
	}
	return float64(sum) * weigherOrNeutral(w).GeneWeight(g.Proteins())
}

// Mutate replaces one uniformly chosen position with a different protein.
func (g Gene) Mutate(rng *rand.Rand) (Gene, Mutation) {
	idx := rng.Intn(GeneLength)
	before := g[idx]
	after := RandomProteinExcept(rng, before)
	g[idx] = after
	return g, Mutation{Index: idx, Before: before, After: after}
}

// Merge breeds two genes. At the first position where they differ, the gene
// holding the ordinally greater protein is inherited whole. Identical genes
// return the receiver.
func (g Gene) Merge(other Gene) Gene {
	for i := range g {
		switch g[i].Compare(other[i]) {
		case 1:
			return g
		case -1:
			return other
		}
	}
	return g
}

func (g Gene) String() string {
	var b strings.Builder
	b.Grow(GeneLength)
	for _, p := range g {
		b.WriteString(p.String())
	}
	return b.String()
}

func ParseGene(s string) (Gene, error) {
	if len(s) != GeneLength {
		return Gene{}, fmt.Errorf("gene %q: expected %d symbols, got %d", s, GeneLength, len(s))
	}
	var g Gene
	for i := 0; i < GeneLength; i++ {
		p, err := ParseProtein(s[i])
		if err != nil {
			return Gene{}, fmt.Errorf("gene %q: %w", s, err)
		}
		g[i] = p
	}
	return g, nil
}

func (g Gene) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *Gene) UnmarshalText(text []byte) error {
	parsed, err := ParseGene(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
