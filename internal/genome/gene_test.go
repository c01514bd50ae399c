package genome

import (
	"math/rand"
	"testing"
)

// diffPositions returns the positions at which two genes hold different proteins.
func diffPositions(a, b Gene) []int {
	var out []int
	for i := range a {
		if a[i] != b[i] {
			out = append(out, i)
		}
	}
	return out
}

type fixedWeigher struct {
	gene     float64
	sequence float64
}

func (w fixedWeigher) GeneWeight([GeneLength]Protein) float64 { return w.gene }

func (w fixedWeigher) SequenceWeight([SequenceProteins]Protein) float64 { return w.sequence }

func TestGeneMergeFirstDifferenceWins(t *testing.T) {
	cases := []struct {
		name string
		a    Gene
		b    Gene
		want Gene
	}{
		{name: "first position", a: Gene{A, T, G, C}, b: Gene{C, T, G, C}, want: Gene{C, T, G, C}},
		{name: "greater head beats greater tail", a: Gene{G, G, G, T}, b: Gene{T, G, T, C}, want: Gene{T, G, T, C}},
		{name: "second position", a: Gene{A, C, G, C}, b: Gene{A, A, G, C}, want: Gene{A, C, G, C}},
		{name: "last position other", a: Gene{A, T, G, C}, b: Gene{A, T, G, T}, want: Gene{A, T, G, T}},
		{name: "last position self", a: Gene{A, T, G, C}, b: Gene{A, T, G, A}, want: Gene{A, T, G, C}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Merge(tc.b); got != tc.want {
				t.Fatalf("merge: got %s want %s", got, tc.want)
			}
			if got := tc.b.Merge(tc.a); got != tc.want {
				t.Fatalf("reverse merge: got %s want %s", got, tc.want)
			}
		})
	}
}

func TestGeneMergeIsWholesaleNotPerPosition(t *testing.T) {
	a := Gene{C, A, A, A}
	b := Gene{A, T, T, T}
	if got := a.Merge(b); got != a {
		t.Fatalf("expected parent %s inherited whole, got %s", a, got)
	}
}

func TestGeneMergeIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 100; i++ {
		g := GeneGenesis(rng)
		if got := g.Merge(g); got != g {
			t.Fatalf("merge with self changed gene: %s -> %s", g, got)
		}
	}
}

func TestGeneMutateChangesExactlyOnePosition(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 1000; i++ {
		g := GeneGenesis(rng)
		mutated, m := g.Mutate(rng)
		diff := diffPositions(g, mutated)
		if len(diff) != 1 {
			t.Fatalf("expected one changed position, got %v (%s -> %s)", diff, g, mutated)
		}
		if diff[0] != m.Index || m.Before != g[m.Index] || m.After != mutated[m.Index] {
			t.Fatalf("mutation record mismatch: %+v for %s -> %s", m, g, mutated)
		}
	}
}

func TestGeneMutateLeavesReceiverUntouched(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	g := Gene{A, T, G, C}
	_, _ = g.Mutate(rng)
	if g != (Gene{A, T, G, C}) {
		t.Fatalf("receiver modified: %s", g)
	}
}

func TestGeneValueIsIndexWeighted(t *testing.T) {
	g := Gene{A, T, G, C}
	if got := g.Value(nil); got != 20 {
		t.Fatalf("neutral value: got %v want 20", got)
	}
	if got := g.Value(fixedWeigher{gene: 1.5, sequence: 1}); got != 30 {
		t.Fatalf("weighted value: got %v want 30", got)
	}
	if got := DefaultGene().Value(NeutralWeigher); got != 14 {
		t.Fatalf("default gene value: got %v want 14", got)
	}
}

func TestGeneRenderingAndParsing(t *testing.T) {
	g := NewGene([GeneLength]Protein{A, T, G, C})
	if g.String() != "ATGC" {
		t.Fatalf("unexpected rendering: %q", g.String())
	}
	if DefaultGene().String() != "TGCA" {
		t.Fatalf("unexpected default gene: %s", DefaultGene())
	}
	parsed, err := ParseGene("ATGC")
	if err != nil {
		t.Fatalf("parse gene: %v", err)
	}
	if parsed != g {
		t.Fatalf("parsed %s, want %s", parsed, g)
	}
	if _, err := ParseGene("ATG"); err == nil {
		t.Fatal("expected short gene error")
	}
	if _, err := ParseGene("ATGX"); err == nil {
		t.Fatal("expected invalid symbol error")
	}
}
