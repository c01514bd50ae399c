// Package weight scores protein runs with configurable multiplicative rules.
package weight

import "genecards/internal/genome"

// DefaultBonus is the factor a configured rule contributes when it matches
// and its spec sets no bonus.
const DefaultBonus = 1.1

// Rule maps an ordered protein run to a multiplicative factor. A factor of
// 1.0 leaves the score unchanged. Rules must be pure and total.
type Rule interface {
	Name() string
	Score(proteins []genome.Protein) float64
}

// PalindromeEdges matches when the first and last proteins are equal. Like
// the other match rules it contributes Bonus verbatim on a match and 1
// otherwise.
type PalindromeEdges struct {
	Bonus float64
}

func (PalindromeEdges) Name() string {
	return "palindrome_edges"
}

func (r PalindromeEdges) Score(proteins []genome.Protein) float64 {
	if len(proteins) == 0 || proteins[0] != proteins[len(proteins)-1] {
		return 1
	}
	return r.Bonus
}

// UniformRun matches when the run is a repetition of a shorter tile. The
// minimal tile must be longer than one protein; runs of a single repeated
// symbol are left to AllIdentical.
type UniformRun struct {
	Bonus float64
}

func (UniformRun) Name() string {
	return "uniform_run"
}

func (r UniformRun) Score(proteins []genome.Protein) float64 {
	period := minimalPeriod(proteins)
	if period <= 1 || period >= len(proteins) {
		return 1
	}
	return r.Bonus
}

// minimalPeriod returns the shortest tile length that divides the run and
// reproduces it, or len(proteins) when no shorter tile exists.
func minimalPeriod(proteins []genome.Protein) int {
	n := len(proteins)
	for period := 1; period < n; period++ {
		if n%period != 0 {
			continue
		}
		tiled := true
		for i := period; i < n; i++ {
			if proteins[i] != proteins[i%period] {
				tiled = false
				break
			}
		}
		if tiled {
			return period
		}
	}
	return n
}

// AllIdentical matches a non-empty run made of a single symbol.
type AllIdentical struct {
	Bonus float64
}

func (AllIdentical) Name() string {
	return "all_identical"
}

func (r AllIdentical) Score(proteins []genome.Protein) float64 {
	if len(proteins) == 0 {
		return 1
	}
	for _, p := range proteins[1:] {
		if p != proteins[0] {
			return 1
		}
	}
	return r.Bonus
}

// FullCoverage matches when every symbol of the alphabet is present.
type FullCoverage struct {
	Bonus float64
}

func (FullCoverage) Name() string {
	return "full_coverage"
}

func (r FullCoverage) Score(proteins []genome.Protein) float64 {
	var seen [genome.ProteinCount]bool
	distinct := 0
	for _, p := range proteins {
		if !p.Valid() || seen[p] {
			continue
		}
		seen[p] = true
		distinct++
	}
	if distinct != genome.ProteinCount {
		return 1
	}
	return r.Bonus
}

// Constant ignores its input and contributes Factor. A zero Factor zeroes
// every score it is applied to.
type Constant struct {
	Factor float64
}

func (Constant) Name() string {
	return "constant"
}

func (r Constant) Score([]genome.Protein) float64 {
	return r.Factor
}
