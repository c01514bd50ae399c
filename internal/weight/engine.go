package weight

import "genecards/internal/genome"

// Engine evaluates separate rule lists for genes and sequences. The weight of
// a run is the product of the factors of every rule in the matching list, so
// an empty list yields 1.0.
type Engine struct {
	GeneRules     []Rule
	SequenceRules []Rule
}

var _ genome.Weigher = (*Engine)(nil)

// DefaultEngine applies palindrome_edges at both granularities.
func DefaultEngine() *Engine {
	return &Engine{
		GeneRules:     []Rule{PalindromeEdges{Bonus: DefaultBonus}},
		SequenceRules: []Rule{PalindromeEdges{Bonus: DefaultBonus}},
	}
}

// NeutralEngine has no rules and weighs every run as 1.0.
func NeutralEngine() *Engine {
	return &Engine{}
}

func (e *Engine) GeneWeight(proteins [genome.GeneLength]genome.Protein) float64 {
	if e == nil {
		return 1
	}
	return Evaluate(e.GeneRules, proteins[:])
}

func (e *Engine) SequenceWeight(proteins [genome.SequenceProteins]genome.Protein) float64 {
	if e == nil {
		return 1
	}
	return Evaluate(e.SequenceRules, proteins[:])
}

// Evaluate multiplies the factors of rules over proteins. Nil rules are skipped.
func Evaluate(rules []Rule, proteins []genome.Protein) float64 {
	weight := 1.0
	for _, rule := range rules {
		if rule == nil {
			continue
		}
		weight *= rule.Score(proteins)
	}
	return weight
}

// RuleBreakdown reports the factor each rule contributed for a run.
type RuleBreakdown struct {
	Rule   string  `json:"rule"`
	Factor float64 `json:"factor"`
}

func Explain(rules []Rule, proteins []genome.Protein) []RuleBreakdown {
	out := make([]RuleBreakdown, 0, len(rules))
	for _, rule := range rules {
		if rule == nil {
			continue
		}
		out = append(out, RuleBreakdown{Rule: rule.Name(), Factor: rule.Score(proteins)})
	}
	return out
}
