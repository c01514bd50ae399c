package weight

import (
	"encoding/json"
	"fmt"
	"os"
)

// RuleSpec enables one registered rule in a rule list. A nil Bonus selects
// the rule's default (DefaultBonus for match rules, 1 for constant); a set
// Bonus, zero included, is used verbatim.
type RuleSpec struct {
	Name     string   `json:"name"`
	Bonus    *float64 `json:"bonus,omitempty"`
	Disabled bool     `json:"disabled,omitempty"`
}

// BonusOf returns a pointer for RuleSpec.Bonus.
func BonusOf(v float64) *float64 {
	return &v
}

// Config is the data-driven description of an Engine.
type Config struct {
	Gene     []RuleSpec `json:"gene"`
	Sequence []RuleSpec `json:"sequence"`
}

// DefaultConfig mirrors DefaultEngine.
func DefaultConfig() Config {
	return Config{
		Gene:     []RuleSpec{{Name: PalindromeEdges{}.Name(), Bonus: BonusOf(DefaultBonus)}},
		Sequence: []RuleSpec{{Name: PalindromeEdges{}.Name(), Bonus: BonusOf(DefaultBonus)}},
	}
}

// LoadConfig reads a JSON rule configuration. An empty path yields
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read rule config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode rule config %s: %w", path, err)
	}
	return cfg, nil
}

// Engine resolves every enabled spec against the rule registry.
func (c Config) Engine() (*Engine, error) {
	geneRules, err := resolveSpecs(c.Gene)
	if err != nil {
		return nil, fmt.Errorf("gene rules: %w", err)
	}
	sequenceRules, err := resolveSpecs(c.Sequence)
	if err != nil {
		return nil, fmt.Errorf("sequence rules: %w", err)
	}
	return &Engine{GeneRules: geneRules, SequenceRules: sequenceRules}, nil
}

func resolveSpecs(specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, spec := range specs {
		if spec.Disabled {
			continue
		}
		var bonus float64
		if spec.Bonus != nil {
			bonus = *spec.Bonus
		} else {
			def, err := DefaultRuleBonus(spec.Name)
			if err != nil {
				return nil, err
			}
			bonus = def
		}
		if bonus < 0 {
			return nil, fmt.Errorf("rule %s: bonus must be >= 0", spec.Name)
		}
		rule, err := ResolveRule(spec.Name, bonus)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
