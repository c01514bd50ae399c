package weight

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrRuleExists   = errors.New("rule already registered")
	ErrRuleNotFound = errors.New("rule not found")
)

// Factory builds a rule from its bonus. The bonus is used as given.
type Factory func(bonus float64) Rule

type registration struct {
	factory      Factory
	defaultBonus float64
}

var ruleRegistry = struct {
	mu sync.RWMutex
	m  map[string]registration
}{
	m: builtinRules(),
}

func builtinRules() map[string]registration {
	return map[string]registration{
		PalindromeEdges{}.Name(): {func(bonus float64) Rule { return PalindromeEdges{Bonus: bonus} }, DefaultBonus},
		UniformRun{}.Name():      {func(bonus float64) Rule { return UniformRun{Bonus: bonus} }, DefaultBonus},
		AllIdentical{}.Name():    {func(bonus float64) Rule { return AllIdentical{Bonus: bonus} }, DefaultBonus},
		FullCoverage{}.Name():    {func(bonus float64) Rule { return FullCoverage{Bonus: bonus} }, DefaultBonus},
		Constant{}.Name():        {func(bonus float64) Rule { return Constant{Factor: bonus} }, 1},
	}
}

// RegisterRule adds a named rule factory alongside the built-in rules. Specs
// that leave the bonus unset resolve it to DefaultBonus.
func RegisterRule(name string, factory Factory) error {
	if name == "" {
		return errors.New("rule name is required")
	}
	if factory == nil {
		return errors.New("rule factory is required")
	}

	ruleRegistry.mu.Lock()
	defer ruleRegistry.mu.Unlock()

	if _, exists := ruleRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrRuleExists, name)
	}
	ruleRegistry.m[name] = registration{factory: factory, defaultBonus: DefaultBonus}
	return nil
}

// ResolveRule builds the registered rule with the given bonus.
func ResolveRule(name string, bonus float64) (Rule, error) {
	reg, err := lookupRule(name)
	if err != nil {
		return nil, err
	}
	return reg.factory(bonus), nil
}

// DefaultRuleBonus is the bonus a spec without one resolves to.
func DefaultRuleBonus(name string) (float64, error) {
	reg, err := lookupRule(name)
	if err != nil {
		return 0, err
	}
	return reg.defaultBonus, nil
}

func lookupRule(name string) (registration, error) {
	ruleRegistry.mu.RLock()
	reg, ok := ruleRegistry.m[name]
	ruleRegistry.mu.RUnlock()

	if !ok {
		return registration{}, fmt.Errorf("%w: %s", ErrRuleNotFound, name)
	}
	return reg, nil
}

func ListRules() []string {
	ruleRegistry.mu.RLock()
	defer ruleRegistry.mu.RUnlock()

	names := make([]string, 0, len(ruleRegistry.m))
	for name := range ruleRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetRuleRegistryForTests() {
	ruleRegistry.mu.Lock()
	defer ruleRegistry.mu.Unlock()
	ruleRegistry.m = builtinRules()
}
