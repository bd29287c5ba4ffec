package seeding

import "fmt"

// Strategy is the fill pattern used to populate a tier's group shells.
type Strategy int

const (
	StrategyBalanced Strategy = iota
	StrategySnakeDraft
	StrategyTopHeavy
	StrategyRandom
)

var strategyNames = [...]string{"balanced", "snake_draft", "top_heavy", "random"}

func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("strategy(%d)", int(s))
	}
	return strategyNames[s]
}

// Deterministic reports whether two runs with identical inputs produce
// identical groups.
func (s Strategy) Deterministic() bool {
	return s != StrategyRandom
}

func (s Strategy) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(strategyNames) {
		return nil, fmt.Errorf("unknown strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	strategy, ok := StrategyFromName(string(text))
	if !ok {
		return fmt.Errorf("unknown strategy %q", string(text))
	}
	*s = strategy
	return nil
}

// StrategyFromName returns the strategy with the given name. Unknown names
// return StrategyBalanced and false.
func StrategyFromName(name string) (Strategy, bool) {
	switch name {
	case "balanced":
		return StrategyBalanced, true
	case "snake_draft", "snake":
		return StrategySnakeDraft, true
	case "top_heavy":
		return StrategyTopHeavy, true
	case "random":
		return StrategyRandom, true
	default:
		return StrategyBalanced, false
	}
}
