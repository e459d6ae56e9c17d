package combat

import "fmt"

// Strategy selects how a Table is sampled. It is fixed for a whole simulation run.
type Strategy int

const (
	// StrategyDirect draws one uniform value against the cumulative thresholds.
	StrategyDirect Strategy = iota
	// StrategyDecomposed rolls one conditional trial per entry on that entry's
	// own stream. Marginal probabilities match StrategyDirect.
	StrategyDecomposed
)

// String returns the config name of the Strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyDirect:
		return "direct"
	case StrategyDecomposed:
		return "decomposed"
	default:
		return "unknown"
	}
}

// ParseStrategy returns the Strategy named s.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "direct":
		return StrategyDirect, nil
	case "decomposed":
		return StrategyDecomposed, nil
	}
	return StrategyDirect, fmt.Errorf("unknown strategy %q", s)
}

// Secondary describes the conditional roll applied after a connecting outcome.
type Secondary struct {
	// Binary attacks are resisted with probability Resistance.
	Binary     bool
	Resistance float64
	// SpecialCrit is set for special attacks able to crit; they crit with
	// probability CritChance instead of through the table.
	SpecialCrit bool
	CritChance  float64
}

// Resolver selects one outcome from a Table.
type Resolver struct {
	strategy Strategy
	src      Source
}

// NewResolver creates a Resolver drawing from src.
//
// Precondition: src must be non-nil.
func NewResolver(strategy Strategy, src Source) *Resolver {
	return &Resolver{strategy: strategy, src: src}
}

// Strategy returns the sampling strategy.
func (r *Resolver) Strategy() Strategy { return r.strategy }

// Sample selects the primary outcome from t. A single-entry table returns that
// entry without drawing.
//
// Postcondition: returns an outcome present in t, or OutcomeNone only if t
// violates the Table invariant.
func (r *Resolver) Sample(t Table) Outcome {
	if t.Len() == 1 {
		return t.Entry(0).Outcome
	}
	switch r.strategy {
	case StrategyDirect:
		return r.sampleDirect(t)
	case StrategyDecomposed:
		return r.sampleDecomposed(t)
	default:
		panic(fmt.Sprintf("combat: unknown strategy %d", int(r.strategy)))
	}
}

func (r *Resolver) sampleDirect(t Table) Outcome {
	u := r.src.Real()
	for _, e := range t.entries {
		if u <= e.Threshold {
			return e.Outcome
		}
	}
	return OutcomeNone
}

func (r *Resolver) sampleDecomposed(t Table) Outcome {
	prev := 0.0
	last := len(t.entries) - 1
	for _, e := range t.entries[:last] {
		if r.src.Roll(e.Outcome, (e.Threshold-prev)/(1.0-prev)) {
			return e.Outcome
		}
		prev = e.Threshold
	}
	return t.entries[last].Outcome
}

// Resolve samples t and applies the secondary roll. name identifies the attack
// in the invariant-violation diagnostic.
//
// Postcondition: never returns OutcomeNone. A table that yields no outcome is an
// internal-consistency failure and panics.
func (r *Resolver) Resolve(name string, t Table, sec Secondary) Outcome {
	result := r.Sample(t)
	if result == OutcomeNone {
		panic(fmt.Sprintf("combat: %s resolved no outcome from table [%s]", name, t))
	}

	if result.IsConnect() {
		if sec.Binary && r.src.Roll(OutcomeResist, sec.Resistance) {
			result = OutcomeResist
		} else if sec.SpecialCrit && r.src.Roll(OutcomeCrit, sec.CritChance) {
			result = OutcomeCrit
		}
	}
	return result
}
