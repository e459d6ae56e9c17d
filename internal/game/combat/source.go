package combat

import "github.com/cory-johannsen/combatsim/internal/game/dice"

// Source is the randomness consumed by the resolver: one boolean-trial stream
// per outcome kind and a uniform draw for direct sampling.
type Source interface {
	// Roll performs a trial at probability p on the stream dedicated to o.
	Roll(o Outcome, p float64) bool
	// Real returns a uniform value in [0, 1).
	Real() float64
}

// NewStreamSet returns a dice.StreamSet with one stream per Outcome, seeded from seed.
func NewStreamSet(seed uint64) *dice.StreamSet {
	return dice.NewStreamSet(seed, NumOutcomes)
}

type streamSource struct {
	set *dice.StreamSet
}

// NewSource adapts set to a Source. Outcome o rolls on set.Stream(int(o)).
//
// Precondition: set.Len() >= NumOutcomes.
func NewSource(set *dice.StreamSet) Source {
	return streamSource{set: set}
}

func (s streamSource) Roll(o Outcome, p float64) bool { return s.set.Stream(int(o)).Roll(p) }

func (s streamSource) Real() float64 { return s.set.Main().Real() }

type loggedSource struct {
	set *dice.LoggedSet
}

// NewLoggedSource adapts a dice.LoggedSet to a Source so every trial is logged.
//
// Precondition: the wrapped set has at least NumOutcomes streams.
func NewLoggedSource(set *dice.LoggedSet) Source {
	return loggedSource{set: set}
}

func (s loggedSource) Roll(o Outcome, p float64) bool { return s.set.Roll(int(o), p) }

func (s loggedSource) Real() float64 { return s.set.Real() }

// OutcomeName maps a stream index to the outcome label used by dice.LoggedSet.
func OutcomeName(i int) string { return Outcome(i).String() }
