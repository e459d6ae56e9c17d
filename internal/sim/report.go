package sim

import (
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/combatsim/internal/game/combat"
)

// Report is the merged result of one simulation run.
type Report struct {
	ID                  uuid.UUID
	Action              string
	Strategy            combat.Strategy
	Seed                uint64
	Iterations          int
	AttacksPerIteration int
	// Attempts is the number of executions that produced an outcome.
	Attempts int64
	// Counts is indexed by combat.Outcome.
	Counts [combat.NumOutcomes]int64
	// Table and Chances describe the attempt before sampling. Statistics that
	// vary between attempts are not reflected.
	Table       combat.Table
	Chances     combat.Chances
	Haste       float64
	ExecuteTime time.Duration
	Elapsed     time.Duration
	CreatedAt   time.Time
}

// Count returns the number of attempts that resolved to o.
func (r *Report) Count(o combat.Outcome) int64 { return r.Counts[o] }

// Frequency returns the fraction of attempts that resolved to o, or 0 when
// there were no attempts.
func (r *Report) Frequency(o combat.Outcome) float64 {
	if r.Attempts == 0 {
		return 0
	}
	return float64(r.Counts[o]) / float64(r.Attempts)
}

// Frequencies returns Frequency for every resolvable outcome.
func (r *Report) Frequencies() map[combat.Outcome]float64 {
	out := make(map[combat.Outcome]float64, len(combat.Outcomes))
	for _, o := range combat.Outcomes {
		out[o] = r.Frequency(o)
	}
	return out
}

// tally is one iteration's outcome counts.
type tally struct {
	counts   [combat.NumOutcomes]int64
	attempts int64
}

func (r *Report) merge(t *tally) {
	r.Attempts += t.attempts
	for i, n := range t.counts {
		r.Counts[i] += n
	}
}
