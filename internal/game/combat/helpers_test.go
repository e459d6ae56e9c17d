package combat_test

import "github.com/cory-johannsen/combatsim/internal/game/combat"

type rollCall struct {
	outcome combat.Outcome
	p       float64
}

// scriptedSource returns queued uniform values and trial results in order.
// Trials with nothing queued for their outcome fail.
type scriptedSource struct {
	reals  []float64
	trials map[combat.Outcome][]bool

	realCalls int
	rolls     []rollCall
}

func newScriptedSource(reals ...float64) *scriptedSource {
	return &scriptedSource{reals: reals, trials: make(map[combat.Outcome][]bool)}
}

func (s *scriptedSource) queue(o combat.Outcome, results ...bool) *scriptedSource {
	s.trials[o] = append(s.trials[o], results...)
	return s
}

func (s *scriptedSource) Real() float64 {
	if s.realCalls >= len(s.reals) {
		panic("scriptedSource: no uniform values left")
	}
	v := s.reals[s.realCalls]
	s.realCalls++
	return v
}

func (s *scriptedSource) Roll(o combat.Outcome, p float64) bool {
	s.rolls = append(s.rolls, rollCall{outcome: o, p: p})
	q := s.trials[o]
	if len(q) == 0 {
		return false
	}
	s.trials[o] = q[1:]
	return q[0]
}

func (s *scriptedSource) draws() int { return s.realCalls + len(s.rolls) }

// staticStats is a fixed StatAggregator.
type staticStats struct {
	hit, expertise, crit, haste float64
}

func (s staticStats) AttackHitOffset() float64       { return s.hit }
func (s staticStats) AttackExpertiseOffset() float64 { return s.expertise }
func (s staticStats) AttackCritOffset() float64      { return s.crit }
func (s staticStats) AttackHaste() float64           { return s.haste }

type recordingObserver struct {
	records []combat.Record
}

func (r *recordingObserver) Observe(rec combat.Record) { r.records = append(r.records, rec) }

func boolPtr(b bool) *bool { return &b }
