// Package stats provides combat.StatAggregator implementations for attacker profiles.
package stats

import (
	"github.com/cory-johannsen/combatsim/internal/scripting"
)

// Hook names a profile script may define. Each receives the static profile as
// a table with fields level, hit, expertise, crit and haste.
const (
	HookHitOffset       = "attack_hit_offset"
	HookExpertiseOffset = "attack_expertise_offset"
	HookCritOffset      = "attack_crit_offset"
	HookHaste           = "attack_haste"
)

// Static is a fixed attacker profile.
type Static struct {
	Level     int
	Hit       float64
	Expertise float64
	Crit      float64
	// Haste is the base attack-time multiplier; 1 means unhasted.
	Haste float64
}

func (s Static) AttackHitOffset() float64       { return s.Hit }
func (s Static) AttackExpertiseOffset() float64 { return s.Expertise }
func (s Static) AttackCritOffset() float64      { return s.Crit }
func (s Static) AttackHaste() float64           { return s.Haste }

func (s Static) table() map[string]float64 {
	return map[string]float64{
		"level":     float64(s.Level),
		"hit":       s.Hit,
		"expertise": s.Expertise,
		"crit":      s.Crit,
		"haste":     s.Haste,
	}
}

// Scripted computes offsets with a Lua profile loaded into a scripting.Manager.
// Any hook that is missing, fails, or returns a non-number falls back to Base.
//
// Scripted is safe for concurrent use; the Manager serializes calls per profile.
type Scripted struct {
	Base    Static
	mgr     *scripting.Manager
	profile string
}

// NewScripted binds profile in mgr to base.
//
// Precondition: mgr must be non-nil.
func NewScripted(base Static, mgr *scripting.Manager, profile string) *Scripted {
	return &Scripted{Base: base, mgr: mgr, profile: profile}
}

func (s *Scripted) call(hook string, fallback float64) float64 {
	if v, ok := s.mgr.CallNumber(s.profile, hook, s.Base.table()); ok {
		return v
	}
	return fallback
}

func (s *Scripted) AttackHitOffset() float64 { return s.call(HookHitOffset, s.Base.Hit) }

func (s *Scripted) AttackExpertiseOffset() float64 {
	return s.call(HookExpertiseOffset, s.Base.Expertise)
}

func (s *Scripted) AttackCritOffset() float64 { return s.call(HookCritOffset, s.Base.Crit) }

// AttackHaste falls back to Base when the hook returns a non-positive multiplier.
func (s *Scripted) AttackHaste() float64 {
	if h := s.call(HookHaste, s.Base.Haste); h > 0 {
		return h
	}
	return s.Base.Haste
}
