package combat

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/combatsim/internal/game/buff"
)

// Variant selects which chance formulas and default capabilities an attack uses.
type Variant int

const (
	VariantMelee Variant = iota
	VariantRanged
	// VariantSpecial attacks resolve crit with a second roll instead of a table entry.
	VariantSpecial
)

// String returns the config/YAML name of the Variant.
func (v Variant) String() string {
	switch v {
	case VariantMelee:
		return "melee"
	case VariantRanged:
		return "ranged"
	case VariantSpecial:
		return "special"
	default:
		return "unknown"
	}
}

// ParseVariant returns the Variant named s. The empty string means melee.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "melee", "":
		return VariantMelee, nil
	case "ranged":
		return VariantRanged, nil
	case "special":
		return VariantSpecial, nil
	}
	return VariantMelee, fmt.Errorf("unknown variant %q", s)
}

// CapabilitySet lists which outcomes an attack can produce and how it resolves.
// It is fixed when the Attack is constructed.
type CapabilitySet struct {
	MayMiss   bool
	MayDodge  bool
	MayParry  bool
	MayGlance bool
	MayBlock  bool
	MayCrit   bool
	// Special attacks roll crit separately after a connecting outcome.
	Special bool
	// Binary attacks are subject to a resistance roll after a connecting outcome.
	Binary bool
	// Harmful is false for attacks that never produce an outcome.
	Harmful bool
}

// DefaultCapabilities returns the capabilities of a harmful, non-binary attack of
// variant v made from position p. Specials cannot glance. Attacks from behind
// cannot be blocked or parried. Ranged attacks cannot be blocked, dodged,
// parried or glance.
func DefaultCapabilities(v Variant, p Position) CapabilitySet {
	caps := CapabilitySet{
		MayMiss:   true,
		MayDodge:  true,
		MayParry:  true,
		MayGlance: true,
		MayBlock:  true,
		MayCrit:   true,
		Special:   v == VariantSpecial,
		Harmful:   true,
	}
	if caps.Special {
		caps.MayGlance = false
	}
	if v == VariantRanged {
		p = PositionRanged
	}
	switch p {
	case PositionBack:
		caps.MayBlock = false
		caps.MayParry = false
	case PositionRanged:
		caps.MayBlock = false
		caps.MayDodge = false
		caps.MayGlance = false
		caps.MayParry = false
	}
	return caps
}

// StatAggregator supplies the attacker's composite offsets after all external
// modifiers. Values are read on every attempt; they are never cached.
type StatAggregator interface {
	AttackHitOffset() float64
	AttackExpertiseOffset() float64
	AttackCritOffset() float64
	// AttackHaste is the base attack-time multiplier before haste buffs.
	AttackHaste() float64
}

// Target is the defender of an attack.
type Target interface {
	TargetLevel() int
	HasShield() bool
}

// Record is the structured snapshot handed to an Observer after each resolution.
type Record struct {
	Action   string
	Strategy Strategy
	Stats    AttackerStats
	Target   TargetContext
	Chances  Chances
	Table    Table
	Result   Outcome
}

// Observer receives a Record after every resolution. It must not influence the result.
type Observer interface {
	Observe(Record)
}

// ResultCallback is invoked by Execute after an attack resolves to a registered outcome.
type ResultCallback func(a *Attack, result Outcome)

// Env holds the collaborators an Attack resolves against.
type Env struct {
	Attacker *Combatant
	Target   Target
	Stats    StatAggregator
	// Buffs may be nil, meaning no buffs are active.
	Buffs buff.State
	// Registry may be nil, meaning buff.DefaultRegistry().
	Registry *buff.Registry
	Resolver *Resolver
	// Observer may be nil.
	Observer Observer
}

// Attack is one attack action bound to an attacker, a target and a resolver.
//
// An Attack is not safe for concurrent use; concurrent simulations build one per iteration.
type Attack struct {
	def       *ActionDef
	variant   Variant
	caps      CapabilitySet
	env       Env
	callbacks [NumOutcomes][]ResultCallback
	result    Outcome
}

// NewAttack binds def to env.
//
// Precondition: def must have passed Validate; env.Attacker, env.Target,
// env.Stats and env.Resolver must be non-nil.
// Postcondition: Capabilities() reflects def and env.Attacker.Position and never changes.
func NewAttack(def *ActionDef, env Env) *Attack {
	if env.Attacker == nil || env.Target == nil || env.Stats == nil || env.Resolver == nil {
		panic(fmt.Sprintf("combat: NewAttack(%q) precondition violated: attacker, target, stats and resolver must be non-nil", def.ID))
	}
	if env.Registry == nil {
		env.Registry = buff.DefaultRegistry()
	}
	variant, caps := def.capabilities(env.Attacker.Position)
	return &Attack{def: def, variant: variant, caps: caps, env: env}
}

// Name returns the action's display name.
func (a *Attack) Name() string { return a.def.Name }

// Def returns the action definition.
func (a *Attack) Def() *ActionDef { return a.def }

// Variant returns the attack variant.
func (a *Attack) Variant() Variant { return a.variant }

// Capabilities returns the attack's fixed capability set.
func (a *Attack) Capabilities() CapabilitySet { return a.caps }

// Result returns the outcome of the most recent Execute or Resolve, or
// OutcomeNone if none has run or the last Execute was harmless.
func (a *Attack) Result() Outcome { return a.result }

// OnResult registers fn to run whenever Execute resolves to o.
func (a *Attack) OnResult(o Outcome, fn ResultCallback) {
	a.callbacks[o] = append(a.callbacks[o], fn)
}

func (a *Attack) ranged() bool {
	return a.variant == VariantRanged || a.env.Attacker.Position == PositionRanged
}

// Haste returns the attack-time multiplier: the attacker's base haste, reduced
// by every active haste buff unless the attacker is a guardian.
func (a *Attack) Haste() float64 {
	h := a.env.Stats.AttackHaste()
	if a.env.Attacker.Kind == KindGuardian || a.env.Buffs == nil {
		return h
	}
	return h * buff.HasteMultiplier(a.env.Registry, a.env.Buffs, a.ranged())
}

// ExecuteTime returns zero for instant actions, else the base execute time scaled by Haste.
func (a *Attack) ExecuteTime() time.Duration {
	if a.def.ExecuteTime == 0 {
		return 0
	}
	return time.Duration(float64(a.def.ExecuteTime) * a.Haste())
}

// Stats snapshots the attacker's totals for one attempt.
func (a *Attack) Stats() AttackerStats {
	return AttackerStats{
		Hit:       a.def.BaseHit + a.env.Stats.AttackHitOffset(),
		Expertise: a.def.BaseExpertise + a.env.Stats.AttackExpertiseOffset(),
		Crit:      a.def.BaseCrit + a.env.Stats.AttackCritOffset(),
		Haste:     a.Haste(),
	}
}

// TargetContext snapshots the defender for one attempt.
func (a *Attack) TargetContext() TargetContext {
	return TargetContext{
		LevelDelta: a.env.Target.TargetLevel() - a.env.Attacker.Level,
		Shield:     a.env.Target.HasShield(),
	}
}

// MissChance returns this attack's raw miss contribution at levelDelta.
func (a *Attack) MissChance(levelDelta int) float64 {
	return MissChance(levelDelta, a.Stats().Hit)
}

// DodgeChance returns this attack's raw dodge contribution at levelDelta.
func (a *Attack) DodgeChance(levelDelta int) float64 {
	return DodgeChance(levelDelta, a.Stats().Expertise)
}

// ParryChance returns this attack's raw parry contribution at levelDelta.
func (a *Attack) ParryChance(levelDelta int) float64 {
	return ParryChance(levelDelta, a.Stats().Expertise)
}

// GlanceChance returns the raw glance contribution at levelDelta.
func (a *Attack) GlanceChance(levelDelta int) float64 {
	return GlanceChance(levelDelta)
}

// BlockChance returns the raw block contribution at levelDelta.
func (a *Attack) BlockChance(levelDelta int) float64 {
	return BlockChance(levelDelta)
}

// CritChance returns this attack's raw crit chance at levelDelta, without the
// level penalty for special attacks.
func (a *Attack) CritChance(levelDelta int) float64 {
	return CritChance(levelDelta, a.Stats().Crit, a.caps.Special)
}

// Table builds the probability table for the current statistics without sampling it.
func (a *Attack) Table() (Table, Chances) {
	return BuildTable(a.caps, a.Stats(), a.TargetContext())
}

// Resolve runs the full pipeline once: snapshot, table, sample, secondary roll.
//
// Precondition: the attack is harmful. Callers must guard with
// Capabilities().Harmful or use Execute.
// Postcondition: returns an outcome other than OutcomeNone.
func (a *Attack) Resolve() Outcome {
	if !a.caps.Harmful {
		panic(fmt.Sprintf("combat: Resolve called on harmless action %q", a.def.ID))
	}
	stats := a.Stats()
	target := a.TargetContext()
	table, chances := BuildTable(a.caps, stats, target)
	sec := Secondary{
		Binary:      a.caps.Binary,
		Resistance:  a.def.Resistance,
		SpecialCrit: a.caps.Special && a.caps.MayCrit,
		CritChance:  CritChance(target.LevelDelta, stats.Crit, true),
	}
	a.result = a.env.Resolver.Resolve(a.def.Name, table, sec)

	if a.env.Observer != nil {
		a.env.Observer.Observe(Record{
			Action:   a.def.Name,
			Strategy: a.env.Resolver.Strategy(),
			Stats:    stats,
			Target:   target,
			Chances:  chances,
			Table:    table,
			Result:   a.result,
		})
	}
	return a.result
}

// Execute resolves the attack and fires the callbacks registered for the result.
// Harmless attacks produce no outcome: Execute returns (OutcomeNone, false).
func (a *Attack) Execute() (Outcome, bool) {
	a.result = OutcomeNone
	if !a.caps.Harmful {
		return OutcomeNone, false
	}
	result := a.Resolve()
	for _, fn := range a.callbacks[result] {
		fn(a, result)
	}
	return result, true
}
