// Package combat implements attack outcome resolution: per-attack probability
// tables built from capability flags and statistics, and the selection of
// exactly one outcome from them.
package combat

import "fmt"

// Outcome is the result of a single attack attempt.
// The zero value (OutcomeNone) means "not yet resolved" and is never a final result.
type Outcome int

const (
	OutcomeNone Outcome = iota // zero value; unresolved
	OutcomeMiss
	OutcomeDodge
	OutcomeParry
	OutcomeGlance
	OutcomeBlock
	OutcomeCrit
	OutcomeHit
	OutcomeResist
)

// NumOutcomes is the number of Outcome values including OutcomeNone.
// It sizes arrays indexed by Outcome.
const NumOutcomes = int(OutcomeResist) + 1

// Outcomes lists every resolvable outcome in enumeration order.
var Outcomes = []Outcome{
	OutcomeMiss, OutcomeDodge, OutcomeParry, OutcomeGlance,
	OutcomeBlock, OutcomeCrit, OutcomeHit, OutcomeResist,
}

// String returns a human-readable outcome label, or "unknown" for values
// outside the enumeration.
func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeMiss:
		return "miss"
	case OutcomeDodge:
		return "dodge"
	case OutcomeParry:
		return "parry"
	case OutcomeGlance:
		return "glance"
	case OutcomeBlock:
		return "block"
	case OutcomeCrit:
		return "crit"
	case OutcomeHit:
		return "hit"
	case OutcomeResist:
		return "resist"
	default:
		return "unknown"
	}
}

// IsConnect reports whether the outcome lands on the target: hit, crit, glance
// or block. Misses, dodges, parries and resists do not connect.
//
// Precondition: o must not be OutcomeNone.
func (o Outcome) IsConnect() bool {
	switch o {
	case OutcomeHit, OutcomeCrit, OutcomeGlance, OutcomeBlock:
		return true
	case OutcomeMiss, OutcomeDodge, OutcomeParry, OutcomeResist:
		return false
	default:
		panic(fmt.Sprintf("combat: IsConnect called on %v", int(o)))
	}
}

// ParseOutcome returns the Outcome whose String() equals s.
func ParseOutcome(s string) (Outcome, error) {
	for _, o := range Outcomes {
		if o.String() == s {
			return o, nil
		}
	}
	return OutcomeNone, fmt.Errorf("unknown outcome %q", s)
}

// Kind distinguishes the categories of attacker.
type Kind int

const (
	KindPlayer Kind = iota
	KindPet
	// KindGuardian attackers use their base haste; haste buffs do not apply.
	KindGuardian
)

// String returns the config/YAML name of the Kind.
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindPet:
		return "pet"
	case KindGuardian:
		return "guardian"
	default:
		return "unknown"
	}
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "player", "":
		return KindPlayer, nil
	case "pet":
		return KindPet, nil
	case "guardian":
		return KindGuardian, nil
	}
	return KindPlayer, fmt.Errorf("unknown attacker kind %q", s)
}

// Position is where the attacker stands relative to the target.
type Position int

const (
	PositionFront Position = iota
	PositionBack
	PositionRanged
)

// String returns the config/YAML name of the Position.
func (p Position) String() string {
	switch p {
	case PositionFront:
		return "front"
	case PositionBack:
		return "back"
	case PositionRanged:
		return "ranged"
	default:
		return "unknown"
	}
}

// ParsePosition returns the Position named s. The empty string means front.
func ParsePosition(s string) (Position, error) {
	switch s {
	case "front", "":
		return PositionFront, nil
	case "back":
		return PositionBack, nil
	case "ranged":
		return PositionRanged, nil
	}
	return PositionFront, fmt.Errorf("unknown position %q", s)
}

// Combatant is one side of an attack: the attacker or its target.
type Combatant struct {
	ID       string
	Kind     Kind
	Name     string
	Level    int
	Position Position
	// Shield is true when the combatant carries a shield and can block.
	Shield bool
}

// TargetLevel returns the combatant's level.
func (c *Combatant) TargetLevel() int { return c.Level }

// HasShield reports whether the combatant can block.
func (c *Combatant) HasShield() bool { return c.Shield }
