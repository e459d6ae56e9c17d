package combat

import (
	"fmt"
	"strings"
)

// AttackerStats is the per-attempt snapshot of the attacker's totals.
type AttackerStats struct {
	Hit       float64
	Expertise float64
	Crit      float64
	// Haste is the attack-time multiplier after buffs; 1 means unhasted.
	Haste float64
}

// TargetContext is the per-attempt snapshot of the defender.
type TargetContext struct {
	// LevelDelta is target level minus attacker level.
	LevelDelta int
	// Shield gates block regardless of the attack's capability.
	Shield bool
}

// Entry is one row of a Table: the outcome selected when a uniform draw falls
// at or below Threshold and above the previous entry's threshold.
type Entry struct {
	Threshold float64
	Outcome   Outcome
}

// Table is the ordered cumulative probability table for one attack attempt.
//
// Invariant: thresholds never decrease; the final threshold is >= 1;
// each outcome appears at most once; OutcomeNone and OutcomeResist never appear.
type Table struct {
	entries []Entry
}

// NewTable builds a Table from explicit entries.
//
// Precondition: len(entries) > 0.
func NewTable(entries ...Entry) Table {
	if len(entries) == 0 {
		panic("combat: NewTable called with no entries")
	}
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return Table{entries: cp}
}

// Len returns the number of entries.
func (t Table) Len() int { return len(t.entries) }

// Entry returns the i-th entry.
func (t Table) Entry(i int) Entry { return t.entries[i] }

// Entries returns a copy of the entries in priority order.
func (t Table) Entries() []Entry {
	cp := make([]Entry, len(t.entries))
	copy(cp, t.entries)
	return cp
}

// Last returns the final entry.
//
// Precondition: Len() > 0.
func (t Table) Last() Entry { return t.entries[len(t.entries)-1] }

// Contains reports whether o has an entry in the table.
func (t Table) Contains(o Outcome) bool {
	for _, e := range t.entries {
		if e.Outcome == o {
			return true
		}
	}
	return false
}

// String renders the table as "miss<=0.050 dodge<=0.100 hit<=1.000".
func (t Table) String() string {
	parts := make([]string, len(t.entries))
	for i, e := range t.entries {
		parts[i] = fmt.Sprintf("%s<=%.3f", e.Outcome, e.Threshold)
	}
	return strings.Join(parts, " ")
}

// Chances holds the raw per-kind contributions computed while building a table.
// Kinds that were not evaluated (capability off, no shield, special crit) are 0.
type Chances struct {
	Miss   float64
	Dodge  float64
	Parry  float64
	Glance float64
	Block  float64
	Crit   float64
}

// BuildTable assembles the cumulative table for one attempt. Kinds are evaluated
// in the fixed priority order miss, dodge, parry, glance, block, crit. Block is
// only evaluated against a shielded target; crit only for non-special attacks.
// Kinds with a non-positive chance are omitted. When the running total is below
// 1 a residual hit entry at exactly 1.0 absorbs the rest. An over-allocated
// table is left as is, so excess mass falls to the last entry.
//
// Postcondition: the returned Table satisfies the Table invariant.
func BuildTable(caps CapabilitySet, stats AttackerStats, target TargetContext) (Table, Chances) {
	delta := target.LevelDelta

	var ch Chances
	if caps.MayMiss {
		ch.Miss = MissChance(delta, stats.Hit)
	}
	if caps.MayDodge {
		ch.Dodge = DodgeChance(delta, stats.Expertise)
	}
	if caps.MayParry {
		ch.Parry = ParryChance(delta, stats.Expertise)
	}
	if caps.MayGlance {
		ch.Glance = GlanceChance(delta)
	}
	if caps.MayBlock && target.Shield {
		ch.Block = BlockChance(delta)
	}
	if caps.MayCrit && !caps.Special {
		ch.Crit = CritChance(delta, stats.Crit, false)
	}

	entries := make([]Entry, 0, 7)
	total := 0.0
	add := func(chance float64, o Outcome) {
		if chance <= 0 {
			return
		}
		total += chance
		entries = append(entries, Entry{Threshold: total, Outcome: o})
	}
	add(ch.Miss, OutcomeMiss)
	add(ch.Dodge, OutcomeDodge)
	add(ch.Parry, OutcomeParry)
	add(ch.Glance, OutcomeGlance)
	add(ch.Block, OutcomeBlock)
	add(ch.Crit, OutcomeCrit)
	if total < 1.0 {
		entries = append(entries, Entry{Threshold: 1.0, Outcome: OutcomeHit})
	}

	return Table{entries: entries}, ch
}
