package buff

import "sort"

// State is the read-only view of active buffs consumed by the haste model.
type State interface {
	// Active reports whether the buff with id is currently up.
	Active(id string) bool
	// Magnitude returns the buff's current magnitude, or 0 when inactive.
	Magnitude(id string) float64
}

// ActiveSet tracks the buffs currently applied to one attacker.
// It is not safe for concurrent use; each simulation iteration owns its own.
type ActiveSet struct {
	buffs map[string]float64
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{buffs: make(map[string]float64)}
}

// Apply marks id active with the given magnitude. Re-applying replaces the magnitude.
//
// Postcondition: Active(id) is true and Magnitude(id) == magnitude.
func (s *ActiveSet) Apply(id string, magnitude float64) {
	s.buffs[id] = magnitude
}

// Remove deletes id from the set. Removing an inactive buff is a no-op.
//
// Postcondition: Active(id) is false.
func (s *ActiveSet) Remove(id string) {
	delete(s.buffs, id)
}

// Active reports whether id is currently applied.
func (s *ActiveSet) Active(id string) bool {
	_, ok := s.buffs[id]
	return ok
}

// Magnitude returns the magnitude of id, or 0 if it is not applied.
func (s *ActiveSet) Magnitude(id string) float64 {
	return s.buffs[id]
}

// IDs returns the active buff ids in sorted order.
func (s *ActiveSet) IDs() []string {
	out := make([]string, 0, len(s.buffs))
	for id := range s.buffs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of s.
func (s *ActiveSet) Clone() *ActiveSet {
	cp := NewActiveSet()
	for id, m := range s.buffs {
		cp.buffs[id] = m
	}
	return cp
}
