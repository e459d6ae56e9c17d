package buff

// HasteMultiplier returns the combined attack-time multiplier granted by the
// active buffs in s. Each applicable buff contributes a factor of 1/(1+bonus).
// Buffs sharing a Group contribute once, using the largest bonus among the
// active members. MeleeOnly buffs are skipped when ranged is true.
//
// Precondition: reg and s must be non-nil.
// Postcondition: Returns 1 when no registered buff is active; otherwise > 0.
func HasteMultiplier(reg *Registry, s State, ranged bool) float64 {
	h := 1.0
	grouped := make(map[string]float64)
	var groups []string
	for _, def := range reg.All() {
		if !s.Active(def.ID) {
			continue
		}
		if def.MeleeOnly && ranged {
			continue
		}
		bonus := def.HasteBonus
		if def.Variable {
			bonus = s.Magnitude(def.ID)
		}
		if bonus == 0 {
			continue
		}
		if def.Group != "" {
			prev, ok := grouped[def.Group]
			if !ok {
				groups = append(groups, def.Group)
			}
			if !ok || bonus > prev {
				grouped[def.Group] = bonus
			}
			continue
		}
		h *= 1.0 / (1.0 + bonus)
	}
	for _, g := range groups {
		h *= 1.0 / (1.0 + grouped[g])
	}
	return h
}
