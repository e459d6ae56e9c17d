package combat

// The chance functions below return the raw probability contribution of one
// outcome kind. A non-positive return value means the kind contributes nothing
// to the table for this attempt; it is not an error.
//
// levelDelta is target level minus attacker level and may be any integer.

// MissChance returns the chance to miss.
//
// Postcondition: 0.05 + 0.005*levelDelta - totalHit when levelDelta <= 2,
// otherwise 0.07 + 0.01*(levelDelta-2) - totalHit.
func MissChance(levelDelta int, totalHit float64) float64 {
	if levelDelta > 2 {
		return 0.07 + float64(levelDelta-2)*0.01 - totalHit
	}
	return 0.05 + float64(levelDelta)*0.005 - totalHit
}

// DodgeChance returns the chance for the target to dodge.
func DodgeChance(levelDelta int, totalExpertise float64) float64 {
	return 0.05 + float64(levelDelta)*0.005 - totalExpertise
}

// ParryChance returns the chance for the target to parry. Expertise reduces it
// exactly as it reduces dodge.
func ParryChance(levelDelta int, totalExpertise float64) float64 {
	return 0.05 + float64(levelDelta)*0.005 - totalExpertise
}

// GlanceChance returns the chance of a glancing blow. It depends on level only.
func GlanceChance(levelDelta int) float64 {
	return float64(levelDelta+1) * 0.06
}

// BlockChance returns the chance for a shielded target to block.
func BlockChance(levelDelta int) float64 {
	return 0.05 + float64(levelDelta)*0.005
}

// CritChance returns the chance to critically strike. Non-special attacks pay a
// level-based penalty; special attacks roll crit separately and pay none.
func CritChance(levelDelta int, totalCrit float64, special bool) float64 {
	chance := totalCrit
	if special {
		return chance
	}
	if levelDelta > 2 {
		chance -= 0.03 + float64(levelDelta)*0.006
	} else {
		chance -= float64(levelDelta) * 0.002
	}
	return chance
}
