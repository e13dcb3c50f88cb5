package rules

// ClampHP applies a signed delta to a current HP value and clamps the result
// to [0, max]. Negative deltas are damage, positive deltas healing.
func ClampHP(current, delta, max int32) int32 {
	hp := current + delta
	if hp < 0 {
		return 0
	}
	if hp > max {
		return max
	}
	return hp
}
