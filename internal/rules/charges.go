package rules

import (
	"github.com/KirkDiggler/campaign-api/internal/entities"
)

// CanUseCharge reports whether a held ability has a use available.
// Infinite abilities are always available regardless of any stored counter.
func CanUseCharge(ability *entities.Ability, currentCharges int32) bool {
	if ability.ChargeType == entities.ChargeTypeInfinite {
		return true
	}
	return currentCharges > 0
}

// RestoreAmount is the charge-restoration policy table. It returns the charge
// count an ability holds after the given rest:
//
//   - infinite: always fully available, no counter to restore
//   - uses: never restored by rest
//   - short_rest: restores on short or long rest
//   - long_rest: restores only on long rest
//
// The restored amount is ChargesPerRest when set, otherwise full MaxCharges,
// added to the current count and clamped to MaxCharges. The caller applies the
// result to every affected ledger row and persists it.
func RestoreAmount(ability *entities.Ability, current int32, rest entities.RestType) int32 {
	switch ability.ChargeType {
	case entities.ChargeTypeInfinite:
		return current
	case entities.ChargeTypeUses:
		return current
	case entities.ChargeTypeShortRest:
		// short-rest charges come back on either tier of rest
		return restoredCharges(ability, current)
	case entities.ChargeTypeLongRest:
		if rest != entities.RestTypeLong {
			return current
		}
		return restoredCharges(ability, current)
	default:
		return current
	}
}

func restoredCharges(ability *entities.Ability, current int32) int32 {
	if ability.ChargesPerRest == nil {
		return ability.MaxCharges
	}
	restored := current + *ability.ChargesPerRest
	if restored > ability.MaxCharges {
		restored = ability.MaxCharges
	}
	return restored
}

// InitialCharges is the counter a freshly granted ability starts with:
// MaxCharges, or 0 for infinite abilities which need no tracking.
func InitialCharges(ability *entities.Ability) int32 {
	if ability.ChargeType == entities.ChargeTypeInfinite {
		return 0
	}
	return ability.MaxCharges
}

// ClampCharges keeps a charge counter within [0, max]
func ClampCharges(charges, max int32) int32 {
	if charges < 0 {
		return 0
	}
	if charges > max {
		return max
	}
	return charges
}
