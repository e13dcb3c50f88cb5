// Package rules implements the pure game logic: stat aggregation, charge
// policy, initiative ranking, and HP clamping. Nothing in this package touches
// storage or holds state; every function is safe to call on every read.
package rules

import (
	"github.com/KirkDiggler/campaign-api/internal/entities"
)

// EffectiveStats is a character's base stats with every equipped item's
// modifiers applied.
type EffectiveStats struct {
	Attributes      entities.AttributeSet
	MaxHP           int32
	ArmorClass      int32
	Speed           int32
	Initiative      int32
	ImplantCapacity int32
	SkillBonuses    map[string]int32
}

// ComputeEffectiveStats sums the modifiers of the equipped items onto the
// character's base values and merges skill-bonus maps key-wise. Item order
// does not matter. Unequipped items must not be passed in; the caller filters
// by the inventory's equipped flags.
func ComputeEffectiveStats(c *entities.Character, equipped []*entities.Item) EffectiveStats {
	out := EffectiveStats{
		Attributes: c.Attributes,
		MaxHP:      c.MaxHP,
		ArmorClass: c.ArmorClass,
		Initiative: c.InitiativeMod,
	}

	skillMaps := make([]map[string]int32, 0, len(equipped))
	for _, item := range equipped {
		if item == nil {
			continue
		}
		m := item.Modifiers
		out.Attributes.Strength += m.Strength
		out.Attributes.Dexterity += m.Dexterity
		out.Attributes.Constitution += m.Constitution
		out.Attributes.Intelligence += m.Intelligence
		out.Attributes.Wisdom += m.Wisdom
		out.Attributes.Charisma += m.Charisma
		out.MaxHP += m.HP
		out.ArmorClass += m.ArmorClass
		out.Speed += m.Speed
		out.Initiative += m.Initiative
		out.ImplantCapacity += m.ImplantCapacity

		skillMaps = append(skillMaps, item.SkillBonuses)
	}
	out.SkillBonuses = MergeSkillBonuses(skillMaps...)

	return out
}

// MergeSkillBonuses merges skill-bonus maps by key-wise addition. Nil maps
// are treated as empty.
func MergeSkillBonuses(maps ...map[string]int32) map[string]int32 {
	out := make(map[string]int32)
	for _, m := range maps {
		for skill, bonus := range m {
			out[skill] += bonus
		}
	}
	return out
}
