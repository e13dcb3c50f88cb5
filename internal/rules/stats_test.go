package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KirkDiggler/campaign-api/internal/entities"
	"github.com/KirkDiggler/campaign-api/internal/rules"
)

func baseCharacter() *entities.Character {
	return &entities.Character{
		ID:   "char_1",
		Name: "Vex",
		Attributes: entities.AttributeSet{
			Strength:     10,
			Dexterity:    14,
			Constitution: 12,
			Intelligence: 13,
			Wisdom:       8,
			Charisma:     11,
		},
		CurrentHP:     20,
		MaxHP:         24,
		ArmorClass:    13,
		InitiativeMod: 2,
	}
}

func TestComputeEffectiveStatsNoItems(t *testing.T) {
	c := baseCharacter()
	stats := rules.ComputeEffectiveStats(c, nil)

	assert.Equal(t, c.Attributes, stats.Attributes)
	assert.Equal(t, c.MaxHP, stats.MaxHP)
	assert.Equal(t, c.ArmorClass, stats.ArmorClass)
	assert.Equal(t, c.InitiativeMod, stats.Initiative)
	assert.Empty(t, stats.SkillBonuses)
}

func TestComputeEffectiveStatsSums(t *testing.T) {
	c := baseCharacter()
	jacket := &entities.Item{
		ID:   "item_jacket",
		Name: "Armored Jacket",
		Modifiers: entities.StatModifiers{
			ArmorClass: 2,
			HP:         4,
		},
		SkillBonuses: map[string]int32{"stealth": -1},
	}
	reflexBooster := &entities.Item{
		ID:   "item_reflex",
		Name: "Reflex Booster",
		Modifiers: entities.StatModifiers{
			Dexterity:       2,
			Initiative:      3,
			ImplantCapacity: -2,
		},
		SkillBonuses: map[string]int32{"stealth": 2, "acrobatics": 1},
	}

	stats := rules.ComputeEffectiveStats(c, []*entities.Item{jacket, reflexBooster})

	assert.Equal(t, int32(16), stats.Attributes.Dexterity)
	assert.Equal(t, int32(28), stats.MaxHP)
	assert.Equal(t, int32(15), stats.ArmorClass)
	assert.Equal(t, int32(5), stats.Initiative)
	assert.Equal(t, int32(-2), stats.ImplantCapacity)
	assert.Equal(t, int32(1), stats.SkillBonuses["stealth"])
	assert.Equal(t, int32(1), stats.SkillBonuses["acrobatics"])
}

func TestComputeEffectiveStatsOrderIndependent(t *testing.T) {
	c := baseCharacter()
	a := &entities.Item{
		ID:           "item_a",
		Modifiers:    entities.StatModifiers{Strength: 1, HP: 2},
		SkillBonuses: map[string]int32{"athletics": 2},
	}
	b := &entities.Item{
		ID:           "item_b",
		Modifiers:    entities.StatModifiers{Strength: 2, ArmorClass: 1},
		SkillBonuses: map[string]int32{"athletics": -1, "hacking": 3},
	}

	ab := rules.ComputeEffectiveStats(c, []*entities.Item{a, b})
	ba := rules.ComputeEffectiveStats(c, []*entities.Item{b, a})

	assert.Equal(t, ab, ba)
}

func TestComputeEffectiveStatsIgnoresNil(t *testing.T) {
	c := baseCharacter()
	stats := rules.ComputeEffectiveStats(c, []*entities.Item{nil})
	assert.Equal(t, c.MaxHP, stats.MaxHP)
}

func TestMergeSkillBonuses(t *testing.T) {
	merged := rules.MergeSkillBonuses(
		map[string]int32{"stealth": 2, "hacking": 1},
		nil,
		map[string]int32{"stealth": -1, "medicine": 4},
	)

	assert.Equal(t, map[string]int32{
		"stealth":  1,
		"hacking":  1,
		"medicine": 4,
	}, merged)
}
