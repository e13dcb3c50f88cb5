// Package entities implements the campaign domain entities
package entities

import (
	"github.com/KirkDiggler/rpg-toolkit/core"
)

// AttributeSet holds the six core attributes
type AttributeSet struct {
	Strength     int32 `json:"strength"`
	Dexterity    int32 `json:"dexterity"`
	Constitution int32 `json:"constitution"`
	Intelligence int32 `json:"intelligence"`
	Wisdom       int32 `json:"wisdom"`
	Charisma     int32 `json:"charisma"`
}

// Character represents a player character.
// NOTE: This is a data-only struct. Effective stats (equipped modifiers,
// skill bonuses) are computed by internal/rules, not here.
type Character struct {
	ID            string       `json:"id"`
	PlayerID      string       `json:"player_id"`
	Name          string       `json:"name"`
	Class         string       `json:"class"`
	Level         int32        `json:"level"`
	Attributes    AttributeSet `json:"attributes"`
	CurrentHP     int32        `json:"current_hp"`
	MaxHP         int32        `json:"max_hp"`
	ArmorClass    int32        `json:"armor_class"`
	InitiativeMod int32        `json:"initiative_mod"`
	Credits       int32        `json:"credits"`
	CreatedAt     int64        `json:"created_at"`
	UpdatedAt     int64        `json:"updated_at"`
}

// GetID implements core.Entity
func (c *Character) GetID() string {
	return c.ID
}

// GetType implements core.Entity
func (c *Character) GetType() string {
	return "character"
}

// NPC represents a non-player character usable as an encounter participant
// source. Like Character it is data-only.
type NPC struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Kind          string           `json:"kind"`
	CurrentHP     int32            `json:"current_hp"`
	MaxHP         int32            `json:"max_hp"`
	ArmorClass    int32            `json:"armor_class"`
	InitiativeMod int32            `json:"initiative_mod"`
	SkillBonuses  map[string]int32 `json:"skill_bonuses,omitempty"`
	Abilities     []string         `json:"abilities,omitempty"`
	CreatedAt     int64            `json:"created_at"`
	UpdatedAt     int64            `json:"updated_at"`
}

// GetID implements core.Entity
func (n *NPC) GetID() string {
	return n.ID
}

// GetType implements core.Entity
func (n *NPC) GetType() string {
	return "npc"
}

// Compile-time checks that participant sources implement core.Entity
var (
	_ core.Entity = (*Character)(nil)
	_ core.Entity = (*NPC)(nil)
)
