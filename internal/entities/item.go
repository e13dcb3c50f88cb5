package entities

// StatModifiers is the bundle of numeric modifiers an item applies while
// equipped. Zero values contribute nothing.
type StatModifiers struct {
	Strength        int32 `json:"strength,omitempty"`
	Dexterity       int32 `json:"dexterity,omitempty"`
	Constitution    int32 `json:"constitution,omitempty"`
	Intelligence    int32 `json:"intelligence,omitempty"`
	Wisdom          int32 `json:"wisdom,omitempty"`
	Charisma        int32 `json:"charisma,omitempty"`
	HP              int32 `json:"hp,omitempty"`
	ArmorClass      int32 `json:"armor_class,omitempty"`
	Speed           int32 `json:"speed,omitempty"`
	Initiative      int32 `json:"initiative,omitempty"`
	ImplantCapacity int32 `json:"implant_capacity,omitempty"`
}

// Item is a template; per-instance state (quantity, equipped, uses) lives on
// the InventoryEntry that references it.
type Item struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         ItemType         `json:"type"`
	Rarity       Rarity           `json:"rarity"`
	Price        int32            `json:"price"`
	Modifiers    StatModifiers    `json:"modifiers"`
	SkillBonuses map[string]int32 `json:"skill_bonuses,omitempty"`
	IsConsumable bool             `json:"is_consumable"`
	IsEquippable bool             `json:"is_equippable"`
	StackSize    int32            `json:"stack_size"`
	CreatedAt    int64            `json:"created_at"`
	UpdatedAt    int64            `json:"updated_at"`
}

// ItemAbilityLink ties an ability to an item. If RequiresEquipped is true the
// ability is held only while the linking item is equipped; otherwise receiving
// the item grants the ability until the entry is removed.
type ItemAbilityLink struct {
	ItemID           string `json:"item_id"`
	AbilityID        string `json:"ability_id"`
	RequiresEquipped bool   `json:"requires_equipped"`
}

// InventoryEntry links a character to an item template.
// Invariants: IsEquipped only when the item is equippable; CurrentUses is
// meaningful only for consumables and is nil until first use.
type InventoryEntry struct {
	ID          string `json:"id"`
	CharacterID string `json:"character_id"`
	ItemID      string `json:"item_id"`
	Quantity    int32  `json:"quantity"`
	IsEquipped  bool   `json:"is_equipped"`
	CurrentUses *int32 `json:"current_uses,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}
