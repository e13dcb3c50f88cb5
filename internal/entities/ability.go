package entities

// CombatMeta is optional combat metadata on an ability
type CombatMeta struct {
	Damage   string `json:"damage,omitempty"`
	Range    string `json:"range,omitempty"`
	Area     string `json:"area,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// Ability is a template describing a usable ability and its charge model.
type Ability struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Type       AbilityType `json:"type"`
	ChargeType ChargeType  `json:"charge_type"`
	// MaxCharges is ignored for infinite abilities
	MaxCharges int32 `json:"max_charges,omitempty"`
	// ChargesPerRest, when nil, means rests restore to full MaxCharges
	ChargesPerRest *int32      `json:"charges_per_rest,omitempty"`
	Effects        []string    `json:"effects,omitempty"`
	Combat         *CombatMeta `json:"combat,omitempty"`
	CreatedAt      int64       `json:"created_at"`
	UpdatedAt      int64       `json:"updated_at"`
}

// CharacterAbility is a ledger row: one ability held by one character from one
// source. At most one row exists per (character, ability, source) triple.
// Charges are clamped to [0, MaxCharges].
type CharacterAbility struct {
	ID             string        `json:"id"`
	CharacterID    string        `json:"character_id"`
	AbilityID      string        `json:"ability_id"`
	CurrentCharges int32         `json:"current_charges"`
	SourceType     AbilitySource `json:"source_type"`
	// SourceID is the InventoryEntry that granted an item-sourced ability;
	// empty for class and temporary grants
	SourceID  string `json:"source_id,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}
