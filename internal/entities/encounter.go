package entities

// Encounter is a single combat instance with its own turn order.
type Encounter struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Status      EncounterStatus `json:"status"`
	// Round starts at 1 when the encounter goes active
	Round int32 `json:"round"`
	// CurrentTurn is a 1-based position in the initiative order
	CurrentTurn int32 `json:"current_turn"`
	StartedAt   int64 `json:"started_at,omitempty"`
	CompletedAt int64 `json:"completed_at,omitempty"`
	CreatedAt   int64 `json:"created_at"`
	UpdatedAt   int64 `json:"updated_at"`
}

// IsTerminal reports whether the encounter can no longer change state
func (e *Encounter) IsTerminal() bool {
	return e.Status == EncounterStatusCompleted
}

// EncounterParticipant wraps a Character or NPC (exactly one) with a
// combat-scoped snapshot. The snapshot is copied at add time and is
// authoritative for the encounter's lifetime; it never dereferences the
// source after creation.
type EncounterParticipant struct {
	ID          string `json:"id"`
	EncounterID string `json:"encounter_id"`
	// Exactly one of CharacterID / NPCID is set
	CharacterID string          `json:"character_id,omitempty"`
	NPCID       string          `json:"npc_id,omitempty"`
	Type        ParticipantType `json:"type"`
	Name        string          `json:"name"`
	// InitiativeRoll is nil until the GM sets it
	InitiativeRoll *int32 `json:"initiative_roll,omitempty"`
	InitiativeMod  int32  `json:"initiative_mod"`
	// InitiativeOrder is assigned once at encounter start (1-based rank)
	InitiativeOrder int32  `json:"initiative_order,omitempty"`
	CurrentHP       int32  `json:"current_hp"`
	MaxHP           int32  `json:"max_hp"`
	ArmorClass      int32  `json:"armor_class"`
	Notes           string `json:"notes,omitempty"`
	// Seq is the insertion counter used as the final initiative tie-breaker
	Seq       int64 `json:"seq"`
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// IsDown reports whether the participant is at 0 HP. Down participants still
// occupy a turn slot; the GM decides whether to act on it.
func (p *EncounterParticipant) IsDown() bool {
	return p.CurrentHP <= 0
}
