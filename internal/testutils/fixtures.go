package testutils

import (
	"github.com/KirkDiggler/campaign-api/internal/entities"
)

// Default IDs used across test fixtures
const (
	TestPlayerID    = "player-test-001"
	TestCharacterID = "char-test-001"
	TestNPCID       = "npc-test-001"
)

// AdminSession returns a GM session for tests
func AdminSession() *entities.Session {
	return &entities.Session{UserID: "gm-test-001", Role: entities.RoleAdmin}
}

// PlayerSession returns a player session owning the fixture character
func PlayerSession() *entities.Session {
	return &entities.Session{UserID: TestPlayerID, Role: entities.RolePlayer}
}

// CreateTestCharacter creates a character with sensible defaults
func CreateTestCharacter(id string) *entities.Character {
	if id == "" {
		id = TestCharacterID
	}
	return &entities.Character{
		ID:       id,
		PlayerID: TestPlayerID,
		Name:     "Rook Castellan",
		Class:    "operative",
		Level:    3,
		Attributes: entities.AttributeSet{
			Strength:     10,
			Dexterity:    16,
			Constitution: 12,
			Intelligence: 14,
			Wisdom:       11,
			Charisma:     13,
		},
		CurrentHP:     24,
		MaxHP:         24,
		ArmorClass:    14,
		InitiativeMod: 3,
		Credits:       250,
	}
}

// CreateTestNPC creates an NPC with sensible defaults
func CreateTestNPC(id string) *entities.NPC {
	if id == "" {
		id = TestNPCID
	}
	return &entities.NPC{
		ID:            id,
		Name:          "Corp Security Guard",
		Kind:          "humanoid",
		CurrentHP:     16,
		MaxHP:         16,
		ArmorClass:    13,
		InitiativeMod: 1,
		SkillBonuses:  map[string]int32{"perception": 2},
	}
}

// CreateTestItem creates an equippable item with stat modifiers
func CreateTestItem(id string) *entities.Item {
	return &entities.Item{
		ID:     id,
		Name:   "Reinforced Vest",
		Type:   entities.ItemTypeArmor,
		Rarity: entities.RarityUncommon,
		Price:  120,
		Modifiers: entities.StatModifiers{
			ArmorClass: 2,
			HP:         5,
		},
		IsEquippable: true,
		StackSize:    1,
	}
}

// CreateTestConsumable creates a consumable item
func CreateTestConsumable(id string) *entities.Item {
	return &entities.Item{
		ID:           id,
		Name:         "Stim Pack",
		Type:         entities.ItemTypeConsumable,
		Rarity:       entities.RarityCommon,
		Price:        25,
		IsConsumable: true,
		StackSize:    3,
	}
}

// CreateTestAbility creates an ability template with the given charge model
func CreateTestAbility(id string, chargeType entities.ChargeType, maxCharges int32) *entities.Ability {
	return &entities.Ability{
		ID:         id,
		Name:       "Overclock",
		Type:       entities.AbilityTypeAction,
		ChargeType: chargeType,
		MaxCharges: maxCharges,
	}
}

// CreateTestEncounter creates a draft encounter
func CreateTestEncounter(id string) *entities.Encounter {
	return &entities.Encounter{
		ID:          id,
		Name:        "Warehouse Ambush",
		Description: "Dockside warehouse, low light",
	}
}
