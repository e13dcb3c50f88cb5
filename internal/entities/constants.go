package entities

// ItemType categorizes item templates
type ItemType string

// Item types
const (
	ItemTypeWeapon      ItemType = "weapon"
	ItemTypeArmor       ItemType = "armor"
	ItemTypeConsumable  ItemType = "consumable"
	ItemTypeCyberware   ItemType = "cyberware"
	ItemTypeGeneric     ItemType = "generic"
	ItemTypeMissionItem ItemType = "mission_item"
)

// Rarity is an item's rarity tier
type Rarity string

// Rarity tiers
const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// AbilityType is the action economy slot an ability occupies
type AbilityType string

// Ability types
const (
	AbilityTypeAction      AbilityType = "action"
	AbilityTypeBonusAction AbilityType = "bonus_action"
	AbilityTypeReaction    AbilityType = "reaction"
	AbilityTypePassive     AbilityType = "passive"
	AbilityTypeUtility     AbilityType = "utility"
)

// ChargeType is an ability's charge model
type ChargeType string

// Charge models
const (
	// ChargeTypeInfinite abilities are always available and track no counter
	ChargeTypeInfinite ChargeType = "infinite"
	// ChargeTypeShortRest charges restore on a short or long rest
	ChargeTypeShortRest ChargeType = "short_rest"
	// ChargeTypeLongRest charges restore only on a long rest
	ChargeTypeLongRest ChargeType = "long_rest"
	// ChargeTypeUses charges never restore on rest; only GM action replenishes
	ChargeTypeUses ChargeType = "uses"
)

// RestType is a tier of downtime
type RestType string

// Rest types
const (
	RestTypeShort RestType = "short_rest"
	RestTypeLong  RestType = "long_rest"
)

// AbilitySource is the provenance of a held ability
type AbilitySource string

// Ability sources
const (
	SourceClass     AbilitySource = "class"
	SourceItem      AbilitySource = "item"
	SourceTemporary AbilitySource = "temporary"
)

// EncounterStatus is the lifecycle state of an encounter. Transitions are
// monotonic: draft -> active -> completed.
type EncounterStatus string

// Encounter statuses
const (
	EncounterStatusDraft     EncounterStatus = "draft"
	EncounterStatusActive    EncounterStatus = "active"
	EncounterStatusCompleted EncounterStatus = "completed"
)

// ParticipantType classifies a combat participant
type ParticipantType string

// Participant types
const (
	ParticipantTypePlayer ParticipantType = "player"
	ParticipantTypeEnemy  ParticipantType = "enemy"
	ParticipantTypeNPC    ParticipantType = "npc"
)

// Role is an actor's permission level
type Role string

// Roles
const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// Skills is the closed skill vocabulary. Skill-bonus maps are validated
// against this list at the boundary where item data enters the system.
var Skills = []string{
	"athletics",
	"acrobatics",
	"stealth",
	"hacking",
	"engineering",
	"medicine",
	"perception",
	"persuasion",
	"intimidation",
	"deception",
	"streetwise",
	"survival",
}

// IsValidSkill reports whether name is in the skill vocabulary
func IsValidSkill(name string) bool {
	for _, s := range Skills {
		if s == name {
			return true
		}
	}
	return false
}
