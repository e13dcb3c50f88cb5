// Package equipment implements the equip lifecycle: inventory grants, the
// equip toggle with its ability grant/revoke side effects, consumable use,
// and effective-stat aggregation.
package equipment

//go:generate mockgen -destination=mock/mock_service.go -package=equipmentmock github.com/KirkDiggler/campaign-api/internal/orchestrators/equipment Service

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/campaign-api/internal/entities"
	"github.com/KirkDiggler/campaign-api/internal/errors"
	"github.com/KirkDiggler/campaign-api/internal/notify"
	"github.com/KirkDiggler/campaign-api/internal/pkg/idgen"
	"github.com/KirkDiggler/campaign-api/internal/repositories/abilities"
	"github.com/KirkDiggler/campaign-api/internal/repositories/characters"
	"github.com/KirkDiggler/campaign-api/internal/repositories/inventory"
	"github.com/KirkDiggler/campaign-api/internal/repositories/items"
	"github.com/KirkDiggler/campaign-api/internal/repositories/ledger"
	"github.com/KirkDiggler/campaign-api/internal/rules"
)

// Service defines the interface for equip lifecycle operations
type Service interface {
	// AddItem puts an item into a character's inventory and grants any
	// linked abilities that do not require the item to be equipped.
	AddItem(ctx context.Context, input *AddItemInput) (*AddItemOutput, error)

	// RemoveItem deletes an inventory entry and revokes every ability it
	// granted.
	RemoveItem(ctx context.Context, input *RemoveItemInput) (*RemoveItemOutput, error)

	// ToggleEquip flips an entry's equipped flag, granting or revoking
	// equip-gated abilities and recomputing effective stats.
	ToggleEquip(ctx context.Context, input *ToggleEquipInput) (*ToggleEquipOutput, error)

	// UseConsumable spends one use of a consumable, deleting the entry when
	// the last use is spent.
	UseConsumable(ctx context.Context, input *UseConsumableInput) (*UseConsumableOutput, error)

	// GetEffectiveStats aggregates base stats with every equipped item's
	// modifiers. Pure read.
	GetEffectiveStats(ctx context.Context, input *GetEffectiveStatsInput) (*GetEffectiveStatsOutput, error)

	// DeleteCharacter removes a character along with its inventory entries
	// and ledger rows.
	DeleteCharacter(ctx context.Context, input *DeleteCharacterInput) (*DeleteCharacterOutput, error)
}

// Config holds the dependencies for the equipment orchestrator
type Config struct {
	CharacterRepo characters.Repository
	ItemRepo      items.Repository
	InventoryRepo inventory.Repository
	AbilityRepo   abilities.Repository
	LedgerRepo    ledger.Repository
	Feed          notify.Feed
	IDGenerator   idgen.Generator
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.CharacterRepo == nil {
		vb.RequiredField("CharacterRepo")
	}
	if c.ItemRepo == nil {
		vb.RequiredField("ItemRepo")
	}
	if c.InventoryRepo == nil {
		vb.RequiredField("InventoryRepo")
	}
	if c.AbilityRepo == nil {
		vb.RequiredField("AbilityRepo")
	}
	if c.LedgerRepo == nil {
		vb.RequiredField("LedgerRepo")
	}
	if c.Feed == nil {
		vb.RequiredField("Feed")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}

	return vb.Build()
}

type orchestrator struct {
	characterRepo characters.Repository
	itemRepo      items.Repository
	inventoryRepo inventory.Repository
	abilityRepo   abilities.Repository
	ledgerRepo    ledger.Repository
	feed          notify.Feed
	idGen         idgen.Generator
}

// NewOrchestrator creates a new equipment orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &orchestrator{
		characterRepo: cfg.CharacterRepo,
		itemRepo:      cfg.ItemRepo,
		inventoryRepo: cfg.InventoryRepo,
		abilityRepo:   cfg.AbilityRepo,
		ledgerRepo:    cfg.LedgerRepo,
		feed:          cfg.Feed,
		idGen:         cfg.IDGenerator,
	}, nil
}

// AddItemInput defines the request for adding an item to an inventory
type AddItemInput struct {
	Session     *entities.Session
	CharacterID string
	ItemID      string
	// Quantity defaults to 1
	Quantity int32
}

// AddItemOutput defines the response for adding an item
type AddItemOutput struct {
	Entry *entities.InventoryEntry
	// GrantedAbilityIDs lists abilities granted by the add (non-gated links)
	GrantedAbilityIDs []string
}

func (o *orchestrator) AddItem(ctx context.Context, input *AddItemInput) (*AddItemOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("character_id", input.CharacterID, vb)
	errors.ValidateRequired("item_id", input.ItemID, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	char, err := o.ownedCharacter(ctx, input.Session, input.CharacterID)
	if err != nil {
		return nil, err
	}

	itemOutput, err := o.itemRepo.Get(ctx, items.GetInput{ID: input.ItemID})
	if err != nil {
		return nil, err
	}
	item := itemOutput.Item

	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	// Stackable items pile onto an existing unequipped entry instead of
	// creating a new row.
	var entry *entities.InventoryEntry
	if item.StackSize > 1 {
		entry, err = o.findStackableEntry(ctx, char.ID, item.ID)
		if err != nil {
			return nil, err
		}
	}

	var granted []string
	if entry != nil {
		entry.Quantity += quantity
		updateOutput, err := o.inventoryRepo.Update(ctx, inventory.UpdateInput{Entry: entry})
		if err != nil {
			return nil, err
		}
		entry = updateOutput.Entry
	} else {
		createOutput, err := o.inventoryRepo.Create(ctx, inventory.CreateInput{
			Entry: &entities.InventoryEntry{
				ID:          o.idGen.Generate(),
				CharacterID: char.ID,
				ItemID:      item.ID,
				Quantity:    quantity,
			},
		})
		if err != nil {
			return nil, err
		}
		entry = createOutput.Entry

		// Non-gated linked abilities arrive with the item
		granted, err = o.grantLinkedAbilities(ctx, char.ID, entry, item.ID, false)
		if err != nil {
			return nil, err
		}
	}

	slog.Info("item added to inventory",
		"character_id", char.ID,
		"item_id", item.ID,
		"entry_id", entry.ID,
		"quantity", entry.Quantity,
		"granted", len(granted),
	)

	return &AddItemOutput{Entry: entry, GrantedAbilityIDs: granted}, nil
}

// RemoveItemInput defines the request for removing an inventory entry
type RemoveItemInput struct {
	Session *entities.Session
	EntryID string
}

// RemoveItemOutput defines the response for removing an inventory entry
type RemoveItemOutput struct {
	// RevokedCount is the number of ledger rows removed with the entry
	RevokedCount int
}

func (o *orchestrator) RemoveItem(ctx context.Context, input *RemoveItemInput) (*RemoveItemOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.EntryID == "" {
		return nil, errors.InvalidArgument("entry_id is required")
	}

	entryOutput, err := o.inventoryRepo.Get(ctx, inventory.GetInput{ID: input.EntryID})
	if err != nil {
		return nil, err
	}
	entry := entryOutput.Entry

	char, err := o.ownedCharacter(ctx, input.Session, entry.CharacterID)
	if err != nil {
		return nil, err
	}

	// The granting entry is gone, so every ability it granted goes with it,
	// equipped or not.
	revoked, err := o.ledgerRepo.DeleteBySource(ctx, ledger.DeleteBySourceInput{
		CharacterID: entry.CharacterID,
		SourceID:    entry.ID,
	})
	if err != nil {
		return nil, err
	}

	if _, err := o.inventoryRepo.Delete(ctx, inventory.DeleteInput{ID: entry.ID}); err != nil {
		return nil, err
	}

	if entry.IsEquipped {
		if _, _, err := o.recomputeStats(ctx, char); err != nil {
			return nil, err
		}
	}

	slog.Info("item removed from inventory",
		"character_id", entry.CharacterID,
		"entry_id", entry.ID,
		"revoked", revoked.Deleted,
	)

	return &RemoveItemOutput{RevokedCount: revoked.Deleted}, nil
}

// ToggleEquipInput defines the request for the equip toggle
type ToggleEquipInput struct {
	Session *entities.Session
	EntryID string
}

// ToggleEquipOutput defines the response for the equip toggle
type ToggleEquipOutput struct {
	Entry *entities.InventoryEntry
	Stats rules.EffectiveStats
	// GrantedAbilityIDs lists equip-gated abilities granted by this toggle
	GrantedAbilityIDs []string
	// RevokedCount is the number of ledger rows revoked by an unequip
	RevokedCount int
	// FailedGrants names linked abilities whose grant failed; the toggle
	// itself still succeeded
	FailedGrants []string
}

func (o *orchestrator) ToggleEquip(ctx context.Context, input *ToggleEquipInput) (*ToggleEquipOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.EntryID == "" {
		return nil, errors.InvalidArgument("entry_id is required")
	}

	entryOutput, err := o.inventoryRepo.Get(ctx, inventory.GetInput{ID: input.EntryID})
	if err != nil {
		return nil, err
	}
	entry := entryOutput.Entry

	char, err := o.ownedCharacter(ctx, input.Session, entry.CharacterID)
	if err != nil {
		return nil, err
	}

	itemOutput, err := o.itemRepo.Get(ctx, items.GetInput{ID: entry.ItemID})
	if err != nil {
		return nil, err
	}
	item := itemOutput.Item

	if !item.IsEquippable {
		return nil, errors.FailedPreconditionf("item %s is not equippable", item.Name)
	}

	equipping := !entry.IsEquipped
	entry.IsEquipped = equipping
	updateOutput, err := o.inventoryRepo.Update(ctx, inventory.UpdateInput{Entry: entry})
	if err != nil {
		return nil, err
	}
	entry = updateOutput.Entry

	out := &ToggleEquipOutput{Entry: entry}

	if equipping {
		granted, failed, err := o.grantGatedAbilities(ctx, char.ID, entry, item.ID)
		if err != nil {
			return nil, err
		}
		out.GrantedAbilityIDs = granted
		out.FailedGrants = failed
	} else {
		revoked, err := o.revokeGatedAbilities(ctx, char.ID, entry.ID, item.ID)
		if err != nil {
			return nil, err
		}
		out.RevokedCount = revoked
	}

	stats, updatedChar, err := o.recomputeStats(ctx, char)
	if err != nil {
		return nil, err
	}
	out.Stats = stats

	o.publish(ctx, notify.Event{
		Topic:    notify.TopicCharacters,
		Type:     notify.EventEquipChanged,
		EntityID: updatedChar.ID,
		Payload: map[string]string{
			"entry_id": entry.ID,
			"item_id":  item.ID,
			"equipped": boolString(equipping),
		},
	})

	slog.Info("equip toggled",
		"character_id", char.ID,
		"entry_id", entry.ID,
		"equipped", equipping,
		"granted", len(out.GrantedAbilityIDs),
		"revoked", out.RevokedCount,
		"failed_grants", len(out.FailedGrants),
	)

	return out, nil
}

// UseConsumableInput defines the request for spending a consumable use
type UseConsumableInput struct {
	Session *entities.Session
	EntryID string
}

// UseConsumableOutput defines the response for spending a consumable use
type UseConsumableOutput struct {
	// Entry is nil when the last use deleted the entry
	Entry         *entities.InventoryEntry
	RemainingUses int32
	Deleted       bool
}

func (o *orchestrator) UseConsumable(ctx context.Context, input *UseConsumableInput) (*UseConsumableOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.EntryID == "" {
		return nil, errors.InvalidArgument("entry_id is required")
	}

	entryOutput, err := o.inventoryRepo.Get(ctx, inventory.GetInput{ID: input.EntryID})
	if err != nil {
		return nil, err
	}
	entry := entryOutput.Entry

	if _, err := o.ownedCharacter(ctx, input.Session, entry.CharacterID); err != nil {
		return nil, err
	}

	itemOutput, err := o.itemRepo.Get(ctx, items.GetInput{ID: entry.ItemID})
	if err != nil {
		return nil, err
	}
	item := itemOutput.Item

	if !item.IsConsumable {
		return nil, errors.FailedPreconditionf("item %s is not consumable", item.Name)
	}

	if entry.CurrentUses == nil {
		uses := item.StackSize
		if uses < 1 {
			uses = 1
		}
		entry.CurrentUses = &uses
	}

	*entry.CurrentUses--
	if *entry.CurrentUses <= 0 {
		// Revoke anything the entry granted before it disappears
		if _, err := o.ledgerRepo.DeleteBySource(ctx, ledger.DeleteBySourceInput{
			CharacterID: entry.CharacterID,
			SourceID:    entry.ID,
		}); err != nil {
			return nil, err
		}
		if _, err := o.inventoryRepo.Delete(ctx, inventory.DeleteInput{ID: entry.ID}); err != nil {
			return nil, err
		}
		return &UseConsumableOutput{RemainingUses: 0, Deleted: true}, nil
	}

	updateOutput, err := o.inventoryRepo.Update(ctx, inventory.UpdateInput{Entry: entry})
	if err != nil {
		return nil, err
	}

	return &UseConsumableOutput{
		Entry:         updateOutput.Entry,
		RemainingUses: *updateOutput.Entry.CurrentUses,
	}, nil
}

// GetEffectiveStatsInput defines the request for the stat aggregation read
type GetEffectiveStatsInput struct {
	Session     *entities.Session
	CharacterID string
}

// GetEffectiveStatsOutput defines the response for the stat aggregation read
type GetEffectiveStatsOutput struct {
	Character *entities.Character
	Stats     rules.EffectiveStats
}

func (o *orchestrator) GetEffectiveStats(
	ctx context.Context,
	input *GetEffectiveStatsInput,
) (*GetEffectiveStatsOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.CharacterID == "" {
		return nil, errors.InvalidArgument("character_id is required")
	}

	charOutput, err := o.characterRepo.Get(ctx, characters.GetInput{ID: input.CharacterID})
	if err != nil {
		return nil, err
	}

	equipped, err := o.equippedItems(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}

	return &GetEffectiveStatsOutput{
		Character: charOutput.Character,
		Stats:     rules.ComputeEffectiveStats(charOutput.Character, equipped),
	}, nil
}

// DeleteCharacterInput defines the request for the character cascade delete
type DeleteCharacterInput struct {
	Session     *entities.Session
	CharacterID string
}

// DeleteCharacterOutput defines the response for the character cascade delete
type DeleteCharacterOutput struct {
	// RemovedEntries is the number of inventory entries deleted
	RemovedEntries int
	// RemovedRows is the number of ledger rows deleted
	RemovedRows int
}

func (o *orchestrator) DeleteCharacter(
	ctx context.Context,
	input *DeleteCharacterInput,
) (*DeleteCharacterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.CharacterID == "" {
		return nil, errors.InvalidArgument("character_id is required")
	}

	char, err := o.ownedCharacter(ctx, input.Session, input.CharacterID)
	if err != nil {
		return nil, err
	}

	// Dependents first, character row last, so a failure partway leaves the
	// character in place and the cascade retryable.
	rows, err := o.ledgerRepo.DeleteByCharacterID(ctx, ledger.DeleteByCharacterIDInput{
		CharacterID: char.ID,
	})
	if err != nil {
		return nil, err
	}

	entries, err := o.inventoryRepo.DeleteByCharacterID(ctx, inventory.DeleteByCharacterIDInput{
		CharacterID: char.ID,
	})
	if err != nil {
		return nil, err
	}

	if _, err := o.characterRepo.Delete(ctx, characters.DeleteInput{ID: char.ID}); err != nil {
		return nil, err
	}

	slog.Info("character deleted",
		"character_id", char.ID,
		"removed_entries", entries.Deleted,
		"removed_rows", rows.Deleted,
	)

	return &DeleteCharacterOutput{
		RemovedEntries: entries.Deleted,
		RemovedRows:    rows.Deleted,
	}, nil
}

// ownedCharacter loads a character and enforces that the session owns it or
// carries the admin role.
func (o *orchestrator) ownedCharacter(
	ctx context.Context,
	session *entities.Session,
	characterID string,
) (*entities.Character, error) {
	if session == nil {
		return nil, errors.PermissionDenied("session is required")
	}

	charOutput, err := o.characterRepo.Get(ctx, characters.GetInput{ID: characterID})
	if err != nil {
		return nil, err
	}
	char := charOutput.Character

	if !session.IsAdmin() && char.PlayerID != session.UserID {
		return nil, errors.PermissionDeniedf("character %s does not belong to user %s",
			char.ID, session.UserID)
	}

	return char, nil
}

func (o *orchestrator) findStackableEntry(
	ctx context.Context,
	characterID, itemID string,
) (*entities.InventoryEntry, error) {
	listOutput, err := o.inventoryRepo.ListByCharacterID(ctx, inventory.ListByCharacterIDInput{
		CharacterID: characterID,
	})
	if err != nil {
		return nil, err
	}

	for _, entry := range listOutput.Entries {
		if entry.ItemID == itemID && !entry.IsEquipped && entry.CurrentUses == nil {
			return entry, nil
		}
	}
	return nil, nil
}

// grantLinkedAbilities grants the item's linked abilities matching the gating
// flag. Grants are idempotent per (character, ability): a character holding
// the ability from any source is skipped.
func (o *orchestrator) grantLinkedAbilities(
	ctx context.Context,
	characterID string,
	entry *entities.InventoryEntry,
	itemID string,
	requiresEquipped bool,
) ([]string, error) {
	linksOutput, err := o.itemRepo.ListAbilityLinks(ctx, items.ListAbilityLinksInput{ItemID: itemID})
	if err != nil {
		return nil, err
	}

	held, err := o.heldAbilityIDs(ctx, characterID)
	if err != nil {
		return nil, err
	}

	var granted []string
	for _, link := range linksOutput.Links {
		if link.RequiresEquipped != requiresEquipped {
			continue
		}
		if held[link.AbilityID] {
			continue
		}

		abilityOutput, err := o.abilityRepo.Get(ctx, abilities.GetInput{ID: link.AbilityID})
		if err != nil {
			return granted, errors.Wrapf(err, "failed to load linked ability %s", link.AbilityID)
		}

		if _, err := o.ledgerRepo.Create(ctx, ledger.CreateInput{
			CharacterAbility: &entities.CharacterAbility{
				ID:             o.idGen.Generate(),
				CharacterID:    characterID,
				AbilityID:      link.AbilityID,
				CurrentCharges: rules.InitialCharges(abilityOutput.Ability),
				SourceType:     entities.SourceItem,
				SourceID:       entry.ID,
			},
		}); err != nil {
			return granted, errors.Wrapf(err, "failed to grant ability %s", link.AbilityID)
		}
		held[link.AbilityID] = true
		granted = append(granted, link.AbilityID)
	}

	return granted, nil
}

// grantGatedAbilities is the equip-time grant. Individual failures do not
// roll back the toggle; they are reported in failed for the caller to retry.
// Only a wholesale failure to learn which grants the item carries is an
// error: the equip flag is already persisted at that point, so it surfaces
// as a partial write naming the half that failed.
func (o *orchestrator) grantGatedAbilities(
	ctx context.Context,
	characterID string,
	entry *entities.InventoryEntry,
	itemID string,
) (granted, failed []string, err error) {
	linksOutput, err := o.itemRepo.ListAbilityLinks(ctx, items.ListAbilityLinksInput{ItemID: itemID})
	if err != nil {
		return nil, nil, errors.DataLossf("entry %s equipped but ability links could not be listed: %v",
			entry.ID, err).
			WithMeta("failed_write", "ability_grants").
			WithMeta("entry_id", entry.ID)
	}

	held, err := o.heldAbilityIDs(ctx, characterID)
	if err != nil {
		// The gated links are known, so report every one as failed rather
		// than failing the toggle.
		slog.Warn("failed to list held abilities for equip grant",
			"character_id", characterID,
			"error", err)
		for _, link := range linksOutput.Links {
			if link.RequiresEquipped {
				failed = append(failed, link.AbilityID)
			}
		}
		return nil, failed, nil
	}

	for _, link := range linksOutput.Links {
		if !link.RequiresEquipped {
			continue
		}
		if held[link.AbilityID] {
			continue
		}

		abilityOutput, err := o.abilityRepo.Get(ctx, abilities.GetInput{ID: link.AbilityID})
		if err != nil {
			slog.Warn("equip grant failed",
				"character_id", characterID,
				"ability_id", link.AbilityID,
				"error", err)
			failed = append(failed, link.AbilityID)
			continue
		}

		if _, err := o.ledgerRepo.Create(ctx, ledger.CreateInput{
			CharacterAbility: &entities.CharacterAbility{
				ID:             o.idGen.Generate(),
				CharacterID:    characterID,
				AbilityID:      link.AbilityID,
				CurrentCharges: rules.InitialCharges(abilityOutput.Ability),
				SourceType:     entities.SourceItem,
				SourceID:       entry.ID,
			},
		}); err != nil {
			slog.Warn("equip grant failed",
				"character_id", characterID,
				"ability_id", link.AbilityID,
				"error", err)
			failed = append(failed, link.AbilityID)
			continue
		}
		held[link.AbilityID] = true
		granted = append(granted, link.AbilityID)
	}

	return granted, failed, nil
}

// revokeGatedAbilities removes the rows this entry granted for equip-gated
// links only. Non-gated grants from the same entry survive an unequip.
func (o *orchestrator) revokeGatedAbilities(
	ctx context.Context,
	characterID, entryID, itemID string,
) (int, error) {
	linksOutput, err := o.itemRepo.ListAbilityLinks(ctx, items.ListAbilityLinksInput{ItemID: itemID})
	if err != nil {
		return 0, err
	}

	gated := make(map[string]bool, len(linksOutput.Links))
	for _, link := range linksOutput.Links {
		if link.RequiresEquipped {
			gated[link.AbilityID] = true
		}
	}
	if len(gated) == 0 {
		return 0, nil
	}

	rowsOutput, err := o.ledgerRepo.ListByCharacterID(ctx, ledger.ListByCharacterIDInput{
		CharacterID: characterID,
	})
	if err != nil {
		return 0, err
	}

	revoked := 0
	for _, row := range rowsOutput.CharacterAbilities {
		if row.SourceID != entryID || !gated[row.AbilityID] {
			continue
		}
		if _, err := o.ledgerRepo.Delete(ctx, ledger.DeleteInput{ID: row.ID}); err != nil {
			return revoked, errors.Wrapf(err, "failed to revoke ability %s", row.AbilityID)
		}
		revoked++
	}

	return revoked, nil
}

func (o *orchestrator) heldAbilityIDs(ctx context.Context, characterID string) (map[string]bool, error) {
	rowsOutput, err := o.ledgerRepo.ListByCharacterID(ctx, ledger.ListByCharacterIDInput{
		CharacterID: characterID,
	})
	if err != nil {
		return nil, err
	}

	held := make(map[string]bool, len(rowsOutput.CharacterAbilities))
	for _, row := range rowsOutput.CharacterAbilities {
		held[row.AbilityID] = true
	}
	return held, nil
}

func (o *orchestrator) equippedItems(ctx context.Context, characterID string) ([]*entities.Item, error) {
	listOutput, err := o.inventoryRepo.ListByCharacterID(ctx, inventory.ListByCharacterIDInput{
		CharacterID: characterID,
	})
	if err != nil {
		return nil, err
	}

	equipped := make([]*entities.Item, 0, len(listOutput.Entries))
	for _, entry := range listOutput.Entries {
		if !entry.IsEquipped {
			continue
		}
		itemOutput, err := o.itemRepo.Get(ctx, items.GetInput{ID: entry.ItemID})
		if err != nil {
			if errors.IsNotFound(err) {
				slog.Warn("equipped entry references missing item",
					"entry_id", entry.ID,
					"item_id", entry.ItemID)
				continue
			}
			return nil, err
		}
		equipped = append(equipped, itemOutput.Item)
	}

	return equipped, nil
}

// recomputeStats derives effective stats from the current loadout. Base
// stats stay authoritative on the character row; the only persisted effect
// is clamping CurrentHP down when a lost HP modifier leaves it above the
// new effective maximum. CurrentHP is never raised retroactively.
func (o *orchestrator) recomputeStats(
	ctx context.Context,
	char *entities.Character,
) (rules.EffectiveStats, *entities.Character, error) {
	equipped, err := o.equippedItems(ctx, char.ID)
	if err != nil {
		return rules.EffectiveStats{}, nil, err
	}

	stats := rules.ComputeEffectiveStats(char, equipped)

	if char.CurrentHP > stats.MaxHP {
		delta := stats.MaxHP - char.CurrentHP
		hpOutput, err := o.characterRepo.UpdateHP(ctx, characters.UpdateHPInput{
			ID:    char.ID,
			Delta: delta,
		})
		if err != nil {
			return stats, nil, errors.Wrap(err, "failed to clamp current HP")
		}
		return stats, hpOutput.Character, nil
	}

	return stats, char, nil
}

func (o *orchestrator) publish(ctx context.Context, event notify.Event) {
	if err := o.feed.Publish(ctx, event); err != nil {
		slog.Warn("failed to publish change event",
			"topic", event.Topic,
			"type", event.Type,
			"entity_id", event.EntityID,
			"error", err)
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
