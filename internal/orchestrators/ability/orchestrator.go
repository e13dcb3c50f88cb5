// Package ability implements the ability ledger operations: charge spending,
// rest restoration, GM replenishment, grants, and the ability-deletion
// cascade.
package ability

//go:generate mockgen -destination=mock/mock_service.go -package=abilitymock github.com/KirkDiggler/campaign-api/internal/orchestrators/ability Service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/KirkDiggler/campaign-api/internal/entities"
	"github.com/KirkDiggler/campaign-api/internal/errors"
	"github.com/KirkDiggler/campaign-api/internal/notify"
	"github.com/KirkDiggler/campaign-api/internal/pkg/idgen"
	"github.com/KirkDiggler/campaign-api/internal/repositories/abilities"
	"github.com/KirkDiggler/campaign-api/internal/repositories/characters"
	"github.com/KirkDiggler/campaign-api/internal/repositories/items"
	"github.com/KirkDiggler/campaign-api/internal/repositories/ledger"
	"github.com/KirkDiggler/campaign-api/internal/rules"
)

// Service defines the interface for ability ledger operations
type Service interface {
	// UseCharge spends one charge of a held ability. Infinite abilities
	// always succeed and mutate nothing.
	UseCharge(ctx context.Context, input *UseChargeInput) (*UseChargeOutput, error)

	// Rest applies the charge-restoration policy to every ability a
	// character holds.
	Rest(ctx context.Context, input *RestInput) (*RestOutput, error)

	// RestoreCharges is the GM replenish for abilities rests never touch.
	// Admin only.
	RestoreCharges(ctx context.Context, input *RestoreChargesInput) (*RestoreChargesOutput, error)

	// GrantAbility gives a character an ability from a class or temporary
	// source. Admin only; item grants flow through the equip lifecycle.
	GrantAbility(ctx context.Context, input *GrantAbilityInput) (*GrantAbilityOutput, error)

	// DeleteAbility removes an ability template and cascades over item
	// links and every character holding it. Admin only.
	DeleteAbility(ctx context.Context, input *DeleteAbilityInput) (*DeleteAbilityOutput, error)
}

// Config holds the dependencies for the ability orchestrator
type Config struct {
	CharacterRepo characters.Repository
	AbilityRepo   abilities.Repository
	LedgerRepo    ledger.Repository
	ItemRepo      items.Repository
	Feed          notify.Feed
	IDGenerator   idgen.Generator
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.CharacterRepo == nil {
		vb.RequiredField("CharacterRepo")
	}
	if c.AbilityRepo == nil {
		vb.RequiredField("AbilityRepo")
	}
	if c.LedgerRepo == nil {
		vb.RequiredField("LedgerRepo")
	}
	if c.ItemRepo == nil {
		vb.RequiredField("ItemRepo")
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
	abilityRepo   abilities.Repository
	ledgerRepo    ledger.Repository
	itemRepo      items.Repository
	feed          notify.Feed
	idGen         idgen.Generator
}

// NewOrchestrator creates a new ability orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &orchestrator{
		characterRepo: cfg.CharacterRepo,
		abilityRepo:   cfg.AbilityRepo,
		ledgerRepo:    cfg.LedgerRepo,
		itemRepo:      cfg.ItemRepo,
		feed:          cfg.Feed,
		idGen:         cfg.IDGenerator,
	}, nil
}

// UseChargeInput defines the request for spending a charge
type UseChargeInput struct {
	Session            *entities.Session
	CharacterAbilityID string
}

// UseChargeOutput defines the response for spending a charge
type UseChargeOutput struct {
	CharacterAbility *entities.CharacterAbility
	// RemainingCharges is meaningless for infinite abilities
	RemainingCharges int32
	Infinite         bool
}

func (o *orchestrator) UseCharge(ctx context.Context, input *UseChargeInput) (*UseChargeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.CharacterAbilityID == "" {
		return nil, errors.InvalidArgument("character_ability_id is required")
	}

	rowOutput, err := o.ledgerRepo.Get(ctx, ledger.GetInput{ID: input.CharacterAbilityID})
	if err != nil {
		return nil, err
	}
	row := rowOutput.CharacterAbility

	if err := o.checkOwnership(ctx, input.Session, row.CharacterID); err != nil {
		return nil, err
	}

	abilityOutput, err := o.abilityRepo.Get(ctx, abilities.GetInput{ID: row.AbilityID})
	if err != nil {
		return nil, err
	}
	tmpl := abilityOutput.Ability

	if tmpl.ChargeType == entities.ChargeTypeInfinite {
		return &UseChargeOutput{CharacterAbility: row, Infinite: true}, nil
	}

	// Fast-path check for a friendlier error; the CAS decrement below is the
	// authoritative guard under concurrency.
	if !rules.CanUseCharge(tmpl, row.CurrentCharges) {
		return nil, errors.FailedPreconditionf("no charges remaining for %s", tmpl.Name)
	}

	consumed, err := o.ledgerRepo.ConsumeCharge(ctx, ledger.ConsumeChargeInput{ID: row.ID})
	if err != nil {
		return nil, err
	}

	o.publish(ctx, notify.Event{
		Topic:    notify.TopicAbilities,
		Type:     notify.EventChargeConsumed,
		EntityID: row.ID,
		Payload: map[string]string{
			"character_id": row.CharacterID,
			"ability_id":   row.AbilityID,
			"remaining":    strconv.Itoa(int(consumed.NewCharges)),
		},
	})

	return &UseChargeOutput{
		CharacterAbility: consumed.CharacterAbility,
		RemainingCharges: consumed.NewCharges,
	}, nil
}

// RestInput defines the request for a rest
type RestInput struct {
	Session     *entities.Session
	CharacterID string
	RestType    entities.RestType
}

// RestOutput defines the response for a rest
type RestOutput struct {
	// Restored maps ledger row IDs to their post-rest charge counts,
	// only for rows the rest changed
	Restored map[string]int32
}

func (o *orchestrator) Rest(ctx context.Context, input *RestInput) (*RestOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("character_id", input.CharacterID, vb)
	errors.ValidateEnum("rest_type", string(input.RestType),
		[]string{string(entities.RestTypeShort), string(entities.RestTypeLong)}, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}

	if err := o.checkOwnership(ctx, input.Session, input.CharacterID); err != nil {
		return nil, err
	}

	rowsOutput, err := o.ledgerRepo.ListByCharacterID(ctx, ledger.ListByCharacterIDInput{
		CharacterID: input.CharacterID,
	})
	if err != nil {
		return nil, err
	}

	restored := make(map[string]int32)
	for _, row := range rowsOutput.CharacterAbilities {
		abilityOutput, err := o.abilityRepo.Get(ctx, abilities.GetInput{ID: row.AbilityID})
		if err != nil {
			if errors.IsNotFound(err) {
				slog.Warn("ledger row references missing ability",
					"row_id", row.ID,
					"ability_id", row.AbilityID)
				continue
			}
			return nil, err
		}

		after := rules.RestoreAmount(abilityOutput.Ability, row.CurrentCharges, input.RestType)
		if after == row.CurrentCharges {
			continue
		}

		row.CurrentCharges = after
		if _, err := o.ledgerRepo.Update(ctx, ledger.UpdateInput{CharacterAbility: row}); err != nil {
			return nil, errors.Wrapf(err, "failed to restore charges for row %s", row.ID)
		}
		restored[row.ID] = after
	}

	o.publish(ctx, notify.Event{
		Topic:    notify.TopicAbilities,
		Type:     notify.EventChargesRestored,
		EntityID: input.CharacterID,
		Payload: map[string]string{
			"rest_type": string(input.RestType),
			"restored":  strconv.Itoa(len(restored)),
		},
	})

	slog.Info("rest applied",
		"character_id", input.CharacterID,
		"rest_type", input.RestType,
		"restored", len(restored),
	)

	return &RestOutput{Restored: restored}, nil
}

// RestoreChargesInput defines the request for a GM replenish
type RestoreChargesInput struct {
	Session            *entities.Session
	CharacterAbilityID string
	Charges            int32
}

// RestoreChargesOutput defines the response for a GM replenish
type RestoreChargesOutput struct {
	CharacterAbility *entities.CharacterAbility
}

func (o *orchestrator) RestoreCharges(
	ctx context.Context,
	input *RestoreChargesInput,
) (*RestoreChargesOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.CharacterAbilityID == "" {
		return nil, errors.InvalidArgument("character_ability_id is required")
	}
	if err := requireAdmin(input.Session); err != nil {
		return nil, err
	}

	rowOutput, err := o.ledgerRepo.Get(ctx, ledger.GetInput{ID: input.CharacterAbilityID})
	if err != nil {
		return nil, err
	}
	row := rowOutput.CharacterAbility

	abilityOutput, err := o.abilityRepo.Get(ctx, abilities.GetInput{ID: row.AbilityID})
	if err != nil {
		return nil, err
	}
	tmpl := abilityOutput.Ability

	if tmpl.ChargeType == entities.ChargeTypeInfinite {
		return nil, errors.FailedPreconditionf("ability %s tracks no charges", tmpl.Name)
	}

	row.CurrentCharges = rules.ClampCharges(input.Charges, tmpl.MaxCharges)
	updateOutput, err := o.ledgerRepo.Update(ctx, ledger.UpdateInput{CharacterAbility: row})
	if err != nil {
		return nil, err
	}

	o.publish(ctx, notify.Event{
		Topic:    notify.TopicAbilities,
		Type:     notify.EventChargesRestored,
		EntityID: row.ID,
		Payload: map[string]string{
			"character_id": row.CharacterID,
			"ability_id":   row.AbilityID,
			"charges":      strconv.Itoa(int(row.CurrentCharges)),
		},
	})

	return &RestoreChargesOutput{CharacterAbility: updateOutput.CharacterAbility}, nil
}

// GrantAbilityInput defines the request for a class/temporary grant
type GrantAbilityInput struct {
	Session     *entities.Session
	CharacterID string
	AbilityID   string
	Source      entities.AbilitySource
}

// GrantAbilityOutput defines the response for a class/temporary grant
type GrantAbilityOutput struct {
	CharacterAbility *entities.CharacterAbility
}

func (o *orchestrator) GrantAbility(ctx context.Context, input *GrantAbilityInput) (*GrantAbilityOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("character_id", input.CharacterID, vb)
	errors.ValidateRequired("ability_id", input.AbilityID, vb)
	errors.ValidateEnum("source", string(input.Source),
		[]string{string(entities.SourceClass), string(entities.SourceTemporary)}, vb)
	if err := vb.Build(); err != nil {
		return nil, err
	}
	if err := requireAdmin(input.Session); err != nil {
		return nil, err
	}

	if _, err := o.characterRepo.Get(ctx, characters.GetInput{ID: input.CharacterID}); err != nil {
		return nil, err
	}

	abilityOutput, err := o.abilityRepo.Get(ctx, abilities.GetInput{ID: input.AbilityID})
	if err != nil {
		return nil, err
	}

	rowsOutput, err := o.ledgerRepo.ListByCharacterID(ctx, ledger.ListByCharacterIDInput{
		CharacterID: input.CharacterID,
	})
	if err != nil {
		return nil, err
	}
	for _, row := range rowsOutput.CharacterAbilities {
		if row.AbilityID == input.AbilityID && row.SourceType == input.Source {
			return nil, errors.AlreadyExistsf("character %s already holds ability %s from source %s",
				input.CharacterID, input.AbilityID, input.Source)
		}
	}

	createOutput, err := o.ledgerRepo.Create(ctx, ledger.CreateInput{
		CharacterAbility: &entities.CharacterAbility{
			ID:             o.idGen.Generate(),
			CharacterID:    input.CharacterID,
			AbilityID:      input.AbilityID,
			CurrentCharges: rules.InitialCharges(abilityOutput.Ability),
			SourceType:     input.Source,
		},
	})
	if err != nil {
		return nil, err
	}

	slog.Info("ability granted",
		"character_id", input.CharacterID,
		"ability_id", input.AbilityID,
		"source", input.Source,
	)

	return &GrantAbilityOutput{CharacterAbility: createOutput.CharacterAbility}, nil
}

// DeleteAbilityInput defines the request for the ability-deletion cascade
type DeleteAbilityInput struct {
	Session   *entities.Session
	AbilityID string
}

// DeleteAbilityOutput defines the response for the ability-deletion cascade
type DeleteAbilityOutput struct {
	// RemovedLinks is the number of item links removed
	RemovedLinks int
	// RemovedRows is the number of ledger rows removed
	RemovedRows int
}

func (o *orchestrator) DeleteAbility(ctx context.Context, input *DeleteAbilityInput) (*DeleteAbilityOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.AbilityID == "" {
		return nil, errors.InvalidArgument("ability_id is required")
	}
	if err := requireAdmin(input.Session); err != nil {
		return nil, err
	}

	if _, err := o.abilityRepo.Get(ctx, abilities.GetInput{ID: input.AbilityID}); err != nil {
		return nil, err
	}

	// Cascade order: item links first, then held rows, then the template.
	// A failure partway leaves the template in place so the cascade can be
	// retried.
	itemsOutput, err := o.itemRepo.ListItemsForAbility(ctx, items.ListItemsForAbilityInput{
		AbilityID: input.AbilityID,
	})
	if err != nil {
		return nil, err
	}

	removedLinks := 0
	for _, itemID := range itemsOutput.ItemIDs {
		if _, err := o.itemRepo.RemoveAbilityLink(ctx, items.RemoveAbilityLinkInput{
			ItemID:    itemID,
			AbilityID: input.AbilityID,
		}); err != nil {
			return nil, errors.Wrapf(err, "failed to unlink ability from item %s", itemID)
		}
		removedLinks++
	}

	rowsOutput, err := o.ledgerRepo.DeleteByAbilityID(ctx, ledger.DeleteByAbilityIDInput{
		AbilityID: input.AbilityID,
	})
	if err != nil {
		return nil, err
	}

	if _, err := o.abilityRepo.Delete(ctx, abilities.DeleteInput{ID: input.AbilityID}); err != nil {
		return nil, err
	}

	slog.Info("ability deleted",
		"ability_id", input.AbilityID,
		"removed_links", removedLinks,
		"removed_rows", rowsOutput.Deleted,
	)

	return &DeleteAbilityOutput{RemovedLinks: removedLinks, RemovedRows: rowsOutput.Deleted}, nil
}

func (o *orchestrator) checkOwnership(
	ctx context.Context,
	session *entities.Session,
	characterID string,
) error {
	if session == nil {
		return errors.PermissionDenied("session is required")
	}
	if session.IsAdmin() {
		return nil
	}

	charOutput, err := o.characterRepo.Get(ctx, characters.GetInput{ID: characterID})
	if err != nil {
		return err
	}
	if charOutput.Character.PlayerID != session.UserID {
		return errors.PermissionDeniedf("character %s does not belong to user %s",
			characterID, session.UserID)
	}
	return nil
}

func requireAdmin(session *entities.Session) error {
	if session == nil {
		return errors.PermissionDenied("session is required")
	}
	if !session.IsAdmin() {
		return errors.PermissionDeniedf("user %s lacks the admin role", session.UserID)
	}
	return nil
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
