// Package ledger provides storage for character ability rows (the ability
// ledger): which abilities a character holds, from which source, with how
// many charges left.
package ledger

import (
	"context"

	"github.com/KirkDiggler/campaign-api/internal/entities"
)

// Repository defines the storage interface for character abilities
type Repository interface {
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)
	Get(ctx context.Context, input GetInput) (*GetOutput, error)
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)
	ListByCharacterID(ctx context.Context, input ListByCharacterIDInput) (*ListByCharacterIDOutput, error)

	// DeleteBySource removes every row of a character granted by one
	// inventory entry. This is the unequip revoke: exactly what that entry
	// granted, nothing else.
	DeleteBySource(ctx context.Context, input DeleteBySourceInput) (*DeleteBySourceOutput, error)

	// DeleteByAbilityID removes every row holding an ability, across all
	// characters. Used by the ability-deletion cascade.
	DeleteByAbilityID(ctx context.Context, input DeleteByAbilityIDInput) (*DeleteByAbilityIDOutput, error)

	// DeleteByCharacterID removes every row of a character. Used by the
	// character-deletion cascade.
	DeleteByCharacterID(ctx context.Context, input DeleteByCharacterIDInput) (*DeleteByCharacterIDOutput, error)

	// ConsumeCharge decrements a row's charge counter by one against the
	// latest persisted value. Fails with FailedPrecondition when no charges
	// remain; concurrent consumers cannot drive the counter negative.
	ConsumeCharge(ctx context.Context, input ConsumeChargeInput) (*ConsumeChargeOutput, error)
}

// CreateInput defines the request for creating a ledger row
type CreateInput struct {
	CharacterAbility *entities.CharacterAbility
}

// CreateOutput defines the response for creating a ledger row
type CreateOutput struct {
	CharacterAbility *entities.CharacterAbility
}

// GetInput defines the request for retrieving a ledger row
type GetInput struct {
	ID string
}

// GetOutput defines the response for retrieving a ledger row
type GetOutput struct {
	CharacterAbility *entities.CharacterAbility
}

// UpdateInput defines the request for updating a ledger row
type UpdateInput struct {
	CharacterAbility *entities.CharacterAbility
}

// UpdateOutput defines the response for updating a ledger row
type UpdateOutput struct {
	CharacterAbility *entities.CharacterAbility
}

// DeleteInput defines the request for deleting a ledger row
type DeleteInput struct {
	ID string
}

// DeleteOutput defines the response for deleting a ledger row
type DeleteOutput struct{}

// ListByCharacterIDInput defines the request for listing a character's rows
type ListByCharacterIDInput struct {
	CharacterID string
}

// ListByCharacterIDOutput defines the response for listing a character's rows
type ListByCharacterIDOutput struct {
	CharacterAbilities []*entities.CharacterAbility
}

// DeleteBySourceInput defines the request for the unequip revoke
type DeleteBySourceInput struct {
	CharacterID string
	SourceID    string
}

// DeleteBySourceOutput defines the response for the unequip revoke
type DeleteBySourceOutput struct {
	Deleted int
}

// DeleteByAbilityIDInput defines the request for the ability cascade
type DeleteByAbilityIDInput struct {
	AbilityID string
}

// DeleteByAbilityIDOutput defines the response for the ability cascade
type DeleteByAbilityIDOutput struct {
	Deleted int
}

// DeleteByCharacterIDInput defines the request for the character cascade
type DeleteByCharacterIDInput struct {
	CharacterID string
}

// DeleteByCharacterIDOutput defines the response for the character cascade
type DeleteByCharacterIDOutput struct {
	Deleted int
}

// ConsumeChargeInput defines the request for consuming a charge
type ConsumeChargeInput struct {
	ID string
}

// ConsumeChargeOutput defines the response for consuming a charge
type ConsumeChargeOutput struct {
	CharacterAbility *entities.CharacterAbility
	NewCharges       int32
}
