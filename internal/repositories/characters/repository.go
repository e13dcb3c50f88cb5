// Package characters provides storage for player characters
package characters

import (
	"context"

	"github.com/KirkDiggler/campaign-api/internal/entities"
)

// Repository defines the storage interface for characters
type Repository interface {
	// Create stores a new character
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)

	// Get retrieves a character by ID
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Update replaces an existing character
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)

	// Delete removes a character. Cascading (inventory, ledger) is the
	// orchestrator's job; this only removes the row and its indexes.
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)

	// ListByPlayerID returns all characters owned by a player
	ListByPlayerID(ctx context.Context, input ListByPlayerIDInput) (*ListByPlayerIDOutput, error)

	// UpdateHP applies a read-modify-write HP change against the latest
	// persisted row, clamped to [0, MaxHP]. Used by the encounter HP mirror.
	UpdateHP(ctx context.Context, input UpdateHPInput) (*UpdateHPOutput, error)
}

// CreateInput defines the request for creating a character
type CreateInput struct {
	Character *entities.Character
}

// CreateOutput defines the response for creating a character
type CreateOutput struct {
	Character *entities.Character
}

// GetInput defines the request for retrieving a character
type GetInput struct {
	ID string
}

// GetOutput defines the response for retrieving a character
type GetOutput struct {
	Character *entities.Character
}

// UpdateInput defines the request for updating a character
type UpdateInput struct {
	Character *entities.Character
}

// UpdateOutput defines the response for updating a character
type UpdateOutput struct {
	Character *entities.Character
}

// DeleteInput defines the request for deleting a character
type DeleteInput struct {
	ID string
}

// DeleteOutput defines the response for deleting a character
type DeleteOutput struct{}

// ListByPlayerIDInput defines the request for listing a player's characters
type ListByPlayerIDInput struct {
	PlayerID string
}

// ListByPlayerIDOutput defines the response for listing a player's characters
type ListByPlayerIDOutput struct {
	Characters []*entities.Character
}

// UpdateHPInput defines the request for a conditional HP write
type UpdateHPInput struct {
	ID string
	// Delta is signed: negative damage, positive healing
	Delta int32
}

// UpdateHPOutput defines the response for a conditional HP write
type UpdateHPOutput struct {
	Character *entities.Character
	OldHP     int32
	NewHP     int32
}
