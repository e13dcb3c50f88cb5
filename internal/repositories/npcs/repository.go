// Package npcs provides storage for non-player characters
package npcs

import (
	"context"

	"github.com/KirkDiggler/campaign-api/internal/entities"
)

// Repository defines the storage interface for NPCs
type Repository interface {
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)
	Get(ctx context.Context, input GetInput) (*GetOutput, error)
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)
	List(ctx context.Context, input ListInput) (*ListOutput, error)

	// UpdateHP applies a clamped HP delta against the latest persisted row.
	// Used by the encounter HP mirror.
	UpdateHP(ctx context.Context, input UpdateHPInput) (*UpdateHPOutput, error)
}

// CreateInput defines the request for creating an NPC
type CreateInput struct {
	NPC *entities.NPC
}

// CreateOutput defines the response for creating an NPC
type CreateOutput struct {
	NPC *entities.NPC
}

// GetInput defines the request for retrieving an NPC
type GetInput struct {
	ID string
}

// GetOutput defines the response for retrieving an NPC
type GetOutput struct {
	NPC *entities.NPC
}

// UpdateInput defines the request for updating an NPC
type UpdateInput struct {
	NPC *entities.NPC
}

// UpdateOutput defines the response for updating an NPC
type UpdateOutput struct {
	NPC *entities.NPC
}

// DeleteInput defines the request for deleting an NPC
type DeleteInput struct {
	ID string
}

// DeleteOutput defines the response for deleting an NPC
type DeleteOutput struct{}

// ListInput defines the request for listing NPCs
type ListInput struct{}

// ListOutput defines the response for listing NPCs
type ListOutput struct {
	NPCs []*entities.NPC
}

// UpdateHPInput defines the request for a conditional HP write
type UpdateHPInput struct {
	ID    string
	Delta int32
}

// UpdateHPOutput defines the response for a conditional HP write
type UpdateHPOutput struct {
	NPC   *entities.NPC
	OldHP int32
	NewHP int32
}
