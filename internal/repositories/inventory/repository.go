// Package inventory provides storage for character inventory entries
package inventory

import (
	"context"

	"github.com/KirkDiggler/campaign-api/internal/entities"
)

// Repository defines the storage interface for inventory entries
type Repository interface {
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)
	Get(ctx context.Context, input GetInput) (*GetOutput, error)
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)
	ListByCharacterID(ctx context.Context, input ListByCharacterIDInput) (*ListByCharacterIDOutput, error)

	// DeleteByCharacterID removes every entry of a character. Used by the
	// character-deletion cascade.
	DeleteByCharacterID(ctx context.Context, input DeleteByCharacterIDInput) (*DeleteByCharacterIDOutput, error)
}

// CreateInput defines the request for creating an entry
type CreateInput struct {
	Entry *entities.InventoryEntry
}

// CreateOutput defines the response for creating an entry
type CreateOutput struct {
	Entry *entities.InventoryEntry
}

// GetInput defines the request for retrieving an entry
type GetInput struct {
	ID string
}

// GetOutput defines the response for retrieving an entry
type GetOutput struct {
	Entry *entities.InventoryEntry
}

// UpdateInput defines the request for updating an entry
type UpdateInput struct {
	Entry *entities.InventoryEntry
}

// UpdateOutput defines the response for updating an entry
type UpdateOutput struct {
	Entry *entities.InventoryEntry
}

// DeleteInput defines the request for deleting an entry
type DeleteInput struct {
	ID string
}

// DeleteOutput defines the response for deleting an entry
type DeleteOutput struct{}

// ListByCharacterIDInput defines the request for listing a character's entries
type ListByCharacterIDInput struct {
	CharacterID string
}

// ListByCharacterIDOutput defines the response for listing a character's entries
type ListByCharacterIDOutput struct {
	Entries []*entities.InventoryEntry
}

// DeleteByCharacterIDInput defines the request for the cascade delete
type DeleteByCharacterIDInput struct {
	CharacterID string
}

// DeleteByCharacterIDOutput defines the response for the cascade delete
type DeleteByCharacterIDOutput struct {
	Deleted int
}
