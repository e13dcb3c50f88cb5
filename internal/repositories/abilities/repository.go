// Package abilities provides storage for ability templates
package abilities

import (
	"context"

	"github.com/KirkDiggler/campaign-api/internal/entities"
)

// Repository defines the storage interface for ability templates
type Repository interface {
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)
	Get(ctx context.Context, input GetInput) (*GetOutput, error)
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)
	List(ctx context.Context, input ListInput) (*ListOutput, error)
}

// CreateInput defines the request for creating an ability
type CreateInput struct {
	Ability *entities.Ability
}

// CreateOutput defines the response for creating an ability
type CreateOutput struct {
	Ability *entities.Ability
}

// GetInput defines the request for retrieving an ability
type GetInput struct {
	ID string
}

// GetOutput defines the response for retrieving an ability
type GetOutput struct {
	Ability *entities.Ability
}

// UpdateInput defines the request for updating an ability
type UpdateInput struct {
	Ability *entities.Ability
}

// UpdateOutput defines the response for updating an ability
type UpdateOutput struct {
	Ability *entities.Ability
}

// DeleteInput defines the request for deleting an ability
type DeleteInput struct {
	ID string
}

// DeleteOutput defines the response for deleting an ability
type DeleteOutput struct{}

// ListInput defines the request for listing abilities
type ListInput struct{}

// ListOutput defines the response for listing abilities
type ListOutput struct {
	Abilities []*entities.Ability
}
