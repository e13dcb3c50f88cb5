// Package items provides storage for item templates and item-ability links
package items

import (
	"context"

	"github.com/KirkDiggler/campaign-api/internal/entities"
)

// Repository defines the storage interface for item templates and the links
// tying abilities to items.
type Repository interface {
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)
	Get(ctx context.Context, input GetInput) (*GetOutput, error)
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)
	List(ctx context.Context, input ListInput) (*ListOutput, error)

	// AddAbilityLink links an ability to an item. Adding an existing link
	// replaces its RequiresEquipped flag.
	AddAbilityLink(ctx context.Context, input AddAbilityLinkInput) (*AddAbilityLinkOutput, error)

	// RemoveAbilityLink removes a link
	RemoveAbilityLink(ctx context.Context, input RemoveAbilityLinkInput) (*RemoveAbilityLinkOutput, error)

	// ListAbilityLinks returns all ability links for an item
	ListAbilityLinks(ctx context.Context, input ListAbilityLinksInput) (*ListAbilityLinksOutput, error)

	// ListItemsForAbility returns the IDs of items linking an ability.
	// Used by the ability-deletion cascade.
	ListItemsForAbility(ctx context.Context, input ListItemsForAbilityInput) (*ListItemsForAbilityOutput, error)
}

// CreateInput defines the request for creating an item
type CreateInput struct {
	Item *entities.Item
}

// CreateOutput defines the response for creating an item
type CreateOutput struct {
	Item *entities.Item
}

// GetInput defines the request for retrieving an item
type GetInput struct {
	ID string
}

// GetOutput defines the response for retrieving an item
type GetOutput struct {
	Item *entities.Item
}

// UpdateInput defines the request for updating an item
type UpdateInput struct {
	Item *entities.Item
}

// UpdateOutput defines the response for updating an item
type UpdateOutput struct {
	Item *entities.Item
}

// DeleteInput defines the request for deleting an item
type DeleteInput struct {
	ID string
}

// DeleteOutput defines the response for deleting an item
type DeleteOutput struct{}

// ListInput defines the request for listing items
type ListInput struct{}

// ListOutput defines the response for listing items
type ListOutput struct {
	Items []*entities.Item
}

// AddAbilityLinkInput defines the request for linking an ability to an item
type AddAbilityLinkInput struct {
	Link entities.ItemAbilityLink
}

// AddAbilityLinkOutput defines the response for linking an ability to an item
type AddAbilityLinkOutput struct {
	Link entities.ItemAbilityLink
}

// RemoveAbilityLinkInput defines the request for removing a link
type RemoveAbilityLinkInput struct {
	ItemID    string
	AbilityID string
}

// RemoveAbilityLinkOutput defines the response for removing a link
type RemoveAbilityLinkOutput struct{}

// ListAbilityLinksInput defines the request for listing an item's links
type ListAbilityLinksInput struct {
	ItemID string
}

// ListAbilityLinksOutput defines the response for listing an item's links
type ListAbilityLinksOutput struct {
	Links []entities.ItemAbilityLink
}

// ListItemsForAbilityInput defines the request for the reverse link lookup
type ListItemsForAbilityInput struct {
	AbilityID string
}

// ListItemsForAbilityOutput defines the response for the reverse link lookup
type ListItemsForAbilityOutput struct {
	ItemIDs []string
}
