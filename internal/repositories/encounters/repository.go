// Package encounters provides storage for encounters and their participants,
// including the atomic lifecycle procedures (start, advance turn, complete)
// that must not interleave across concurrent callers.
package encounters

import (
	"context"

	"github.com/KirkDiggler/campaign-api/internal/entities"
)

// Repository defines the storage interface for encounters
type Repository interface {
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)
	Get(ctx context.Context, input GetInput) (*GetOutput, error)
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)
	List(ctx context.Context, input ListInput) (*ListOutput, error)

	AddParticipant(ctx context.Context, input AddParticipantInput) (*AddParticipantOutput, error)
	GetParticipant(ctx context.Context, input GetParticipantInput) (*GetParticipantOutput, error)
	UpdateParticipant(ctx context.Context, input UpdateParticipantInput) (*UpdateParticipantOutput, error)
	RemoveParticipant(ctx context.Context, input RemoveParticipantInput) (*RemoveParticipantOutput, error)
	ListParticipants(ctx context.Context, input ListParticipantsInput) (*ListParticipantsOutput, error)

	// Start ranks the initiative order and flips the encounter from draft to
	// active in one atomic step. Every participant must have a roll.
	Start(ctx context.Context, input StartInput) (*StartOutput, error)

	// AdvanceTurn moves to the next turn slot, rolling the round over on
	// wraparound. Atomic against concurrent advances.
	AdvanceTurn(ctx context.Context, input AdvanceTurnInput) (*AdvanceTurnOutput, error)

	// UpdateParticipantHP applies a signed delta to a participant snapshot,
	// clamped to [0, max]. Atomic against concurrent deltas.
	UpdateParticipantHP(ctx context.Context, input UpdateParticipantHPInput) (*UpdateParticipantHPOutput, error)

	// Complete flips an active encounter to completed. Terminal.
	Complete(ctx context.Context, input CompleteInput) (*CompleteOutput, error)
}

// CreateInput defines the request for creating an encounter
type CreateInput struct {
	Encounter *entities.Encounter
}

// CreateOutput defines the response for creating an encounter
type CreateOutput struct {
	Encounter *entities.Encounter
}

// GetInput defines the request for retrieving an encounter
type GetInput struct {
	ID string
}

// GetOutput defines the response for retrieving an encounter
type GetOutput struct {
	Encounter *entities.Encounter
}

// UpdateInput defines the request for updating an encounter
type UpdateInput struct {
	Encounter *entities.Encounter
}

// UpdateOutput defines the response for updating an encounter
type UpdateOutput struct {
	Encounter *entities.Encounter
}

// DeleteInput defines the request for deleting an encounter
type DeleteInput struct {
	ID string
}

// DeleteOutput defines the response for deleting an encounter
type DeleteOutput struct{}

// ListInput defines the request for listing encounters
type ListInput struct{}

// ListOutput defines the response for listing encounters
type ListOutput struct {
	Encounters []*entities.Encounter
}

// AddParticipantInput defines the request for adding a participant
type AddParticipantInput struct {
	Participant *entities.EncounterParticipant
}

// AddParticipantOutput defines the response for adding a participant
type AddParticipantOutput struct {
	Participant *entities.EncounterParticipant
}

// GetParticipantInput defines the request for retrieving a participant
type GetParticipantInput struct {
	ID string
}

// GetParticipantOutput defines the response for retrieving a participant
type GetParticipantOutput struct {
	Participant *entities.EncounterParticipant
}

// UpdateParticipantInput defines the request for updating a participant
type UpdateParticipantInput struct {
	Participant *entities.EncounterParticipant
}

// UpdateParticipantOutput defines the response for updating a participant
type UpdateParticipantOutput struct {
	Participant *entities.EncounterParticipant
}

// RemoveParticipantInput defines the request for removing a participant
type RemoveParticipantInput struct {
	ID string
}

// RemoveParticipantOutput defines the response for removing a participant
type RemoveParticipantOutput struct{}

// ListParticipantsInput defines the request for listing participants
type ListParticipantsInput struct {
	EncounterID string
}

// ListParticipantsOutput defines the response for listing participants.
// Participants are ordered by initiative order when assigned, insertion
// order otherwise.
type ListParticipantsOutput struct {
	Participants []*entities.EncounterParticipant
}

// StartInput defines the request for starting an encounter
type StartInput struct {
	EncounterID string
}

// StartOutput defines the response for starting an encounter
type StartOutput struct {
	Encounter *entities.Encounter
	// Participants in assigned initiative order
	Participants []*entities.EncounterParticipant
}

// AdvanceTurnInput defines the request for advancing the turn
type AdvanceTurnInput struct {
	EncounterID string
}

// AdvanceTurnOutput defines the response for advancing the turn
type AdvanceTurnOutput struct {
	Encounter *entities.Encounter
	// NewRound is true when the turn wrapped and the round incremented
	NewRound bool
}

// UpdateParticipantHPInput defines the request for a participant HP delta
type UpdateParticipantHPInput struct {
	ID    string
	Delta int32
}

// UpdateParticipantHPOutput defines the response for a participant HP delta
type UpdateParticipantHPOutput struct {
	Participant *entities.EncounterParticipant
	OldHP       int32
	NewHP       int32
}

// CompleteInput defines the request for completing an encounter
type CompleteInput struct {
	EncounterID string
}

// CompleteOutput defines the response for completing an encounter
type CompleteOutput struct {
	Encounter *entities.Encounter
}
