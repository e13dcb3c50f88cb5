// Package encounter implements the encounter state machine: lifecycle
// transitions, participant management, initiative, turn advancement, and the
// HP dual-write against participant snapshots and their source records.
package encounter

//go:generate mockgen -destination=mock/mock_service.go -package=encountermock github.com/KirkDiggler/campaign-api/internal/orchestrators/encounter Service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/campaign-api/internal/entities"
	"github.com/KirkDiggler/campaign-api/internal/errors"
	"github.com/KirkDiggler/campaign-api/internal/notify"
	"github.com/KirkDiggler/campaign-api/internal/pkg/idgen"
	"github.com/KirkDiggler/campaign-api/internal/repositories/characters"
	"github.com/KirkDiggler/campaign-api/internal/repositories/encounters"
	"github.com/KirkDiggler/campaign-api/internal/repositories/npcs"
)

// Service defines the interface for encounter operations
type Service interface {
	// Create makes a draft encounter. Admin only.
	Create(ctx context.Context, input *CreateInput) (*CreateOutput, error)

	// Get returns an encounter with its participants in turn order
	Get(ctx context.Context, input *GetInput) (*GetOutput, error)

	// List returns all encounters
	List(ctx context.Context, input *ListInput) (*ListOutput, error)

	// Delete removes an encounter and its participants, any status. Admin only.
	Delete(ctx context.Context, input *DeleteInput) (*DeleteOutput, error)

	// AddParticipant snapshots a character or NPC into a draft or active
	// encounter. Admin only.
	AddParticipant(ctx context.Context, input *AddParticipantInput) (*AddParticipantOutput, error)

	// RemoveParticipant drops a participant before completion. Admin only.
	RemoveParticipant(ctx context.Context, input *RemoveParticipantInput) (*RemoveParticipantOutput, error)

	// SetInitiative stores a participant's raw initiative roll. Admin only.
	SetInitiative(ctx context.Context, input *SetInitiativeInput) (*SetInitiativeOutput, error)

	// RollInitiative rolls a d20 for a participant and stores it. Admin only.
	RollInitiative(ctx context.Context, input *RollInitiativeInput) (*RollInitiativeOutput, error)

	// Start ranks initiative and activates a draft encounter. Admin only.
	Start(ctx context.Context, input *StartInput) (*StartOutput, error)

	// AdvanceTurn moves to the next turn slot, wrapping into a new round.
	// Admin only.
	AdvanceTurn(ctx context.Context, input *AdvanceTurnInput) (*AdvanceTurnOutput, error)

	// ApplyHPDelta applies damage or healing to a participant snapshot and
	// mirrors it to the source record. Admin only.
	ApplyHPDelta(ctx context.Context, input *ApplyHPDeltaInput) (*ApplyHPDeltaOutput, error)

	// Complete ends an active encounter. Admin only.
	Complete(ctx context.Context, input *CompleteInput) (*CompleteOutput, error)

	// UpdateNotes edits a participant's free-text notes; allowed in any
	// encounter status. Admin only.
	UpdateNotes(ctx context.Context, input *UpdateNotesInput) (*UpdateNotesOutput, error)
}

// Config holds the dependencies for the encounter orchestrator
type Config struct {
	EncounterRepo encounters.Repository
	CharacterRepo characters.Repository
	NPCRepo       npcs.Repository
	Feed          notify.Feed
	IDGenerator   idgen.Generator
	// DiceRoller defaults to dice.DefaultRoller
	DiceRoller dice.Roller
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.EncounterRepo == nil {
		vb.RequiredField("EncounterRepo")
	}
	if c.CharacterRepo == nil {
		vb.RequiredField("CharacterRepo")
	}
	if c.NPCRepo == nil {
		vb.RequiredField("NPCRepo")
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
	encounterRepo encounters.Repository
	characterRepo characters.Repository
	npcRepo       npcs.Repository
	feed          notify.Feed
	idGen         idgen.Generator
	roller        dice.Roller
}

// NewOrchestrator creates a new encounter orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	roller := cfg.DiceRoller
	if roller == nil {
		roller = dice.DefaultRoller
	}

	return &orchestrator{
		encounterRepo: cfg.EncounterRepo,
		characterRepo: cfg.CharacterRepo,
		npcRepo:       cfg.NPCRepo,
		feed:          cfg.Feed,
		idGen:         cfg.IDGenerator,
		roller:        roller,
	}, nil
}

// CreateInput defines the request for creating an encounter
type CreateInput struct {
	Session     *entities.Session
	Name        string
	Description string
}

// CreateOutput defines the response for creating an encounter
type CreateOutput struct {
	Encounter *entities.Encounter
}

func (o *orchestrator) Create(ctx context.Context, input *CreateInput) (*CreateOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Name == "" {
		return nil, errors.InvalidArgument("name is required")
	}
	if err := requireAdmin(input.Session); err != nil {
		return nil, err
	}

	createOutput, err := o.encounterRepo.Create(ctx, encounters.CreateInput{
		Encounter: &entities.Encounter{
			ID:          o.idGen.Generate(),
			Name:        input.Name,
			Description: input.Description,
		},
	})
	if err != nil {
		return nil, err
	}

	slog.Info("encounter created",
		"encounter_id", createOutput.Encounter.ID,
		"name", input.Name,
	)

	return &CreateOutput{Encounter: createOutput.Encounter}, nil
}

// GetInput defines the request for retrieving an encounter
type GetInput struct {
	Session     *entities.Session
	EncounterID string
}

// GetOutput defines the response for retrieving an encounter
type GetOutput struct {
	Encounter    *entities.Encounter
	Participants []*entities.EncounterParticipant
}

func (o *orchestrator) Get(ctx context.Context, input *GetInput) (*GetOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.EncounterID == "" {
		return nil, errors.InvalidArgument("encounter_id is required")
	}

	encOutput, err := o.encounterRepo.Get(ctx, encounters.GetInput{ID: input.EncounterID})
	if err != nil {
		return nil, err
	}

	participantsOutput, err := o.encounterRepo.ListParticipants(ctx, encounters.ListParticipantsInput{
		EncounterID: input.EncounterID,
	})
	if err != nil {
		return nil, err
	}

	return &GetOutput{
		Encounter:    encOutput.Encounter,
		Participants: participantsOutput.Participants,
	}, nil
}

// ListInput defines the request for listing encounters
type ListInput struct {
	Session *entities.Session
}

// ListOutput defines the response for listing encounters
type ListOutput struct {
	Encounters []*entities.Encounter
}

func (o *orchestrator) List(ctx context.Context, input *ListInput) (*ListOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	listOutput, err := o.encounterRepo.List(ctx, encounters.ListInput{})
	if err != nil {
		return nil, err
	}

	return &ListOutput{Encounters: listOutput.Encounters}, nil
}

// DeleteInput defines the request for deleting an encounter
type DeleteInput struct {
	Session     *entities.Session
	EncounterID string
}

// DeleteOutput defines the response for deleting an encounter
type DeleteOutput struct{}

func (o *orchestrator) Delete(ctx context.Context, input *DeleteInput) (*DeleteOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.EncounterID == "" {
		return nil, errors.InvalidArgument("encounter_id is required")
	}
	if err := requireAdmin(input.Session); err != nil {
		return nil, err
	}

	if _, err := o.encounterRepo.Delete(ctx, encounters.DeleteInput{ID: input.EncounterID}); err != nil {
		return nil, err
	}

	o.publish(ctx, notify.Event{
		Topic:    notify.TopicEncounters,
		Type:     notify.EventEncounterState,
		EntityID: input.EncounterID,
		Payload:  map[string]string{"status": "deleted"},
	})

	return &DeleteOutput{}, nil
}

// AddParticipantInput defines the request for adding a participant.
// Exactly one of CharacterID / NPCID must be set.
type AddParticipantInput struct {
	Session     *entities.Session
	EncounterID string
	CharacterID string
	NPCID       string
	// Type overrides the default classification (player for characters,
	// enemy for NPCs)
	Type entities.ParticipantType
}

// AddParticipantOutput defines the response for adding a participant
type AddParticipantOutput struct {
	Participant *entities.EncounterParticipant
}

func (o *orchestrator) AddParticipant(
	ctx context.Context,
	input *AddParticipantInput,
) (*AddParticipantOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("encounter_id", input.EncounterID, vb)
	if (input.CharacterID == "") == (input.NPCID == "") {
		vb.Field("character_id", "exactly one of character_id and npc_id must be set")
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}
	if err := requireAdmin(input.Session); err != nil {
		return nil, err
	}

	encOutput, err := o.encounterRepo.Get(ctx, encounters.GetInput{ID: input.EncounterID})
	if err != nil {
		return nil, err
	}
	if encOutput.Encounter.IsTerminal() {
		return nil, errors.FailedPreconditionf("encounter %s is completed, participants cannot be added",
			input.EncounterID)
	}

	participant := &entities.EncounterParticipant{
		ID:          o.idGen.Generate(),
		EncounterID: input.EncounterID,
	}

	// Snapshot the source; from here on the participant is self-contained
	// and survives source deletion.
	if input.CharacterID != "" {
		charOutput, err := o.characterRepo.Get(ctx, characters.GetInput{ID: input.CharacterID})
		if err != nil {
			return nil, err
		}
		char := charOutput.Character
		participant.CharacterID = char.ID
		participant.Type = entities.ParticipantTypePlayer
		participant.Name = char.Name
		participant.InitiativeMod = char.InitiativeMod
		participant.CurrentHP = char.CurrentHP
		participant.MaxHP = char.MaxHP
		participant.ArmorClass = char.ArmorClass
	} else {
		npcOutput, err := o.npcRepo.Get(ctx, npcs.GetInput{ID: input.NPCID})
		if err != nil {
			return nil, err
		}
		npc := npcOutput.NPC
		participant.NPCID = npc.ID
		participant.Type = entities.ParticipantTypeEnemy
		participant.Name = npc.Name
		participant.InitiativeMod = npc.InitiativeMod
		participant.CurrentHP = npc.CurrentHP
		participant.MaxHP = npc.MaxHP
		participant.ArmorClass = npc.ArmorClass
	}

	if input.Type != "" {
		participant.Type = input.Type
	}

	addOutput, err := o.encounterRepo.AddParticipant(ctx, encounters.AddParticipantInput{
		Participant: participant,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("participant added",
		"encounter_id", input.EncounterID,
		"participant_id", addOutput.Participant.ID,
		"name", addOutput.Participant.Name,
	)

	return &AddParticipantOutput{Participant: addOutput.Participant}, nil
}

// RemoveParticipantInput defines the request for removing a participant
type RemoveParticipantInput struct {
	Session       *entities.Session
	ParticipantID string
}

// RemoveParticipantOutput defines the response for removing a participant
type RemoveParticipantOutput struct{}

func (o *orchestrator) RemoveParticipant(
	ctx context.Context,
	input *RemoveParticipantInput,
) (*RemoveParticipantOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.ParticipantID == "" {
		return nil, errors.InvalidArgument("participant_id is required")
	}
	if err := requireAdmin(input.Session); err != nil {
		return nil, err
	}

	participantOutput, err := o.encounterRepo.GetParticipant(ctx, encounters.GetParticipantInput{
		ID: input.ParticipantID,
	})
	if err != nil {
		return nil, err
	}

	encOutput, err := o.encounterRepo.Get(ctx, encounters.GetInput{
		ID: participantOutput.Participant.EncounterID,
	})
	if err != nil {
		return nil, err
	}
	if encOutput.Encounter.IsTerminal() {
		return nil, errors.FailedPreconditionf("encounter %s is completed, participants cannot be removed",
			encOutput.Encounter.ID)
	}

	if _, err := o.encounterRepo.RemoveParticipant(ctx, encounters.RemoveParticipantInput{
		ID: input.ParticipantID,
	}); err != nil {
		return nil, err
	}

	return &RemoveParticipantOutput{}, nil
}

// SetInitiativeInput defines the request for storing an initiative roll
type SetInitiativeInput struct {
	Session       *entities.Session
	ParticipantID string
	Roll          int32
}

// SetInitiativeOutput defines the response for storing an initiative roll
type SetInitiativeOutput struct {
	Participant *entities.EncounterParticipant
}

func (o *orchestrator) SetInitiative(ctx context.Context, input *SetInitiativeInput) (*SetInitiativeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.ParticipantID == "" {
		return nil, errors.InvalidArgument("participant_id is required")
	}
	if err := requireAdmin(input.Session); err != nil {
		return nil, err
	}

	participant, err := o.storeInitiative(ctx, input.ParticipantID, input.Roll)
	if err != nil {
		return nil, err
	}

	return &SetInitiativeOutput{Participant: participant}, nil
}

// RollInitiativeInput defines the request for the auto-roll
type RollInitiativeInput struct {
	Session       *entities.Session
	ParticipantID string
}

// RollInitiativeOutput defines the response for the auto-roll
type RollInitiativeOutput struct {
	Participant *entities.EncounterParticipant
	Roll        int32
}

func (o *orchestrator) RollInitiative(
	ctx context.Context,
	input *RollInitiativeInput,
) (*RollInitiativeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.ParticipantID == "" {
		return nil, errors.InvalidArgument("participant_id is required")
	}
	if err := requireAdmin(input.Session); err != nil {
		return nil, err
	}

	rolled, err := o.roller.Roll(20)
	if err != nil {
		return nil, errors.Wrap(err, "failed to roll initiative")
	}
	roll := int32(rolled) //nolint:gosec // d20 result

	participant, err := o.storeInitiative(ctx, input.ParticipantID, roll)
	if err != nil {
		return nil, err
	}

	return &RollInitiativeOutput{Participant: participant, Roll: roll}, nil
}

// storeInitiative is the shared path for set and auto-roll: the raw roll is
// stored as-is, the modifier applies only at ranking time.
func (o *orchestrator) storeInitiative(
	ctx context.Context,
	participantID string,
	roll int32,
) (*entities.EncounterParticipant, error) {
	participantOutput, err := o.encounterRepo.GetParticipant(ctx, encounters.GetParticipantInput{
		ID: participantID,
	})
	if err != nil {
		return nil, err
	}
	participant := participantOutput.Participant

	encOutput, err := o.encounterRepo.Get(ctx, encounters.GetInput{ID: participant.EncounterID})
	if err != nil {
		return nil, err
	}
	if encOutput.Encounter.IsTerminal() {
		return nil, errors.FailedPreconditionf("encounter %s is completed, initiative cannot change",
			encOutput.Encounter.ID)
	}

	participant.InitiativeRoll = &roll
	updateOutput, err := o.encounterRepo.UpdateParticipant(ctx, encounters.UpdateParticipantInput{
		Participant: participant,
	})
	if err != nil {
		return nil, err
	}

	return updateOutput.Participant, nil
}

// StartInput defines the request for starting an encounter
type StartInput struct {
	Session     *entities.Session
	EncounterID string
}

// StartOutput defines the response for starting an encounter
type StartOutput struct {
	Encounter    *entities.Encounter
	Participants []*entities.EncounterParticipant
}

func (o *orchestrator) Start(ctx context.Context, input *StartInput) (*StartOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.EncounterID == "" {
		return nil, errors.InvalidArgument("encounter_id is required")
	}
	if err := requireAdmin(input.Session); err != nil {
		return nil, err
	}

	startOutput, err := o.encounterRepo.Start(ctx, encounters.StartInput{EncounterID: input.EncounterID})
	if err != nil {
		return nil, err
	}

	o.publish(ctx, notify.Event{
		Topic:    notify.TopicEncounters,
		Type:     notify.EventEncounterState,
		EntityID: input.EncounterID,
		Payload:  map[string]string{"status": string(entities.EncounterStatusActive)},
	})

	slog.Info("encounter started",
		"encounter_id", input.EncounterID,
		"participants", len(startOutput.Participants),
	)

	return &StartOutput{
		Encounter:    startOutput.Encounter,
		Participants: startOutput.Participants,
	}, nil
}

// AdvanceTurnInput defines the request for advancing the turn
type AdvanceTurnInput struct {
	Session     *entities.Session
	EncounterID string
}

// AdvanceTurnOutput defines the response for advancing the turn
type AdvanceTurnOutput struct {
	Encounter *entities.Encounter
	NewRound  bool
}

func (o *orchestrator) AdvanceTurn(ctx context.Context, input *AdvanceTurnInput) (*AdvanceTurnOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.EncounterID == "" {
		return nil, errors.InvalidArgument("encounter_id is required")
	}
	if err := requireAdmin(input.Session); err != nil {
		return nil, err
	}

	advanceOutput, err := o.encounterRepo.AdvanceTurn(ctx, encounters.AdvanceTurnInput{
		EncounterID: input.EncounterID,
	})
	if err != nil {
		return nil, err
	}

	o.publish(ctx, notify.Event{
		Topic:    notify.TopicEncounters,
		Type:     notify.EventTurnAdvanced,
		EntityID: input.EncounterID,
		Payload: map[string]string{
			"round": strconv.Itoa(int(advanceOutput.Encounter.Round)),
			"turn":  strconv.Itoa(int(advanceOutput.Encounter.CurrentTurn)),
		},
	})

	return &AdvanceTurnOutput{
		Encounter: advanceOutput.Encounter,
		NewRound:  advanceOutput.NewRound,
	}, nil
}

// ApplyHPDeltaInput defines the request for a participant HP change
type ApplyHPDeltaInput struct {
	Session       *entities.Session
	ParticipantID string
	// Delta is negative for damage, positive for healing
	Delta int32
}

// ApplyHPDeltaOutput defines the response for a participant HP change
type ApplyHPDeltaOutput struct {
	Participant *entities.EncounterParticipant
	OldHP       int32
	NewHP       int32
	// Down is true when the participant hit 0 HP. Down participants keep
	// their turn slot; nothing is auto-removed.
	Down bool
}

func (o *orchestrator) ApplyHPDelta(ctx context.Context, input *ApplyHPDeltaInput) (*ApplyHPDeltaOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.ParticipantID == "" {
		return nil, errors.InvalidArgument("participant_id is required")
	}
	if err := requireAdmin(input.Session); err != nil {
		return nil, err
	}

	hpOutput, err := o.encounterRepo.UpdateParticipantHP(ctx, encounters.UpdateParticipantHPInput{
		ID:    input.ParticipantID,
		Delta: input.Delta,
	})
	if err != nil {
		return nil, err
	}
	participant := hpOutput.Participant

	out := &ApplyHPDeltaOutput{
		Participant: participant,
		OldHP:       hpOutput.OldHP,
		NewHP:       hpOutput.NewHP,
		Down:        participant.IsDown(),
	}

	o.publish(ctx, notify.Event{
		Topic:    notify.TopicEncounters,
		Type:     notify.EventParticipantHP,
		EntityID: participant.ID,
		Payload: map[string]string{
			"encounter_id": participant.EncounterID,
			"old_hp":       strconv.Itoa(int(hpOutput.OldHP)),
			"new_hp":       strconv.Itoa(int(hpOutput.NewHP)),
			"down":         strconv.FormatBool(out.Down),
		},
	})

	// Mirror the applied delta onto the source record. The snapshot write
	// already landed; a missing source just means the mirror is moot, any
	// other failure leaves the two copies diverged and must be surfaced.
	applied := hpOutput.NewHP - hpOutput.OldHP
	if applied != 0 {
		if err := o.mirrorHP(ctx, participant, applied); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (o *orchestrator) mirrorHP(
	ctx context.Context,
	participant *entities.EncounterParticipant,
	delta int32,
) error {
	switch {
	case participant.CharacterID != "":
		mirrored, err := o.characterRepo.UpdateHP(ctx, characters.UpdateHPInput{
			ID:    participant.CharacterID,
			Delta: delta,
		})
		if err != nil {
			if errors.IsNotFound(err) {
				slog.Warn("HP mirror skipped, source character deleted",
					"participant_id", participant.ID,
					"character_id", participant.CharacterID)
				return nil
			}
			return errors.DataLossf("participant %s HP updated but character mirror failed: %v",
				participant.ID, err).
				WithMeta("failed_write", "character").
				WithMeta("character_id", participant.CharacterID)
		}

		o.publish(ctx, notify.Event{
			Topic:    notify.TopicCharacters,
			Type:     notify.EventHPChanged,
			EntityID: participant.CharacterID,
			Payload: map[string]string{
				"old_hp": strconv.Itoa(int(mirrored.OldHP)),
				"new_hp": strconv.Itoa(int(mirrored.NewHP)),
			},
		})

	case participant.NPCID != "":
		if _, err := o.npcRepo.UpdateHP(ctx, npcs.UpdateHPInput{
			ID:    participant.NPCID,
			Delta: delta,
		}); err != nil {
			if errors.IsNotFound(err) {
				slog.Warn("HP mirror skipped, source NPC deleted",
					"participant_id", participant.ID,
					"npc_id", participant.NPCID)
				return nil
			}
			return errors.DataLossf("participant %s HP updated but NPC mirror failed: %v",
				participant.ID, err).
				WithMeta("failed_write", "npc").
				WithMeta("npc_id", participant.NPCID)
		}
	}

	return nil
}

// CompleteInput defines the request for completing an encounter
type CompleteInput struct {
	Session     *entities.Session
	EncounterID string
}

// CompleteOutput defines the response for completing an encounter
type CompleteOutput struct {
	Encounter *entities.Encounter
}

func (o *orchestrator) Complete(ctx context.Context, input *CompleteInput) (*CompleteOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.EncounterID == "" {
		return nil, errors.InvalidArgument("encounter_id is required")
	}
	if err := requireAdmin(input.Session); err != nil {
		return nil, err
	}

	completeOutput, err := o.encounterRepo.Complete(ctx, encounters.CompleteInput{
		EncounterID: input.EncounterID,
	})
	if err != nil {
		return nil, err
	}

	o.publish(ctx, notify.Event{
		Topic:    notify.TopicEncounters,
		Type:     notify.EventEncounterState,
		EntityID: input.EncounterID,
		Payload:  map[string]string{"status": string(entities.EncounterStatusCompleted)},
	})

	slog.Info("encounter completed", "encounter_id", input.EncounterID)

	return &CompleteOutput{Encounter: completeOutput.Encounter}, nil
}

// UpdateNotesInput defines the request for editing participant notes
type UpdateNotesInput struct {
	Session       *entities.Session
	ParticipantID string
	Notes         string
}

// UpdateNotesOutput defines the response for editing participant notes
type UpdateNotesOutput struct {
	Participant *entities.EncounterParticipant
}

func (o *orchestrator) UpdateNotes(ctx context.Context, input *UpdateNotesInput) (*UpdateNotesOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.ParticipantID == "" {
		return nil, errors.InvalidArgument("participant_id is required")
	}
	if err := requireAdmin(input.Session); err != nil {
		return nil, err
	}

	participantOutput, err := o.encounterRepo.GetParticipant(ctx, encounters.GetParticipantInput{
		ID: input.ParticipantID,
	})
	if err != nil {
		return nil, err
	}

	// Notes are the one field that stays editable after completion
	participant := participantOutput.Participant
	participant.Notes = input.Notes

	updateOutput, err := o.encounterRepo.UpdateParticipant(ctx, encounters.UpdateParticipantInput{
		Participant: participant,
	})
	if err != nil {
		return nil, err
	}

	return &UpdateNotesOutput{Participant: updateOutput.Participant}, nil
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
