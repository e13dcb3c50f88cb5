package encounter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/campaign-api/internal/entities"
	"github.com/KirkDiggler/campaign-api/internal/errors"
	notifymocks "github.com/KirkDiggler/campaign-api/internal/notify/mocks"
	"github.com/KirkDiggler/campaign-api/internal/orchestrators/encounter"
	"github.com/KirkDiggler/campaign-api/internal/pkg/idgen"
	"github.com/KirkDiggler/campaign-api/internal/repositories/characters"
	"github.com/KirkDiggler/campaign-api/internal/repositories/encounters"
	"github.com/KirkDiggler/campaign-api/internal/repositories/npcs"
	"github.com/KirkDiggler/campaign-api/internal/testutils"
)

// fixedRoller always returns the same result, so initiative auto-rolls are
// deterministic in tests.
type fixedRoller struct {
	result int
}

func (r *fixedRoller) Roll(_ int) (int, error) { return r.result, nil }

func (r *fixedRoller) RollN(count, _ int) ([]int, error) {
	results := make([]int, count)
	for i := range results {
		results[i] = r.result
	}
	return results, nil
}

type OrchestratorTestSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	svc           encounter.Service
	encounterRepo encounters.Repository
	characterRepo characters.Repository
	npcRepo       npcs.Repository
	cleanup       func()
	ctx           context.Context
	admin         *entities.Session
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup
	s.ctx = context.Background()
	s.admin = testutils.AdminSession()

	var err error
	s.encounterRepo, err = encounters.NewRedis(&encounters.RedisConfig{Client: client})
	s.Require().NoError(err)
	s.characterRepo, err = characters.NewRedis(&characters.RedisConfig{Client: client})
	s.Require().NoError(err)
	s.npcRepo, err = npcs.NewRedis(&npcs.RedisConfig{Client: client})
	s.Require().NoError(err)

	feed := notifymocks.NewMockFeed(s.ctrl)
	feed.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s.svc, err = encounter.NewOrchestrator(&encounter.Config{
		EncounterRepo: s.encounterRepo,
		CharacterRepo: s.characterRepo,
		NPCRepo:       s.npcRepo,
		Feed:          feed,
		IDGenerator:   idgen.NewSequential("part"),
		DiceRoller:    &fixedRoller{result: 12},
	})
	s.Require().NoError(err)

	_, err = s.characterRepo.Create(s.ctx, characters.CreateInput{
		Character: testutils.CreateTestCharacter(""),
	})
	s.Require().NoError(err)
	_, err = s.npcRepo.Create(s.ctx, npcs.CreateInput{NPC: testutils.CreateTestNPC("")})
	s.Require().NoError(err)
}

func (s *OrchestratorTestSuite) TearDownTest() {
	s.cleanup()
	s.ctrl.Finish()
}

func (s *OrchestratorTestSuite) createEncounter() *entities.Encounter {
	createOutput, err := s.svc.Create(s.ctx, &encounter.CreateInput{
		Session: s.admin,
		Name:    "Warehouse Ambush",
	})
	s.Require().NoError(err)
	return createOutput.Encounter
}

func (s *OrchestratorTestSuite) addCharacter(encounterID string) *entities.EncounterParticipant {
	addOutput, err := s.svc.AddParticipant(s.ctx, &encounter.AddParticipantInput{
		Session:     s.admin,
		EncounterID: encounterID,
		CharacterID: testutils.TestCharacterID,
	})
	s.Require().NoError(err)
	return addOutput.Participant
}

func (s *OrchestratorTestSuite) addNPC(encounterID string) *entities.EncounterParticipant {
	addOutput, err := s.svc.AddParticipant(s.ctx, &encounter.AddParticipantInput{
		Session:     s.admin,
		EncounterID: encounterID,
		NPCID:       testutils.TestNPCID,
	})
	s.Require().NoError(err)
	return addOutput.Participant
}

func (s *OrchestratorTestSuite) setInitiative(participantID string, roll int32) {
	_, err := s.svc.SetInitiative(s.ctx, &encounter.SetInitiativeInput{
		Session:       s.admin,
		ParticipantID: participantID,
		Roll:          roll,
	})
	s.Require().NoError(err)
}

func (s *OrchestratorTestSuite) TestCreateRequiresAdmin() {
	_, err := s.svc.Create(s.ctx, &encounter.CreateInput{
		Session: testutils.PlayerSession(),
		Name:    "Warehouse Ambush",
	})
	s.True(errors.IsPermissionDenied(err))
}

func (s *OrchestratorTestSuite) TestAddParticipantSnapshots() {
	enc := s.createEncounter()

	participant := s.addCharacter(enc.ID)
	s.Equal(entities.ParticipantTypePlayer, participant.Type)
	s.Equal("Rook Castellan", participant.Name)
	s.Equal(int32(3), participant.InitiativeMod)
	s.Equal(int32(24), participant.CurrentHP)
	s.Equal(int32(24), participant.MaxHP)
	s.Equal(int32(14), participant.ArmorClass)
	s.Nil(participant.InitiativeRoll)

	npc := s.addNPC(enc.ID)
	s.Equal(entities.ParticipantTypeEnemy, npc.Type)
	s.Equal("Corp Security Guard", npc.Name)
	s.Equal(int32(16), npc.MaxHP)

	s.Run("both sources rejected", func() {
		_, err := s.svc.AddParticipant(s.ctx, &encounter.AddParticipantInput{
			Session:     s.admin,
			EncounterID: enc.ID,
			CharacterID: testutils.TestCharacterID,
			NPCID:       testutils.TestNPCID,
		})
		s.True(errors.IsInvalidArgument(err))
	})

	s.Run("neither source rejected", func() {
		_, err := s.svc.AddParticipant(s.ctx, &encounter.AddParticipantInput{
			Session:     s.admin,
			EncounterID: enc.ID,
		})
		s.True(errors.IsInvalidArgument(err))
	})
}

func (s *OrchestratorTestSuite) TestRollInitiative() {
	enc := s.createEncounter()
	participant := s.addCharacter(enc.ID)

	rollOutput, err := s.svc.RollInitiative(s.ctx, &encounter.RollInitiativeInput{
		Session:       s.admin,
		ParticipantID: participant.ID,
	})
	s.Require().NoError(err)

	s.Equal(int32(12), rollOutput.Roll)
	s.Require().NotNil(rollOutput.Participant.InitiativeRoll)
	s.Equal(int32(12), *rollOutput.Participant.InitiativeRoll)
}

func (s *OrchestratorTestSuite) TestLifecycle() {
	enc := s.createEncounter()
	char := s.addCharacter(enc.ID)
	npc := s.addNPC(enc.ID)

	// char: 10+3=13, npc: 14+1=15 -> npc acts first
	s.setInitiative(char.ID, 10)
	s.setInitiative(npc.ID, 14)

	startOutput, err := s.svc.Start(s.ctx, &encounter.StartInput{
		Session:     s.admin,
		EncounterID: enc.ID,
	})
	s.Require().NoError(err)

	s.Equal(entities.EncounterStatusActive, startOutput.Encounter.Status)
	s.Require().Len(startOutput.Participants, 2)
	s.Equal(npc.ID, startOutput.Participants[0].ID)
	s.Equal(char.ID, startOutput.Participants[1].ID)

	s.Run("initiative stays editable while active", func() {
		s.setInitiative(char.ID, 18)
	})

	advanceOutput, err := s.svc.AdvanceTurn(s.ctx, &encounter.AdvanceTurnInput{
		Session:     s.admin,
		EncounterID: enc.ID,
	})
	s.Require().NoError(err)
	s.Equal(int32(2), advanceOutput.Encounter.CurrentTurn)
	s.False(advanceOutput.NewRound)

	wrapOutput, err := s.svc.AdvanceTurn(s.ctx, &encounter.AdvanceTurnInput{
		Session:     s.admin,
		EncounterID: enc.ID,
	})
	s.Require().NoError(err)
	s.Equal(int32(1), wrapOutput.Encounter.CurrentTurn)
	s.Equal(int32(2), wrapOutput.Encounter.Round)
	s.True(wrapOutput.NewRound)

	completeOutput, err := s.svc.Complete(s.ctx, &encounter.CompleteInput{
		Session:     s.admin,
		EncounterID: enc.ID,
	})
	s.Require().NoError(err)
	s.Equal(entities.EncounterStatusCompleted, completeOutput.Encounter.Status)

	s.Run("completed encounter rejects mutations", func() {
		_, err := s.svc.AdvanceTurn(s.ctx, &encounter.AdvanceTurnInput{
			Session:     s.admin,
			EncounterID: enc.ID,
		})
		s.True(errors.IsFailedPrecondition(err))

		_, err = s.svc.SetInitiative(s.ctx, &encounter.SetInitiativeInput{
			Session:       s.admin,
			ParticipantID: char.ID,
			Roll:          5,
		})
		s.True(errors.IsFailedPrecondition(err))

		_, err = s.svc.AddParticipant(s.ctx, &encounter.AddParticipantInput{
			Session:     s.admin,
			EncounterID: enc.ID,
			NPCID:       testutils.TestNPCID,
		})
		s.True(errors.IsFailedPrecondition(err))
	})

	s.Run("notes stay editable after completion", func() {
		notesOutput, err := s.svc.UpdateNotes(s.ctx, &encounter.UpdateNotesInput{
			Session:       s.admin,
			ParticipantID: char.ID,
			Notes:         "fled through the loading dock",
		})
		s.Require().NoError(err)
		s.Equal("fled through the loading dock", notesOutput.Participant.Notes)
	})
}

func (s *OrchestratorTestSuite) TestApplyHPDeltaMirrorsToCharacter() {
	enc := s.createEncounter()
	char := s.addCharacter(enc.ID)

	hpOutput, err := s.svc.ApplyHPDelta(s.ctx, &encounter.ApplyHPDeltaInput{
		Session:       s.admin,
		ParticipantID: char.ID,
		Delta:         -10,
	})
	s.Require().NoError(err)

	s.Equal(int32(24), hpOutput.OldHP)
	s.Equal(int32(14), hpOutput.NewHP)
	s.False(hpOutput.Down)

	// The snapshot change mirrors onto the source character
	charOutput, err := s.characterRepo.Get(s.ctx, characters.GetInput{ID: testutils.TestCharacterID})
	s.Require().NoError(err)
	s.Equal(int32(14), charOutput.Character.CurrentHP)
}

func (s *OrchestratorTestSuite) TestApplyHPDeltaMirrorsToNPC() {
	enc := s.createEncounter()
	npc := s.addNPC(enc.ID)

	hpOutput, err := s.svc.ApplyHPDelta(s.ctx, &encounter.ApplyHPDeltaInput{
		Session:       s.admin,
		ParticipantID: npc.ID,
		Delta:         -999,
	})
	s.Require().NoError(err)
	s.Zero(hpOutput.NewHP)
	s.True(hpOutput.Down)

	npcOutput, err := s.npcRepo.Get(s.ctx, npcs.GetInput{ID: testutils.TestNPCID})
	s.Require().NoError(err)
	s.Zero(npcOutput.NPC.CurrentHP)
}

func (s *OrchestratorTestSuite) TestApplyHPDeltaSkipsMirrorForDeletedSource() {
	enc := s.createEncounter()
	char := s.addCharacter(enc.ID)

	_, err := s.characterRepo.Delete(s.ctx, characters.DeleteInput{ID: testutils.TestCharacterID})
	s.Require().NoError(err)

	// The snapshot still updates; the missing source is logged and skipped
	hpOutput, err := s.svc.ApplyHPDelta(s.ctx, &encounter.ApplyHPDeltaInput{
		Session:       s.admin,
		ParticipantID: char.ID,
		Delta:         -5,
	})
	s.Require().NoError(err)
	s.Equal(int32(19), hpOutput.NewHP)
}

func (s *OrchestratorTestSuite) TestApplyHPDeltaClampedToNoopSkipsMirror() {
	enc := s.createEncounter()
	char := s.addCharacter(enc.ID)

	// Healing at full HP clamps to zero applied change
	hpOutput, err := s.svc.ApplyHPDelta(s.ctx, &encounter.ApplyHPDeltaInput{
		Session:       s.admin,
		ParticipantID: char.ID,
		Delta:         10,
	})
	s.Require().NoError(err)
	s.Equal(hpOutput.OldHP, hpOutput.NewHP)

	charOutput, err := s.characterRepo.Get(s.ctx, characters.GetInput{ID: testutils.TestCharacterID})
	s.Require().NoError(err)
	s.Equal(int32(24), charOutput.Character.CurrentHP)
}

func (s *OrchestratorTestSuite) TestGetReturnsParticipantsInOrder() {
	enc := s.createEncounter()
	char := s.addCharacter(enc.ID)
	npc := s.addNPC(enc.ID)

	s.setInitiative(char.ID, 5)
	s.setInitiative(npc.ID, 19)

	_, err := s.svc.Start(s.ctx, &encounter.StartInput{Session: s.admin, EncounterID: enc.ID})
	s.Require().NoError(err)

	getOutput, err := s.svc.Get(s.ctx, &encounter.GetInput{
		Session:     s.admin,
		EncounterID: enc.ID,
	})
	s.Require().NoError(err)

	s.Require().Len(getOutput.Participants, 2)
	s.Equal(npc.ID, getOutput.Participants[0].ID)
	s.Equal(char.ID, getOutput.Participants[1].ID)
}

func (s *OrchestratorTestSuite) TestAdminOnlyMutations() {
	enc := s.createEncounter()
	char := s.addCharacter(enc.ID)
	player := testutils.PlayerSession()

	_, err := s.svc.AddParticipant(s.ctx, &encounter.AddParticipantInput{
		Session:     player,
		EncounterID: enc.ID,
		NPCID:       testutils.TestNPCID,
	})
	s.True(errors.IsPermissionDenied(err))

	_, err = s.svc.SetInitiative(s.ctx, &encounter.SetInitiativeInput{
		Session:       player,
		ParticipantID: char.ID,
		Roll:          10,
	})
	s.True(errors.IsPermissionDenied(err))

	_, err = s.svc.Start(s.ctx, &encounter.StartInput{Session: player, EncounterID: enc.ID})
	s.True(errors.IsPermissionDenied(err))

	_, err = s.svc.ApplyHPDelta(s.ctx, &encounter.ApplyHPDeltaInput{
		Session:       player,
		ParticipantID: char.ID,
		Delta:         -1,
	})
	s.True(errors.IsPermissionDenied(err))

	_, err = s.svc.Delete(s.ctx, &encounter.DeleteInput{Session: player, EncounterID: enc.ID})
	s.True(errors.IsPermissionDenied(err))
}

func (s *OrchestratorTestSuite) TestDeleteRemovesEncounter() {
	enc := s.createEncounter()
	s.addCharacter(enc.ID)

	_, err := s.svc.Delete(s.ctx, &encounter.DeleteInput{
		Session:     s.admin,
		EncounterID: enc.ID,
	})
	s.Require().NoError(err)

	_, err = s.svc.Get(s.ctx, &encounter.GetInput{Session: s.admin, EncounterID: enc.ID})
	s.True(errors.IsNotFound(err))
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
