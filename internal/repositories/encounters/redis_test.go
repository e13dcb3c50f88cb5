package encounters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/campaign-api/internal/entities"
	"github.com/KirkDiggler/campaign-api/internal/errors"
	"github.com/KirkDiggler/campaign-api/internal/repositories/encounters"
	"github.com/KirkDiggler/campaign-api/internal/testutils"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	repo    encounters.Repository
	cleanup func()
	ctx     context.Context
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup

	repo, err := encounters.NewRedis(&encounters.RedisConfig{Client: client})
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.cleanup()
}

func (s *RedisRepositoryTestSuite) createEncounter(id string) *entities.Encounter {
	createOutput, err := s.repo.Create(s.ctx, encounters.CreateInput{
		Encounter: testutils.CreateTestEncounter(id),
	})
	s.Require().NoError(err)
	return createOutput.Encounter
}

func (s *RedisRepositoryTestSuite) addParticipant(
	encounterID, id, name string,
	roll *int32,
	mod int32,
) *entities.EncounterParticipant {
	addOutput, err := s.repo.AddParticipant(s.ctx, encounters.AddParticipantInput{
		Participant: &entities.EncounterParticipant{
			ID:             id,
			EncounterID:    encounterID,
			CharacterID:    "char_" + id,
			Type:           entities.ParticipantTypePlayer,
			Name:           name,
			InitiativeRoll: roll,
			InitiativeMod:  mod,
			CurrentHP:      20,
			MaxHP:          20,
			ArmorClass:     12,
		},
	})
	s.Require().NoError(err)
	return addOutput.Participant
}

func int32Ptr(v int32) *int32 { return &v }

func (s *RedisRepositoryTestSuite) TestCreate() {
	enc := s.createEncounter("enc_1")

	s.Equal(entities.EncounterStatusDraft, enc.Status)
	s.Zero(enc.Round)
	s.Zero(enc.CurrentTurn)

	s.Run("duplicate ID rejected", func() {
		_, err := s.repo.Create(s.ctx, encounters.CreateInput{
			Encounter: testutils.CreateTestEncounter("enc_1"),
		})
		s.True(errors.IsAlreadyExists(err))
	})
}

func (s *RedisRepositoryTestSuite) TestAddParticipantAssignsSeq() {
	s.createEncounter("enc_1")

	first := s.addParticipant("enc_1", "p1", "Ash", nil, 0)
	second := s.addParticipant("enc_1", "p2", "Bix", nil, 0)

	s.Less(first.Seq, second.Seq)

	s.Run("unknown encounter rejected", func() {
		_, err := s.repo.AddParticipant(s.ctx, encounters.AddParticipantInput{
			Participant: &entities.EncounterParticipant{
				ID:          "p3",
				EncounterID: "enc_none",
				Name:        "Ghost",
			},
		})
		s.True(errors.IsNotFound(err))
	})
}

func (s *RedisRepositoryTestSuite) TestStart() {
	s.createEncounter("enc_1")

	// roll+mod: A=17, B=18, C=18 -> B and C tie, C wins on higher modifier
	s.addParticipant("enc_1", "pa", "A", int32Ptr(15), 2)
	s.addParticipant("enc_1", "pb", "B", int32Ptr(18), 0)
	s.addParticipant("enc_1", "pc", "C", int32Ptr(15), 3)

	startOutput, err := s.repo.Start(s.ctx, encounters.StartInput{EncounterID: "enc_1"})
	s.Require().NoError(err)

	s.Equal(entities.EncounterStatusActive, startOutput.Encounter.Status)
	s.Equal(int32(1), startOutput.Encounter.Round)
	s.Equal(int32(1), startOutput.Encounter.CurrentTurn)
	s.NotZero(startOutput.Encounter.StartedAt)

	s.Require().Len(startOutput.Participants, 3)
	s.Equal("C", startOutput.Participants[0].Name)
	s.Equal("B", startOutput.Participants[1].Name)
	s.Equal("A", startOutput.Participants[2].Name)
	s.Equal(int32(1), startOutput.Participants[0].InitiativeOrder)
	s.Equal(int32(3), startOutput.Participants[2].InitiativeOrder)

	s.Run("active encounter cannot start again", func() {
		_, err := s.repo.Start(s.ctx, encounters.StartInput{EncounterID: "enc_1"})
		s.True(errors.IsFailedPrecondition(err))
	})
}

func (s *RedisRepositoryTestSuite) TestStartRequiresAllRolls() {
	s.createEncounter("enc_1")
	s.addParticipant("enc_1", "pa", "A", int32Ptr(12), 0)
	s.addParticipant("enc_1", "pb", "B", nil, 0)

	_, err := s.repo.Start(s.ctx, encounters.StartInput{EncounterID: "enc_1"})
	s.True(errors.IsFailedPrecondition(err))
	s.Contains(err.Error(), "B")

	// The failed start must not change the encounter
	got, err := s.repo.Get(s.ctx, encounters.GetInput{ID: "enc_1"})
	s.Require().NoError(err)
	s.Equal(entities.EncounterStatusDraft, got.Encounter.Status)
}

func (s *RedisRepositoryTestSuite) TestStartRequiresParticipants() {
	s.createEncounter("enc_1")

	_, err := s.repo.Start(s.ctx, encounters.StartInput{EncounterID: "enc_1"})
	s.True(errors.IsFailedPrecondition(err))
}

func (s *RedisRepositoryTestSuite) TestAdvanceTurnWrapsIntoNewRound() {
	s.createEncounter("enc_1")
	s.addParticipant("enc_1", "pa", "A", int32Ptr(15), 0)
	s.addParticipant("enc_1", "pb", "B", int32Ptr(10), 0)
	s.addParticipant("enc_1", "pc", "C", int32Ptr(5), 0)

	_, err := s.repo.Start(s.ctx, encounters.StartInput{EncounterID: "enc_1"})
	s.Require().NoError(err)

	// 1 -> 2 -> 3 within round 1
	for expected := int32(2); expected <= 3; expected++ {
		advanceOutput, err := s.repo.AdvanceTurn(s.ctx, encounters.AdvanceTurnInput{EncounterID: "enc_1"})
		s.Require().NoError(err)
		s.Equal(expected, advanceOutput.Encounter.CurrentTurn)
		s.Equal(int32(1), advanceOutput.Encounter.Round)
		s.False(advanceOutput.NewRound)
	}

	// Wraparound: back to turn 1, round 2
	advanceOutput, err := s.repo.AdvanceTurn(s.ctx, encounters.AdvanceTurnInput{EncounterID: "enc_1"})
	s.Require().NoError(err)
	s.Equal(int32(1), advanceOutput.Encounter.CurrentTurn)
	s.Equal(int32(2), advanceOutput.Encounter.Round)
	s.True(advanceOutput.NewRound)

	s.Run("draft encounter cannot advance", func() {
		s.createEncounter("enc_2")
		_, err := s.repo.AdvanceTurn(s.ctx, encounters.AdvanceTurnInput{EncounterID: "enc_2"})
		s.True(errors.IsFailedPrecondition(err))
	})
}

func (s *RedisRepositoryTestSuite) TestUpdateParticipantHPClamps() {
	s.createEncounter("enc_1")
	s.addParticipant("enc_1", "pa", "A", int32Ptr(10), 0)

	s.Run("healing clamps to max", func() {
		hpOutput, err := s.repo.UpdateParticipantHP(s.ctx, encounters.UpdateParticipantHPInput{
			ID:    "pa",
			Delta: 50,
		})
		s.Require().NoError(err)
		s.Equal(int32(20), hpOutput.NewHP)
	})

	s.Run("damage clamps to zero", func() {
		hpOutput, err := s.repo.UpdateParticipantHP(s.ctx, encounters.UpdateParticipantHPInput{
			ID:    "pa",
			Delta: -999,
		})
		s.Require().NoError(err)
		s.Equal(int32(0), hpOutput.NewHP)
		s.True(hpOutput.Participant.IsDown())
	})
}

func (s *RedisRepositoryTestSuite) TestComplete() {
	s.createEncounter("enc_1")
	s.addParticipant("enc_1", "pa", "A", int32Ptr(10), 0)

	s.Run("draft cannot complete", func() {
		_, err := s.repo.Complete(s.ctx, encounters.CompleteInput{EncounterID: "enc_1"})
		s.True(errors.IsFailedPrecondition(err))
	})

	_, err := s.repo.Start(s.ctx, encounters.StartInput{EncounterID: "enc_1"})
	s.Require().NoError(err)

	completeOutput, err := s.repo.Complete(s.ctx, encounters.CompleteInput{EncounterID: "enc_1"})
	s.Require().NoError(err)
	s.Equal(entities.EncounterStatusCompleted, completeOutput.Encounter.Status)
	s.NotZero(completeOutput.Encounter.CompletedAt)
	s.True(completeOutput.Encounter.IsTerminal())

	s.Run("completed cannot complete again", func() {
		_, err := s.repo.Complete(s.ctx, encounters.CompleteInput{EncounterID: "enc_1"})
		s.True(errors.IsFailedPrecondition(err))
	})
}

func (s *RedisRepositoryTestSuite) TestListParticipantsOrder() {
	s.createEncounter("enc_1")
	s.addParticipant("enc_1", "pa", "A", int32Ptr(5), 0)
	s.addParticipant("enc_1", "pb", "B", int32Ptr(20), 0)
	s.addParticipant("enc_1", "pc", "C", int32Ptr(10), 0)

	s.Run("insertion order before start", func() {
		listOutput, err := s.repo.ListParticipants(s.ctx, encounters.ListParticipantsInput{
			EncounterID: "enc_1",
		})
		s.Require().NoError(err)
		s.Require().Len(listOutput.Participants, 3)
		s.Equal("A", listOutput.Participants[0].Name)
		s.Equal("B", listOutput.Participants[1].Name)
		s.Equal("C", listOutput.Participants[2].Name)
	})

	_, err := s.repo.Start(s.ctx, encounters.StartInput{EncounterID: "enc_1"})
	s.Require().NoError(err)

	s.Run("initiative order after start", func() {
		listOutput, err := s.repo.ListParticipants(s.ctx, encounters.ListParticipantsInput{
			EncounterID: "enc_1",
		})
		s.Require().NoError(err)
		s.Require().Len(listOutput.Participants, 3)
		s.Equal("B", listOutput.Participants[0].Name)
		s.Equal("C", listOutput.Participants[1].Name)
		s.Equal("A", listOutput.Participants[2].Name)
	})
}

func (s *RedisRepositoryTestSuite) TestDeleteRemovesParticipants() {
	s.createEncounter("enc_1")
	s.addParticipant("enc_1", "pa", "A", nil, 0)

	_, err := s.repo.Delete(s.ctx, encounters.DeleteInput{ID: "enc_1"})
	s.Require().NoError(err)

	_, err = s.repo.Get(s.ctx, encounters.GetInput{ID: "enc_1"})
	s.True(errors.IsNotFound(err))

	_, err = s.repo.GetParticipant(s.ctx, encounters.GetParticipantInput{ID: "pa"})
	s.True(errors.IsNotFound(err))
}

func (s *RedisRepositoryTestSuite) TestRemoveParticipant() {
	s.createEncounter("enc_1")
	s.addParticipant("enc_1", "pa", "A", nil, 0)

	_, err := s.repo.RemoveParticipant(s.ctx, encounters.RemoveParticipantInput{ID: "pa"})
	s.Require().NoError(err)

	listOutput, err := s.repo.ListParticipants(s.ctx, encounters.ListParticipantsInput{
		EncounterID: "enc_1",
	})
	s.Require().NoError(err)
	s.Empty(listOutput.Participants)
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}
