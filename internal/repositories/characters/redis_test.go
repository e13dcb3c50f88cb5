package characters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/campaign-api/internal/errors"
	"github.com/KirkDiggler/campaign-api/internal/repositories/characters"
	"github.com/KirkDiggler/campaign-api/internal/testutils"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	repo    characters.Repository
	cleanup func()
	ctx     context.Context
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup

	repo, err := characters.NewRedis(&characters.RedisConfig{Client: client})
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.cleanup()
}

func (s *RedisRepositoryTestSuite) TestCreateAndGet() {
	char := testutils.CreateTestCharacter("char_1")

	created, err := s.repo.Create(s.ctx, characters.CreateInput{Character: char})
	s.Require().NoError(err)
	s.NotZero(created.Character.CreatedAt)

	got, err := s.repo.Get(s.ctx, characters.GetInput{ID: "char_1"})
	s.Require().NoError(err)
	s.Equal("Rook Castellan", got.Character.Name)
	s.Equal(int32(24), got.Character.MaxHP)

	s.Run("duplicate ID rejected", func() {
		_, err := s.repo.Create(s.ctx, characters.CreateInput{
			Character: testutils.CreateTestCharacter("char_1"),
		})
		s.True(errors.IsAlreadyExists(err))
	})
}

func (s *RedisRepositoryTestSuite) TestListByPlayerID() {
	first := testutils.CreateTestCharacter("char_1")
	second := testutils.CreateTestCharacter("char_2")
	second.PlayerID = "player-other"

	_, err := s.repo.Create(s.ctx, characters.CreateInput{Character: first})
	s.Require().NoError(err)
	_, err = s.repo.Create(s.ctx, characters.CreateInput{Character: second})
	s.Require().NoError(err)

	listOutput, err := s.repo.ListByPlayerID(s.ctx, characters.ListByPlayerIDInput{
		PlayerID: testutils.TestPlayerID,
	})
	s.Require().NoError(err)
	s.Require().Len(listOutput.Characters, 1)
	s.Equal("char_1", listOutput.Characters[0].ID)
}

func (s *RedisRepositoryTestSuite) TestUpdateHP() {
	char := testutils.CreateTestCharacter("char_1")
	char.CurrentHP = 10
	_, err := s.repo.Create(s.ctx, characters.CreateInput{Character: char})
	s.Require().NoError(err)

	s.Run("damage applies", func() {
		hpOutput, err := s.repo.UpdateHP(s.ctx, characters.UpdateHPInput{ID: "char_1", Delta: -4})
		s.Require().NoError(err)
		s.Equal(int32(10), hpOutput.OldHP)
		s.Equal(int32(6), hpOutput.NewHP)
	})

	s.Run("healing clamps to max", func() {
		hpOutput, err := s.repo.UpdateHP(s.ctx, characters.UpdateHPInput{ID: "char_1", Delta: 100})
		s.Require().NoError(err)
		s.Equal(int32(24), hpOutput.NewHP)
	})

	s.Run("damage clamps to zero", func() {
		hpOutput, err := s.repo.UpdateHP(s.ctx, characters.UpdateHPInput{ID: "char_1", Delta: -999})
		s.Require().NoError(err)
		s.Equal(int32(0), hpOutput.NewHP)
	})

	s.Run("missing character is not found", func() {
		_, err := s.repo.UpdateHP(s.ctx, characters.UpdateHPInput{ID: "char_none", Delta: -1})
		s.True(errors.IsNotFound(err))
	})
}

func (s *RedisRepositoryTestSuite) TestDelete() {
	_, err := s.repo.Create(s.ctx, characters.CreateInput{
		Character: testutils.CreateTestCharacter("char_1"),
	})
	s.Require().NoError(err)

	_, err = s.repo.Delete(s.ctx, characters.DeleteInput{ID: "char_1"})
	s.Require().NoError(err)

	_, err = s.repo.Get(s.ctx, characters.GetInput{ID: "char_1"})
	s.True(errors.IsNotFound(err))

	listOutput, err := s.repo.ListByPlayerID(s.ctx, characters.ListByPlayerIDInput{
		PlayerID: testutils.TestPlayerID,
	})
	s.Require().NoError(err)
	s.Empty(listOutput.Characters)
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}
