package items_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/campaign-api/internal/entities"
	"github.com/KirkDiggler/campaign-api/internal/errors"
	"github.com/KirkDiggler/campaign-api/internal/repositories/items"
	"github.com/KirkDiggler/campaign-api/internal/testutils"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	repo    items.Repository
	cleanup func()
	ctx     context.Context
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup

	repo, err := items.NewRedis(&items.RedisConfig{Client: client})
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.cleanup()
}

func (s *RedisRepositoryTestSuite) TestCreateValidatesSkillBonuses() {
	s.Run("valid skills accepted", func() {
		item := testutils.CreateTestItem("item_1")
		item.SkillBonuses = map[string]int32{"stealth": 2, "hacking": 1}

		_, err := s.repo.Create(s.ctx, items.CreateInput{Item: item})
		s.NoError(err)
	})

	s.Run("unknown skill rejected", func() {
		item := testutils.CreateTestItem("item_2")
		item.SkillBonuses = map[string]int32{"basket_weaving": 3}

		_, err := s.repo.Create(s.ctx, items.CreateInput{Item: item})
		s.True(errors.IsInvalidArgument(err))
	})
}

func (s *RedisRepositoryTestSuite) TestAbilityLinks() {
	item := testutils.CreateTestItem("item_1")
	_, err := s.repo.Create(s.ctx, items.CreateInput{Item: item})
	s.Require().NoError(err)

	_, err = s.repo.AddAbilityLink(s.ctx, items.AddAbilityLinkInput{
		Link: entities.ItemAbilityLink{ItemID: "item_1", AbilityID: "ab_1", RequiresEquipped: true},
	})
	s.Require().NoError(err)
	_, err = s.repo.AddAbilityLink(s.ctx, items.AddAbilityLinkInput{
		Link: entities.ItemAbilityLink{ItemID: "item_1", AbilityID: "ab_2"},
	})
	s.Require().NoError(err)

	linksOutput, err := s.repo.ListAbilityLinks(s.ctx, items.ListAbilityLinksInput{ItemID: "item_1"})
	s.Require().NoError(err)
	s.Len(linksOutput.Links, 2)

	s.Run("re-adding a link replaces its gating flag", func() {
		_, err := s.repo.AddAbilityLink(s.ctx, items.AddAbilityLinkInput{
			Link: entities.ItemAbilityLink{ItemID: "item_1", AbilityID: "ab_1", RequiresEquipped: false},
		})
		s.Require().NoError(err)

		linksOutput, err := s.repo.ListAbilityLinks(s.ctx, items.ListAbilityLinksInput{ItemID: "item_1"})
		s.Require().NoError(err)
		s.Require().Len(linksOutput.Links, 2)
		for _, link := range linksOutput.Links {
			if link.AbilityID == "ab_1" {
				s.False(link.RequiresEquipped)
			}
		}
	})

	s.Run("reverse lookup finds linking items", func() {
		itemsOutput, err := s.repo.ListItemsForAbility(s.ctx, items.ListItemsForAbilityInput{
			AbilityID: "ab_1",
		})
		s.Require().NoError(err)
		s.Equal([]string{"item_1"}, itemsOutput.ItemIDs)
	})

	s.Run("removing a link updates both directions", func() {
		_, err := s.repo.RemoveAbilityLink(s.ctx, items.RemoveAbilityLinkInput{
			ItemID:    "item_1",
			AbilityID: "ab_1",
		})
		s.Require().NoError(err)

		linksOutput, err := s.repo.ListAbilityLinks(s.ctx, items.ListAbilityLinksInput{ItemID: "item_1"})
		s.Require().NoError(err)
		s.Len(linksOutput.Links, 1)

		itemsOutput, err := s.repo.ListItemsForAbility(s.ctx, items.ListItemsForAbilityInput{
			AbilityID: "ab_1",
		})
		s.Require().NoError(err)
		s.Empty(itemsOutput.ItemIDs)
	})
}

func (s *RedisRepositoryTestSuite) TestDeleteClearsLinks() {
	item := testutils.CreateTestItem("item_1")
	_, err := s.repo.Create(s.ctx, items.CreateInput{Item: item})
	s.Require().NoError(err)

	_, err = s.repo.AddAbilityLink(s.ctx, items.AddAbilityLinkInput{
		Link: entities.ItemAbilityLink{ItemID: "item_1", AbilityID: "ab_1", RequiresEquipped: true},
	})
	s.Require().NoError(err)

	_, err = s.repo.Delete(s.ctx, items.DeleteInput{ID: "item_1"})
	s.Require().NoError(err)

	_, err = s.repo.Get(s.ctx, items.GetInput{ID: "item_1"})
	s.True(errors.IsNotFound(err))

	itemsOutput, err := s.repo.ListItemsForAbility(s.ctx, items.ListItemsForAbilityInput{
		AbilityID: "ab_1",
	})
	s.Require().NoError(err)
	s.Empty(itemsOutput.ItemIDs)
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}
