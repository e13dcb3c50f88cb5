package items

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/campaign-api/internal/entities"
	"github.com/KirkDiggler/campaign-api/internal/errors"
	"github.com/KirkDiggler/campaign-api/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/campaign-api/internal/redis"
)

const (
	itemKeyPrefix      = "item:"
	itemIndexKey       = "item:all"
	linksKeyPrefix     = "item:links:"
	abilityIndexPrefix = "ability:items:"

	errItemNil        = "item cannot be nil"
	errItemIDEmpty    = "item ID cannot be empty"
	errAbilityIDEmpty = "ability ID cannot be empty"
)

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// RedisConfig contains configuration for the Redis item repository.
type RedisConfig struct {
	Client redisclient.Client
	Clock  clock.Clock
}

// Validate validates the RedisConfig.
func (cfg *RedisConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.InvalidArgument("client cannot be nil")
	}
	return nil
}

// NewRedis creates a new Redis-backed item repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  c,
	}, nil
}

func itemKey(id string) string {
	return itemKeyPrefix + id
}

func linksKey(itemID string) string {
	return linksKeyPrefix + itemID
}

// validateSkillBonuses rejects skill keys outside the closed vocabulary.
// This is the boundary where item data enters the system; the aggregator
// itself never validates.
func validateSkillBonuses(bonuses map[string]int32) error {
	vb := errors.NewValidationBuilder()
	for skill := range bonuses {
		if !entities.IsValidSkill(skill) {
			vb.InvalidField("SkillBonuses", "unknown skill "+skill)
		}
	}
	return vb.Build()
}

func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.Item == nil {
		return nil, errors.InvalidArgument(errItemNil)
	}
	if input.Item.ID == "" {
		return nil, errors.InvalidArgument(errItemIDEmpty)
	}
	if err := validateSkillBonuses(input.Item.SkillBonuses); err != nil {
		return nil, err
	}

	key := itemKey(input.Item.ID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check existence")
	}
	if exists > 0 {
		return nil, errors.AlreadyExistsf("item with ID %s already exists", input.Item.ID)
	}

	now := r.clock.Now().Unix()
	input.Item.CreatedAt = now
	input.Item.UpdatedAt = now

	data, err := json.Marshal(input.Item)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal item data")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, itemIndexKey, input.Item.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to create item")
	}

	return &CreateOutput{Item: input.Item}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errItemIDEmpty)
	}

	result, err := r.client.Get(ctx, itemKey(input.ID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("item with ID %s not found", input.ID)
		}
		return nil, errors.Wrapf(err, "failed to get item")
	}

	var item entities.Item
	if err := json.Unmarshal([]byte(result), &item); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal item data")
	}

	return &GetOutput{Item: &item}, nil
}

func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.Item == nil {
		return nil, errors.InvalidArgument(errItemNil)
	}
	if input.Item.ID == "" {
		return nil, errors.InvalidArgument(errItemIDEmpty)
	}
	if err := validateSkillBonuses(input.Item.SkillBonuses); err != nil {
		return nil, err
	}

	existing, err := r.Get(ctx, GetInput{ID: input.Item.ID})
	if err != nil {
		return nil, err
	}

	input.Item.CreatedAt = existing.Item.CreatedAt
	input.Item.UpdatedAt = r.clock.Now().Unix()

	data, err := json.Marshal(input.Item)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal item data")
	}

	if err := r.client.Set(ctx, itemKey(input.Item.ID), data, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to update item")
	}

	return &UpdateOutput{Item: input.Item}, nil
}

func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errItemIDEmpty)
	}

	if _, err := r.Get(ctx, GetInput{ID: input.ID}); err != nil {
		return nil, err
	}

	links, err := r.ListAbilityLinks(ctx, ListAbilityLinksInput{ItemID: input.ID})
	if err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, itemKey(input.ID))
	pipe.Del(ctx, linksKey(input.ID))
	pipe.SRem(ctx, itemIndexKey, input.ID)
	for _, link := range links.Links {
		pipe.SRem(ctx, abilityIndexPrefix+link.AbilityID, input.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to delete item")
	}

	return &DeleteOutput{}, nil
}

func (r *redisRepository) List(ctx context.Context, _ ListInput) (*ListOutput, error) {
	ids, err := r.client.SMembers(ctx, itemIndexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read item index")
	}

	itemList := make([]*entities.Item, 0, len(ids))
	for _, id := range ids {
		getOutput, err := r.Get(ctx, GetInput{ID: id})
		if err != nil {
			if errors.IsNotFound(err) {
				r.client.SRem(ctx, itemIndexKey, id)
				continue
			}
			return nil, errors.Wrapf(err, "failed to get item %s", id)
		}
		itemList = append(itemList, getOutput.Item)
	}

	return &ListOutput{Items: itemList}, nil
}

func (r *redisRepository) AddAbilityLink(
	ctx context.Context,
	input AddAbilityLinkInput,
) (*AddAbilityLinkOutput, error) {
	if input.Link.ItemID == "" {
		return nil, errors.InvalidArgument(errItemIDEmpty)
	}
	if input.Link.AbilityID == "" {
		return nil, errors.InvalidArgument(errAbilityIDEmpty)
	}

	if _, err := r.Get(ctx, GetInput{ID: input.Link.ItemID}); err != nil {
		return nil, err
	}

	existing, err := r.ListAbilityLinks(ctx, ListAbilityLinksInput{ItemID: input.Link.ItemID})
	if err != nil {
		return nil, err
	}

	links := make([]entities.ItemAbilityLink, 0, len(existing.Links)+1)
	for _, link := range existing.Links {
		if link.AbilityID != input.Link.AbilityID {
			links = append(links, link)
		}
	}
	links = append(links, input.Link)

	if err := r.writeLinks(ctx, input.Link.ItemID, links); err != nil {
		return nil, err
	}
	if err := r.client.SAdd(ctx, abilityIndexPrefix+input.Link.AbilityID, input.Link.ItemID).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to index ability link")
	}

	return &AddAbilityLinkOutput{Link: input.Link}, nil
}

func (r *redisRepository) RemoveAbilityLink(
	ctx context.Context,
	input RemoveAbilityLinkInput,
) (*RemoveAbilityLinkOutput, error) {
	if input.ItemID == "" {
		return nil, errors.InvalidArgument(errItemIDEmpty)
	}
	if input.AbilityID == "" {
		return nil, errors.InvalidArgument(errAbilityIDEmpty)
	}

	existing, err := r.ListAbilityLinks(ctx, ListAbilityLinksInput{ItemID: input.ItemID})
	if err != nil {
		return nil, err
	}

	links := make([]entities.ItemAbilityLink, 0, len(existing.Links))
	for _, link := range existing.Links {
		if link.AbilityID != input.AbilityID {
			links = append(links, link)
		}
	}

	if err := r.writeLinks(ctx, input.ItemID, links); err != nil {
		return nil, err
	}
	if err := r.client.SRem(ctx, abilityIndexPrefix+input.AbilityID, input.ItemID).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to unindex ability link")
	}

	return &RemoveAbilityLinkOutput{}, nil
}

func (r *redisRepository) ListAbilityLinks(
	ctx context.Context,
	input ListAbilityLinksInput,
) (*ListAbilityLinksOutput, error) {
	if input.ItemID == "" {
		return nil, errors.InvalidArgument(errItemIDEmpty)
	}

	result, err := r.client.Get(ctx, linksKey(input.ItemID)).Result()
	if err != nil {
		if err == redis.Nil {
			return &ListAbilityLinksOutput{}, nil
		}
		return nil, errors.Wrapf(err, "failed to get ability links")
	}

	var links []entities.ItemAbilityLink
	if err := json.Unmarshal([]byte(result), &links); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal ability links")
	}

	return &ListAbilityLinksOutput{Links: links}, nil
}

func (r *redisRepository) ListItemsForAbility(
	ctx context.Context,
	input ListItemsForAbilityInput,
) (*ListItemsForAbilityOutput, error) {
	if input.AbilityID == "" {
		return nil, errors.InvalidArgument(errAbilityIDEmpty)
	}

	ids, err := r.client.SMembers(ctx, abilityIndexPrefix+input.AbilityID).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read ability link index")
	}

	return &ListItemsForAbilityOutput{ItemIDs: ids}, nil
}

func (r *redisRepository) writeLinks(ctx context.Context, itemID string, links []entities.ItemAbilityLink) error {
	if len(links) == 0 {
		if err := r.client.Del(ctx, linksKey(itemID)).Err(); err != nil {
			return errors.Wrapf(err, "failed to clear ability links")
		}
		return nil
	}

	data, err := json.Marshal(links)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal ability links")
	}
	if err := r.client.Set(ctx, linksKey(itemID), data, 0).Err(); err != nil {
		return errors.Wrapf(err, "failed to write ability links")
	}
	return nil
}
