package abilities

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
	abilityKeyPrefix = "ability:"
	abilityIndexKey  = "ability:all"

	errAbilityNil     = "ability cannot be nil"
	errAbilityIDEmpty = "ability ID cannot be empty"
)

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// RedisConfig contains configuration for the Redis ability repository.
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

// NewRedis creates a new Redis-backed ability repository
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

func abilityKey(id string) string {
	return abilityKeyPrefix + id
}

func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.Ability == nil {
		return nil, errors.InvalidArgument(errAbilityNil)
	}
	if input.Ability.ID == "" {
		return nil, errors.InvalidArgument(errAbilityIDEmpty)
	}

	key := abilityKey(input.Ability.ID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check existence")
	}
	if exists > 0 {
		return nil, errors.AlreadyExistsf("ability with ID %s already exists", input.Ability.ID)
	}

	now := r.clock.Now().Unix()
	input.Ability.CreatedAt = now
	input.Ability.UpdatedAt = now

	data, err := json.Marshal(input.Ability)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal ability data")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, abilityIndexKey, input.Ability.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to create ability")
	}

	return &CreateOutput{Ability: input.Ability}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errAbilityIDEmpty)
	}

	result, err := r.client.Get(ctx, abilityKey(input.ID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("ability with ID %s not found", input.ID)
		}
		return nil, errors.Wrapf(err, "failed to get ability")
	}

	var ability entities.Ability
	if err := json.Unmarshal([]byte(result), &ability); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal ability data")
	}

	return &GetOutput{Ability: &ability}, nil
}

func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.Ability == nil {
		return nil, errors.InvalidArgument(errAbilityNil)
	}
	if input.Ability.ID == "" {
		return nil, errors.InvalidArgument(errAbilityIDEmpty)
	}

	existing, err := r.Get(ctx, GetInput{ID: input.Ability.ID})
	if err != nil {
		return nil, err
	}

	input.Ability.CreatedAt = existing.Ability.CreatedAt
	input.Ability.UpdatedAt = r.clock.Now().Unix()

	data, err := json.Marshal(input.Ability)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal ability data")
	}

	if err := r.client.Set(ctx, abilityKey(input.Ability.ID), data, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to update ability")
	}

	return &UpdateOutput{Ability: input.Ability}, nil
}

func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errAbilityIDEmpty)
	}

	if _, err := r.Get(ctx, GetInput{ID: input.ID}); err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, abilityKey(input.ID))
	pipe.SRem(ctx, abilityIndexKey, input.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to delete ability")
	}

	return &DeleteOutput{}, nil
}

func (r *redisRepository) List(ctx context.Context, _ ListInput) (*ListOutput, error) {
	ids, err := r.client.SMembers(ctx, abilityIndexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read ability index")
	}

	abilityList := make([]*entities.Ability, 0, len(ids))
	for _, id := range ids {
		getOutput, err := r.Get(ctx, GetInput{ID: id})
		if err != nil {
			if errors.IsNotFound(err) {
				r.client.SRem(ctx, abilityIndexKey, id)
				continue
			}
			return nil, errors.Wrapf(err, "failed to get ability %s", id)
		}
		abilityList = append(abilityList, getOutput.Ability)
	}

	return &ListOutput{Abilities: abilityList}, nil
}
