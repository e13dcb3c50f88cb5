package npcs

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/campaign-api/internal/entities"
	"github.com/KirkDiggler/campaign-api/internal/errors"
	"github.com/KirkDiggler/campaign-api/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/campaign-api/internal/redis"
	"github.com/KirkDiggler/campaign-api/internal/rules"
)

const (
	npcKeyPrefix = "npc:"
	npcIndexKey  = "npc:all"

	maxCASAttempts = 3

	errNPCNil     = "npc cannot be nil"
	errNPCIDEmpty = "npc ID cannot be empty"
)

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// RedisConfig contains configuration for the Redis NPC repository.
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

// NewRedis creates a new Redis-backed NPC repository
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

func npcKey(id string) string {
	return npcKeyPrefix + id
}

func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.NPC == nil {
		return nil, errors.InvalidArgument(errNPCNil)
	}
	if input.NPC.ID == "" {
		return nil, errors.InvalidArgument(errNPCIDEmpty)
	}

	key := npcKey(input.NPC.ID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check existence")
	}
	if exists > 0 {
		return nil, errors.AlreadyExistsf("npc with ID %s already exists", input.NPC.ID)
	}

	now := r.clock.Now().Unix()
	input.NPC.CreatedAt = now
	input.NPC.UpdatedAt = now

	data, err := json.Marshal(input.NPC)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal npc data")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, npcIndexKey, input.NPC.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to create npc")
	}

	return &CreateOutput{NPC: input.NPC}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errNPCIDEmpty)
	}

	result, err := r.client.Get(ctx, npcKey(input.ID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("npc with ID %s not found", input.ID)
		}
		return nil, errors.Wrapf(err, "failed to get npc")
	}

	var npc entities.NPC
	if err := json.Unmarshal([]byte(result), &npc); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal npc data")
	}

	return &GetOutput{NPC: &npc}, nil
}

func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.NPC == nil {
		return nil, errors.InvalidArgument(errNPCNil)
	}
	if input.NPC.ID == "" {
		return nil, errors.InvalidArgument(errNPCIDEmpty)
	}

	existing, err := r.Get(ctx, GetInput{ID: input.NPC.ID})
	if err != nil {
		return nil, err
	}

	input.NPC.CreatedAt = existing.NPC.CreatedAt
	input.NPC.UpdatedAt = r.clock.Now().Unix()

	data, err := json.Marshal(input.NPC)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal npc data")
	}

	if err := r.client.Set(ctx, npcKey(input.NPC.ID), data, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to update npc")
	}

	return &UpdateOutput{NPC: input.NPC}, nil
}

func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errNPCIDEmpty)
	}

	if _, err := r.Get(ctx, GetInput{ID: input.ID}); err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, npcKey(input.ID))
	pipe.SRem(ctx, npcIndexKey, input.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to delete npc")
	}

	return &DeleteOutput{}, nil
}

func (r *redisRepository) List(ctx context.Context, _ ListInput) (*ListOutput, error) {
	ids, err := r.client.SMembers(ctx, npcIndexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read npc index")
	}

	npcList := make([]*entities.NPC, 0, len(ids))
	for _, id := range ids {
		getOutput, err := r.Get(ctx, GetInput{ID: id})
		if err != nil {
			if errors.IsNotFound(err) {
				r.client.SRem(ctx, npcIndexKey, id)
				continue
			}
			return nil, errors.Wrapf(err, "failed to get npc %s", id)
		}
		npcList = append(npcList, getOutput.NPC)
	}

	return &ListOutput{NPCs: npcList}, nil
}

func (r *redisRepository) UpdateHP(ctx context.Context, input UpdateHPInput) (*UpdateHPOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errNPCIDEmpty)
	}

	key := npcKey(input.ID)
	var out *UpdateHPOutput

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			result, err := tx.Get(ctx, key).Result()
			if err != nil {
				if err == redis.Nil {
					return errors.NotFoundf("npc with ID %s not found", input.ID)
				}
				return errors.Wrapf(err, "failed to get npc")
			}

			var npc entities.NPC
			if err := json.Unmarshal([]byte(result), &npc); err != nil {
				return errors.Wrapf(err, "failed to unmarshal npc data")
			}

			oldHP := npc.CurrentHP
			npc.CurrentHP = rules.ClampHP(npc.CurrentHP, input.Delta, npc.MaxHP)
			npc.UpdatedAt = r.clock.Now().Unix()

			data, err := json.Marshal(&npc)
			if err != nil {
				return errors.Wrapf(err, "failed to marshal npc data")
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			})
			if err != nil {
				return err
			}

			out = &UpdateHPOutput{NPC: &npc, OldHP: oldHP, NewHP: npc.CurrentHP}
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to update npc HP")
		}
		return out, nil
	}

	return nil, errors.Abortedf("npc %s changed concurrently, giving up after %d attempts",
		input.ID, maxCASAttempts)
}
