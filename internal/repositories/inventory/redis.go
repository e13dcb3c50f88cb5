package inventory

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
	entryKeyPrefix       = "inventory:"
	characterIndexPrefix = "inventory:character:"

	errEntryNil         = "inventory entry cannot be nil"
	errEntryIDEmpty     = "inventory entry ID cannot be empty"
	errCharacterIDEmpty = "character ID cannot be empty"
)

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// RedisConfig contains configuration for the Redis inventory repository.
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

// NewRedis creates a new Redis-backed inventory repository
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

func entryKey(id string) string {
	return entryKeyPrefix + id
}

func characterIndexKey(characterID string) string {
	return characterIndexPrefix + characterID
}

func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.Entry == nil {
		return nil, errors.InvalidArgument(errEntryNil)
	}
	if input.Entry.ID == "" {
		return nil, errors.InvalidArgument(errEntryIDEmpty)
	}
	if input.Entry.CharacterID == "" {
		return nil, errors.InvalidArgument(errCharacterIDEmpty)
	}

	key := entryKey(input.Entry.ID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check existence")
	}
	if exists > 0 {
		return nil, errors.AlreadyExistsf("inventory entry %s already exists", input.Entry.ID)
	}

	now := r.clock.Now().Unix()
	input.Entry.CreatedAt = now
	input.Entry.UpdatedAt = now

	data, err := json.Marshal(input.Entry)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal inventory entry")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, characterIndexKey(input.Entry.CharacterID), input.Entry.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to create inventory entry")
	}

	return &CreateOutput{Entry: input.Entry}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errEntryIDEmpty)
	}

	result, err := r.client.Get(ctx, entryKey(input.ID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("inventory entry %s not found", input.ID)
		}
		return nil, errors.Wrapf(err, "failed to get inventory entry")
	}

	var entry entities.InventoryEntry
	if err := json.Unmarshal([]byte(result), &entry); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal inventory entry")
	}

	return &GetOutput{Entry: &entry}, nil
}

func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.Entry == nil {
		return nil, errors.InvalidArgument(errEntryNil)
	}
	if input.Entry.ID == "" {
		return nil, errors.InvalidArgument(errEntryIDEmpty)
	}

	existing, err := r.Get(ctx, GetInput{ID: input.Entry.ID})
	if err != nil {
		return nil, err
	}

	input.Entry.CreatedAt = existing.Entry.CreatedAt
	input.Entry.UpdatedAt = r.clock.Now().Unix()

	data, err := json.Marshal(input.Entry)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal inventory entry")
	}

	if err := r.client.Set(ctx, entryKey(input.Entry.ID), data, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to update inventory entry")
	}

	return &UpdateOutput{Entry: input.Entry}, nil
}

func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errEntryIDEmpty)
	}

	getOutput, err := r.Get(ctx, GetInput{ID: input.ID})
	if err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, entryKey(input.ID))
	pipe.SRem(ctx, characterIndexKey(getOutput.Entry.CharacterID), input.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to delete inventory entry")
	}

	return &DeleteOutput{}, nil
}

func (r *redisRepository) ListByCharacterID(
	ctx context.Context,
	input ListByCharacterIDInput,
) (*ListByCharacterIDOutput, error) {
	if input.CharacterID == "" {
		return nil, errors.InvalidArgument(errCharacterIDEmpty)
	}

	indexKey := characterIndexKey(input.CharacterID)
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read inventory index %s", indexKey)
	}

	entries := make([]*entities.InventoryEntry, 0, len(ids))
	for _, id := range ids {
		getOutput, err := r.Get(ctx, GetInput{ID: id})
		if err != nil {
			if errors.IsNotFound(err) {
				r.client.SRem(ctx, indexKey, id)
				continue
			}
			return nil, errors.Wrapf(err, "failed to get inventory entry %s", id)
		}
		entries = append(entries, getOutput.Entry)
	}

	return &ListByCharacterIDOutput{Entries: entries}, nil
}

func (r *redisRepository) DeleteByCharacterID(
	ctx context.Context,
	input DeleteByCharacterIDInput,
) (*DeleteByCharacterIDOutput, error) {
	if input.CharacterID == "" {
		return nil, errors.InvalidArgument(errCharacterIDEmpty)
	}

	listOutput, err := r.ListByCharacterID(ctx, ListByCharacterIDInput(input))
	if err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	for _, entry := range listOutput.Entries {
		pipe.Del(ctx, entryKey(entry.ID))
	}
	pipe.Del(ctx, characterIndexKey(input.CharacterID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to delete character inventory")
	}

	return &DeleteByCharacterIDOutput{Deleted: len(listOutput.Entries)}, nil
}
