package ledger

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
	rowKeyPrefix         = "charability:"
	characterIndexPrefix = "charability:character:"
	abilityIndexPrefix   = "charability:ability:"

	// Bounded optimistic retries for the charge compare-and-swap
	maxCASAttempts = 3

	errRowNil           = "character ability cannot be nil"
	errRowIDEmpty       = "character ability ID cannot be empty"
	errCharacterIDEmpty = "character ID cannot be empty"
	errAbilityIDEmpty   = "ability ID cannot be empty"
	errSourceIDEmpty    = "source ID cannot be empty"
)

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// RedisConfig contains configuration for the Redis ledger repository.
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

// NewRedis creates a new Redis-backed ledger repository
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

func rowKey(id string) string {
	return rowKeyPrefix + id
}

func characterIndexKey(characterID string) string {
	return characterIndexPrefix + characterID
}

func abilityIndexKey(abilityID string) string {
	return abilityIndexPrefix + abilityID
}

func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.CharacterAbility == nil {
		return nil, errors.InvalidArgument(errRowNil)
	}
	row := input.CharacterAbility
	if row.ID == "" {
		return nil, errors.InvalidArgument(errRowIDEmpty)
	}
	if row.CharacterID == "" {
		return nil, errors.InvalidArgument(errCharacterIDEmpty)
	}
	if row.AbilityID == "" {
		return nil, errors.InvalidArgument(errAbilityIDEmpty)
	}

	key := rowKey(row.ID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check existence")
	}
	if exists > 0 {
		return nil, errors.AlreadyExistsf("character ability %s already exists", row.ID)
	}

	now := r.clock.Now().Unix()
	row.CreatedAt = now
	row.UpdatedAt = now

	data, err := json.Marshal(row)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal character ability")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, characterIndexKey(row.CharacterID), row.ID)
	pipe.SAdd(ctx, abilityIndexKey(row.AbilityID), row.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to create character ability")
	}

	return &CreateOutput{CharacterAbility: row}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errRowIDEmpty)
	}

	result, err := r.client.Get(ctx, rowKey(input.ID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("character ability %s not found", input.ID)
		}
		return nil, errors.Wrapf(err, "failed to get character ability")
	}

	var row entities.CharacterAbility
	if err := json.Unmarshal([]byte(result), &row); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal character ability")
	}

	return &GetOutput{CharacterAbility: &row}, nil
}

func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.CharacterAbility == nil {
		return nil, errors.InvalidArgument(errRowNil)
	}
	if input.CharacterAbility.ID == "" {
		return nil, errors.InvalidArgument(errRowIDEmpty)
	}

	existing, err := r.Get(ctx, GetInput{ID: input.CharacterAbility.ID})
	if err != nil {
		return nil, err
	}

	input.CharacterAbility.CreatedAt = existing.CharacterAbility.CreatedAt
	input.CharacterAbility.UpdatedAt = r.clock.Now().Unix()

	data, err := json.Marshal(input.CharacterAbility)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal character ability")
	}

	if err := r.client.Set(ctx, rowKey(input.CharacterAbility.ID), data, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to update character ability")
	}

	return &UpdateOutput{CharacterAbility: input.CharacterAbility}, nil
}

func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errRowIDEmpty)
	}

	getOutput, err := r.Get(ctx, GetInput{ID: input.ID})
	if err != nil {
		return nil, err
	}

	if err := r.deleteRows(ctx, []*entities.CharacterAbility{getOutput.CharacterAbility}); err != nil {
		return nil, err
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

	rows, err := r.rowsFromIndex(ctx, characterIndexKey(input.CharacterID))
	if err != nil {
		return nil, err
	}

	return &ListByCharacterIDOutput{CharacterAbilities: rows}, nil
}

func (r *redisRepository) DeleteBySource(
	ctx context.Context,
	input DeleteBySourceInput,
) (*DeleteBySourceOutput, error) {
	if input.CharacterID == "" {
		return nil, errors.InvalidArgument(errCharacterIDEmpty)
	}
	if input.SourceID == "" {
		return nil, errors.InvalidArgument(errSourceIDEmpty)
	}

	rows, err := r.rowsFromIndex(ctx, characterIndexKey(input.CharacterID))
	if err != nil {
		return nil, err
	}

	matched := make([]*entities.CharacterAbility, 0, len(rows))
	for _, row := range rows {
		if row.SourceID == input.SourceID {
			matched = append(matched, row)
		}
	}

	if err := r.deleteRows(ctx, matched); err != nil {
		return nil, err
	}

	return &DeleteBySourceOutput{Deleted: len(matched)}, nil
}

func (r *redisRepository) DeleteByAbilityID(
	ctx context.Context,
	input DeleteByAbilityIDInput,
) (*DeleteByAbilityIDOutput, error) {
	if input.AbilityID == "" {
		return nil, errors.InvalidArgument(errAbilityIDEmpty)
	}

	rows, err := r.rowsFromIndex(ctx, abilityIndexKey(input.AbilityID))
	if err != nil {
		return nil, err
	}

	if err := r.deleteRows(ctx, rows); err != nil {
		return nil, err
	}

	return &DeleteByAbilityIDOutput{Deleted: len(rows)}, nil
}

func (r *redisRepository) DeleteByCharacterID(
	ctx context.Context,
	input DeleteByCharacterIDInput,
) (*DeleteByCharacterIDOutput, error) {
	if input.CharacterID == "" {
		return nil, errors.InvalidArgument(errCharacterIDEmpty)
	}

	rows, err := r.rowsFromIndex(ctx, characterIndexKey(input.CharacterID))
	if err != nil {
		return nil, err
	}

	if err := r.deleteRows(ctx, rows); err != nil {
		return nil, err
	}

	return &DeleteByCharacterIDOutput{Deleted: len(rows)}, nil
}

// ConsumeCharge is a compare-and-swap against the stored row so two
// concurrent users of the same ability cannot spend the same charge.
func (r *redisRepository) ConsumeCharge(
	ctx context.Context,
	input ConsumeChargeInput,
) (*ConsumeChargeOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errRowIDEmpty)
	}

	key := rowKey(input.ID)
	var out *ConsumeChargeOutput

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			result, err := tx.Get(ctx, key).Result()
			if err != nil {
				if err == redis.Nil {
					return errors.NotFoundf("character ability %s not found", input.ID)
				}
				return errors.Wrapf(err, "failed to get character ability")
			}

			var row entities.CharacterAbility
			if err := json.Unmarshal([]byte(result), &row); err != nil {
				return errors.Wrapf(err, "failed to unmarshal character ability")
			}

			if row.CurrentCharges <= 0 {
				return errors.FailedPreconditionf("no charges remaining for ability %s", row.AbilityID)
			}

			row.CurrentCharges--
			row.UpdatedAt = r.clock.Now().Unix()

			data, err := json.Marshal(&row)
			if err != nil {
				return errors.Wrapf(err, "failed to marshal character ability")
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			})
			if err != nil {
				return err
			}

			out = &ConsumeChargeOutput{CharacterAbility: &row, NewCharges: row.CurrentCharges}
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to consume charge")
		}
		return out, nil
	}

	return nil, errors.Abortedf("character ability %s changed concurrently, giving up after %d attempts",
		input.ID, maxCASAttempts)
}

func (r *redisRepository) rowsFromIndex(
	ctx context.Context,
	indexKey string,
) ([]*entities.CharacterAbility, error) {
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read ledger index %s", indexKey)
	}

	rows := make([]*entities.CharacterAbility, 0, len(ids))
	for _, id := range ids {
		getOutput, err := r.Get(ctx, GetInput{ID: id})
		if err != nil {
			// Stale index entry; clean it up and keep going
			if errors.IsNotFound(err) {
				r.client.SRem(ctx, indexKey, id)
				continue
			}
			return nil, errors.Wrapf(err, "failed to get character ability %s", id)
		}
		rows = append(rows, getOutput.CharacterAbility)
	}

	return rows, nil
}

func (r *redisRepository) deleteRows(ctx context.Context, rows []*entities.CharacterAbility) error {
	if len(rows) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, row := range rows {
		pipe.Del(ctx, rowKey(row.ID))
		pipe.SRem(ctx, characterIndexKey(row.CharacterID), row.ID)
		pipe.SRem(ctx, abilityIndexKey(row.AbilityID), row.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to delete character abilities")
	}

	return nil
}
