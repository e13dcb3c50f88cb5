package encounters

import (
	"context"
	"encoding/json"
	"sort"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/campaign-api/internal/entities"
	"github.com/KirkDiggler/campaign-api/internal/errors"
	"github.com/KirkDiggler/campaign-api/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/campaign-api/internal/redis"
	"github.com/KirkDiggler/campaign-api/internal/rules"
)

const (
	encounterKeyPrefix     = "encounter:"
	encounterIndexKey      = "encounter:all"
	participantKeyPrefix   = "participant:"
	participantIndexPrefix = "encounter:participants:"
	seqKeyPrefix           = "encounter:seq:"

	// Bounded optimistic retries for the lifecycle compare-and-swaps
	maxCASAttempts = 3

	errEncounterNil      = "encounter cannot be nil"
	errEncounterIDEmpty  = "encounter ID cannot be empty"
	errParticipantNil    = "participant cannot be nil"
	errParticipantIDEmpty = "participant ID cannot be empty"
)

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// RedisConfig contains configuration for the Redis encounter repository.
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

// NewRedis creates a new Redis-backed encounter repository
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

func encounterKey(id string) string {
	return encounterKeyPrefix + id
}

func participantKey(id string) string {
	return participantKeyPrefix + id
}

func participantIndexKey(encounterID string) string {
	return participantIndexPrefix + encounterID
}

func seqKey(encounterID string) string {
	return seqKeyPrefix + encounterID
}

func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.Encounter == nil {
		return nil, errors.InvalidArgument(errEncounterNil)
	}
	if input.Encounter.ID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}

	key := encounterKey(input.Encounter.ID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check existence")
	}
	if exists > 0 {
		return nil, errors.AlreadyExistsf("encounter with ID %s already exists", input.Encounter.ID)
	}

	now := r.clock.Now().Unix()
	input.Encounter.Status = entities.EncounterStatusDraft
	input.Encounter.Round = 0
	input.Encounter.CurrentTurn = 0
	input.Encounter.CreatedAt = now
	input.Encounter.UpdatedAt = now

	data, err := json.Marshal(input.Encounter)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal encounter data")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, encounterIndexKey, input.Encounter.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to create encounter")
	}

	return &CreateOutput{Encounter: input.Encounter}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}

	result, err := r.client.Get(ctx, encounterKey(input.ID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("encounter with ID %s not found", input.ID)
		}
		return nil, errors.Wrapf(err, "failed to get encounter")
	}

	var enc entities.Encounter
	if err := json.Unmarshal([]byte(result), &enc); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal encounter data")
	}

	return &GetOutput{Encounter: &enc}, nil
}

func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.Encounter == nil {
		return nil, errors.InvalidArgument(errEncounterNil)
	}
	if input.Encounter.ID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}

	existing, err := r.Get(ctx, GetInput{ID: input.Encounter.ID})
	if err != nil {
		return nil, err
	}

	input.Encounter.CreatedAt = existing.Encounter.CreatedAt
	input.Encounter.UpdatedAt = r.clock.Now().Unix()

	data, err := json.Marshal(input.Encounter)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal encounter data")
	}

	if err := r.client.Set(ctx, encounterKey(input.Encounter.ID), data, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to update encounter")
	}

	return &UpdateOutput{Encounter: input.Encounter}, nil
}

func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}

	if _, err := r.Get(ctx, GetInput{ID: input.ID}); err != nil {
		return nil, err
	}

	indexKey := participantIndexKey(input.ID)
	participantIDs, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read participant index")
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, encounterKey(input.ID))
	pipe.SRem(ctx, encounterIndexKey, input.ID)
	for _, pid := range participantIDs {
		pipe.Del(ctx, participantKey(pid))
	}
	pipe.Del(ctx, indexKey)
	pipe.Del(ctx, seqKey(input.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to delete encounter")
	}

	return &DeleteOutput{}, nil
}

func (r *redisRepository) List(ctx context.Context, _ ListInput) (*ListOutput, error) {
	ids, err := r.client.SMembers(ctx, encounterIndexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read encounter index")
	}

	encounterList := make([]*entities.Encounter, 0, len(ids))
	for _, id := range ids {
		getOutput, err := r.Get(ctx, GetInput{ID: id})
		if err != nil {
			if errors.IsNotFound(err) {
				r.client.SRem(ctx, encounterIndexKey, id)
				continue
			}
			return nil, errors.Wrapf(err, "failed to get encounter %s", id)
		}
		encounterList = append(encounterList, getOutput.Encounter)
	}

	return &ListOutput{Encounters: encounterList}, nil
}

func (r *redisRepository) AddParticipant(
	ctx context.Context,
	input AddParticipantInput,
) (*AddParticipantOutput, error) {
	if input.Participant == nil {
		return nil, errors.InvalidArgument(errParticipantNil)
	}
	p := input.Participant
	if p.ID == "" {
		return nil, errors.InvalidArgument(errParticipantIDEmpty)
	}
	if p.EncounterID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}

	if _, err := r.Get(ctx, GetInput{ID: p.EncounterID}); err != nil {
		return nil, err
	}

	// Monotonic per-encounter counter; survives participant removal so
	// insertion order stays a stable tie-breaker.
	seq, err := r.client.Incr(ctx, seqKey(p.EncounterID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to assign participant sequence")
	}
	p.Seq = seq

	now := r.clock.Now().Unix()
	p.CreatedAt = now
	p.UpdatedAt = now

	data, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal participant data")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, participantKey(p.ID), data, 0)
	pipe.SAdd(ctx, participantIndexKey(p.EncounterID), p.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to add participant")
	}

	return &AddParticipantOutput{Participant: p}, nil
}

func (r *redisRepository) GetParticipant(
	ctx context.Context,
	input GetParticipantInput,
) (*GetParticipantOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errParticipantIDEmpty)
	}

	result, err := r.client.Get(ctx, participantKey(input.ID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("participant with ID %s not found", input.ID)
		}
		return nil, errors.Wrapf(err, "failed to get participant")
	}

	var p entities.EncounterParticipant
	if err := json.Unmarshal([]byte(result), &p); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal participant data")
	}

	return &GetParticipantOutput{Participant: &p}, nil
}

func (r *redisRepository) UpdateParticipant(
	ctx context.Context,
	input UpdateParticipantInput,
) (*UpdateParticipantOutput, error) {
	if input.Participant == nil {
		return nil, errors.InvalidArgument(errParticipantNil)
	}
	if input.Participant.ID == "" {
		return nil, errors.InvalidArgument(errParticipantIDEmpty)
	}

	existing, err := r.GetParticipant(ctx, GetParticipantInput{ID: input.Participant.ID})
	if err != nil {
		return nil, err
	}

	input.Participant.Seq = existing.Participant.Seq
	input.Participant.CreatedAt = existing.Participant.CreatedAt
	input.Participant.UpdatedAt = r.clock.Now().Unix()

	data, err := json.Marshal(input.Participant)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal participant data")
	}

	if err := r.client.Set(ctx, participantKey(input.Participant.ID), data, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to update participant")
	}

	return &UpdateParticipantOutput{Participant: input.Participant}, nil
}

func (r *redisRepository) RemoveParticipant(
	ctx context.Context,
	input RemoveParticipantInput,
) (*RemoveParticipantOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errParticipantIDEmpty)
	}

	getOutput, err := r.GetParticipant(ctx, GetParticipantInput{ID: input.ID})
	if err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, participantKey(input.ID))
	pipe.SRem(ctx, participantIndexKey(getOutput.Participant.EncounterID), input.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to remove participant")
	}

	return &RemoveParticipantOutput{}, nil
}

func (r *redisRepository) ListParticipants(
	ctx context.Context,
	input ListParticipantsInput,
) (*ListParticipantsOutput, error) {
	if input.EncounterID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}

	participants, err := r.participantsForEncounter(ctx, input.EncounterID)
	if err != nil {
		return nil, err
	}

	sort.Slice(participants, func(i, j int) bool {
		a, b := participants[i], participants[j]
		if a.InitiativeOrder != b.InitiativeOrder {
			// Unranked participants (order 0) sort after ranked ones
			if a.InitiativeOrder == 0 || b.InitiativeOrder == 0 {
				return b.InitiativeOrder == 0
			}
			return a.InitiativeOrder < b.InitiativeOrder
		}
		return a.Seq < b.Seq
	})

	return &ListParticipantsOutput{Participants: participants}, nil
}

// Start watches the encounter and every participant row so the ranking is
// computed against a consistent view.
func (r *redisRepository) Start(ctx context.Context, input StartInput) (*StartOutput, error) {
	if input.EncounterID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}

	encKey := encounterKey(input.EncounterID)
	var out *StartOutput

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		participantIDs, err := r.client.SMembers(ctx, participantIndexKey(input.EncounterID)).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read participant index")
		}

		watchKeys := make([]string, 0, len(participantIDs)+1)
		watchKeys = append(watchKeys, encKey)
		for _, pid := range participantIDs {
			watchKeys = append(watchKeys, participantKey(pid))
		}

		err = r.client.Watch(ctx, func(tx *redis.Tx) error {
			enc, err := getEncounterTx(ctx, tx, input.EncounterID)
			if err != nil {
				return err
			}
			if enc.Status != entities.EncounterStatusDraft {
				return errors.FailedPreconditionf("encounter %s is %s, only draft encounters can start",
					enc.ID, enc.Status)
			}
			if len(participantIDs) == 0 {
				return errors.FailedPreconditionf("encounter %s has no participants", enc.ID)
			}

			participants := make([]*entities.EncounterParticipant, 0, len(participantIDs))
			for _, pid := range participantIDs {
				p, err := getParticipantTx(ctx, tx, pid)
				if err != nil {
					return err
				}
				if p.InitiativeRoll == nil {
					return errors.FailedPreconditionf("participant %s has no initiative roll", p.Name)
				}
				participants = append(participants, p)
			}

			ranked := rules.RankInitiative(participants)
			now := r.clock.Now().Unix()
			for i, p := range ranked {
				p.InitiativeOrder = int32(i + 1) //nolint:gosec // rank fits int32
				p.UpdatedAt = now
			}

			enc.Status = entities.EncounterStatusActive
			enc.Round = 1
			enc.CurrentTurn = 1
			enc.StartedAt = now
			enc.UpdatedAt = now

			encData, err := json.Marshal(enc)
			if err != nil {
				return errors.Wrapf(err, "failed to marshal encounter data")
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, encKey, encData, 0)
				for _, p := range ranked {
					data, err := json.Marshal(p)
					if err != nil {
						return errors.Wrapf(err, "failed to marshal participant data")
					}
					pipe.Set(ctx, participantKey(p.ID), data, 0)
				}
				return nil
			})
			if err != nil {
				return err
			}

			out = &StartOutput{Encounter: enc, Participants: ranked}
			return nil
		}, watchKeys...)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to start encounter")
		}
		return out, nil
	}

	return nil, errors.Abortedf("encounter %s changed concurrently, giving up after %d attempts",
		input.EncounterID, maxCASAttempts)
}

func (r *redisRepository) AdvanceTurn(
	ctx context.Context,
	input AdvanceTurnInput,
) (*AdvanceTurnOutput, error) {
	if input.EncounterID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}

	encKey := encounterKey(input.EncounterID)
	var out *AdvanceTurnOutput

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			enc, err := getEncounterTx(ctx, tx, input.EncounterID)
			if err != nil {
				return err
			}
			if enc.Status != entities.EncounterStatusActive {
				return errors.FailedPreconditionf("encounter %s is %s, only active encounters advance",
					enc.ID, enc.Status)
			}

			count, err := tx.SCard(ctx, participantIndexKey(input.EncounterID)).Result()
			if err != nil {
				return errors.Wrapf(err, "failed to count participants")
			}
			if count == 0 {
				return errors.FailedPreconditionf("encounter %s has no participants", enc.ID)
			}

			next, wrapped := rules.NextTurn(enc.CurrentTurn, int32(count)) //nolint:gosec // participant counts are small
			enc.CurrentTurn = next
			if wrapped {
				enc.Round++
			}
			enc.UpdatedAt = r.clock.Now().Unix()

			data, err := json.Marshal(enc)
			if err != nil {
				return errors.Wrapf(err, "failed to marshal encounter data")
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, encKey, data, 0)
				return nil
			})
			if err != nil {
				return err
			}

			out = &AdvanceTurnOutput{Encounter: enc, NewRound: wrapped}
			return nil
		}, encKey)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to advance turn")
		}
		return out, nil
	}

	return nil, errors.Abortedf("encounter %s changed concurrently, giving up after %d attempts",
		input.EncounterID, maxCASAttempts)
}

func (r *redisRepository) UpdateParticipantHP(
	ctx context.Context,
	input UpdateParticipantHPInput,
) (*UpdateParticipantHPOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errParticipantIDEmpty)
	}

	key := participantKey(input.ID)
	var out *UpdateParticipantHPOutput

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			p, err := getParticipantTx(ctx, tx, input.ID)
			if err != nil {
				return err
			}

			oldHP := p.CurrentHP
			p.CurrentHP = rules.ClampHP(p.CurrentHP, input.Delta, p.MaxHP)
			p.UpdatedAt = r.clock.Now().Unix()

			data, err := json.Marshal(p)
			if err != nil {
				return errors.Wrapf(err, "failed to marshal participant data")
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			})
			if err != nil {
				return err
			}

			out = &UpdateParticipantHPOutput{Participant: p, OldHP: oldHP, NewHP: p.CurrentHP}
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to update participant HP")
		}
		return out, nil
	}

	return nil, errors.Abortedf("participant %s changed concurrently, giving up after %d attempts",
		input.ID, maxCASAttempts)
}

func (r *redisRepository) Complete(ctx context.Context, input CompleteInput) (*CompleteOutput, error) {
	if input.EncounterID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}

	encKey := encounterKey(input.EncounterID)
	var out *CompleteOutput

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			enc, err := getEncounterTx(ctx, tx, input.EncounterID)
			if err != nil {
				return err
			}
			if enc.Status != entities.EncounterStatusActive {
				return errors.FailedPreconditionf("encounter %s is %s, only active encounters complete",
					enc.ID, enc.Status)
			}

			now := r.clock.Now().Unix()
			enc.Status = entities.EncounterStatusCompleted
			enc.CompletedAt = now
			enc.UpdatedAt = now

			data, err := json.Marshal(enc)
			if err != nil {
				return errors.Wrapf(err, "failed to marshal encounter data")
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, encKey, data, 0)
				return nil
			})
			if err != nil {
				return err
			}

			out = &CompleteOutput{Encounter: enc}
			return nil
		}, encKey)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to complete encounter")
		}
		return out, nil
	}

	return nil, errors.Abortedf("encounter %s changed concurrently, giving up after %d attempts",
		input.EncounterID, maxCASAttempts)
}

func (r *redisRepository) participantsForEncounter(
	ctx context.Context,
	encounterID string,
) ([]*entities.EncounterParticipant, error) {
	indexKey := participantIndexKey(encounterID)
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read participant index")
	}

	participants := make([]*entities.EncounterParticipant, 0, len(ids))
	for _, id := range ids {
		getOutput, err := r.GetParticipant(ctx, GetParticipantInput{ID: id})
		if err != nil {
			if errors.IsNotFound(err) {
				r.client.SRem(ctx, indexKey, id)
				continue
			}
			return nil, errors.Wrapf(err, "failed to get participant %s", id)
		}
		participants = append(participants, getOutput.Participant)
	}

	return participants, nil
}

func getEncounterTx(ctx context.Context, tx *redis.Tx, id string) (*entities.Encounter, error) {
	result, err := tx.Get(ctx, encounterKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("encounter with ID %s not found", id)
		}
		return nil, errors.Wrapf(err, "failed to get encounter")
	}

	var enc entities.Encounter
	if err := json.Unmarshal([]byte(result), &enc); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal encounter data")
	}

	return &enc, nil
}

func getParticipantTx(ctx context.Context, tx *redis.Tx, id string) (*entities.EncounterParticipant, error) {
	result, err := tx.Get(ctx, participantKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("participant with ID %s not found", id)
		}
		return nil, errors.Wrapf(err, "failed to get participant")
	}

	var p entities.EncounterParticipant
	if err := json.Unmarshal([]byte(result), &p); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal participant data")
	}

	return &p, nil
}
