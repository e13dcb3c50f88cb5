package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/campaign-api/internal/entities"
	"github.com/KirkDiggler/campaign-api/internal/rules"
)

func participant(id string, roll *int32, mod int32, seq int64) *entities.EncounterParticipant {
	return &entities.EncounterParticipant{
		ID:             id,
		InitiativeRoll: roll,
		InitiativeMod:  mod,
		Seq:            seq,
	}
}

func TestRankInitiative(t *testing.T) {
	// A: 15+2=17, B: 18+0=18, C: 15+3=18. C and B tie at 18; C's higher
	// modifier breaks the tie.
	a := participant("a", intPtr(15), 2, 1)
	b := participant("b", intPtr(18), 0, 2)
	c := participant("c", intPtr(15), 3, 3)

	ranked := rules.RankInitiative([]*entities.EncounterParticipant{a, b, c})

	require.Len(t, ranked, 3)
	assert.Equal(t, "c", ranked[0].ID)
	assert.Equal(t, "b", ranked[1].ID)
	assert.Equal(t, "a", ranked[2].ID)
}

func TestRankInitiativeFullTieUsesInsertionOrder(t *testing.T) {
	first := participant("first", intPtr(12), 1, 1)
	second := participant("second", intPtr(12), 1, 2)

	ranked := rules.RankInitiative([]*entities.EncounterParticipant{second, first})

	assert.Equal(t, "first", ranked[0].ID)
	assert.Equal(t, "second", ranked[1].ID)
}

func TestRankInitiativeDoesNotMutateInput(t *testing.T) {
	a := participant("a", intPtr(5), 0, 1)
	b := participant("b", intPtr(20), 0, 2)
	input := []*entities.EncounterParticipant{a, b}

	rules.RankInitiative(input)

	assert.Equal(t, "a", input[0].ID)
	assert.Equal(t, "b", input[1].ID)
}

func TestRankInitiativeMissingRollsSortLast(t *testing.T) {
	rolled := participant("rolled", intPtr(1), 0, 2)
	unrolled := participant("unrolled", nil, 5, 1)

	ranked := rules.RankInitiative([]*entities.EncounterParticipant{unrolled, rolled})

	assert.Equal(t, "rolled", ranked[0].ID)
	assert.Equal(t, "unrolled", ranked[1].ID)
}

func TestNextTurn(t *testing.T) {
	next, wrapped := rules.NextTurn(1, 4)
	assert.Equal(t, int32(2), next)
	assert.False(t, wrapped)

	next, wrapped = rules.NextTurn(4, 4)
	assert.Equal(t, int32(1), next)
	assert.True(t, wrapped)

	// single participant wraps every turn
	next, wrapped = rules.NextTurn(1, 1)
	assert.Equal(t, int32(1), next)
	assert.True(t, wrapped)
}

func TestClampHP(t *testing.T) {
	assert.Equal(t, int32(10), rules.ClampHP(5, 20, 10))
	assert.Equal(t, int32(0), rules.ClampHP(5, -999, 10))
	assert.Equal(t, int32(7), rules.ClampHP(5, 2, 10))
}
