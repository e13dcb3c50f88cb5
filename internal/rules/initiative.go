package rules

import (
	"sort"

	"github.com/KirkDiggler/campaign-api/internal/entities"
)

// RankInitiative sorts participants into turn order: roll + initiative
// modifier descending, ties broken by modifier descending, then insertion
// order. The input slice is not mutated; participants without a roll sort
// last (callers reject them before start).
func RankInitiative(participants []*entities.EncounterParticipant) []*entities.EncounterParticipant {
	ranked := make([]*entities.EncounterParticipant, len(participants))
	copy(ranked, participants)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]

		if a.InitiativeRoll == nil || b.InitiativeRoll == nil {
			return a.InitiativeRoll != nil
		}

		totalA := *a.InitiativeRoll + a.InitiativeMod
		totalB := *b.InitiativeRoll + b.InitiativeMod
		if totalA != totalB {
			return totalA > totalB
		}
		if a.InitiativeMod != b.InitiativeMod {
			return a.InitiativeMod > b.InitiativeMod
		}
		return a.Seq < b.Seq
	})

	return ranked
}

// NextTurn advances a 1-based turn position over count participants,
// wrapping to 1. It reports the new position and whether the round rolled
// over.
func NextTurn(current, count int32) (int32, bool) {
	next := current + 1
	if next > count {
		return 1, true
	}
	return next, false
}
