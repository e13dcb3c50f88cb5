// Package notify is the change feed: mutations publish events so connected
// clients (initiative trackers, GM dashboards) can refresh without polling
// the API.
package notify

import "context"

// Topic routes events to interested subscribers
type Topic string

// Topics
const (
	TopicCharacters Topic = "characters"
	TopicEncounters Topic = "encounters"
	TopicAbilities  Topic = "abilities"
)

// EventType names what happened
type EventType string

// Event types
const (
	EventHPChanged       EventType = "hp_changed"
	EventChargeConsumed  EventType = "charge_consumed"
	EventChargesRestored EventType = "charges_restored"
	EventEquipChanged    EventType = "equip_changed"
	EventEncounterState  EventType = "encounter_state"
	EventTurnAdvanced    EventType = "turn_advanced"
	EventParticipantHP   EventType = "participant_hp"
)

// Event is a single change-feed entry. Payload carries event-specific
// details; keep it small, clients re-fetch for full state.
type Event struct {
	Topic      Topic             `json:"topic"`
	Type       EventType         `json:"type"`
	EntityID   string            `json:"entity_id"`
	Payload    map[string]string `json:"payload,omitempty"`
	OccurredAt int64             `json:"occurred_at"`
}

// Feed publishes and delivers change events.
type Feed interface {
	// Publish emits an event. Delivery is best-effort; a publish failure
	// must never fail the mutation that produced it.
	Publish(ctx context.Context, event Event) error

	// Subscribe returns a channel of events for a topic and a cancel
	// function that releases the subscription. The channel closes after
	// cancel.
	Subscribe(ctx context.Context, topic Topic) (<-chan Event, func(), error)
}
