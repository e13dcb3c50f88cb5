package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/KirkDiggler/campaign-api/internal/errors"
	"github.com/KirkDiggler/campaign-api/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/campaign-api/internal/redis"
)

const (
	channelPrefix = "feed:"
	backlogPrefix = "feed:log:"
	seqPrefix     = "feed:seq:"

	// backlogCap bounds the per-topic replay list for pollers
	backlogCap = 1000

	// subscriberBuffer absorbs bursts; slow subscribers drop events rather
	// than block publishers
	subscriberBuffer = 64
)

type redisFeed struct {
	client redisclient.Client
	clock  clock.Clock
}

// RedisConfig contains configuration for the Redis change feed.
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

// NewRedis creates a Redis-backed change feed. Events go out over pub/sub
// for live subscribers and into a capped per-topic list for pollers.
func NewRedis(cfg *RedisConfig) (Feed, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &redisFeed{
		client: cfg.Client,
		clock:  c,
	}, nil
}

func channelName(topic Topic) string {
	return channelPrefix + string(topic)
}

func backlogKey(topic Topic) string {
	return backlogPrefix + string(topic)
}

func seqKey(topic Topic) string {
	return seqPrefix + string(topic)
}

func (f *redisFeed) Publish(ctx context.Context, event Event) error {
	if event.Topic == "" {
		return errors.InvalidArgument("event topic cannot be empty")
	}
	if event.OccurredAt == 0 {
		event.OccurredAt = f.clock.Now().Unix()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal event")
	}

	// The sequence counter keeps counting past the backlog cap, so pollers
	// can tell new events from a list pinned at full length.
	pipe := f.client.TxPipeline()
	pipe.Publish(ctx, channelName(event.Topic), data)
	pipe.RPush(ctx, backlogKey(event.Topic), data)
	pipe.LTrim(ctx, backlogKey(event.Topic), -backlogCap, -1)
	pipe.Incr(ctx, seqKey(event.Topic))
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to publish event")
	}

	return nil
}

func (f *redisFeed) Subscribe(ctx context.Context, topic Topic) (<-chan Event, func(), error) {
	if topic == "" {
		return nil, nil, errors.InvalidArgument("topic cannot be empty")
	}

	sub := f.client.Subscribe(ctx, channelName(topic))

	// Force the subscription onto the wire before returning so callers
	// don't miss events published right after Subscribe.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, errors.Wrapf(err, "failed to subscribe to %s", topic)
	}

	events := make(chan Event, subscriberBuffer)
	go func() {
		defer close(events)
		for msg := range sub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.Warn("dropping malformed feed event",
					"topic", topic,
					"error", err)
				continue
			}
			select {
			case events <- event:
			default:
				slog.Warn("dropping feed event for slow subscriber",
					"topic", topic,
					"type", event.Type)
			}
		}
	}()

	cancel := func() {
		_ = sub.Close()
	}
	return events, cancel, nil
}
