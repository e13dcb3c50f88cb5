package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/KirkDiggler/campaign-api/internal/errors"
	redisclient "github.com/KirkDiggler/campaign-api/internal/redis"
)

// Handler consumes a replayed event. Errors are logged, not retried; the
// backlog cursor advances regardless.
type Handler func(ctx context.Context, event Event)

// Poller replays the per-topic backlog on a schedule for consumers that
// cannot hold a pub/sub connection open (webhooks, batch summaries). Its
// cursor is the absolute publish sequence, not a list position: the backlog
// list is capped and its length pins at the cap, so only the sequence
// counter can say whether anything new arrived.
type Poller struct {
	client   redisclient.Client
	topic    Topic
	handler  Handler
	schedule string

	cron *cron.Cron

	mu     sync.Mutex
	cursor int64
}

// PollerConfig contains configuration for a backlog poller.
type PollerConfig struct {
	Client  redisclient.Client
	Topic   Topic
	Handler Handler
	// Schedule is a cron expression, e.g. "@every 10s"
	Schedule string
}

// Validate validates the PollerConfig.
func (cfg *PollerConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.InvalidArgument("client cannot be nil")
	}
	if cfg.Topic == "" {
		return errors.InvalidArgument("topic cannot be empty")
	}
	if cfg.Handler == nil {
		return errors.InvalidArgument("handler cannot be nil")
	}
	if cfg.Schedule == "" {
		return errors.InvalidArgument("schedule cannot be empty")
	}
	return nil
}

// NewPoller creates a backlog poller. Call Start to begin polling.
func NewPoller(cfg *PollerConfig) (*Poller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Poller{
		client:   cfg.Client,
		topic:    cfg.Topic,
		handler:  cfg.Handler,
		schedule: cfg.Schedule,
	}, nil
}

// Start begins polling on the configured schedule.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cron != nil {
		return errors.FailedPrecondition("poller already started")
	}

	// Start at the current publish sequence; only events published after
	// Start are delivered.
	seq, err := p.publishSeq(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to read feed sequence")
	}
	p.cursor = seq

	c := cron.New()
	if _, err := c.AddFunc(p.schedule, func() { p.poll(ctx) }); err != nil {
		return errors.Wrapf(err, "invalid poll schedule %q", p.schedule)
	}
	c.Start()
	p.cron = c

	return nil
}

// Stop halts polling and waits for an in-flight poll to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	c := p.cron
	p.cron = nil
	p.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// publishSeq reads the topic's absolute publish counter. A missing key means
// nothing was ever published.
func (p *Poller) publishSeq(ctx context.Context) (int64, error) {
	seq, err := p.client.Get(ctx, seqKey(p.topic)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return seq, nil
}

func (p *Poller) poll(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	seq, err := p.publishSeq(ctx)
	if err != nil {
		slog.Warn("feed poll failed", "topic", p.topic, "error", err)
		return
	}

	if seq == p.cursor {
		return
	}
	// A sequence behind the cursor means the counter was reset (flush);
	// resync rather than replay the whole backlog.
	if seq < p.cursor {
		slog.Warn("feed sequence went backwards, resyncing",
			"topic", p.topic,
			"cursor", p.cursor,
			"sequence", seq)
		p.cursor = seq
		return
	}

	key := backlogKey(p.topic)
	length, err := p.client.LLen(ctx, key).Result()
	if err != nil {
		slog.Warn("feed poll failed", "topic", p.topic, "error", err)
		return
	}

	// The backlog tail holds the most recent events; anything older than
	// length entries has been trimmed and cannot be replayed.
	start := length - (seq - p.cursor)
	if start < 0 {
		slog.Warn("feed backlog trimmed past cursor, resyncing",
			"topic", p.topic,
			"cursor", p.cursor,
			"sequence", seq,
			"length", length)
		start = 0
	}

	entries, err := p.client.LRange(ctx, key, start, length-1).Result()
	if err != nil {
		slog.Warn("feed poll failed", "topic", p.topic, "error", err)
		return
	}

	for _, entry := range entries {
		var event Event
		if err := json.Unmarshal([]byte(entry), &event); err != nil {
			slog.Warn("dropping malformed feed event", "topic", p.topic, "error", err)
			continue
		}
		p.handler(ctx, event)
	}
	p.cursor = seq
}
