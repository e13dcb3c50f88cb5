package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/campaign-api/internal/errors"
	redisclient "github.com/KirkDiggler/campaign-api/internal/redis"
	"github.com/KirkDiggler/campaign-api/internal/testutils"
)

type RedisFeedTestSuite struct {
	suite.Suite
	client  redisclient.Client
	feed    Feed
	cleanup func()
	ctx     context.Context
}

func (s *RedisFeedTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.client = client
	s.cleanup = cleanup
	s.ctx = context.Background()

	feed, err := NewRedis(&RedisConfig{Client: client})
	s.Require().NoError(err)
	s.feed = feed
}

func (s *RedisFeedTestSuite) TearDownTest() {
	s.cleanup()
}

func (s *RedisFeedTestSuite) publish(eventType EventType, entityID string) {
	err := s.feed.Publish(s.ctx, Event{
		Topic:    TopicEncounters,
		Type:     eventType,
		EntityID: entityID,
	})
	s.Require().NoError(err)
}

func (s *RedisFeedTestSuite) TestPublishAppendsToBacklog() {
	s.publish(EventEncounterState, "enc_1")
	s.publish(EventTurnAdvanced, "enc_1")

	length, err := s.client.LLen(s.ctx, backlogKey(TopicEncounters)).Result()
	s.Require().NoError(err)
	s.Equal(int64(2), length)
}

func (s *RedisFeedTestSuite) TestPublishRequiresTopic() {
	err := s.feed.Publish(s.ctx, Event{Type: EventEncounterState})
	s.True(errors.IsInvalidArgument(err))
}

func (s *RedisFeedTestSuite) TestPublishStampsOccurredAt() {
	s.publish(EventEncounterState, "enc_1")

	entries, err := s.client.LRange(s.ctx, backlogKey(TopicEncounters), 0, -1).Result()
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Contains(entries[0], `"occurred_at"`)
}

func (s *RedisFeedTestSuite) TestSubscribeReceivesPublishedEvents() {
	events, cancel, err := s.feed.Subscribe(s.ctx, TopicEncounters)
	s.Require().NoError(err)
	defer cancel()

	s.publish(EventTurnAdvanced, "enc_1")

	select {
	case event := <-events:
		s.Equal(EventTurnAdvanced, event.Type)
		s.Equal("enc_1", event.EntityID)
		s.NotZero(event.OccurredAt)
	case <-time.After(2 * time.Second):
		s.Fail("timed out waiting for event")
	}
}

func (s *RedisFeedTestSuite) TestSubscribeIgnoresOtherTopics() {
	events, cancel, err := s.feed.Subscribe(s.ctx, TopicCharacters)
	s.Require().NoError(err)
	defer cancel()

	s.publish(EventEncounterState, "enc_1")

	select {
	case event := <-events:
		s.Failf("unexpected event", "got %v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRedisFeedTestSuite(t *testing.T) {
	suite.Run(t, new(RedisFeedTestSuite))
}

type PollerTestSuite struct {
	suite.Suite
	client  redisclient.Client
	feed    Feed
	cleanup func()
	ctx     context.Context

	received []Event
}

func (s *PollerTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.client = client
	s.cleanup = cleanup
	s.ctx = context.Background()
	s.received = nil

	feed, err := NewRedis(&RedisConfig{Client: client})
	s.Require().NoError(err)
	s.feed = feed
}

func (s *PollerTestSuite) TearDownTest() {
	s.cleanup()
}

// newStartedPoller starts a poller on a schedule that never fires during the
// test; polls are driven directly for determinism.
func (s *PollerTestSuite) newStartedPoller() *Poller {
	poller, err := NewPoller(&PollerConfig{
		Client: s.client,
		Topic:  TopicEncounters,
		Handler: func(_ context.Context, event Event) {
			s.received = append(s.received, event)
		},
		Schedule: "@every 1h",
	})
	s.Require().NoError(err)
	s.Require().NoError(poller.Start(s.ctx))
	s.T().Cleanup(poller.Stop)
	return poller
}

func (s *PollerTestSuite) publish(entityID string) {
	err := s.feed.Publish(s.ctx, Event{
		Topic:    TopicEncounters,
		Type:     EventEncounterState,
		EntityID: entityID,
	})
	s.Require().NoError(err)
}

func (s *PollerTestSuite) TestPollDeliversOnlyEventsAfterStart() {
	s.publish("enc_before")

	poller := s.newStartedPoller()

	s.publish("enc_1")
	s.publish("enc_2")
	poller.poll(s.ctx)

	s.Require().Len(s.received, 2)
	s.Equal("enc_1", s.received[0].EntityID)
	s.Equal("enc_2", s.received[1].EntityID)

	s.Run("events are handled once", func() {
		poller.poll(s.ctx)
		s.Len(s.received, 2)
	})
}

func (s *PollerTestSuite) TestPollResyncsAfterTrim() {
	poller := s.newStartedPoller()

	s.publish("enc_1")
	s.publish("enc_2")
	s.publish("enc_3")

	// Trim the backlog down to the last entry before the poller catches up;
	// the two older events are unrecoverable and the poller resyncs to the
	// surviving tail.
	err := s.client.LTrim(s.ctx, backlogKey(TopicEncounters), -1, -1).Err()
	s.Require().NoError(err)

	poller.poll(s.ctx)
	s.Require().Len(s.received, 1)
	s.Equal("enc_3", s.received[0].EntityID)

	// After the resync, new events flow again
	s.publish("enc_4")
	poller.poll(s.ctx)
	s.Require().Len(s.received, 2)
	s.Equal("enc_4", s.received[1].EntityID)
}

func (s *PollerTestSuite) TestPollContinuesPastBacklogCap() {
	// Pin the backlog list at its cap so its length stops moving
	for i := 0; i < backlogCap; i++ {
		s.publish("enc_old")
	}

	poller := s.newStartedPoller()

	s.publish("enc_new_1")
	s.publish("enc_new_2")
	poller.poll(s.ctx)

	s.Require().Len(s.received, 2)
	s.Equal("enc_new_1", s.received[0].EntityID)
	s.Equal("enc_new_2", s.received[1].EntityID)
}

func (s *PollerTestSuite) TestDoubleStartRejected() {
	poller := s.newStartedPoller()
	s.True(errors.IsFailedPrecondition(poller.Start(s.ctx)))
}

func TestPollerTestSuite(t *testing.T) {
	suite.Run(t, new(PollerTestSuite))
}
