package services

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/models"
)

const (
	feedChannelPrefix  = "reviews:account:"
	feedChannelPattern = feedChannelPrefix + "*"
	feedBuffer         = 16
)

// FeedEvent is broadcast over Redis and written to WebSocket clients.
type FeedEvent struct {
	Type      string        `json:"type"`
	AccountID int64         `json:"account_id"`
	Review    models.Review `json:"review"`
}

// ReviewFeed fans newly stored reviews out to live subscribers of the owning
// account. With Redis every instance sees every review; without it delivery is
// local to the process.
type ReviewFeed struct {
	redis redis.UniversalClient

	mu   sync.RWMutex
	subs map[int64]map[*Subscription]struct{}
}

func NewReviewFeed(client redis.UniversalClient) *ReviewFeed {
	return &ReviewFeed{
		redis: client,
		subs:  make(map[int64]map[*Subscription]struct{}),
	}
}

// Subscription receives events for one account until Close is called.
type Subscription struct {
	C <-chan FeedEvent

	ch        chan FeedEvent
	accountID int64
	feed      *ReviewFeed
	once      sync.Once
}

func (f *ReviewFeed) Subscribe(accountID int64) *Subscription {
	ch := make(chan FeedEvent, feedBuffer)
	sub := &Subscription{C: ch, ch: ch, accountID: accountID, feed: f}

	f.mu.Lock()
	if f.subs[accountID] == nil {
		f.subs[accountID] = make(map[*Subscription]struct{})
	}
	f.subs[accountID][sub] = struct{}{}
	f.mu.Unlock()
	return sub
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		f := s.feed
		f.mu.Lock()
		delete(f.subs[s.accountID], s)
		if len(f.subs[s.accountID]) == 0 {
			delete(f.subs, s.accountID)
		}
		close(s.ch)
		f.mu.Unlock()
	})
}

// PublishReview implements ReviewPublisher.
func (f *ReviewFeed) PublishReview(ctx context.Context, accountID int64, review models.Review) {
	event := FeedEvent{Type: "review.created", AccountID: accountID, Review: review}
	if f.redis == nil {
		f.fanOut(event)
		return
	}

	data, err := json.Marshal(event)
	if err == nil {
		err = f.redis.Publish(ctx, feedChannelPrefix+strconv.FormatInt(accountID, 10), data).Err()
	}
	if err != nil {
		log.Warn().Err(err).Int64("account_id", accountID).Msg("review feed publish failed, delivering locally")
		f.fanOut(event)
	}
}

// fanOut never blocks; a subscriber whose buffer is full misses the event.
func (f *ReviewFeed) fanOut(event FeedEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for sub := range f.subs[event.AccountID] {
		select {
		case sub.ch <- event:
		default:
			log.Debug().Int64("account_id", event.AccountID).Msg("review feed subscriber is slow, dropping event")
		}
	}
}

// Run relays Redis messages to local subscribers until ctx ends, reconnecting
// with exponential backoff.
func (f *ReviewFeed) Run(ctx context.Context) {
	if f.redis == nil {
		return
	}

	backoff := time.Second
	for ctx.Err() == nil {
		err := f.relay(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Dur("retry_in", backoff).Msg("review feed subscriber error")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

func (f *ReviewFeed) relay(ctx context.Context) error {
	pubsub := f.redis.PSubscribe(ctx, feedChannelPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	log.Info().Str("pattern", feedChannelPattern).Msg("✅ Review feed subscriber started")

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}

		var event FeedEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Warn().Err(err).Str("channel", msg.Channel).Msg("failed to decode review event")
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(msg.Channel, feedChannelPrefix), 10, 64)
		if err != nil {
			log.Warn().Err(err).Str("channel", msg.Channel).Msg("unexpected review channel")
			continue
		}
		event.AccountID = id
		f.fanOut(event)
	}
}
