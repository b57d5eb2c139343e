// Package refdata propagates reference-data reload notices over Redis
// pub/sub so every replica swaps in a new rate table.
package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/freightquote/internal/telemetry"
)

// Notice is the message published on the reload channel.
type Notice struct {
	Reason    string `json:"reason"`
	Source    string `json:"source,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Connect opens a Redis client and verifies it with PING.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Publisher is the subset of *redis.Client used by Publish.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Publish announces a reload on channel and returns the number of
// subscribers that received it.
func Publish(ctx context.Context, client Publisher, channel, source, reason string) (int64, error) {
	msg, err := json.Marshal(Notice{Reason: reason, Source: source, Timestamp: time.Now().Unix()})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal notice: %w", err)
	}
	n, err := client.Publish(ctx, channel, msg).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to publish notice: %w", err)
	}
	return n, nil
}

// ReloadFunc rebuilds and installs the reference data.
type ReloadFunc func(ctx context.Context) error

// SubscribeClient is the subset of *redis.Client used by Subscriber.
type SubscribeClient interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Subscriber applies reloads when notices arrive.
type Subscriber struct {
	client  SubscribeClient
	channel string
	reload  ReloadFunc
	logger  *otelzap.Logger
	metrics *telemetry.Metrics
}

// NewSubscriber creates a Subscriber. metrics may be nil.
func NewSubscriber(client SubscribeClient, channel string, reload ReloadFunc, logger *otelzap.Logger, metrics *telemetry.Metrics) *Subscriber {
	return &Subscriber{
		client:  client,
		channel: channel,
		reload:  reload,
		logger:  logger,
		metrics: metrics,
	}
}

// Run listens until ctx is cancelled. Failed reloads are logged and the
// current data stays in effect.
func (s *Subscriber) Run(ctx context.Context) error {
	ps := s.client.Subscribe(ctx, s.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}
	s.logger.Info("Listening for reference data reloads", zap.String("channel", s.channel))

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("subscription to %s closed", s.channel)
			}
			_ = s.HandleMessage(ctx, msg.Payload)
		}
	}
}

// HandleMessage applies one notice. Undecodable payloads still trigger a
// reload.
func (s *Subscriber) HandleMessage(ctx context.Context, payload string) error {
	var notice Notice
	if err := json.Unmarshal([]byte(payload), &notice); err != nil {
		s.logger.Ctx(ctx).Warn("Undecodable reload notice", zap.String("payload", payload), zap.Error(err))
	}

	start := time.Now()
	if err := s.reload(ctx); err != nil {
		s.record("error")
		s.logger.Ctx(ctx).Error("Reference data reload failed",
			zap.String("reason", notice.Reason),
			zap.String("source", notice.Source),
			zap.Error(err),
		)
		return err
	}
	s.record("success")
	s.logger.Ctx(ctx).Info("Reference data reloaded",
		zap.String("reason", notice.Reason),
		zap.String("source", notice.Source),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (s *Subscriber) record(status string) {
	if s.metrics != nil {
		s.metrics.RecordReload(status)
	}
}
