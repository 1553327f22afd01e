package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zainab674/project-plus-sub002/internal/domain/entities"
)

// RedisPublisher publishes meeting events on a Redis pub/sub channel
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher creates a publisher for the given channel
func NewRedisPublisher(client *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

// Publish encodes the event as JSON and sends it to subscribers
func (p *RedisPublisher) Publish(ctx context.Context, event entities.MeetingEvent) error {
	payload, err := Encode(event)
	if err != nil {
		return err
	}
	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("redis PUBLISH %s: %w", p.channel, err)
	}
	p.logger.Debug("Meeting event published",
		zap.String("channel", p.channel),
		zap.String("type", string(event.Type)),
		zap.String("meeting_id", event.MeetingID),
		zap.Int64("receivers", receivers))
	return nil
}

// LogPublisher writes meeting events to the log only. Used when Redis is disabled.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a log-only publisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the event
func (p *LogPublisher) Publish(ctx context.Context, event entities.MeetingEvent) error {
	p.logger.Info("Meeting event",
		zap.String("type", string(event.Type)),
		zap.String("meeting_id", event.MeetingID),
		zap.String("status", string(event.Status)),
		zap.String("actor_id", event.ActorID),
		zap.Strings("recipients", event.Recipients))
	return nil
}

// Encode returns the wire form of an event
func Encode(event entities.MeetingEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode meeting event: %w", err)
	}
	return payload, nil
}
