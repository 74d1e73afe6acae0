// Package broker relays outbox messages to Redis pub/sub.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"shopledger/internal/core/id"
	"shopledger/internal/infrastructure/storage/postgres"
)

// DefaultChannel is the pub/sub channel events are published on.
const DefaultChannel = "shopledger.events"

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// publisher is the part of *redis.Client the relay needs.
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Envelope is the JSON message readers receive.
type Envelope struct {
	ID            id.ID           `json:"id"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   id.ID           `json:"aggregateId"`
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// RedisPublisher implements postgres.OutboxHandler.
type RedisPublisher struct {
	client  publisher
	closer  func() error
	pinger  func(ctx context.Context) error
	channel string
}

var _ postgres.OutboxHandler = (*RedisPublisher)(nil)

// NewRedisPublisher connects to Redis.
func NewRedisPublisher(cfg Config) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	p := newPublisher(client, cfg.Channel)
	p.closer = client.Close
	p.pinger = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return p
}

func newPublisher(client publisher, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{
		client:  client,
		channel: channel,
		closer:  func() error { return nil },
		pinger:  func(context.Context) error { return nil },
	}
}

// Handle publishes one outbox message.
// Zero subscribers is not an error.
func (p *RedisPublisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	body, err := json.Marshal(Envelope{
		ID:            msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		Type:          msg.EventType,
		Payload:       json.RawMessage(msg.Payload),
		OccurredAt:    msg.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}

// Ping checks the connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.pinger(ctx)
}

// Close releases the connection.
func (p *RedisPublisher) Close() error {
	return p.closer()
}
