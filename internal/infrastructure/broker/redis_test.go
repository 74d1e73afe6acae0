package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/id"
	"shopledger/internal/infrastructure/storage/postgres"
)

type fakeClient struct {
	channel string
	body    []byte
	err     error
}

func (f *fakeClient) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	f.body, _ = message.([]byte)
	return redis.NewIntResult(1, f.err)
}

func TestRedisPublisher_Handle(t *testing.T) {
	fc := &fakeClient{}
	p := newPublisher(fc, "")
	msg := &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: "order",
		AggregateID:   id.New(),
		EventType:     "order.completed",
		Payload:       []byte(`{"code":"SO-2026-00001"}`),
		CreatedAt:     time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.Handle(context.Background(), msg))

	assert.Equal(t, DefaultChannel, fc.channel)
	var env Envelope
	require.NoError(t, json.Unmarshal(fc.body, &env))
	assert.Equal(t, msg.ID, env.ID)
	assert.Equal(t, "order.completed", env.Type)
	assert.JSONEq(t, `{"code":"SO-2026-00001"}`, string(env.Payload))
}

func TestRedisPublisher_HandleError(t *testing.T) {
	p := newPublisher(&fakeClient{err: errors.New("connection reset")}, "custom")

	err := p.Handle(context.Background(), &postgres.OutboxMessage{Payload: []byte(`{}`)})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish to custom")
}
