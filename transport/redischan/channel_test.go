package redischan_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/core/delivery"
	"github.com/dmitrymomot/dispatch/transport/redischan"
)

type published struct {
	channel string
	message any
}

type stubPublisher struct {
	mu    sync.Mutex
	sent  []published
	err   error
	hasDL bool
}

func (p *stubPublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, p.hasDL = ctx.Deadline()
	if p.err != nil {
		return redis.NewIntResult(0, p.err)
	}
	p.sent = append(p.sent, published{channel: channel, message: message})
	return redis.NewIntResult(1, nil)
}

func TestChannel(t *testing.T) {
	t.Parallel()

	t.Run("publishes_encoded_event", func(t *testing.T) {
		t.Parallel()

		pub := &stubPublisher{}
		ch := redischan.New(pub, "events")

		assert.Equal(t, "redis:events", ch.ID())
		assert.Equal(t, delivery.StateOpen, ch.ReadyState())

		emitter := delivery.NewEmitter(delivery.WithTag("messaging"))
		require.True(t, emitter.Emit(context.Background(), ch, delivery.Event{Type: "created", Payload: 7}))

		require.Len(t, pub.sent, 1)
		assert.Equal(t, "events", pub.sent[0].channel)
		assert.JSONEq(t, `{"type":"created","payload":7}`, string(pub.sent[0].message.([]byte)))
		assert.True(t, pub.hasDL)
	})

	t.Run("closed_channel_is_skipped", func(t *testing.T) {
		t.Parallel()

		pub := &stubPublisher{}
		ch := redischan.New(pub, "events")
		require.NoError(t, ch.Close())

		assert.Equal(t, delivery.StateClosed, ch.ReadyState())
		assert.False(t, delivery.NewEmitter().Emit(context.Background(), ch, delivery.Event{Type: "x"}))
		assert.ErrorIs(t, ch.WriteMessage([]byte("x")), redischan.ErrClosed)
		assert.Empty(t, pub.sent)
	})

	t.Run("publish_error_returns_false", func(t *testing.T) {
		t.Parallel()

		pub := &stubPublisher{err: errors.New("READONLY")}
		ch := redischan.New(pub, "events", redischan.WithPublishTimeout(0))

		assert.False(t, delivery.NewEmitter().Emit(context.Background(), ch, delivery.Event{Type: "x"}))
		assert.False(t, pub.hasDL)
	})
}
