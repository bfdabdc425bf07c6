// Package redischan exposes a Redis pub/sub channel as a delivery.SocketConn,
// so message-queue consumers can receive the same events as WebSocket clients.
package redischan

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/dispatch/core/delivery"
)

// ErrClosed is returned when publishing to a closed channel.
var ErrClosed = errors.New("redischan: channel closed")

// DefaultPublishTimeout bounds a single PUBLISH.
const DefaultPublishTimeout = 5 * time.Second

// Publisher is the subset of the Redis client used to publish.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

var _ delivery.SocketConn = (*Channel)(nil)

// Channel publishes encoded events to a named Redis channel. It is OPEN
// until Close; the Redis client itself is owned by the caller.
type Channel struct {
	client  Publisher
	name    string
	timeout time.Duration
	state   atomic.Int32
}

// Option configures a Channel.
type Option func(*Channel)

// WithPublishTimeout overrides DefaultPublishTimeout. Zero disables it.
func WithPublishTimeout(d time.Duration) Option {
	return func(c *Channel) {
		c.timeout = d
	}
}

// New returns an OPEN channel publishing to name.
func New(client Publisher, name string, opts ...Option) *Channel {
	c := &Channel{
		client:  client,
		name:    name,
		timeout: DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Store(int32(delivery.StateOpen))
	return c
}

// ID returns "redis:<channel>".
func (c *Channel) ID() string {
	return "redis:" + c.name
}

// ReadyState returns OPEN until Close.
func (c *Channel) ReadyState() delivery.ReadyState {
	return delivery.ReadyState(c.state.Load())
}

// WriteMessage publishes data to the channel.
func (c *Channel) WriteMessage(data []byte) error {
	if c.ReadyState() != delivery.StateOpen {
		return ErrClosed
	}

	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	return c.client.Publish(ctx, c.name, data).Err()
}

// Close marks the channel CLOSED. It does not close the Redis client.
func (c *Channel) Close() error {
	c.state.Store(int32(delivery.StateClosed))
	return nil
}
