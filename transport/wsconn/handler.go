package wsconn

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/dispatch/core/delivery"
)

// Effect maps one inbound event to the events sent back to the same client.
type Effect func(ctx context.Context, conn *Conn, event delivery.Event) ([]delivery.Event, error)

// EventDecoder parses an inbound frame.
type EventDecoder interface {
	Decode(data []byte) (delivery.Event, error)
}

type wsConfig struct {
	upgrader       *websocket.Upgrader
	responseHeader http.Header
	decoder        EventDecoder
	connOpts       []ConnOption
	onConnect      func(context.Context, *Conn) error
	onDisconnect   func(context.Context, *Conn)
	onError        func(context.Context, error)
}

// Option configures Handler.
type Option func(*wsConfig)

func WithReadBuffer(size int) Option {
	return func(c *wsConfig) {
		c.upgrader.ReadBufferSize = size
	}
}

func WithWriteBuffer(size int) Option {
	return func(c *wsConfig) {
		c.upgrader.WriteBufferSize = size
	}
}

func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *wsConfig) {
		c.upgrader.HandshakeTimeout = timeout
	}
}

func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = fn
	}
}

func WithAllowAnyOrigin() Option {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
}

func WithSubprotocols(protocols ...string) Option {
	return func(c *wsConfig) {
		c.upgrader.Subprotocols = protocols
	}
}

func WithUpgradeHeaders(header http.Header) Option {
	return func(c *wsConfig) {
		c.responseHeader = header
	}
}

// WithDecoder replaces the default JSON event decoder.
func WithDecoder(d EventDecoder) Option {
	return func(c *wsConfig) {
		if d != nil {
			c.decoder = d
		}
	}
}

// WithConnOptions applies options to every accepted connection.
func WithConnOptions(opts ...ConnOption) Option {
	return func(c *wsConfig) {
		c.connOpts = append(c.connOpts, opts...)
	}
}

// WithOnConnect runs after registration; an error closes the connection.
func WithOnConnect(fn func(context.Context, *Conn) error) Option {
	return func(c *wsConfig) {
		c.onConnect = fn
	}
}

func WithOnDisconnect(fn func(context.Context, *Conn)) Option {
	return func(c *wsConfig) {
		c.onDisconnect = fn
	}
}

// WithErrorHandler receives upgrade, decode and effect errors.
func WithErrorHandler(fn func(context.Context, error)) Option {
	return func(c *wsConfig) {
		c.onError = fn
	}
}

// Handler upgrades requests to WebSocket connections registered in hub.
// Every inbound frame is decoded and passed to effect; returned events are
// emitted to the same connection. Decode and effect errors are reported
// and the read loop continues.
func Handler(hub *Hub, effect Effect, opts ...Option) http.Handler {
	cfg := &wsConfig{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		decoder: delivery.JSONEncoder{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ws, err := cfg.upgrader.Upgrade(w, r, cfg.responseHeader)
		if err != nil {
			// Upgrade already replied with an HTTP error.
			cfg.reportError(ctx, err)
			return
		}

		conn := NewConn(ws, cfg.connOpts...)
		hub.Register(conn)
		defer func() {
			hub.Unregister(conn)
			_ = conn.Close()
			if cfg.onDisconnect != nil {
				cfg.onDisconnect(ctx, conn)
			}
		}()

		if cfg.onConnect != nil {
			if err := cfg.onConnect(ctx, conn); err != nil {
				cfg.reportError(ctx, err)
				return
			}
		}

		for {
			data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					cfg.reportError(ctx, err)
				}
				return
			}

			in, err := cfg.decoder.Decode(data)
			if err != nil {
				cfg.reportError(ctx, err)
				continue
			}

			out, err := effect(ctx, conn, in)
			if err != nil {
				cfg.reportError(ctx, err)
			}
			for _, ev := range out {
				hub.Emit(ctx, conn, ev)
			}
		}
	})
}

func (c *wsConfig) reportError(ctx context.Context, err error) {
	if c.onError != nil {
		c.onError(ctx, err)
	}
}
