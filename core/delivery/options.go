package delivery

import (
	"context"
	"log/slog"
)

// Config holds delivery settings loaded from the environment.
type Config struct {
	// BroadcastLimit caps concurrent writes per broadcast. Zero means unlimited.
	BroadcastLimit int `env:"DISPATCH_BROADCAST_LIMIT" envDefault:"0"`
}

type settings struct {
	logger         *slog.Logger
	metrics        *Metrics
	tag            string
	encoder        EventEncoder
	onStreamError  func(context.Context, error)
	broadcastLimit int
}

// Option configures a Responder or an Emitter.
type Option func(*settings)

func newSettings(tag string, opts []Option) *settings {
	s := &settings{
		tag:     tag,
		encoder: JSONEncoder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithLogger sets the diagnostic logger. Without it diagnostics are dropped.
func WithLogger(log *slog.Logger) Option {
	return func(s *settings) {
		s.logger = log
	}
}

// WithMetrics records outcomes into m.
func WithMetrics(m *Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithTag overrides the transport tag used in diagnostics and metric labels.
func WithTag(tag string) Option {
	return func(s *settings) {
		if tag != "" {
			s.tag = tag
		}
	}
}

// WithEncoder sets the event encoder. Defaults to JSONEncoder.
func WithEncoder(enc EventEncoder) Option {
	return func(s *settings) {
		if enc != nil {
			s.encoder = enc
		}
	}
}

// WithStreamErrorHandler receives failures of piped response bodies.
func WithStreamErrorHandler(fn func(context.Context, error)) Option {
	return func(s *settings) {
		s.onStreamError = fn
	}
}

// WithBroadcastLimit caps concurrent writes per broadcast. n <= 0 means unlimited.
func WithBroadcastLimit(n int) Option {
	return func(s *settings) {
		s.broadcastLimit = n
	}
}

// WithConfig applies environment configuration.
func WithConfig(cfg Config) Option {
	return WithBroadcastLimit(cfg.BroadcastLimit)
}
