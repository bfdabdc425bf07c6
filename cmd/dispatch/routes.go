package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/dispatch/core/delivery"
	"github.com/dmitrymomot/dispatch/core/health"
	"github.com/dmitrymomot/dispatch/core/logger"
	"github.com/dmitrymomot/dispatch/integration/redis"
	"github.com/dmitrymomot/dispatch/middleware"
	"github.com/dmitrymomot/dispatch/transport/httpconn"
	"github.com/dmitrymomot/dispatch/transport/wsconn"
)

const (
	eventBroadcast = "broadcast"
	eventMessage   = "message"
	eventPing      = "ping"
	eventPong      = "pong"
)

var errUnknownEvent = errors.New("unknown event type")

func routes(
	responder *delivery.Responder,
	hub *wsconn.Hub,
	gatherer prometheus.Gatherer,
	rdb *goredis.Client,
	log *slog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /{$}", httpconn.Handler(responder, echo))
	mux.Handle("GET /stream", httpconn.Handler(responder, stream))
	mux.Handle("GET /health/live", httpconn.Handler(responder, health.Liveness))
	mux.Handle("GET /health/ready", httpconn.Handler(responder, health.Readiness(log, checks(rdb)...)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("GET /ws", wsconn.Handler(hub, relay(hub),
		wsconn.WithAllowAnyOrigin(),
		wsconn.WithOnConnect(func(ctx context.Context, c *wsconn.Conn) error {
			log.InfoContext(ctx, "client connected", logger.ConnectionID(c.ID()))
			return nil
		}),
		wsconn.WithOnDisconnect(func(ctx context.Context, c *wsconn.Conn) {
			log.InfoContext(ctx, "client disconnected", logger.ConnectionID(c.ID()))
		}),
		wsconn.WithErrorHandler(func(ctx context.Context, err error) {
			log.WarnContext(ctx, "websocket error", logger.Error(err))
		}),
	))

	var h http.Handler = mux
	h = middleware.LoggingWithConfig(middleware.LoggingConfig{
		Logger: log,
		Skip: func(r *http.Request) bool {
			return strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics"
		},
	})(h)
	h = middleware.RequestID()(h)
	return h
}

func echo(r *http.Request) delivery.Response {
	return delivery.Response{
		Body: map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"query":  r.URL.Query(),
		},
	}
}

func stream(r *http.Request) delivery.Response {
	pr, pw := io.Pipe()
	go func() {
		for i := 1; i <= 5; i++ {
			if _, err := fmt.Fprintf(pw, "chunk %d\n", i); err != nil {
				return
			}
			select {
			case <-r.Context().Done():
				pw.CloseWithError(r.Context().Err())
				return
			case <-time.After(100 * time.Millisecond):
			}
		}
		pw.Close()
	}()

	return delivery.Response{
		Headers: map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:    pr,
	}
}

func checks(rdb *goredis.Client) []func(context.Context) error {
	if rdb == nil {
		return nil
	}
	return []func(context.Context) error{redis.Healthcheck(rdb)}
}

// relay answers pings and fans broadcast payloads out to every hub member.
func relay(hub *wsconn.Hub) wsconn.Effect {
	return func(ctx context.Context, c *wsconn.Conn, ev delivery.Event) ([]delivery.Event, error) {
		switch strings.ToLower(ev.Type) {
		case eventPing:
			return []delivery.Event{{Type: eventPong}}, nil
		case eventBroadcast:
			hub.Broadcast(ctx, delivery.Event{
				Type:    eventMessage,
				Payload: map[string]any{"from": c.ID(), "data": ev.Payload},
			})
			return nil, nil
		default:
			return nil, fmt.Errorf("%w: %q", errUnknownEvent, ev.Type)
		}
	}
}
