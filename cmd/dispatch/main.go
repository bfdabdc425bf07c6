// Command dispatch serves the delivery core over HTTP and WebSockets.
//
// Routes:
//
//	GET  /              JSON echo of the request
//	GET  /stream        streamed plain-text body
//	GET  /ws            WebSocket event hub
//	GET  /health/live   liveness
//	GET  /health/ready  readiness, pinging Redis when configured
//	GET  /metrics       Prometheus metrics
//
// Broadcast events received over /ws are mirrored to a Redis channel when
// REDIS_URL is set.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/dispatch/core/config"
	"github.com/dmitrymomot/dispatch/core/delivery"
	"github.com/dmitrymomot/dispatch/core/logger"
	"github.com/dmitrymomot/dispatch/core/server"
	"github.com/dmitrymomot/dispatch/integration/redis"
	"github.com/dmitrymomot/dispatch/transport/redischan"
	"github.com/dmitrymomot/dispatch/transport/wsconn"
)

type appConfig struct {
	Logger   logger.Config
	Server   server.Config
	Delivery delivery.Config
	Redis    redis.Config

	Env           string `env:"APP_ENV" envDefault:"production"`
	EventsChannel string `env:"DISPATCH_REDIS_CHANNEL" envDefault:"dispatch:events"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	logOpts := []logger.Option{logger.WithConfig(cfg.Logger)}
	if cfg.Env == "development" {
		logOpts = []logger.Option{logger.WithDevelopment(cfg.Logger.App)}
	}
	log := logger.New(logOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("dispatch stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := delivery.NewMetrics(reg)

	opts := []delivery.Option{
		delivery.WithConfig(cfg.Delivery),
		delivery.WithLogger(log),
		delivery.WithMetrics(metrics),
		delivery.WithStreamErrorHandler(func(ctx context.Context, err error) {
			log.WarnContext(ctx, "response stream interrupted", logger.Error(err))
		}),
	}
	responder := delivery.NewResponder(opts...)
	hub := wsconn.NewHub(delivery.NewEmitter(opts...))

	var rdb *goredis.Client
	if cfg.Redis.ConnectionURL != "" {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		rdb = client

		hub.Register(redischan.New(client, cfg.EventsChannel))
		log.InfoContext(ctx, "mirroring broadcasts to redis", slog.String("channel", cfg.EventsChannel))
	}

	srv, err := server.NewFromConfig(cfg.Server,
		server.WithLogger(log),
		server.WithOnShutdown(func() {
			if err := hub.Close(); err != nil {
				log.Error("failed to close websocket hub", logger.Error(err))
			}
		}),
	)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Run(ctx, routes(responder, hub, reg, rdb, log)))
	return g.Wait()
}
