// Package logger provides structured logging utilities built on Go's standard slog package.
//
// The package offers a small factory for *slog.Logger values and a set of
// attribute helpers for the delivery layer. Attribute helpers return an empty
// slog.Attr for zero values, so callers never need nil checks:
//
//	log := logger.New(
//		logger.WithProduction("dispatch"),
//		logger.WithLevel(slog.LevelDebug),
//	)
//
//	log.Warn("skip delivery",
//		logger.Tag(logger.TagWebSockets),
//		logger.ConnectionID(conn.ID()),
//		logger.Error(err),
//	)
//
// Loggers can also be built from environment configuration:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log := logger.New(logger.WithConfig(cfg))
package logger
