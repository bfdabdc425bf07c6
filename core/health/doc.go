// Package health provides probe effects for httpconn.Handler.
//
// Effects:
//   - Liveness: Process is running (no dependency checks)
//   - Readiness: All dependencies are available
//   - NoContent: Returns 204 for minimal overhead
//
// Usage:
//
//	mux.Handle("GET /health/live", httpconn.Handler(responder, health.Liveness))
//	mux.Handle("GET /health/ready", httpconn.Handler(responder, health.Readiness(
//		logger,
//		redis.Healthcheck(client),
//	)))
//
// Dependency checks must follow func(context.Context) error signature.
package health
