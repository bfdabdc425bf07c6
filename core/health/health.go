package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/dispatch/core/delivery"
	"github.com/dmitrymomot/dispatch/core/logger"
)

var textPlain = map[string]string{"content-type": "text/plain; charset=utf-8"}

// Liveness indicates the process is running. Always "ALIVE" with 200 OK.
func Liveness(*http.Request) delivery.Response {
	return delivery.Response{Headers: textPlain, Body: "ALIVE"}
}

// NoContent returns 204 without a body.
func NoContent(*http.Request) delivery.Response {
	return delivery.Response{Status: http.StatusNoContent}
}

// Readiness runs every check and answers "READY", or 503 when any check fails.
func Readiness(log *slog.Logger, checks ...func(context.Context) error) func(*http.Request) delivery.Response {
	if log == nil {
		log = logger.Discard()
	}

	return func(r *http.Request) delivery.Response {
		ctx := r.Context()
		for _, check := range checks {
			if err := check(ctx); err != nil {
				log.ErrorContext(ctx, "Readiness check failed", logger.Error(err))
				return delivery.Response{
					Status:  http.StatusServiceUnavailable,
					Headers: textPlain,
					Body:    http.StatusText(http.StatusServiceUnavailable),
				}
			}
		}
		return delivery.Response{Headers: textPlain, Body: "READY"}
	}
}
