package delivery

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/dispatch/core/logger"
)

// ReporterType is attached to every diagnostic as the "type" attribute.
const ReporterType = "ServerResponseHandler"

// Reporter records delivery diagnostics. A Reporter without a logger drops
// everything; reporting never fails and never affects the outcome.
type Reporter struct {
	logger *slog.Logger
	tag    string
}

// NewReporter creates a reporter for the given transport tag. log may be nil.
func NewReporter(log *slog.Logger, tag string) *Reporter {
	return &Reporter{logger: log, tag: tag}
}

// Report logs msg at level with the reporter's tag and type attached.
func (r *Reporter) Report(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	if r == nil || r.logger == nil {
		return
	}
	defer func() {
		// Handler panics stay inside the reporter.
		_ = recover()
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	attrs = append(attrs, logger.Tag(r.tag), logger.Type(ReporterType))
	r.logger.LogAttrs(ctx, level, msg, attrs...)
}

// Warn reports at warning level.
func (r *Reporter) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	r.Report(ctx, slog.LevelWarn, msg, attrs...)
}

// Error reports at error level.
func (r *Reporter) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	r.Report(ctx, slog.LevelError, msg, attrs...)
}
