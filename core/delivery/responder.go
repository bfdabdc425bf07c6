package delivery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/dispatch/core/logger"
)

// Responder delivers HTTP-style responses. Safe for concurrent use as long
// as no two deliveries target the same connection at once.
type Responder struct {
	reporter      *Reporter
	metrics       *Metrics
	tag           string
	onStreamError func(context.Context, error)
}

// NewResponder creates a Responder. The default tag is "http".
func NewResponder(opts ...Option) *Responder {
	s := newSettings(logger.TagHTTP, opts)
	return &Responder{
		reporter:      NewReporter(s.logger, s.tag),
		metrics:       s.metrics,
		tag:           s.tag,
		onStreamError: s.onStreamError,
	}
}

// Handle binds a connection and its request, returning a function that
// delivers one Response. The returned channel never carries values; it is
// closed once delivery completes, or once piping starts for streamed bodies.
// req may be nil.
func (r *Responder) Handle(conn ResponseConn, req *http.Request) func(Response) <-chan struct{} {
	ctx := context.Background()
	if req != nil {
		ctx = req.Context()
	}

	return func(resp Response) <-chan struct{} {
		done := make(chan struct{})
		r.deliver(ctx, conn, req, resp)
		close(done)
		return done
	}
}

// Respond delivers resp to conn. It returns when Handle's completion signal would fire.
func (r *Responder) Respond(ctx context.Context, conn ResponseConn, resp Response) {
	r.deliver(ctx, conn, nil, resp)
}

func (r *Responder) deliver(ctx context.Context, conn ResponseConn, req *http.Request, resp Response) {
	defer func() {
		if p := recover(); p != nil {
			r.fail(ctx, conn, req, fmt.Errorf("%w: %v", ErrTransportPanic, p))
		}
	}()

	if !IsDeliverable(conn) {
		r.metrics.observe(r.tag, OutcomeSkipped)
		return
	}

	n, err := Normalize(resp)
	if err != nil {
		r.fail(ctx, conn, req, err)
		return
	}

	if n.IsStream() {
		if err := writeHeader(conn, n); err != nil {
			r.fail(ctx, conn, req, err)
			return
		}
		r.metrics.observe(r.tag, OutcomeDelivered)
		go r.pipe(ctx, conn, n.Stream)
		return
	}

	if err := writeBuffered(conn, n); err != nil {
		r.fail(ctx, conn, req, err)
		return
	}
	r.metrics.observe(r.tag, OutcomeDelivered)
}

// pipe copies src into conn and ends the response. Failures belong to the
// stream and are handed to the stream error handler only.
func (r *Responder) pipe(ctx context.Context, conn ResponseConn, src io.Reader) {
	defer func() {
		if p := recover(); p != nil {
			r.streamError(ctx, fmt.Errorf("%w: %v", ErrTransportPanic, p))
		}
	}()
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	_, copyErr := io.Copy(conn, src)
	if copyErr != nil {
		r.streamError(ctx, fmt.Errorf("%w: %w", ErrWriteBody, copyErr))
	}
	if err := conn.End(nil); err != nil && copyErr == nil {
		r.streamError(ctx, fmt.Errorf("%w: %w", ErrWriteBody, err))
	}
}

func (r *Responder) streamError(ctx context.Context, err error) {
	if r.onStreamError != nil {
		r.onStreamError(ctx, err)
	}
}

func (r *Responder) fail(ctx context.Context, conn ResponseConn, req *http.Request, err error) {
	r.metrics.observe(r.tag, OutcomeFailed)

	attrs := []slog.Attr{
		logger.ConnectionID(idOf(conn)),
		logger.Error(err),
	}
	if req != nil {
		attrs = append(attrs, logger.Method(req.Method))
		if req.URL != nil {
			attrs = append(attrs, logger.Path(req.URL.Path))
		}
	}
	r.reporter.Error(ctx,
		fmt.Sprintf("An error occurred while sending a response to connection %q", idOf(conn)),
		attrs...)
}

func writeHeader(conn ResponseConn, n Normalized) (err error) {
	defer recoverTransport(&err)
	if err := conn.WriteHeader(n.Status, n.Header); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteHeader, err)
	}
	return nil
}

// writeBuffered writes status and headers strictly before the payload.
func writeBuffered(conn ResponseConn, n Normalized) (err error) {
	if err := writeHeader(conn, n); err != nil {
		return err
	}
	defer recoverTransport(&err)
	if err := conn.End(n.Body); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteBody, err)
	}
	return nil
}

func recoverTransport(err *error) {
	if p := recover(); p != nil {
		*err = fmt.Errorf("%w: %v", ErrTransportPanic, p)
	}
}
