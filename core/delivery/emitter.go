package delivery

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/dispatch/core/logger"
)

// Emitter delivers events to socket-style connections.
type Emitter struct {
	reporter *Reporter
	metrics  *Metrics
	encoder  EventEncoder
	tag      string
	limit    int
}

// NewEmitter creates an Emitter. The default tag is "websockets" and the
// default encoder is JSONEncoder.
func NewEmitter(opts ...Option) *Emitter {
	s := newSettings(logger.TagWebSockets, opts)
	return &Emitter{
		reporter: NewReporter(s.logger, s.tag),
		metrics:  s.metrics,
		encoder:  s.encoder,
		tag:      s.tag,
		limit:    s.broadcastLimit,
	}
}

// Emit encodes event and writes it to conn. It returns false, without
// writing, when conn is not OPEN, and false when encoding or writing fails.
func (e *Emitter) Emit(ctx context.Context, conn SocketConn, event Event) bool {
	return e.deliver(ctx, conn, event, func() ([]byte, error) {
		return e.encoder.Encode(event)
	})
}

// Broadcast writes event to every connection in conns concurrently. The
// slice is copied first, so later membership changes do not affect the
// batch. Individual failures are logged and isolated; the result is true
// once all attempts settled and false only on an aggregation fault.
func (e *Emitter) Broadcast(ctx context.Context, conns []SocketConn, event Event) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			e.reporter.Error(ctx, "An error occurred while broadcasting an event",
				logger.EventType(event.Type),
				logger.Error(fmt.Errorf("%w: %v", ErrAggregateFault, p)))
			ok = false
		}
	}()

	targets := slices.Clone(conns)
	e.metrics.observeFanout(len(targets))

	// Encoded at most once, on the first deliverable target.
	payload := sync.OnceValues(func() ([]byte, error) {
		return e.encoder.Encode(event)
	})

	var g errgroup.Group
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for _, conn := range targets {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("%w: %v", ErrAggregateFault, p)
				}
			}()
			e.deliver(ctx, conn, event, payload)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.reporter.Error(ctx, "An error occurred while broadcasting an event",
			logger.EventType(event.Type),
			logger.Error(err))
		return false
	}
	return true
}

// deliver never panics: a connection misbehaving anywhere, guard included,
// counts as a failed delivery to that connection only.
func (e *Emitter) deliver(ctx context.Context, conn SocketConn, event Event, payload func() ([]byte, error)) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			e.failed(ctx, conn, event, fmt.Errorf("%w: %v", ErrTransportPanic, p))
			ok = false
		}
	}()

	if !IsDeliverable(conn) {
		state := stateOf(conn)
		e.reporter.Warn(ctx,
			fmt.Sprintf("Trying to send an event for client which is %s", state),
			logger.ConnectionID(idOf(conn)),
			logger.ReadyState(state),
			logger.EventType(event.Type))
		e.metrics.observe(e.tag, OutcomeSkipped)
		return false
	}

	if err := send(conn, payload); err != nil {
		e.failed(ctx, conn, event, err)
		return false
	}

	e.metrics.observe(e.tag, OutcomeDelivered)
	return true
}

func (e *Emitter) failed(ctx context.Context, conn SocketConn, event Event, err error) {
	id := idOf(conn)
	e.reporter.Error(ctx,
		fmt.Sprintf("An error occurred while sending an event to client %q", id),
		logger.ConnectionID(id),
		logger.EventType(event.Type),
		logger.Error(err))
	e.metrics.observe(e.tag, OutcomeFailed)
}

func send(conn SocketConn, payload func() ([]byte, error)) (err error) {
	defer recoverTransport(&err)

	data, err := payload()
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(data); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteMessage, err)
	}
	return nil
}
