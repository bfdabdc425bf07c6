// Package delivery writes computed responses and events onto transport connections.
//
// The package is transport-agnostic. HTTP-style transports implement
// ResponseConn, socket-style transports (WebSocket, pub/sub channels)
// implement SocketConn. Delivery never returns errors to the caller: every
// failure ends in a logged diagnostic, a false outcome, or a silently
// completed signal.
//
// # Responses
//
// A Responder normalizes a Response (status, headers, body) and writes it:
//
//	responder := delivery.NewResponder(delivery.WithLogger(log))
//	done := responder.Handle(conn, r)(delivery.Response{
//		Status: http.StatusCreated,
//		Body:   map[string]string{"id": id},
//	})
//	<-done
//
// Bodies implementing io.Reader are piped to the connection; the completion
// signal fires once piping starts. Pipe failures are reported through
// WithStreamErrorHandler and never change the outcome.
//
// A connection that already finished is never written to again; Handle
// returns a closed channel without touching it.
//
// # Events
//
// An Emitter encodes an Event and writes it to one or many socket connections:
//
//	emitter := delivery.NewEmitter(delivery.WithLogger(log))
//	ok := emitter.Emit(ctx, client, delivery.Event{Type: "joined", Payload: user})
//	ok = emitter.Broadcast(ctx, hub.Snapshot(), event)
//
// Emit returns false when the connection is not OPEN or the write failed.
// Broadcast delivers to a snapshot of the given connections concurrently,
// isolates per-connection failures, and returns true once every attempt has
// settled.
package delivery
