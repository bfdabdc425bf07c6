package wsconn

import (
	"context"
	"io"
	"sync"

	"github.com/dmitrymomot/dispatch/core/delivery"
)

// Hub is a registry of socket connections. Any delivery.SocketConn can be
// registered, so message channels can share a hub with WebSocket clients.
type Hub struct {
	emitter *delivery.Emitter

	mu    sync.RWMutex
	conns map[string]delivery.SocketConn
	order []string
}

// NewHub creates a hub delivering through emitter.
func NewHub(emitter *delivery.Emitter) *Hub {
	if emitter == nil {
		emitter = delivery.NewEmitter()
	}
	return &Hub{
		emitter: emitter,
		conns:   make(map[string]delivery.SocketConn),
	}
}

// Register adds conn. Registering the same id twice replaces the entry.
func (h *Hub) Register(conn delivery.SocketConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[conn.ID()]; !ok {
		h.order = append(h.order, conn.ID())
	}
	h.conns[conn.ID()] = conn
}

// Unregister removes conn. Unknown connections are ignored.
func (h *Hub) Unregister(conn delivery.SocketConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := conn.ID()
	if _, ok := h.conns[id]; !ok {
		return
	}
	delete(h.conns, id)
	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Snapshot returns the registered connections in registration order.
// The returned slice is owned by the caller.
func (h *Hub) Snapshot() []delivery.SocketConn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]delivery.SocketConn, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.conns[id])
	}
	return out
}

// Emit delivers event to a single connection.
func (h *Hub) Emit(ctx context.Context, conn delivery.SocketConn, event delivery.Event) bool {
	return h.emitter.Emit(ctx, conn, event)
}

// Broadcast delivers event to a snapshot of all registered connections.
func (h *Hub) Broadcast(ctx context.Context, event delivery.Event) bool {
	return h.emitter.Broadcast(ctx, h.Snapshot(), event)
}

// Close closes every registered connection that can be closed and empties the hub.
func (h *Hub) Close() error {
	h.mu.Lock()
	conns := h.conns
	order := h.order
	h.conns = make(map[string]delivery.SocketConn)
	h.order = nil
	h.mu.Unlock()

	for _, id := range order {
		if c, ok := conns[id].(io.Closer); ok {
			_ = c.Close()
		}
	}
	return nil
}
