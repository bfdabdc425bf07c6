package wsconn

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/dispatch/core/delivery"
)

// ErrNotOpen is returned when writing to a connection that is not OPEN.
var ErrNotOpen = errors.New("wsconn: connection is not open")

const closeGracePeriod = time.Second

var _ delivery.SocketConn = (*Conn)(nil)

// Conn wraps a *websocket.Conn with a lifecycle state and serialized writes.
// gorilla/websocket allows one concurrent writer; Conn enforces it.
type Conn struct {
	ws           *websocket.Conn
	id           string
	state        atomic.Int32
	writeMu      sync.Mutex
	closeOnce    sync.Once
	writeTimeout time.Duration
	messageType  int
}

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithWriteTimeout sets a deadline for every write. Zero disables it.
func WithWriteTimeout(d time.Duration) ConnOption {
	return func(c *Conn) {
		c.writeTimeout = d
	}
}

// WithBinaryMessages sends events as binary frames instead of text frames.
func WithBinaryMessages() ConnOption {
	return func(c *Conn) {
		c.messageType = websocket.BinaryMessage
	}
}

// NewConn wraps an upgraded connection; it starts OPEN.
func NewConn(ws *websocket.Conn, opts ...ConnOption) *Conn {
	c := &Conn{
		ws:          ws,
		id:          uuid.NewString(),
		messageType: websocket.TextMessage,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Store(int32(delivery.StateOpen))
	return c
}

// ID returns the connection id.
func (c *Conn) ID() string {
	return c.id
}

// ReadyState returns the current lifecycle state.
func (c *Conn) ReadyState() delivery.ReadyState {
	return delivery.ReadyState(c.state.Load())
}

// WriteMessage sends one frame. A failed write leaves the connection CLOSED.
func (c *Conn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.ReadyState() != delivery.StateOpen {
		return ErrNotOpen
	}
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.ws.WriteMessage(c.messageType, data); err != nil {
		c.state.Store(int32(delivery.StateClosed))
		return err
	}
	return nil
}

// ReadMessage reads the next frame payload.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		c.markClosed()
	}
	return data, err
}

// Close sends a close frame when still OPEN and closes the underlying
// connection. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.state.CompareAndSwap(int32(delivery.StateOpen), int32(delivery.StateClosing)) {
			c.writeMu.Lock()
			_ = c.ws.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(closeGracePeriod),
			)
			c.writeMu.Unlock()
		}
		c.markClosed()
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) markClosed() {
	c.state.Store(int32(delivery.StateClosed))
}
