// Package httpconn adapts net/http responses to delivery.ResponseConn and
// provides the glue that runs an HTTP effect through a delivery.Responder.
package httpconn

import (
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/dispatch/core/delivery"
)

var (
	ErrFinished      = errors.New("httpconn: response already finished")
	ErrHeaderWritten = errors.New("httpconn: header already written")
)

var _ delivery.ResponseConn = (*Conn)(nil)

// Conn wraps an http.ResponseWriter. It is finished after End or Abort.
type Conn struct {
	w       http.ResponseWriter
	flusher http.Flusher
	id      string

	mu            sync.Mutex
	headerWritten bool
	finished      bool
	done          chan struct{}
}

// New wraps w with a fresh connection id.
func New(w http.ResponseWriter) *Conn {
	c := &Conn{
		w:    w,
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}
	c.flusher, _ = w.(http.Flusher)
	return c
}

// ID returns the connection id.
func (c *Conn) ID() string {
	return c.id
}

// WriteHeader sets header and writes the status line.
func (c *Conn) WriteHeader(status int, header map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		return ErrFinished
	}
	if c.headerWritten {
		return ErrHeaderWritten
	}

	h := c.w.Header()
	for k, v := range header {
		h.Set(k, v)
	}
	c.w.WriteHeader(status)
	c.headerWritten = true
	return nil
}

// Write writes a body chunk and flushes it when the writer supports flushing.
func (c *Conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		return 0, ErrFinished
	}
	c.headerWritten = true

	n, err := c.w.Write(p)
	if err == nil && c.flusher != nil {
		c.flusher.Flush()
	}
	return n, err
}

// End writes the final payload and finishes the response.
func (c *Conn) End(body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		return ErrFinished
	}
	defer c.finish()
	c.headerWritten = true

	if len(body) > 0 {
		if _, err := c.w.Write(body); err != nil {
			return err
		}
	}
	if c.flusher != nil {
		c.flusher.Flush()
	}
	return nil
}

// Abort marks the response finished without writing, e.g. when the client went away.
func (c *Conn) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.finished {
		c.finish()
	}
}

// Finished reports whether the response can no longer be written.
func (c *Conn) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}

// HeaderWritten reports whether anything reached the client.
func (c *Conn) HeaderWritten() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.headerWritten
}

// Done is closed once the response is finished.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// finish must be called with mu held.
func (c *Conn) finish() {
	c.finished = true
	close(c.done)
}
