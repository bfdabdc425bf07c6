package delivery_test

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/dispatch/core/delivery"
)

var errBrokenPipe = errors.New("broken pipe")

type headerCall struct {
	status int
	header map[string]string
}

// fakeResponse records every call made by the responder.
type fakeResponse struct {
	mu        sync.Mutex
	id        string
	finished  bool
	headers   []headerCall
	written   bytes.Buffer
	ends      [][]byte
	endCalled int
	order     []string

	headerErr error
	endErr    error
	writeErr  error
	panicOn   string
	ended     chan struct{}
}

func newFakeResponse(id string) *fakeResponse {
	return &fakeResponse{id: id, ended: make(chan struct{})}
}

func (f *fakeResponse) ID() string { return f.id }

func (f *fakeResponse) WriteHeader(status int, header map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn == "header" {
		panic("header exploded")
	}
	f.order = append(f.order, "header")
	f.headers = append(f.headers, headerCall{status: status, header: header})
	return f.headerErr
}

func (f *fakeResponse) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.order = append(f.order, "write")
	return f.written.Write(p)
}

func (f *fakeResponse) End(body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn == "end" {
		panic("end exploded")
	}
	f.order = append(f.order, "end")
	f.ends = append(f.ends, body)
	f.endCalled++
	if !f.finished {
		f.finished = true
		close(f.ended)
	}
	return f.endErr
}

func (f *fakeResponse) Finished() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finished
}

func (f *fakeResponse) headerCalls() []headerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]headerCall(nil), f.headers...)
}

func (f *fakeResponse) endCalls() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.ends...)
}

func (f *fakeResponse) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

// fakeSocket is a socket-style connection with a settable state.
type fakeSocket struct {
	id       string
	state    atomic.Int32
	mu       sync.Mutex
	messages [][]byte
	writeErr error
	panics   bool
	writes   atomic.Int32
}

func newFakeSocket(id string, state delivery.ReadyState) *fakeSocket {
	s := &fakeSocket{id: id}
	s.state.Store(int32(state))
	return s
}

func (s *fakeSocket) ID() string { return s.id }

func (s *fakeSocket) ReadyState() delivery.ReadyState {
	return delivery.ReadyState(s.state.Load())
}

func (s *fakeSocket) WriteMessage(data []byte) error {
	s.writes.Add(1)
	if s.panics {
		panic("socket exploded")
	}
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, append([]byte(nil), data...))
	return nil
}

func (s *fakeSocket) received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.messages...)
}

// logSink captures JSON log records.
type logSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *logSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *logSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func newTestLogger() (*slog.Logger, *logSink) {
	sink := &logSink{}
	return slog.New(slog.NewJSONHandler(sink, &slog.HandlerOptions{Level: slog.LevelDebug})), sink
}

// panicStateSocket panics when asked for its state.
type panicStateSocket struct{}

func (panicStateSocket) ID() string                      { return "unstable" }
func (panicStateSocket) ReadyState() delivery.ReadyState { panic("state exploded") }
func (panicStateSocket) WriteMessage([]byte) error       { return nil }

// panicFinishedResponse panics when asked whether it is finished.
type panicFinishedResponse struct{}

func (panicFinishedResponse) ID() string                               { return "unstable" }
func (panicFinishedResponse) WriteHeader(int, map[string]string) error { return nil }
func (panicFinishedResponse) Write(p []byte) (int, error)              { return len(p), nil }
func (panicFinishedResponse) End([]byte) error                         { return nil }
func (panicFinishedResponse) Finished() bool                           { panic("finished exploded") }
