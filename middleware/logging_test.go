package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/core/logger"
	"github.com/dmitrymomot/dispatch/middleware"
)

type syncBuffer struct {
	mu  chan struct{}
	buf bytes.Buffer
}

func newSyncBuffer() *syncBuffer {
	return &syncBuffer{mu: make(chan struct{}, 1)}
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu <- struct{}{}
	defer func() { <-b.mu }()
	return b.buf.Write(p)
}

func (b *syncBuffer) entries(t *testing.T) []map[string]any {
	t.Helper()
	b.mu <- struct{}{}
	defer func() { <-b.mu }()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogging(t *testing.T) {
	t.Parallel()

	t.Run("logs_status_and_size", func(t *testing.T) {
		t.Parallel()

		buf := newSyncBuffer()
		log := logger.New(logger.WithJSONFormatter(), logger.WithOutput(buf))

		h := middleware.RequestID()(middleware.Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = io.WriteString(w, "short and stout")
		})))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pot", nil))

		entries := buf.entries(t)
		require.Len(t, entries, 1)
		assert.Equal(t, "WARN", entries[0]["level"])
		assert.Equal(t, "/pot", entries[0]["path"])
		assert.EqualValues(t, http.StatusTeapot, entries[0]["status_code"])
		assert.EqualValues(t, len("short and stout"), entries[0]["bytes_out"])
		assert.Equal(t, w.Header().Get("X-Request-ID"), entries[0]["request_id"])
	})

	t.Run("skips_matching_requests", func(t *testing.T) {
		t.Parallel()

		buf := newSyncBuffer()
		h := middleware.LoggingWithConfig(middleware.LoggingConfig{
			Logger: logger.New(logger.WithJSONFormatter(), logger.WithOutput(buf)),
			Skip:   func(r *http.Request) bool { return r.URL.Path == "/metrics" },
		})(http.NotFoundHandler())

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Empty(t, buf.entries(t))
	})

	t.Run("keeps_flusher", func(t *testing.T) {
		t.Parallel()

		var flushable bool
		h := middleware.Logging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, flushable = w.(http.Flusher)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, flushable)
	})

	t.Run("passes_websocket_upgrade", func(t *testing.T) {
		t.Parallel()

		buf := newSyncBuffer()
		log := logger.New(logger.WithJSONFormatter(), logger.WithOutput(buf))
		upgrader := websocket.Upgrader{}

		srv := httptest.NewServer(middleware.Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			_ = ws.Close()
		})))
		defer srv.Close()

		client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
		require.NoError(t, err)
		defer client.Close()

		require.Eventually(t, func() bool { return len(buf.entries(t)) == 1 }, 2*time.Second, 10*time.Millisecond)
		entry := buf.entries(t)[0]
		assert.Equal(t, true, entry["hijacked"])
		assert.EqualValues(t, http.StatusSwitchingProtocols, entry["status_code"])
	})
}
