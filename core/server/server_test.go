package server_test

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/core/server"
)

func TestServer_Run(t *testing.T) {
	t.Parallel()

	t.Run("serves_until_context_canceled", func(t *testing.T) {
		t.Parallel()

		var hookCalls atomic.Int32
		srv := server.New("127.0.0.1:0",
			server.WithShutdownTimeout(time.Second),
			server.WithOnShutdown(func() { hookCalls.Add(1) }),
		)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "ok")
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- srv.Run(ctx, handler)() }()

		require.Eventually(t, func() bool {
			return srv.Addr() != "127.0.0.1:0"
		}, 2*time.Second, 10*time.Millisecond)

		resp, err := http.Get("http://" + srv.Addr())
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, resp.Body.Close())
		require.NoError(t, err)
		assert.Equal(t, "ok", string(body))

		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("server did not stop")
		}
		assert.Eventually(t, func() bool { return hookCalls.Load() == 1 }, time.Second, 10*time.Millisecond)
	})

	t.Run("returns_listen_error", func(t *testing.T) {
		t.Parallel()

		srv := server.New("invalid-address")
		err := srv.Run(context.Background(), http.NotFoundHandler())()
		assert.Error(t, err)
	})
}

func TestServer_Stop(t *testing.T) {
	t.Parallel()

	t.Run("noop_when_not_running", func(t *testing.T) {
		t.Parallel()

		srv := server.New(":0")
		assert.NoError(t, srv.Stop())
	})
}

func TestServer_Addr(t *testing.T) {
	t.Parallel()

	srv := server.New(":9999")
	assert.Equal(t, ":9999", srv.Addr())
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("requires_address", func(t *testing.T) {
		t.Parallel()

		cfg := server.DefaultConfig()
		cfg.Addr = ""
		_, err := server.NewFromConfig(cfg)
		assert.ErrorIs(t, err, server.ErrMissingAddress)
	})

	t.Run("uses_defaults", func(t *testing.T) {
		t.Parallel()

		srv, err := server.NewFromConfig(server.DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, ":8080", srv.Addr())
	})

	t.Run("rejects_invalid_certificate_files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cert := filepath.Join(dir, "cert.pem")
		key := filepath.Join(dir, "key.pem")
		require.NoError(t, os.WriteFile(cert, []byte("not a cert"), 0o600))
		require.NoError(t, os.WriteFile(key, []byte("not a key"), 0o600))

		cfg := server.DefaultConfig()
		cfg.TLSCertFile = cert
		cfg.TLSKeyFile = key
		_, err := server.NewFromConfig(cfg)
		assert.ErrorIs(t, err, server.ErrFailedLoadCert)
	})
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := server.DefaultConfig()
	assert.Equal(t, server.DefaultReadTimeout, cfg.ReadTimeout)
	assert.Equal(t, server.DefaultWriteTimeout, cfg.WriteTimeout)
	assert.Equal(t, server.DefaultIdleTimeout, cfg.IdleTimeout)
	assert.Equal(t, server.DefaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, server.DefaultMaxHeaderBytes, cfg.MaxHeaderBytes)
}
