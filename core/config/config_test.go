package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/core/config"
)

type sampleConfig struct {
	Name    string        `env:"DISPATCH_TEST_NAME" envDefault:"default"`
	Timeout time.Duration `env:"DISPATCH_TEST_TIMEOUT" envDefault:"5s"`
}

type requiredConfig struct {
	Secret string `env:"DISPATCH_TEST_REQUIRED_SECRET,required"`
}

type cachedConfig struct {
	Value string `env:"DISPATCH_TEST_CACHED"`
}

func TestLoad(t *testing.T) {
	t.Run("applies_defaults_and_env", func(t *testing.T) {
		config.Reset()
		t.Setenv("DISPATCH_TEST_NAME", "custom")

		var cfg sampleConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "custom", cfg.Name)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("caches_per_type", func(t *testing.T) {
		config.Reset()
		t.Setenv("DISPATCH_TEST_CACHED", "first")

		var first cachedConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("DISPATCH_TEST_CACHED", "second")
		var second cachedConfig
		require.NoError(t, config.Load(&second))

		assert.Equal(t, "first", second.Value)
	})

	t.Run("missing_required_fails", func(t *testing.T) {
		config.Reset()

		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DISPATCH_TEST_REQUIRED_SECRET")
	})

	t.Run("nil_target", func(t *testing.T) {
		var cfg *sampleConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilConfig)
	})

	t.Run("must_load_panics", func(t *testing.T) {
		config.Reset()

		assert.Panics(t, func() {
			var cfg requiredConfig
			config.MustLoad(&cfg)
		})
	})
}
