package delivery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/dispatch/core/delivery"
)

func TestIsDeliverable(t *testing.T) {
	t.Parallel()

	t.Run("unfinished_response", func(t *testing.T) {
		t.Parallel()
		assert.True(t, delivery.IsDeliverable(newFakeResponse("r1")))
	})

	t.Run("finished_response", func(t *testing.T) {
		t.Parallel()
		conn := newFakeResponse("r1")
		conn.finished = true
		assert.False(t, delivery.IsDeliverable(conn))
	})

	states := []struct {
		state    delivery.ReadyState
		expected bool
	}{
		{delivery.StateConnecting, false},
		{delivery.StateOpen, true},
		{delivery.StateClosing, false},
		{delivery.StateClosed, false},
	}
	for _, tt := range states {
		t.Run("socket_"+tt.state.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, delivery.IsDeliverable(newFakeSocket("s1", tt.state)))
		})
	}

	t.Run("nil_and_unknown", func(t *testing.T) {
		t.Parallel()
		assert.False(t, delivery.IsDeliverable(nil))
		assert.False(t, delivery.IsDeliverable("not a connection"))
	})
}

func TestReadyState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CONNECTING", delivery.StateConnecting.String())
	assert.Equal(t, "OPEN", delivery.StateOpen.String())
	assert.Equal(t, "CLOSING", delivery.StateClosing.String())
	assert.Equal(t, "CLOSED", delivery.StateClosed.String())
	assert.Equal(t, "UNKNOWN", delivery.ReadyState(42).String())
}
