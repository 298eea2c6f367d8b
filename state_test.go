package r

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeStateString(t *testing.T) {
	assert.Equal(t, "started", StateStarted.String())
	assert.Equal(t, "initialized", StateInitialized.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "stopping", StateStopping.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "restart", StateRestart.String())
	assert.Equal(t, "unknown", RuntimeState(999).String())
}

func TestRuntimeStateInitialValue(t *testing.T) {
	s := newRuntimeState()
	assert.Equal(t, StateStarted, s.Load())
	assert.False(t, s.IsRunning())
}

func TestRuntimeStateTryTransition(t *testing.T) {
	s := newRuntimeState()
	assert.True(t, s.TryTransition(StateStarted, StateInitialized))
	assert.Equal(t, StateInitialized, s.Load())

	assert.False(t, s.TryTransition(StateStarted, StateReady), "CAS must fail on a stale from-state")
	assert.Equal(t, StateInitialized, s.Load())
}

func TestRuntimeStateIsRunning(t *testing.T) {
	s := newRuntimeState()
	s.Store(StateInitialized)
	assert.True(t, s.IsRunning())

	s.Store(StateReady)
	assert.True(t, s.IsRunning())

	s.Store(StateStopping)
	assert.False(t, s.IsRunning())

	s.Store(StateStopped)
	assert.False(t, s.IsRunning())
}

func TestRuntimeStateStoreIsUnconditional(t *testing.T) {
	s := newRuntimeState()
	s.Store(StateStopped)
	assert.Equal(t, StateStopped, s.Load())
}
