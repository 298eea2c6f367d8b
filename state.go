package r

import "sync/atomic"

// RuntimeState is the process-wide value described by spec.md §4.1's
// Runtime state: mutated by init/terminate and by stop/gracefulStop,
// observed by serviceEvents to decide when to stop looping.
type RuntimeState uint32

const (
	// StateStarted is the initial value before Init completes.
	StateStarted RuntimeState = iota
	// StateInitialized indicates Init has configured the runtime but the
	// event loop hasn't started servicing events yet.
	StateInitialized
	// StateReady indicates the event loop is actively servicing events.
	StateReady
	// StateStopping indicates Stop or GracefulStop has been called;
	// ServiceEvents is winding down.
	StateStopping
	// StateStopped is the terminal state once ServiceEvents has returned.
	StateStopped
	// StateRestart indicates a restart was requested; the caller is
	// expected to re-Init after observing it.
	StateRestart
)

// String renders a human-readable name for the state, matching the
// teacher's LoopState.String() style (eventloop/state.go).
func (s RuntimeState) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateInitialized:
		return "initialized"
	case StateReady:
		return "ready"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateRestart:
		return "restart"
	default:
		return "unknown"
	}
}

// runtimeState is a lock-free state holder, grounded directly on the
// teacher's FastState (eventloop/state.go): pure atomic CAS, no mutex,
// because the state is read from the hot serviceEvents loop on every
// iteration and must never block behind a lock held by a foreign thread's
// stop() call.
type runtimeState struct {
	v atomic.Uint32
}

func newRuntimeState() *runtimeState {
	s := &runtimeState{}
	s.v.Store(uint32(StateStarted))
	return s
}

// Load returns the current state.
func (s *runtimeState) Load() RuntimeState { return RuntimeState(s.v.Load()) }

// Store unconditionally sets the state. Used for transitions with no
// meaningful "from" precondition (e.g. Stop can fire from any state).
func (s *runtimeState) Store(state RuntimeState) { s.v.Store(uint32(state)) }

// TryTransition attempts a from->to CAS, returning whether it succeeded.
func (s *runtimeState) TryTransition(from, to RuntimeState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// IsRunning reports whether the event loop should still be considered
// actively servicing events.
func (s *runtimeState) IsRunning() bool {
	st := s.Load()
	return st == StateInitialized || st == StateReady
}
