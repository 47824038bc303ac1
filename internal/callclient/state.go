package callclient

import (
	"fmt"
	"sync"
)

// CallState is the coarse lifecycle of a consultation from the client's
// point of view, covering both the queue wait and the media session.
type CallState string

const (
	CallIdle       CallState = "idle"
	CallWaiting    CallState = "waiting"
	CallConnecting CallState = "connecting"
	CallConnected  CallState = "connected"
	CallEnded      CallState = "ended"
	CallErrored    CallState = "errored"
)

var callTransitions = map[CallState][]CallState{
	CallIdle:       {CallWaiting, CallConnecting, CallEnded, CallErrored},
	CallWaiting:    {CallConnecting, CallIdle, CallEnded, CallErrored},
	CallConnecting: {CallConnected, CallEnded, CallErrored},
	CallConnected:  {CallEnded, CallErrored},
	CallEnded:      {CallIdle, CallWaiting, CallConnecting},
	CallErrored:    {CallIdle, CallWaiting, CallConnecting},
}

// CanTransition reports whether moving from one call state to another
// is legal.
func CanTransition(from, to CallState) bool {
	for _, allowed := range callTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StateMachine tracks the call state and rejects illegal transitions.
// All state changes in the package go through Transition, so there is a
// single place where the lifecycle is enforced.
type StateMachine struct {
	mu    sync.Mutex
	state CallState
}

// NewStateMachine starts a machine in the idle state.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: CallIdle}
}

// State returns the current call state.
func (m *StateMachine) State() CallState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Transition moves the machine to the given state, failing when the move
// is not legal from the current state. Transitioning to the current
// state is a no-op.
func (m *StateMachine) Transition(to CallState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == to {
		return nil
	}
	if !CanTransition(m.state, to) {
		return fmt.Errorf("illegal call transition from %s to %s", m.state, to)
	}
	m.state = to
	return nil
}

// TransitionIf moves to the given state only when the machine currently
// sits in one of the expected states. It reports whether the move
// happened.
func (m *StateMachine) TransitionIf(to CallState, from ...CallState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range from {
		if m.state == f && CanTransition(f, to) {
			m.state = to
			return true
		}
	}
	return false
}
