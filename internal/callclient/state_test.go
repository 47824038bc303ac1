package callclient_test

import (
	"testing"

	"teleclinic/consult-api/internal/callclient"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  callclient.CallState
		to    callclient.CallState
		canDo bool
	}{
		{"idle to waiting", callclient.CallIdle, callclient.CallWaiting, true},
		{"idle to connecting", callclient.CallIdle, callclient.CallConnecting, true},
		{"idle to connected - invalid", callclient.CallIdle, callclient.CallConnected, false},

		{"waiting to connecting", callclient.CallWaiting, callclient.CallConnecting, true},
		{"waiting to idle", callclient.CallWaiting, callclient.CallIdle, true},
		{"waiting to connected - invalid", callclient.CallWaiting, callclient.CallConnected, false},

		{"connecting to connected", callclient.CallConnecting, callclient.CallConnected, true},
		{"connecting to errored", callclient.CallConnecting, callclient.CallErrored, true},
		{"connecting to waiting - invalid", callclient.CallConnecting, callclient.CallWaiting, false},

		{"connected to ended", callclient.CallConnected, callclient.CallEnded, true},
		{"connected to connecting - invalid", callclient.CallConnected, callclient.CallConnecting, false},

		{"ended to idle", callclient.CallEnded, callclient.CallIdle, true},
		{"ended to connecting", callclient.CallEnded, callclient.CallConnecting, true},
		{"ended to connected - invalid", callclient.CallEnded, callclient.CallConnected, false},

		{"errored to idle", callclient.CallErrored, callclient.CallIdle, true},
		{"errored to connected - invalid", callclient.CallErrored, callclient.CallConnected, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := callclient.CanTransition(tt.from, tt.to); got != tt.canDo {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.canDo)
			}
		})
	}
}

func TestStateMachine_Transition(t *testing.T) {
	m := callclient.NewStateMachine()
	if m.State() != callclient.CallIdle {
		t.Fatalf("expected idle, got %s", m.State())
	}

	if err := m.Transition(callclient.CallWaiting); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Transition(callclient.CallConnecting); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Transition(callclient.CallConnected); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same-state transition is a no-op.
	if err := m.Transition(callclient.CallConnected); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Connected cannot go back to waiting.
	if err := m.Transition(callclient.CallWaiting); err == nil {
		t.Fatal("expected illegal transition error")
	}
	if m.State() != callclient.CallConnected {
		t.Fatalf("state changed on rejected transition: %s", m.State())
	}
}

func TestStateMachine_TransitionIf(t *testing.T) {
	m := callclient.NewStateMachine()

	if !m.TransitionIf(callclient.CallWaiting, callclient.CallIdle) {
		t.Fatal("expected transition from idle to waiting")
	}
	if m.TransitionIf(callclient.CallConnected, callclient.CallIdle) {
		t.Fatal("transition should not fire from a non-matching state")
	}
	if m.State() != callclient.CallWaiting {
		t.Fatalf("expected waiting, got %s", m.State())
	}
}
