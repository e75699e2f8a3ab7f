package state

import "testing"

func TestRunState_String(t *testing.T) {
	tests := []struct {
		state    RunState
		expected string
	}{
		{StateIdle, "Idle"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateStopped, "Stopped"},
		{RunState(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("RunState.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRunState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     RunState
		to       RunState
		expected bool
	}{
		{"Idle -> Starting", StateIdle, StateStarting, true},
		{"Idle -> Running (invalid)", StateIdle, StateRunning, false},

		{"Starting -> Running", StateStarting, StateRunning, true},
		{"Starting -> Stopping", StateStarting, StateStopping, true},
		{"Starting -> Stopped", StateStarting, StateStopped, true},
		{"Starting -> Idle (invalid)", StateStarting, StateIdle, false},

		{"Running -> Stopping", StateRunning, StateStopping, true},
		{"Running -> Idle (invalid)", StateRunning, StateIdle, false},
		{"Running -> Stopped (invalid)", StateRunning, StateStopped, false},

		{"Stopping -> Stopped", StateStopping, StateStopped, true},
		{"Stopping -> Running (invalid)", StateStopping, StateRunning, false},

		{"Stopped -> Starting (invalid)", StateStopped, StateStarting, false},
		{"Stopped -> Idle (invalid)", StateStopped, StateIdle, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.expected {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRunState_IsTerminal(t *testing.T) {
	if !StateStopped.IsTerminal() {
		t.Error("Stopped should be terminal")
	}
	for _, s := range []RunState{StateIdle, StateStarting, StateRunning, StateStopping} {
		if s.IsTerminal() {
			t.Errorf("%v should not be terminal", s)
		}
	}
}

func TestRunState_IsActive(t *testing.T) {
	tests := []struct {
		state    RunState
		expected bool
	}{
		{StateIdle, false},
		{StateStarting, true},
		{StateRunning, true},
		{StateStopping, true},
		{StateStopped, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.IsActive(); got != tt.expected {
				t.Errorf("IsActive() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRunState_CanAcceptToggles(t *testing.T) {
	tests := []struct {
		state    RunState
		expected bool
	}{
		{StateIdle, false},
		{StateStarting, true},
		{StateRunning, true},
		{StateStopping, false},
		{StateStopped, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.CanAcceptToggles(); got != tt.expected {
				t.Errorf("CanAcceptToggles() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTransitionError(t *testing.T) {
	err := NewTransitionError(StateRunning, StateIdle, "run already active")
	expected := "invalid state transition from Running to Idle: run already active"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}

	err = NewTransitionError(StateIdle, StateStopped, "")
	expected = "invalid state transition from Idle to Stopped"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}
