// Package state defines the scenario run state machine.
package state

import "fmt"

// RunState represents the state of a scenario run.
type RunState int

const (
	// StateIdle is the initial state before the run starts.
	StateIdle RunState = iota
	// StateStarting indicates the capture surface is being initialized.
	StateStarting
	// StateRunning indicates frames are being captured and evaluated.
	StateRunning
	// StateStopping indicates the run is shutting down.
	StateStopping
	// StateStopped indicates the run has terminated.
	StateStopped
)

// String returns the string representation of the state.
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// validTransitions defines the allowed state transitions.
// Key is the current state, value is a list of valid target states.
var validTransitions = map[RunState][]RunState{
	StateIdle:     {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateStopped},
	StateRunning:  {StateStopping},
	StateStopping: {StateStopped},
	StateStopped:  {}, // Terminal state, no transitions allowed
}

// CanTransitionTo checks if transitioning from the current state to the target state is valid.
func (s RunState) CanTransitionTo(target RunState) bool {
	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// ValidTransitions returns the list of valid target states from the current state.
func (s RunState) ValidTransitions() []RunState {
	return validTransitions[s]
}

// IsTerminal returns true if the state is a terminal state (no further transitions).
func (s RunState) IsTerminal() bool {
	return s == StateStopped
}

// IsActive returns true if the run is in an active state (not idle or stopped).
func (s RunState) IsActive() bool {
	return s != StateIdle && s != StateStopped
}

// CanAcceptToggles returns true if event enable/disable requests can be
// queued for the run in this state.
func (s RunState) CanAcceptToggles() bool {
	return s == StateStarting || s == StateRunning
}

// TransitionError represents an invalid state transition attempt.
type TransitionError struct {
	From   RunState
	To     RunState
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid state transition from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(from, to RunState, reason string) *TransitionError {
	return &TransitionError{From: from, To: to, Reason: reason}
}
