// Package event defines all events that can be published by the application.
// Events represent state changes and are consumed by subscribers such as the
// run report recorder or an external monitor.
package event

import "pixelwarden/core/state"

// Event is the base interface for all events.
// Events are published by the application layer and consumed by subscribers.
type Event interface {
	// EventName returns the name of the event for logging/debugging
	EventName() string
}

// RunEvent is an event that originates from a specific scenario run.
type RunEvent interface {
	Event
	// RunID returns the source run ID
	RunID() string
}

// baseRunEvent provides common implementation for run events.
type baseRunEvent struct {
	runID string
}

func (e *baseRunEvent) RunID() string {
	return e.runID
}

// RunStateChanged is published when a run's state changes.
type RunStateChanged struct {
	baseRunEvent
	OldState state.RunState
	NewState state.RunState
}

func NewRunStateChanged(runID string, oldState, newState state.RunState) *RunStateChanged {
	return &RunStateChanged{
		baseRunEvent: baseRunEvent{runID: runID},
		OldState:     oldState,
		NewState:     newState,
	}
}

func (e *RunStateChanged) EventName() string {
	return "RunStateChanged"
}
