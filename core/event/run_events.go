package event

import "image"

// RunStarted is published when a scenario run starts successfully.
type RunStarted struct {
	baseRunEvent
	ScenarioName string
}

func NewRunStarted(runID, scenarioName string) *RunStarted {
	return &RunStarted{
		baseRunEvent: baseRunEvent{runID: runID},
		ScenarioName: scenarioName,
	}
}

func (e *RunStarted) EventName() string {
	return "RunStarted"
}

// StopReason indicates why a scenario run stopped.
type StopReason int

const (
	// StopReasonConditionsMet indicates the run's end conditions were reached.
	StopReasonConditionsMet StopReason = iota
	// StopReasonManual indicates the run was stopped by the user.
	StopReasonManual
	// StopReasonError indicates the run stopped due to an error.
	StopReasonError
	// StopReasonAllEventsDisabled indicates every event was disabled.
	StopReasonAllEventsDisabled
	// StopReasonCaptureLost indicates the capture surface went away.
	StopReasonCaptureLost
)

func (r StopReason) String() string {
	switch r {
	case StopReasonConditionsMet:
		return "ConditionsMet"
	case StopReasonManual:
		return "Manual"
	case StopReasonError:
		return "Error"
	case StopReasonAllEventsDisabled:
		return "AllEventsDisabled"
	case StopReasonCaptureLost:
		return "CaptureLost"
	default:
		return "Unknown"
	}
}

// RunStopped is published when a scenario run stops.
type RunStopped struct {
	baseRunEvent
	ScenarioName string
	Reason       StopReason
	Error        error // Non-nil if Reason is StopReasonError
}

func NewRunStopped(runID, scenarioName string, reason StopReason, err error) *RunStopped {
	return &RunStopped{
		baseRunEvent: baseRunEvent{runID: runID},
		ScenarioName: scenarioName,
		Reason:       reason,
		Error:        err,
	}
}

func (e *RunStopped) EventName() string {
	return "RunStopped"
}

// EventTriggered is published when a scenario event matches a frame and its
// actions are dispatched.
type EventTriggered struct {
	baseRunEvent
	EventID    string
	EventLabel string
	Position   *image.Point // Deciding condition position, nil if absent
}

func NewEventTriggered(runID, eventID, eventLabel string, position *image.Point) *EventTriggered {
	return &EventTriggered{
		baseRunEvent: baseRunEvent{runID: runID},
		EventID:      eventID,
		EventLabel:   eventLabel,
		Position:     position,
	}
}

func (e *EventTriggered) EventName() string {
	return "EventTriggered"
}

// FramePassCompleted is published after a full evaluation pass over one
// captured frame.
type FramePassCompleted struct {
	baseRunEvent
	FrameIndex uint64
}

func NewFramePassCompleted(runID string, frameIndex uint64) *FramePassCompleted {
	return &FramePassCompleted{
		baseRunEvent: baseRunEvent{runID: runID},
		FrameIndex:   frameIndex,
	}
}

func (e *FramePassCompleted) EventName() string {
	return "FramePassCompleted"
}
