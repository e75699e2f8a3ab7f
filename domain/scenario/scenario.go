// Package scenario defines the visual automation scenario model:
// events guarded by visual-match conditions, the actions they trigger,
// and the end conditions that terminate a run.
package scenario

import (
	"fmt"
	"image"
	"time"
)

// Operator combines the results of multiple boolean checks.
type Operator int

const (
	// OperatorAnd requires every check to pass.
	OperatorAnd Operator = iota + 1
	// OperatorOr requires at least one check to pass.
	OperatorOr
)

// String returns the string representation of the operator.
func (o Operator) String() string {
	switch o {
	case OperatorAnd:
		return "AND"
	case OperatorOr:
		return "OR"
	default:
		return fmt.Sprintf("Unknown(%d)", int(o))
	}
}

// IsValid returns true if the operator is a known value.
func (o Operator) IsValid() bool {
	return o == OperatorAnd || o == OperatorOr
}

// DetectionType selects how a condition template is matched against a frame.
type DetectionType int

const (
	// DetectExact compares the template against the condition's declared
	// region of the frame.
	DetectExact DetectionType = iota + 1
	// DetectWholeScreen searches the entire frame for the template.
	DetectWholeScreen
)

// String returns the string representation of the detection type.
func (d DetectionType) String() string {
	switch d {
	case DetectExact:
		return "Exact"
	case DetectWholeScreen:
		return "WholeScreen"
	default:
		return fmt.Sprintf("Unknown(%d)", int(d))
	}
}

// IsValid returns true if the detection type is a known value.
func (d DetectionType) IsValid() bool {
	return d == DetectExact || d == DetectWholeScreen
}

// Scenario is a complete automation definition: the events evaluated on every
// captured frame plus the end conditions that decide when the run terminates.
type Scenario struct {
	// Name is the unique identifier for this scenario.
	Name string

	// DetectionQuality bounds the pixel count used for whole-screen searches.
	// It is the longest frame edge, in pixels, after downscaling.
	DetectionQuality int

	// RandomizeActions applies a small positional jitter to injected input.
	RandomizeActions bool

	// EndConditionOperator combines satisfied end conditions (AND/OR).
	EndConditionOperator Operator

	// Events are evaluated in declared order; order is priority.
	Events []*Event

	// EndConditions are the trigger-count thresholds that stop the run.
	EndConditions []*EndCondition
}

// Event is an ordered group of conditions paired with the actions to run
// when the group matches.
type Event struct {
	// ID is the stable identity of the event within its scenario.
	ID string

	// Name is a human-readable label.
	Name string

	// ConditionOperator combines condition results (AND/OR).
	ConditionOperator Operator

	// Enabled events participate in frame evaluation. The flag may be
	// toggled externally between frame passes.
	Enabled bool

	// Conditions are evaluated in declared order.
	Conditions []*Condition

	// Actions are dispatched when the event matches.
	Actions []Action
}

// Condition is a single visual check against the current frame.
type Condition struct {
	// Name is a human-readable label.
	Name string

	// TemplateID references the template bitmap by path/identifier.
	// A condition without a template can never satisfy detection.
	TemplateID string

	// Area is the target region of the frame. Ignored for whole-screen
	// detection.
	Area image.Rectangle

	// DetectionType selects region-scoped or whole-screen matching.
	DetectionType DetectionType

	// Threshold is the minimum match confidence, in percent (0-100).
	Threshold int

	// ShouldBeDetected sets the expected polarity: the condition is
	// satisfied when actual detection matches this expectation, so a
	// condition can assert presence or absence.
	ShouldBeDetected bool
}

// ActionType represents the type of an injected action.
type ActionType string

const (
	ActionTypeClick ActionType = "click"
	ActionTypeSwipe ActionType = "swipe"
	ActionTypePause ActionType = "pause"
)

// Action is a single input operation dispatched when an event matches.
type Action struct {
	// Type is the action type (click, swipe, pause).
	Type ActionType

	// X, Y are the target coordinates for click and the swipe origin.
	X, Y int

	// ToX, ToY are the swipe destination.
	ToX, ToY int

	// Duration is the pause length, or the swipe travel time.
	Duration time.Duration

	// UseDetectedPosition clicks on the position reported by the deciding
	// condition instead of the declared coordinates.
	UseDetectedPosition bool
}

// EndCondition stops the scenario once an event has triggered enough times.
type EndCondition struct {
	// EventID references the watched event.
	EventID string

	// MaxExecutions is the trigger count at which this end condition is
	// satisfied. Must be at least 1.
	MaxExecutions int
}

// Validate checks the scenario against the model invariants. Definitions
// that fail validation are rejected at load time so the processing loop can
// treat operator and detection-type values as trusted.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if s.DetectionQuality < 0 {
		return fmt.Errorf("scenario %q: detection quality cannot be negative", s.Name)
	}
	if len(s.EndConditions) > 0 && !s.EndConditionOperator.IsValid() {
		return fmt.Errorf("scenario %q: invalid end condition operator %d", s.Name, int(s.EndConditionOperator))
	}

	eventIDs := make(map[string]struct{}, len(s.Events))
	for _, ev := range s.Events {
		if err := ev.Validate(); err != nil {
			return fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		if _, dup := eventIDs[ev.ID]; dup {
			return fmt.Errorf("scenario %q: duplicate event id %q", s.Name, ev.ID)
		}
		eventIDs[ev.ID] = struct{}{}
	}

	for _, ec := range s.EndConditions {
		if ec.MaxExecutions < 1 {
			return fmt.Errorf("scenario %q: end condition on %q: max executions must be at least 1", s.Name, ec.EventID)
		}
		if _, ok := eventIDs[ec.EventID]; !ok {
			return fmt.Errorf("scenario %q: end condition references unknown event %q", s.Name, ec.EventID)
		}
	}

	return nil
}

// Validate checks a single event definition.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event %q has no id", e.Name)
	}
	if len(e.Conditions) > 0 && !e.ConditionOperator.IsValid() {
		return fmt.Errorf("event %q: invalid condition operator %d", e.ID, int(e.ConditionOperator))
	}
	for _, c := range e.Conditions {
		if !c.DetectionType.IsValid() {
			return fmt.Errorf("event %q: condition %q: invalid detection type %d", e.ID, c.Name, int(c.DetectionType))
		}
		if c.Threshold < 0 || c.Threshold > 100 {
			return fmt.Errorf("event %q: condition %q: threshold %d outside 0-100", e.ID, c.Name, c.Threshold)
		}
		if c.DetectionType == DetectExact && (c.Area.Dx() <= 0 || c.Area.Dy() <= 0) {
			return fmt.Errorf("event %q: condition %q: exact detection requires a non-empty area", e.ID, c.Name)
		}
	}
	for i, a := range e.Actions {
		if err := a.validate(); err != nil {
			return fmt.Errorf("event %q: action %d: %w", e.ID, i, err)
		}
	}
	return nil
}

func (a *Action) validate() error {
	switch a.Type {
	case ActionTypeClick, ActionTypeSwipe:
		return nil
	case ActionTypePause:
		if a.Duration <= 0 {
			return fmt.Errorf("pause requires a positive duration")
		}
		return nil
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
}

// EnabledEvents returns the events currently participating in evaluation,
// in declared (priority) order.
func (s *Scenario) EnabledEvents() []*Event {
	var out []*Event
	for _, ev := range s.Events {
		if ev.Enabled {
			out = append(out, ev)
		}
	}
	return out
}

// EventByID returns the event with the given id, or nil.
func (s *Scenario) EventByID(id string) *Event {
	for _, ev := range s.Events {
		if ev.ID == id {
			return ev
		}
	}
	return nil
}
