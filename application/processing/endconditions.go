package processing

import (
	"pixelwarden/domain/scenario"
)

// endConditionState tracks one end condition's live counter.
type endConditionState struct {
	condition  *scenario.EndCondition
	executions int
	satisfied  bool
}

// EndConditionTracker counts event triggers against their configured
// max-execution thresholds and signals scenario termination when the
// combined end condition becomes true. Counters persist for the lifetime
// of the run and are monotonically non-decreasing.
type EndConditionTracker struct {
	operator scenario.Operator
	states   []*endConditionState
	onStop   func()
	stopped  bool
}

// NewEndConditionTracker creates a tracker over the given end conditions.
// With no end conditions configured the tracker never signals stop on its
// own. The onStop callback fires exactly once, when the combined condition
// first becomes true.
func NewEndConditionTracker(operator scenario.Operator, conditions []*scenario.EndCondition, onStop func()) *EndConditionTracker {
	states := make([]*endConditionState, len(conditions))
	for i, c := range conditions {
		states[i] = &endConditionState{condition: c}
	}
	return &EndConditionTracker{
		operator: operator,
		states:   states,
		onStop:   onStop,
	}
}

// OnEventTriggered records that the event matched and executed its actions.
// It returns true when the run must stop: the caller aborts the current
// frame pass immediately so no further events act this frame.
func (t *EndConditionTracker) OnEventTriggered(ev *scenario.Event) bool {
	for _, st := range t.states {
		if st.condition.EventID != ev.ID {
			continue
		}
		st.executions++
		if st.executions >= st.condition.MaxExecutions {
			st.satisfied = true
		}
	}

	if t.stopped {
		return true
	}
	if t.combined() {
		t.stopped = true
		if t.onStop != nil {
			t.onStop()
		}
	}
	return t.stopped
}

// combined evaluates the configured operator over all end conditions.
func (t *EndConditionTracker) combined() bool {
	if len(t.states) == 0 {
		return false
	}

	switch t.operator {
	case scenario.OperatorAnd:
		for _, st := range t.states {
			if !st.satisfied {
				return false
			}
		}
		return true
	case scenario.OperatorOr:
		for _, st := range t.states {
			if st.satisfied {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Stopped reports whether the combined end condition has been reached.
func (t *EndConditionTracker) Stopped() bool {
	return t.stopped
}

// Executions returns the live trigger count for the given event, summed
// over the end conditions watching it.
func (t *EndConditionTracker) Executions(eventID string) int {
	for _, st := range t.states {
		if st.condition.EventID == eventID {
			return st.executions
		}
	}
	return 0
}
