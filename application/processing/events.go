package processing

import (
	"context"

	"pixelwarden/domain/scenario"
)

// EventOutcome is the result of evaluating one event against one frame.
// At most one outcome is produced per event per frame.
type EventOutcome struct {
	// Matched reports whether the event's condition group is satisfied.
	Matched bool

	// Event is the evaluated event. Nil when evaluation was impossible
	// (a condition template could not be supplied).
	Event *scenario.Event

	// Condition is the deciding condition: the one that short-circuited
	// the group, or the last one evaluated.
	Condition *scenario.Condition

	// Detection is the deciding condition's detection result.
	Detection *DetectionResult
}

// eventEvaluator iterates an event's conditions in declared order and
// combines their results with the event's operator.
type eventEvaluator struct {
	conditions *conditionEvaluator
	progress   ProgressListener
}

// Evaluate produces exactly one outcome for the event. Both operators
// short-circuit: AND stops at the first unsatisfied condition, OR at the
// first satisfied one, so no further detector work happens for the event.
// A context error is returned as-is when cancellation preempts the pass
// between condition checks.
func (v *eventEvaluator) Evaluate(ctx context.Context, ev *scenario.Event) (EventOutcome, error) {
	// Upstream validation rejects events without conditions, but a
	// malformed event must never match.
	if len(ev.Conditions) == 0 {
		return EventOutcome{}, nil
	}

	last := len(ev.Conditions) - 1
	for i, cond := range ev.Conditions {
		v.progress.OnConditionProcessingStarted(cond)
		result, ok, err := v.conditions.Evaluate(ctx, cond)
		if err != nil {
			return EventOutcome{}, err
		}
		v.progress.OnConditionProcessingCompleted(cond, result, ok)

		if !ok {
			// Evaluation impossible: fail the whole event closed,
			// with nothing attached.
			return EventOutcome{}, nil
		}

		satisfied := result.Detected == cond.ShouldBeDetected

		switch {
		case ev.ConditionOperator == scenario.OperatorAnd && !satisfied:
			return EventOutcome{Matched: false, Event: ev, Condition: cond, Detection: &result}, nil
		case ev.ConditionOperator == scenario.OperatorOr && satisfied:
			return EventOutcome{Matched: true, Event: ev, Condition: cond, Detection: &result}, nil
		}

		if i == last {
			// No short-circuit fired: AND means every condition was
			// satisfied, OR means none was.
			matched := ev.ConditionOperator == scenario.OperatorAnd
			return EventOutcome{Matched: matched, Event: ev, Condition: cond, Detection: &result}, nil
		}

		// Cancellation point between condition checks.
		if err := ctx.Err(); err != nil {
			return EventOutcome{}, err
		}
	}

	// Unreachable: the last iteration always returns.
	return EventOutcome{}, nil
}
