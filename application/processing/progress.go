package processing

import (
	"pixelwarden/domain/scenario"
)

// ProgressListener receives purely observational hooks around the frame
// pass. Implementations must not assume any control-flow effect; the loop
// behaves identically with or without a listener.
type ProgressListener interface {
	// OnFrameProcessingStarted fires before any event is evaluated.
	OnFrameProcessingStarted()

	// OnFrameProcessingCompleted fires after the pass finishes normally.
	// It is intentionally skipped when end conditions abort the pass.
	OnFrameProcessingCompleted()

	// OnEventProcessingStarted fires before an event's conditions run.
	OnEventProcessingStarted(ev *scenario.Event)

	// OnEventProcessingCompleted fires with the event's outcome.
	OnEventProcessingCompleted(ev *scenario.Event, outcome EventOutcome)

	// OnConditionProcessingStarted fires before a single condition runs.
	OnConditionProcessingStarted(cond *scenario.Condition)

	// OnConditionProcessingCompleted fires with the condition's detection
	// result. ok is false when the template could not be supplied.
	OnConditionProcessingCompleted(cond *scenario.Condition, result DetectionResult, ok bool)
}

// NoopProgressListener is the absent-listener implementation. Using it
// instead of nil keeps the loop free of listener nil-checks.
type NoopProgressListener struct{}

func (NoopProgressListener) OnFrameProcessingStarted()                             {}
func (NoopProgressListener) OnFrameProcessingCompleted()                           {}
func (NoopProgressListener) OnEventProcessingStarted(*scenario.Event)              {}
func (NoopProgressListener) OnEventProcessingCompleted(*scenario.Event, EventOutcome) {}
func (NoopProgressListener) OnConditionProcessingStarted(*scenario.Condition)      {}
func (NoopProgressListener) OnConditionProcessingCompleted(*scenario.Condition, DetectionResult, bool) {
}
