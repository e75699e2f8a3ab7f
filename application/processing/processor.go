package processing

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"pixelwarden/domain/scenario"
)

// StopCause identifies the terminal condition that made the processor
// request a stop.
type StopCause int

const (
	// StopCauseNone means no stop has been requested by the processor.
	StopCauseNone StopCause = iota
	// StopCauseAllEventsDisabled means every event was disabled at the
	// start of a pass.
	StopCauseAllEventsDisabled
	// StopCauseEndConditionsReached means the combined end condition
	// became true.
	StopCauseEndConditionsReached
)

// String returns the string representation of the stop cause.
func (c StopCause) String() string {
	switch c {
	case StopCauseNone:
		return "None"
	case StopCauseAllEventsDisabled:
		return "AllEventsDisabled"
	case StopCauseEndConditionsReached:
		return "EndConditionsReached"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Config holds the collaborators and initial state for a Processor.
type Config struct {
	// Events is the initial event list, in priority order.
	Events []*scenario.Event

	// EndConditions are the trigger-count thresholds for this run.
	EndConditions []*scenario.EndCondition

	// EndConditionOperator combines satisfied end conditions.
	EndConditionOperator scenario.Operator

	// Detector is the visual-matching capability.
	Detector ImageDetector

	// Supplier provides condition template bitmaps.
	Supplier BitmapSupplier

	// Executor dispatches matched events' actions.
	Executor ActionExecutor

	// OnStopRequested is invoked when a terminal condition is reached.
	// Callers must tolerate idempotent invocation.
	OnStopRequested func()

	// Progress is the optional observer; nil means no observation.
	Progress ProgressListener

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Processor drives one full evaluation pass per captured frame: it loads the
// frame into the detector, iterates enabled events in priority order, stops
// at the first match, dispatches its actions and updates the end-condition
// bookkeeping.
//
// All mutable pass state (the enabled set, end-condition counters, the
// calibration flag) is owned by the single task calling ProcessFrame.
// SetEventEnabled and InvalidateScreenMetrics may be called from outside;
// their effects are applied atomically at the next pass boundary.
type Processor struct {
	events   []*scenario.Event
	enabled  map[string]bool
	detector ImageDetector
	executor ActionExecutor
	verifier *eventEvaluator
	tracker  *EndConditionTracker
	progress ProgressListener
	onStop   func()
	logger   *slog.Logger

	pendingMu      sync.Mutex
	pendingEnabled map[string]bool

	metricsInvalidated atomic.Bool

	stopCause StopCause
}

// NewProcessor creates a processor for one scenario run.
func NewProcessor(cfg *Config) (*Processor, error) {
	if cfg.Detector == nil {
		return nil, fmt.Errorf("processor requires a detector")
	}
	if cfg.Supplier == nil {
		return nil, fmt.Errorf("processor requires a bitmap supplier")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("processor requires an action executor")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	progress := cfg.Progress
	if progress == nil {
		progress = NoopProgressListener{}
	}

	p := &Processor{
		events:         cfg.Events,
		enabled:        make(map[string]bool, len(cfg.Events)),
		detector:       cfg.Detector,
		executor:       cfg.Executor,
		progress:       progress,
		onStop:         cfg.OnStopRequested,
		logger:         logger,
		pendingEnabled: make(map[string]bool),
	}
	for _, ev := range cfg.Events {
		p.enabled[ev.ID] = ev.Enabled
	}

	p.verifier = &eventEvaluator{
		conditions: &conditionEvaluator{
			detector: cfg.Detector,
			supplier: cfg.Supplier,
			logger:   logger,
		},
		progress: progress,
	}
	p.tracker = NewEndConditionTracker(cfg.EndConditionOperator, cfg.EndConditions, func() {
		p.noteStop(StopCauseEndConditionsReached)
	})

	return p, nil
}

// ProcessFrame runs one full evaluation pass against the captured frame.
//
// The returned error is either a cancellation (context error) or a fatal
// contract violation; transient evaluation issues such as a missing template
// never surface here. At most one event executes its actions per call.
func (p *Processor) ProcessFrame(ctx context.Context, frame image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.applyPendingToggles()

	if p.allEventsDisabled() {
		p.logger.Info("All events disabled, requesting stop")
		p.noteStop(StopCauseAllEventsDisabled)
		return nil
	}

	p.progress.OnFrameProcessingStarted()

	p.detector.SetupDetection(frame)
	if p.metricsInvalidated.CompareAndSwap(true, false) {
		p.detector.RefreshCalibration()
	}

	for _, ev := range p.events {
		if !p.enabled[ev.ID] {
			continue
		}
		if len(ev.Conditions) == 0 {
			// Malformed event: skipped, not an error.
			continue
		}

		p.progress.OnEventProcessingStarted(ev)
		outcome, err := p.verifier.Evaluate(ctx, ev)
		if err != nil {
			return err
		}
		p.progress.OnEventProcessingCompleted(ev, outcome)

		if outcome.Matched {
			p.executor.ExecuteActions(ev.Actions, detectedPosition(outcome))
			if p.tracker.OnEventTriggered(ev) {
				// End conditions reached: abort the pass without the
				// trailing completed notification.
				return nil
			}
			// Only one event may act per frame.
			break
		}

		// Cancellation point between events.
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	p.progress.OnFrameProcessingCompleted()
	return nil
}

// detectedPosition extracts the position context for action dispatch.
func detectedPosition(outcome EventOutcome) *image.Point {
	if outcome.Detection == nil || !outcome.Detection.Detected {
		return nil
	}
	pos := outcome.Detection.Position
	return &pos
}

// SetEventEnabled toggles an event's participation in evaluation. The change
// takes effect at the next pass boundary, never mid-pass.
func (p *Processor) SetEventEnabled(eventID string, enabled bool) {
	p.pendingMu.Lock()
	p.pendingEnabled[eventID] = enabled
	p.pendingMu.Unlock()
}

// InvalidateScreenMetrics flags the detector calibration as stale. The
// recalibration happens once, at the start of the next pass.
func (p *Processor) InvalidateScreenMetrics() {
	p.metricsInvalidated.Store(true)
}

// StopCause reports the terminal condition observed by the processor,
// or StopCauseNone while the run is still live.
func (p *Processor) StopCause() StopCause {
	return p.stopCause
}

// Executions returns the live end-condition counter for an event.
func (p *Processor) Executions(eventID string) int {
	return p.tracker.Executions(eventID)
}

func (p *Processor) applyPendingToggles() {
	p.pendingMu.Lock()
	for id, enabled := range p.pendingEnabled {
		if _, known := p.enabled[id]; known {
			p.enabled[id] = enabled
		}
	}
	clear(p.pendingEnabled)
	p.pendingMu.Unlock()
}

func (p *Processor) allEventsDisabled() bool {
	for _, ev := range p.events {
		if p.enabled[ev.ID] {
			return false
		}
	}
	return true
}

// noteStop records the first terminal cause and notifies the stop callback.
// The callback may fire again on subsequent frames; callers tolerate that.
func (p *Processor) noteStop(cause StopCause) {
	if p.stopCause == StopCauseNone {
		p.stopCause = cause
	}
	if p.onStop != nil {
		p.onStop()
	}
}
