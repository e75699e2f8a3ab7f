// Package runner implements a scenario run as an actor: a single task that
// pumps frames from the capture surface through the evaluation pipeline
// until an end condition, an error, or a manual stop terminates it.
package runner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/corona10/goimagehash"
	"golang.org/x/time/rate"

	"pixelwarden/application/processing"
	"pixelwarden/core/event"
	"pixelwarden/core/eventbus"
	"pixelwarden/core/state"
	"pixelwarden/domain/report"
	"pixelwarden/domain/scenario"
	"pixelwarden/infrastructure/capture"
	"pixelwarden/infrastructure/detection"
)

// DefaultFrameRate is the capture rate, in frames per second, when the
// config does not specify one.
const DefaultFrameRate = 10.0

// Config holds configuration for creating a new Run.
type Config struct {
	ID        string
	Scenario  *scenario.Scenario
	Driver    capture.Driver
	Supplier  processing.BitmapSupplier
	EventBus  eventbus.EventBus
	Reports   report.Repository // optional; nil disables run reports
	TargetURL string
	FrameRate float64
	Logger    *slog.Logger

	// Detector overrides the default detector built from the scenario's
	// detection quality.
	Detector processing.ImageDetector
}

// Run executes one scenario against the capture surface. All run-internal
// state is owned by the single frame pump task; external control arrives
// through Stop, SetEventEnabled and InvalidateScreenMetrics.
type Run struct {
	id       string
	scenario *scenario.Scenario
	driver   capture.Driver
	eventBus eventbus.EventBus
	reports  report.Repository
	logger   *slog.Logger

	targetURL string
	frameRate float64

	state   state.RunState
	stateMu sync.RWMutex

	processor *processing.Processor
	executor  *InputActionExecutor

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Frame pump state, touched only by the pump task.
	frameIndex      uint64
	lastHash        *goimagehash.ImageHash
	lastPassMatched bool
	triggerCounts   map[string]int
	startedAt       time.Time

	captureLost bool
	runErr      error
}

// New creates a new run actor. The run is idle until Start is called.
func New(cfg *Config) (*Run, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("run requires an id")
	}
	if cfg.Scenario == nil {
		return nil, fmt.Errorf("run requires a scenario")
	}
	if cfg.Driver == nil {
		return nil, fmt.Errorf("run requires a capture driver")
	}
	if cfg.Supplier == nil {
		return nil, fmt.Errorf("run requires a bitmap supplier")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", cfg.ID, "scenario", cfg.Scenario.Name)

	frameRate := cfg.FrameRate
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}

	ctx, cancel := context.WithCancel(context.Background())

	r := &Run{
		id:            cfg.ID,
		scenario:      cfg.Scenario,
		driver:        cfg.Driver,
		eventBus:      cfg.EventBus,
		reports:       cfg.Reports,
		logger:        logger,
		targetURL:     cfg.TargetURL,
		frameRate:     frameRate,
		state:         state.StateIdle,
		ctx:           ctx,
		cancel:        cancel,
		triggerCounts: make(map[string]int),
	}

	r.executor = NewInputActionExecutor(cfg.Driver, cfg.Scenario.RandomizeActions, logger)

	detector := cfg.Detector
	if detector == nil {
		detector = detection.NewDetector(cfg.Scenario.DetectionQuality)
	}

	processor, err := processing.NewProcessor(&processing.Config{
		Events:               cfg.Scenario.Events,
		EndConditions:        cfg.Scenario.EndConditions,
		EndConditionOperator: cfg.Scenario.EndConditionOperator,
		Detector:             detector,
		Supplier:             cfg.Supplier,
		Executor:             r.executor,
		OnStopRequested:      func() {}, // pump checks StopCause after each pass
		Progress:             (*runProgress)(r),
		Logger:               logger,
	})
	if err != nil {
		r.executor.Close()
		cancel()
		return nil, err
	}
	r.processor = processor

	return r, nil
}

// ID returns the run ID.
func (r *Run) ID() string {
	return r.id
}

// ScenarioName returns the name of the scenario being executed.
func (r *Run) ScenarioName() string {
	return r.scenario.Name
}

// State returns the current run state.
func (r *Run) State() state.RunState {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.state
}

// Start brings up the capture surface and begins the frame pump.
func (r *Run) Start(ctx context.Context) error {
	if err := r.transitionTo(state.StateStarting); err != nil {
		return err
	}

	if err := r.driver.Start(ctx); err != nil {
		r.runErr = err
		r.finalize()
		return fmt.Errorf("failed to start capture surface: %w", err)
	}
	if r.targetURL != "" {
		if err := r.driver.Navigate(ctx, r.targetURL); err != nil {
			r.runErr = err
			r.finalize()
			return fmt.Errorf("failed to navigate: %w", err)
		}
	}

	if err := r.transitionTo(state.StateRunning); err != nil {
		r.finalize()
		return err
	}

	r.startedAt = time.Now()
	r.publishEvent(event.NewRunStarted(r.id, r.scenario.Name))

	r.wg.Add(1)
	go r.pump()

	r.logger.Info("Run started")
	return nil
}

// Stop requests a manual stop and waits for the pump to finish.
func (r *Run) Stop() {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Run stopped")
	case <-time.After(3 * time.Second):
		r.logger.Warn("Run stop timeout")
	}
}

// SetEventEnabled toggles an event's participation in evaluation.
// The change applies at the next frame pass boundary.
func (r *Run) SetEventEnabled(eventID string, enabled bool) error {
	if !r.State().CanAcceptToggles() {
		return fmt.Errorf("run %s cannot accept toggles in state %s", r.id, r.State())
	}
	r.processor.SetEventEnabled(eventID, enabled)
	return nil
}

// InvalidateScreenMetrics flags detector calibration as stale, e.g. after
// a viewport change.
func (r *Run) InvalidateScreenMetrics() {
	r.processor.InvalidateScreenMetrics()
}

// pump is the frame loop: capture, gate, evaluate, repeat.
func (r *Run) pump() {
	defer r.wg.Done()
	defer r.finalize()

	limiter := rate.NewLimiter(rate.Limit(r.frameRate), 1)

	for {
		if err := limiter.Wait(r.ctx); err != nil {
			return
		}

		frame, err := r.driver.CaptureScreen(r.ctx)
		if err != nil {
			if r.ctx.Err() != nil {
				return
			}
			r.logger.Error("Frame capture failed", "error", err)
			r.captureLost = true
			return
		}

		if r.skipUnchangedFrame(frame) {
			continue
		}

		r.lastPassMatched = false
		if err := r.processor.ProcessFrame(r.ctx, frame); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			r.logger.Error("Frame pass failed", "error", err)
			r.runErr = err
			return
		}

		if r.processor.StopCause() != processing.StopCauseNone {
			r.logger.Info("Run reached terminal condition", "cause", r.processor.StopCause())
			return
		}
	}
}

// skipUnchangedFrame gates the evaluation pass on a perceptual hash of the
// frame: a frame identical to the previous one is skipped, unless the
// previous pass matched an event (its actions may be about to change the
// screen, and end-condition accounting must observe repeat matches).
func (r *Run) skipUnchangedFrame(frame image.Image) bool {
	hash, err := goimagehash.PerceptionHash(frame)
	if err != nil {
		return false
	}

	prev := r.lastHash
	r.lastHash = hash

	if prev == nil || r.lastPassMatched {
		return false
	}
	distance, err := hash.Distance(prev)
	return err == nil && distance == 0
}

// finalize tears down the run, publishes the stop event and records the
// run report. Runs exactly once, from the pump task (or from Start on a
// startup failure before the pump exists).
func (r *Run) finalize() {
	r.cancel()
	r.executor.Close()

	if r.driver.IsRunning() {
		if err := r.driver.Stop(); err != nil {
			r.logger.Error("Failed to stop capture surface", "error", err)
		}
	}

	if r.State() == state.StateStarting {
		_ = r.transitionTo(state.StateStopped)
	} else {
		_ = r.transitionTo(state.StateStopping)
		_ = r.transitionTo(state.StateStopped)
	}

	reason := r.stopReason()
	r.publishEvent(event.NewRunStopped(r.id, r.scenario.Name, reason, r.runErr))
	r.logger.Info("Run finalized", "reason", reason)

	r.recordReport(reason)
}

// stopReason derives the public stop reason from what the run observed.
func (r *Run) stopReason() event.StopReason {
	switch {
	case r.runErr != nil:
		return event.StopReasonError
	case r.captureLost:
		return event.StopReasonCaptureLost
	}
	switch r.processor.StopCause() {
	case processing.StopCauseEndConditionsReached:
		return event.StopReasonConditionsMet
	case processing.StopCauseAllEventsDisabled:
		return event.StopReasonAllEventsDisabled
	default:
		return event.StopReasonManual
	}
}

func (r *Run) recordReport(reason event.StopReason) {
	if r.reports == nil || r.startedAt.IsZero() {
		return
	}

	counts := make(map[string]int, len(r.triggerCounts))
	for id, n := range r.triggerCounts {
		counts[id] = n
	}

	rep := &report.Report{
		RunID:         r.id,
		ScenarioName:  r.scenario.Name,
		StartedAt:     r.startedAt,
		EndedAt:       time.Now(),
		StopReason:    reason.String(),
		TriggerCounts: counts,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.reports.Insert(ctx, rep); err != nil {
		r.logger.Error("Failed to record run report", "error", err)
	}
}

func (r *Run) transitionTo(newState state.RunState) error {
	r.stateMu.Lock()
	oldState := r.state

	if !oldState.CanTransitionTo(newState) {
		r.stateMu.Unlock()
		return state.NewTransitionError(oldState, newState, "")
	}

	r.state = newState
	r.stateMu.Unlock()

	r.publishEvent(event.NewRunStateChanged(r.id, oldState, newState))
	r.logger.Info("State changed", "from", oldState, "to", newState)
	return nil
}

func (r *Run) publishEvent(e event.Event) {
	if r.eventBus != nil {
		r.eventBus.Publish(e)
	}
}

// runProgress adapts the evaluation pipeline's observational hooks onto the
// event bus and the run's trigger bookkeeping. It runs on the pump task.
type runProgress Run

func (p *runProgress) OnFrameProcessingStarted() {}

func (p *runProgress) OnFrameProcessingCompleted() {
	p.frameIndex++
	r := (*Run)(p)
	r.publishEvent(event.NewFramePassCompleted(p.id, p.frameIndex))
}

func (p *runProgress) OnEventProcessingStarted(ev *scenario.Event) {}

func (p *runProgress) OnEventProcessingCompleted(ev *scenario.Event, outcome processing.EventOutcome) {
	if !outcome.Matched {
		return
	}
	p.lastPassMatched = true
	p.triggerCounts[ev.ID]++

	var pos *image.Point
	if outcome.Detection != nil && outcome.Detection.Detected {
		pt := outcome.Detection.Position
		pos = &pt
	}
	r := (*Run)(p)
	r.publishEvent(event.NewEventTriggered(p.id, ev.ID, ev.Name, pos))
}

func (p *runProgress) OnConditionProcessingStarted(cond *scenario.Condition) {}

func (p *runProgress) OnConditionProcessingCompleted(cond *scenario.Condition, result processing.DetectionResult, ok bool) {
}
