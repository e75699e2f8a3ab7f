package runner

import (
	"context"
	"image"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"pixelwarden/domain/scenario"
	"pixelwarden/infrastructure/capture"
)

// jitterRange is the maximum positional offset, in pixels, applied in each
// direction when action randomization is on.
const jitterRange = 3.0

// actionJob is one matched event's action list queued for execution.
type actionJob struct {
	actions  []scenario.Action
	position *image.Point
}

// InputActionExecutor injects a matched event's actions through the capture
// driver. Dispatch is fire-and-forget: the frame pass enqueues the job and
// moves on, a single worker executes jobs in order.
type InputActionExecutor struct {
	driver    capture.Driver
	randomize bool
	rng       *rand.Rand
	logger    *slog.Logger

	queue  chan actionJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewInputActionExecutor creates an executor and starts its worker.
func NewInputActionExecutor(driver capture.Driver, randomize bool, logger *slog.Logger) *InputActionExecutor {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &InputActionExecutor{
		driver:    driver,
		randomize: randomize,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:    logger,
		queue:     make(chan actionJob, 16),
		ctx:       ctx,
		cancel:    cancel,
	}

	e.wg.Add(1)
	go e.worker()

	return e
}

// ExecuteActions enqueues the actions for execution. The call never blocks;
// if the queue is full the job is dropped with a warning, since a stalled
// input pipeline must not stall frame evaluation.
func (e *InputActionExecutor) ExecuteActions(actions []scenario.Action, position *image.Point) {
	if len(actions) == 0 {
		return
	}

	select {
	case e.queue <- actionJob{actions: actions, position: position}:
	case <-e.ctx.Done():
	default:
		e.logger.Warn("Action queue full, dropping actions", "count", len(actions))
	}
}

// Close stops the worker and waits for the in-flight job to finish.
func (e *InputActionExecutor) Close() {
	e.cancel()
	e.wg.Wait()
}

func (e *InputActionExecutor) worker() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		case job := <-e.queue:
			e.runJob(job)
		}
	}
}

func (e *InputActionExecutor) runJob(job actionJob) {
	for _, action := range job.actions {
		if e.ctx.Err() != nil {
			return
		}
		if err := e.runAction(action, job.position); err != nil {
			e.logger.Error("Action failed", "type", action.Type, "error", err)
			return
		}
	}
}

func (e *InputActionExecutor) runAction(action scenario.Action, position *image.Point) error {
	switch action.Type {
	case scenario.ActionTypeClick:
		x, y := float64(action.X), float64(action.Y)
		if action.UseDetectedPosition && position != nil {
			x, y = float64(position.X), float64(position.Y)
		}
		x, y = e.jitter(x), e.jitter(y)
		e.logger.Debug("Click", "x", x, "y", y)
		return e.driver.Click(e.ctx, x, y)

	case scenario.ActionTypeSwipe:
		fromX, fromY := e.jitter(float64(action.X)), e.jitter(float64(action.Y))
		toX, toY := e.jitter(float64(action.ToX)), e.jitter(float64(action.ToY))
		e.logger.Debug("Swipe", "from_x", fromX, "from_y", fromY, "to_x", toX, "to_y", toY)
		return e.driver.Swipe(e.ctx, fromX, fromY, toX, toY)

	case scenario.ActionTypePause:
		select {
		case <-time.After(action.Duration):
			return nil
		case <-e.ctx.Done():
			return e.ctx.Err()
		}

	default:
		e.logger.Warn("Unknown action type", "type", action.Type)
		return nil
	}
}

// jitter offsets v by up to jitterRange pixels in either direction when
// randomization is on.
func (e *InputActionExecutor) jitter(v float64) float64 {
	if !e.randomize {
		return v
	}
	return v + (e.rng.Float64()*2-1)*jitterRange
}
