// Package application provides the application layer for orchestrating
// scenario runs.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"pixelwarden/application/processing"
	"pixelwarden/application/runner"
	"pixelwarden/core/command"
	"pixelwarden/core/eventbus"
	"pixelwarden/domain/report"
	"pixelwarden/domain/scenario"
	"pixelwarden/infrastructure/capture"
)

// DriverFactory creates capture drivers, one per run.
type DriverFactory func() capture.Driver

// Coordinator manages scenario runs and routes control commands to them.
type Coordinator struct {
	runs   map[string]*runner.Run
	runsMu sync.RWMutex
	nextID atomic.Uint64

	eventBus      eventbus.EventBus
	registry      *scenario.Registry
	supplier      processing.BitmapSupplier
	reports       report.Repository
	driverFactory DriverFactory
	targetURL     string
	frameRate     float64
	logger        *slog.Logger
}

// CoordinatorConfig holds configuration for the Coordinator.
type CoordinatorConfig struct {
	EventBus      eventbus.EventBus
	Registry      *scenario.Registry
	Supplier      processing.BitmapSupplier
	Reports       report.Repository // optional
	DriverFactory DriverFactory
	TargetURL     string
	FrameRate     float64
	Logger        *slog.Logger
}

// NewCoordinator creates a new run coordinator.
func NewCoordinator(cfg *CoordinatorConfig) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Coordinator{
		runs:          make(map[string]*runner.Run),
		eventBus:      cfg.EventBus,
		registry:      cfg.Registry,
		supplier:      cfg.Supplier,
		reports:       cfg.Reports,
		driverFactory: cfg.DriverFactory,
		targetURL:     cfg.TargetURL,
		frameRate:     cfg.FrameRate,
		logger:        cfg.Logger,
	}
}

// Dispatch routes a control command to the right run, or handles it itself.
func (c *Coordinator) Dispatch(ctx context.Context, cmd command.Command) error {
	c.logger.Debug("Dispatching command", "command", cmd.CommandName())

	switch cm := cmd.(type) {
	case *command.StartScenario:
		_, err := c.StartScenario(ctx, cm.ScenarioName)
		return err
	case *command.StopRun:
		return c.StopRun(cm.RunID())
	case *command.StopAllRuns:
		c.StopAll()
		return nil
	case *command.SetEventEnabled:
		run, err := c.run(cm.RunID())
		if err != nil {
			return err
		}
		return run.SetEventEnabled(cm.EventID, cm.Enabled)
	case *command.InvalidateScreenMetrics:
		run, err := c.run(cm.RunID())
		if err != nil {
			return err
		}
		run.InvalidateScreenMetrics()
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd.CommandName())
	}
}

// StartScenario starts a new run of the named scenario and returns its run ID.
func (c *Coordinator) StartScenario(ctx context.Context, scenarioName string) (string, error) {
	scn := c.registry.Get(scenarioName)
	if scn == nil {
		return "", fmt.Errorf("scenario not found: %s", scenarioName)
	}

	runID := "run-" + strconv.FormatUint(c.nextID.Add(1), 10)

	run, err := runner.New(&runner.Config{
		ID:        runID,
		Scenario:  scn,
		Driver:    c.driverFactory(),
		Supplier:  c.supplier,
		EventBus:  c.eventBus,
		Reports:   c.reports,
		TargetURL: c.targetURL,
		FrameRate: c.frameRate,
		Logger:    c.logger,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}

	c.runsMu.Lock()
	c.runs[runID] = run
	c.runsMu.Unlock()

	if err := run.Start(ctx); err != nil {
		c.removeRun(runID)
		return "", err
	}

	c.logger.Info("Scenario run started", "run_id", runID, "scenario", scenarioName)
	return runID, nil
}

// StopRun stops the run with the given ID.
func (c *Coordinator) StopRun(runID string) error {
	run, err := c.run(runID)
	if err != nil {
		return err
	}

	run.Stop()
	c.removeRun(runID)
	return nil
}

// StopAll stops every active run in parallel.
func (c *Coordinator) StopAll() {
	c.runsMu.Lock()
	runs := make([]*runner.Run, 0, len(c.runs))
	for _, r := range c.runs {
		runs = append(runs, r)
	}
	c.runs = make(map[string]*runner.Run)
	c.runsMu.Unlock()

	var wg sync.WaitGroup
	for _, r := range runs {
		wg.Add(1)
		go func(run *runner.Run) {
			defer wg.Done()
			run.Stop()
		}(r)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		c.logger.Warn("Stop timeout, some runs may not have stopped cleanly")
	}
}

// Run returns the run with the given ID, or nil.
func (c *Coordinator) Run(runID string) *runner.Run {
	c.runsMu.RLock()
	defer c.runsMu.RUnlock()
	return c.runs[runID]
}

// ActiveRuns returns the IDs of all tracked runs.
func (c *Coordinator) ActiveRuns() []string {
	c.runsMu.RLock()
	defer c.runsMu.RUnlock()

	ids := make([]string, 0, len(c.runs))
	for id := range c.runs {
		ids = append(ids, id)
	}
	return ids
}

func (c *Coordinator) run(runID string) (*runner.Run, error) {
	c.runsMu.RLock()
	defer c.runsMu.RUnlock()

	run, ok := c.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return run, nil
}

func (c *Coordinator) removeRun(runID string) {
	c.runsMu.Lock()
	delete(c.runs, runID)
	c.runsMu.Unlock()
}
