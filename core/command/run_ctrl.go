package command

// StartScenario starts a new run of the named scenario.
type StartScenario struct {
	ScenarioName string
}

func NewStartScenario(scenarioName string) *StartScenario {
	return &StartScenario{ScenarioName: scenarioName}
}

func (c *StartScenario) CommandName() string {
	return "StartScenario"
}

// StopRun stops a scenario run.
type StopRun struct {
	baseRunCommand
}

func NewStopRun(runID string) *StopRun {
	return &StopRun{baseRunCommand{runID: runID}}
}

func (c *StopRun) CommandName() string {
	return "StopRun"
}

// StopAllRuns stops every active scenario run.
type StopAllRuns struct{}

func (c *StopAllRuns) CommandName() string {
	return "StopAllRuns"
}

// SetEventEnabled toggles an event's participation in a run's evaluation.
// The change is applied at the next frame pass boundary.
type SetEventEnabled struct {
	baseRunCommand
	EventID string
	Enabled bool
}

func NewSetEventEnabled(runID, eventID string, enabled bool) *SetEventEnabled {
	return &SetEventEnabled{
		baseRunCommand: baseRunCommand{runID: runID},
		EventID:        eventID,
		Enabled:        enabled,
	}
}

func (c *SetEventEnabled) CommandName() string {
	return "SetEventEnabled"
}

// InvalidateScreenMetrics flags a run's detector calibration as stale,
// e.g. after a viewport resize. Recalibration happens at the next pass.
type InvalidateScreenMetrics struct {
	baseRunCommand
}

func NewInvalidateScreenMetrics(runID string) *InvalidateScreenMetrics {
	return &InvalidateScreenMetrics{baseRunCommand{runID: runID}}
}

func (c *InvalidateScreenMetrics) CommandName() string {
	return "InvalidateScreenMetrics"
}
