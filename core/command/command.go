// Package command defines all commands that can be sent to the application.
// Commands represent caller intentions and are processed by the application layer.
package command

// Command is the base interface for all commands.
type Command interface {
	// CommandName returns the name of the command for logging/debugging
	CommandName() string
}

// RunCommand is a command that targets a specific scenario run.
type RunCommand interface {
	Command
	// RunID returns the target run ID
	RunID() string
}

// baseRunCommand provides common implementation for run commands.
type baseRunCommand struct {
	runID string
}

func (c *baseRunCommand) RunID() string {
	return c.runID
}
