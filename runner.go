package pjsipwatch

import (
	"context"
	"time"

	"github.com/jpalmerr/pjsipwatch/internal/poller"
)

const (
	defaultCommandPath    = "asterisk"
	defaultCommandTimeout = 30 * time.Second
)

// DefaultCommandArgs are the arguments passed to the default status command.
var DefaultCommandArgs = []string{"-rx", "pjsip list endpoints"}

// CommandRunner produces the raw status text for one poll cycle.
//
// A returned error means the command could not be executed at all (missing
// binary, permission denied, non-zero exit, timeout). The [Watcher] treats
// it as fatal.
type CommandRunner interface {
	Run(ctx context.Context) (string, error)
}

// RunnerFunc adapts an ordinary function to the [CommandRunner] interface.
type RunnerFunc func(ctx context.Context) (string, error)

// Run calls f(ctx).
func (f RunnerFunc) Run(ctx context.Context) (string, error) {
	return f(ctx)
}

// ExecError reports that the status command could not be executed. It is
// returned by [Watcher.Run] when the watcher stops on that condition.
type ExecError struct {
	Err error
}

func (e *ExecError) Error() string {
	return "failed to run status command: " + e.Err.Error()
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// commandRunner runs an external process through the internal poller.
type commandRunner struct {
	runner *poller.Runner
}

// NewCommandRunner returns a [CommandRunner] that executes path with args and
// returns its standard output. A zero timeout disables the per-run timeout.
func NewCommandRunner(path string, args []string, timeout time.Duration) CommandRunner {
	return &commandRunner{runner: poller.NewRunner(path, args, timeout)}
}

func (c *commandRunner) Run(ctx context.Context) (string, error) {
	res := c.runner.Run(ctx)
	if res.Error != nil {
		return res.Stdout, res.Error
	}
	return res.Stdout, nil
}

// String returns the command line.
func (c *commandRunner) String() string {
	return c.runner.String()
}
