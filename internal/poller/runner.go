package poller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const maxOutputSize = 4 << 20 // 4MB

// waitDelay bounds how long Run waits for output pipes after the process is
// killed, so a grandchild holding stdout cannot stall the poll.
const waitDelay = 2 * time.Second

// ErrorKind classifies why a command could not be run to a successful exit.
type ErrorKind string

const (
	// KindNotFound: the binary does not exist or is not on PATH.
	KindNotFound ErrorKind = "not_found"

	// KindPermission: the binary exists but cannot be executed.
	KindPermission ErrorKind = "permission_denied"

	// KindExit: the process ran and exited non-zero.
	KindExit ErrorKind = "exit_status"

	// KindTimeout: the process exceeded the runner timeout and was killed.
	KindTimeout ErrorKind = "timeout"

	// KindCanceled: the caller's context was cancelled during the run.
	KindCanceled ErrorKind = "canceled"

	// KindStart: any other failure to start or wait for the process.
	KindStart ErrorKind = "start_failed"
)

// ExecError reports a status command that could not be run successfully.
type ExecError struct {
	// Command is the command line, for messages.
	Command string

	// Kind classifies the failure.
	Kind ErrorKind

	// ExitCode is the process exit code for KindExit, otherwise -1.
	ExitCode int

	// Stderr holds the trimmed standard error output, if any was captured.
	Stderr string

	// Err is the underlying error.
	Err error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Command, e.Kind)
	if e.Kind == KindExit {
		msg = fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %s: %v", e.Command, e.Kind, e.Err)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Result holds the outcome of one [Runner.Run] invocation.
type Result struct {
	// Stdout is the captured standard output, limited to 4MB.
	Stdout string

	// Stderr is the captured standard error, limited to 4MB.
	Stderr string

	// ExitCode is the process exit code, or -1 if it never exited normally.
	ExitCode int

	// Latency is the wall time from start to exit.
	Latency time.Duration

	// Error is nil on a zero exit status, otherwise a [*ExecError].
	Error error
}

// Runner runs a fixed command line.
//
// Runner holds no per-run state and is safe for concurrent use.
type Runner struct {
	path    string
	args    []string
	timeout time.Duration
}

// NewRunner creates a [Runner] for path with args.
//
// A zero or negative timeout disables the per-run timeout; the caller's
// context still applies.
func NewRunner(path string, args []string, timeout time.Duration) *Runner {
	return &Runner{
		path:    path,
		args:    append([]string(nil), args...),
		timeout: timeout,
	}
}

// String returns the command line as it would be typed in a shell.
func (r *Runner) String() string {
	parts := make([]string, 0, len(r.args)+1)
	parts = append(parts, r.path)
	for _, a := range r.args {
		if strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Run executes the command and returns a structured [Result].
//
// Run always returns a Result; failures are captured in the Error field
// rather than returned separately, matching how the watch loop consumes it.
func (r *Runner) Run(ctx context.Context) Result {
	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr cappedBuffer
	cmd := exec.CommandContext(runCtx, r.path, r.args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
		Latency:  time.Since(start),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		result.Error = r.classify(ctx, runCtx, err, result)
	}
	return result
}

// classify maps an exec error onto an [ExecError]. The caller's context is
// checked before the run context so shutdown is never reported as a timeout.
func (r *Runner) classify(parent, runCtx context.Context, err error, res Result) *ExecError {
	e := &ExecError{
		Command:  r.String(),
		ExitCode: -1,
		Stderr:   strings.TrimSpace(res.Stderr),
		Err:      err,
	}

	var exitErr *exec.ExitError
	switch {
	case parent.Err() != nil:
		e.Kind = KindCanceled
		e.Err = parent.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		e.Kind = KindTimeout
		e.Err = fmt.Errorf("no exit within %s: %w", r.timeout, err)
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		e.Kind = KindNotFound
	case errors.Is(err, os.ErrPermission):
		e.Kind = KindPermission
	case errors.As(err, &exitErr):
		e.Kind = KindExit
		e.ExitCode = exitErr.ExitCode()
	default:
		e.Kind = KindStart
	}
	return e
}

// cappedBuffer collects up to maxOutputSize bytes and silently drops the rest.
type cappedBuffer struct {
	buf []byte
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := maxOutputSize - len(b.buf); room > 0 {
		if len(p) > room {
			b.buf = append(b.buf, p[:room]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	// report full consumption so the child never sees a short write
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	return string(b.buf)
}
