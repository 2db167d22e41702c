package pjsipwatch

import (
	"errors"
	"log/slog"
	"time"
)

// watcherConfig holds mutable state during Watcher construction.
type watcherConfig struct {
	interval       time.Duration
	runner         CommandRunner
	parser         Parser
	notifier       Notifier
	logger         *slog.Logger
	cycleCallbacks []func(Cycle)
	statusAddr     string
	startupMessage string
}

// Option is a function that configures a [Watcher] during construction.
//
// Options return an error if validation fails.
//
// Built-in options: [WithInterval], [WithNotifier], [WithCommand],
// [WithRunner], [WithParser], [WithLogger], [WithCycleCallback],
// [WithStatusAddr], [WithStartupMessage].
type Option func(*watcherConfig) error

// WithInterval sets the time slept between poll cycles.
//
// Defaults to 60 seconds. Returns an error if d is zero or negative.
func WithInterval(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithNotifier sets the sink that receives startup, change and failure
// messages. Required.
func WithNotifier(n Notifier) Option {
	return func(cfg *watcherConfig) error {
		if n == nil {
			return errors.New("notifier cannot be nil")
		}
		cfg.notifier = n
		return nil
	}
}

// WithCommand sets the status command run on every cycle.
//
// Defaults to `asterisk -rx "pjsip list endpoints"` with a 30 second timeout.
// A zero timeout disables the per-run timeout.
//
// Example:
//
//	w, err := pjsipwatch.New(
//	    pjsipwatch.WithNotifier(n),
//	    pjsipwatch.WithCommand("/usr/sbin/asterisk", []string{"-rx", "pjsip list endpoints"}, 10*time.Second),
//	)
func WithCommand(path string, args []string, timeout time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if path == "" {
			return errors.New("command path cannot be empty")
		}
		if timeout < 0 {
			return errors.New("command timeout cannot be negative")
		}
		cfg.runner = NewCommandRunner(path, args, timeout)
		return nil
	}
}

// WithRunner replaces the status command with a custom [CommandRunner].
// Any error it returns is treated as an execution error and stops the watcher.
func WithRunner(r CommandRunner) Option {
	return func(cfg *watcherConfig) error {
		if r == nil {
			return errors.New("runner cannot be nil")
		}
		cfg.runner = r
		return nil
	}
}

// WithParser replaces the default `pjsip list endpoints` line parser.
func WithParser(p Parser) Option {
	return func(cfg *watcherConfig) error {
		if p == nil {
			return errors.New("parser cannot be nil")
		}
		cfg.parser = p
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used. Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *watcherConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithCycleCallback registers a function called after every completed poll
// cycle, whether or not the snapshot changed.
//
// Callbacks run synchronously on the watch loop goroutine in registration
// order, so they must not block. Panics are recovered and logged.
// Nil callbacks are silently ignored.
func WithCycleCallback(cb func(Cycle)) Option {
	return func(cfg *watcherConfig) error {
		if cb == nil {
			return nil
		}
		cfg.cycleCallbacks = append(cfg.cycleCallbacks, cb)
		return nil
	}
}

// WithStatusAddr enables the read-only status server on addr (e.g. ":9108").
//
// The server exposes the latest snapshot at /api/status, a live stream of
// cycles at /api/sse, Prometheus metrics at /metrics and a liveness probe at
// /healthz. Disabled when addr is empty.
func WithStatusAddr(addr string) Option {
	return func(cfg *watcherConfig) error {
		cfg.statusAddr = addr
		return nil
	}
}

// WithStartupMessage overrides the liveness message sent once before the
// first poll.
func WithStartupMessage(msg string) Option {
	return func(cfg *watcherConfig) error {
		if msg == "" {
			return errors.New("startup message cannot be empty")
		}
		cfg.startupMessage = msg
		return nil
	}
}
