package pjsipwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

const defaultInterval = 60 * time.Second

// startupNotifyTimeout caps how long the startup message may hold up the
// first poll.
const startupNotifyTimeout = 5 * time.Second

// Notification kinds, used in logs and metrics.
const (
	kindStartup = "startup"
	kindChange  = "change"
	kindFailure = "failure"
)

// Watcher polls the PBX, fingerprints each snapshot, and notifies on change.
//
// Watcher is created with [New] and driven by [Watcher.Run]. Each cycle runs
// the status command, parses its output into a [Snapshot], computes the
// [Fingerprint], and sends a change message when the fingerprint differs
// from the last one seen. The first cycle always notifies.
//
// The typical lifecycle is:
//
//	w, err := pjsipwatch.New(pjsipwatch.WithNotifier(n))
//	if err != nil {
//	    slog.Error("failed to create watcher", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	if err := w.Run(ctx); err != nil {
//	    os.Exit(1)
//	}
//
// A Watcher is single-use and not safe for concurrent calls to Run. To watch
// several PBXs, create one Watcher per target; they share no state.
type Watcher struct {
	interval       time.Duration
	runner         CommandRunner
	parser         Parser
	notifier       Notifier
	logger         *slog.Logger
	cycleCallbacks []func(Cycle)
	statusAddr     string
	startupMessage string
	startupTimeout time.Duration

	// obs receives cycle and notification events for the status server;
	// nil when the server is disabled.
	obs *statusObserver

	// last is the fingerprint of the most recently notified (or first
	// observed) snapshot. Only the Run goroutine touches it.
	last *Fingerprint
}

// New creates a [Watcher] with the given options.
//
// [WithNotifier] is required. Other options have defaults:
//   - Interval: 60 seconds
//   - Command: asterisk -rx "pjsip list endpoints", 30 second timeout
//   - Parser: [DefaultParser]
//   - Logger: [slog.Default]
func New(opts ...Option) (*Watcher, error) {
	cfg := &watcherConfig{
		interval: defaultInterval,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.notifier == nil {
		return nil, errors.New("a notifier is required")
	}

	runner := cfg.runner
	if runner == nil {
		runner = NewCommandRunner(defaultCommandPath, DefaultCommandArgs, defaultCommandTimeout)
	}

	parser := cfg.parser
	if parser == nil {
		parser = DefaultParser()
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	startup := cfg.startupMessage
	if startup == "" {
		startup = defaultStartupMessage()
	}

	return &Watcher{
		interval:       cfg.interval,
		runner:         runner,
		parser:         parser,
		notifier:       cfg.notifier,
		logger:         logger,
		cycleCallbacks: cfg.cycleCallbacks,
		statusAddr:     cfg.statusAddr,
		startupMessage: startup,
		startupTimeout: startupNotifyTimeout,
	}, nil
}

// Interval returns the configured time between poll cycles.
func (w *Watcher) Interval() time.Duration {
	return w.interval
}

// Run sends the startup notification and then polls until ctx is cancelled
// or the status command cannot be executed.
//
// The startup notification is sent synchronously under its own 5 second
// deadline, so a slow or unreachable sink delays the first poll by at most
// that long. Change and failure notifications use the notifier's own timeout.
//
// Returns nil when ctx is cancelled (graceful shutdown, including during the
// sleep between cycles). Returns an [*ExecError] after a best-effort failure
// notification when the status command cannot be run; this is the only
// condition that stops the loop on its own. Returns an error if the status
// server is enabled and cannot bind.
func (w *Watcher) Run(ctx context.Context) error {
	attrs := []any{"interval", w.interval.String()}
	if s, ok := w.runner.(fmt.Stringer); ok {
		attrs = append(attrs, "command", s.String())
	}
	w.logger.Info("pjsipwatch starting", attrs...)

	if ctx.Err() != nil {
		return nil
	}

	if w.statusAddr != "" {
		obs, err := startStatusObserver(ctx, w.statusAddr, w.logger)
		if err != nil {
			return err
		}
		w.obs = obs
	}

	// Starting
	w.last = nil
	startCtx, cancel := context.WithTimeout(ctx, w.startupTimeout)
	w.notify(startCtx, kindStartup, w.startupMessage)
	cancel()

	for {
		cycle, err := w.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("pjsipwatch stopped")
				return nil
			}
			// FatalExit
			w.logger.Error("status command failed, stopping", "error", err)
			w.notify(ctx, kindFailure, failureMessage(err))
			return err
		}
		w.emit(cycle)

		if !w.sleep(ctx) {
			w.logger.Info("pjsipwatch stopped")
			return nil
		}
	}
}

// poll runs one Polling → Comparing → (Notifying) pass.
func (w *Watcher) poll(ctx context.Context) (Cycle, error) {
	cycle := Cycle{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := w.logger.With("cycle_id", cycle.ID)

	raw, err := w.runner.Run(ctx)
	if err != nil {
		if w.obs != nil && ctx.Err() == nil {
			w.obs.execError()
		}
		return cycle, &ExecError{Err: err}
	}

	parsed := w.parser.Parse(raw)
	for _, line := range parsed.Unmatched {
		log.Debug("skipped unrecognized status line", "line", line.Number, "text", line.Text)
	}
	if parsed.Garbage() {
		log.Warn("status output contained no endpoint lines",
			"unmatched_lines", len(parsed.Unmatched),
		)
	}

	cycle.Snapshot = parsed.Snapshot
	cycle.Unmatched = parsed.Unmatched
	cycle.Garbage = parsed.Garbage()
	cycle.Fingerprint = FingerprintOf(parsed.Snapshot)
	cycle.Changed = w.last == nil || *w.last != cycle.Fingerprint

	if !cycle.Changed {
		log.Info("no change detected",
			"endpoints", cycle.Snapshot.Len(),
			"fingerprint", cycle.Fingerprint.Short(),
		)
		cycle.Duration = time.Since(cycle.StartedAt)
		return cycle, nil
	}

	// Notifying
	log.Info("endpoint state changed",
		"endpoints", cycle.Snapshot.Len(),
		"fingerprint", cycle.Fingerprint.Short(),
		"first", w.last == nil,
	)
	cycle.NotifyErr = w.notify(ctx, kindChange, changeMessage(cycle.Snapshot))
	cycle.Notified = cycle.NotifyErr == nil

	// mark as seen even on failed delivery so a dead sink cannot cause a
	// notification storm; the next real change will try again
	fp := cycle.Fingerprint
	w.last = &fp

	cycle.Duration = time.Since(cycle.StartedAt)
	return cycle, nil
}

// notify makes one delivery attempt and logs the outcome. Errors are
// returned for bookkeeping only; they never stop the loop.
func (w *Watcher) notify(ctx context.Context, kind, message string) error {
	err := w.notifier.Notify(ctx, message)
	if w.obs != nil {
		w.obs.notification(kind, err)
	}
	if err != nil {
		w.logger.Warn("notification failed", "kind", kind, "error", err)
		return err
	}
	w.logger.Info("notification sent", "kind", kind)
	return nil
}

// sleep waits for the poll interval. Returns false if ctx was cancelled first.
func (w *Watcher) sleep(ctx context.Context) bool {
	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// emit hands a completed cycle to the status observer and user callbacks.
func (w *Watcher) emit(cycle Cycle) {
	if w.obs != nil {
		w.obs.cycle(cycle)
	}
	for _, cb := range w.cycleCallbacks {
		invokeCallbackSafe(cb, cycle, w.logger)
	}
}

// invokeCallbackSafe calls a cycle callback with panic recovery.
// Panics are logged with a correlation ID but do not propagate.
func invokeCallbackSafe(cb func(Cycle), cycle Cycle, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("cycle callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", r,
				"cycle_id", cycle.ID,
			)
		}
	}()
	cb(cycle)
}

// defaultStartupMessage names the host so alerts from several PBXs can be
// told apart in one channel.
func defaultStartupMessage() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "pjsipwatch started"
	}
	return "pjsipwatch started on " + host
}

// changeMessage renders the full snapshot for the change notification.
func changeMessage(s Snapshot) string {
	return "Endpoints have changed:\n```\n" + s.Render() + "\n```"
}

func failureMessage(err error) string {
	return "pjsipwatch stopping: " + err.Error()
}
