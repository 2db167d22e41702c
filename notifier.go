package pjsipwatch

import (
	"context"
	"fmt"
)

// Notifier delivers a text message to a single external sink.
//
// Notify makes exactly one delivery attempt. It does not batch, queue, or
// retry; the [Watcher] owns retry policy. Every transport failure (DNS,
// refused connection, timeout, non-success response) is returned as an
// error, preferably a [*NotifyError].
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// NotifierFunc adapts an ordinary function to the [Notifier] interface.
type NotifierFunc func(ctx context.Context, message string) error

// Notify calls f(ctx, message).
func (f NotifierFunc) Notify(ctx context.Context, message string) error {
	return f(ctx, message)
}

// NotifyError reports a failed delivery to a notification sink.
type NotifyError struct {
	// Sink names the transport, e.g. "slack-webhook" or "slack-api".
	Sink string

	// Cause is a human-readable description of the failure.
	Cause string

	// StatusCode is the HTTP status returned by the sink, or zero if no
	// response was received.
	StatusCode int

	// Err is the underlying error, if any.
	Err error
}

func (e *NotifyError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Sink, e.Cause, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Sink, e.Cause)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}
