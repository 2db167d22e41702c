// Package pjsipwatch watches the SIP endpoint table of an Asterisk PBX and
// reports changes to a chat channel.
//
// Every cycle runs `asterisk -rx "pjsip list endpoints"`, parses the endpoint
// lines into a [Snapshot], and reduces it to a [Fingerprint]. When the
// fingerprint differs from the previous one, the whole table is sent through
// a [Notifier]. The first cycle always notifies, so the channel starts with a
// known baseline.
//
// # Quick Start
//
//	n := pjsipwatch.NotifierFunc(func(ctx context.Context, msg string) error {
//	    return postToChat(ctx, msg)
//	})
//	w, _ := pjsipwatch.New(
//	    pjsipwatch.WithNotifier(n),
//	    pjsipwatch.WithInterval(time.Minute),
//	)
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	w.Run(ctx) // blocks until ctx is cancelled or the command fails
//
// Any type with a Notify method works as a sink. The CLI uses the Slack
// transports in internal/notify.
//
// # Failure Handling
//
// A notification that cannot be delivered is logged and the new fingerprint
// is still recorded, so a dead sink never produces a burst of repeats. A
// status command that cannot be run (missing binary, permission denied,
// non-zero exit, timeout) is fatal: the watcher sends one last message and
// [Watcher.Run] returns an [*ExecError].
//
// # Parsing
//
// [Parse] matches each trimmed line against [EndpointLinePattern]. Headers
// and detail lines (InAuth, Aor, Contact) are skipped and reported in
// [ParseResult.Unmatched]. Use [NewLineParser] and [WithParser] for other
// table layouts.
//
// # Architecture
//
// pjsipwatch consists of several internal packages (under internal/):
//
//   - internal/poller: status command execution with timeout and error classification
//   - internal/notify: Slack incoming webhook and Web API transports
//   - internal/store: latest cycle in memory with pub/sub for streaming
//   - internal/server: status API, Server-Sent Events, health and metrics endpoints
//   - internal/metrics: Prometheus collectors fed from cycle results
//
// The internal packages are not part of the public API and may change
// without notice. The config package and cmd/pjsipwatch build a watcher
// from a YAML, TOML or JSONC file.
package pjsipwatch
