// Command example runs a watcher against a simulated PBX and prints
// notifications to stdout instead of posting them to Slack.
//
//	go run ./example
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/pjsipwatch"
)

func main() {
	pbx := newMockPBX("500", "501", "502", "Voipfone")

	// print instead of posting; any Notifier works here
	stdout := pjsipwatch.NotifierFunc(func(_ context.Context, msg string) error {
		fmt.Printf("\n--- notification %s ---\n%s\n", time.Now().Format(time.TimeOnly), msg)
		return nil
	})

	w, err := pjsipwatch.New(
		pjsipwatch.WithNotifier(stdout),
		pjsipwatch.WithRunner(pbx),
		pjsipwatch.WithInterval(5*time.Second),
		pjsipwatch.WithStatusAddr(":9108"),
		pjsipwatch.WithCycleCallback(func(c pjsipwatch.Cycle) {
			if c.Changed {
				slog.Info("snapshot changed", "fingerprint", c.Fingerprint.Short())
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  pjsipwatch demo")
	fmt.Println()
	fmt.Println("  4 simulated endpoints, polled every 5s.")
	fmt.Println("  Status: http://localhost:9108/api/status")
	fmt.Println("  Stream: http://localhost:9108/api/sse")
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil {
		slog.Error("watcher error", "error", err)
		os.Exit(1)
	}
}
