package pjsipwatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpalmerr/pjsipwatch/internal/metrics"
	"github.com/jpalmerr/pjsipwatch/internal/server"
	"github.com/jpalmerr/pjsipwatch/internal/store"
)

// statusObserver feeds watch loop events into the status store and metrics.
type statusObserver struct {
	store   *store.MemoryStore
	metrics *metrics.Metrics
	server  *server.Server
}

// startStatusObserver builds the store, metrics registry and status server,
// and starts the server on addr. The server stops when ctx is cancelled.
func startStatusObserver(ctx context.Context, addr string, logger *slog.Logger) (*statusObserver, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	st := store.NewMemoryStore()
	srv := server.NewServer(st, addr, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), logger)
	if err := srv.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start status server: %w", err)
	}
	logger.Info("status server listening", "addr", srv.Addr())

	return &statusObserver{
		store:   st,
		metrics: metrics.New(reg),
		server:  srv,
	}, nil
}

func (o *statusObserver) cycle(c Cycle) {
	o.store.Update(cycleToObservation(c))

	states := make([]string, len(c.Snapshot.Endpoints))
	for i, r := range c.Snapshot.Endpoints {
		states[i] = r.State
	}
	o.metrics.ObserveCycle(metrics.CycleSample{
		At:        c.StartedAt,
		Duration:  c.Duration,
		Changed:   c.Changed,
		Unmatched: len(c.Unmatched),
		Garbage:   c.Garbage,
		States:    states,
	})
}

func (o *statusObserver) notification(kind string, err error) {
	o.metrics.ObserveNotification(kind, err)
}

func (o *statusObserver) execError() {
	o.metrics.ObserveExecError()
}

// cycleToObservation converts a cycle to its storage representation.
func cycleToObservation(c Cycle) store.Observation {
	var errStr *string
	if c.NotifyErr != nil {
		s := c.NotifyErr.Error()
		errStr = &s
	}

	endpoints := make([]store.Endpoint, len(c.Snapshot.Endpoints))
	for i, r := range c.Snapshot.Endpoints {
		endpoints[i] = store.Endpoint{Name: r.Name, State: r.State, Channels: r.Channels}
	}

	return store.Observation{
		CycleID:        c.ID,
		CheckedAt:      c.StartedAt,
		DurationMs:     c.Duration.Milliseconds(),
		Fingerprint:    c.Fingerprint.String(),
		Changed:        c.Changed,
		Notified:       c.Notified,
		NotifyError:    errStr,
		UnmatchedLines: len(c.Unmatched),
		Garbage:        c.Garbage,
		Endpoints:      endpoints,
	}
}
