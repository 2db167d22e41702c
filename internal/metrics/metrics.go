// Package metrics exposes Prometheus instruments for the pjsipwatch loop.
//
// This package is internal to pjsipwatch. Instruments are registered on a
// caller-supplied registry so tests and embedders never touch the global
// default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pjsipwatch"

// Poll outcomes used as the "result" label of the polls counter.
const (
	ResultOK        = "ok"
	ResultExecError = "exec_error"
)

// Metrics holds the instruments updated by the watch loop.
type Metrics struct {
	polls         *prometheus.CounterVec
	pollDuration  prometheus.Histogram
	changes       prometheus.Counter
	notifications *prometheus.CounterVec
	unmatched     prometheus.Counter
	garbage       prometheus.Counter
	endpoints     prometheus.Gauge
	byState       *prometheus.GaugeVec
	lastPoll      prometheus.Gauge
	lastChange    prometheus.Gauge
}

// New creates and registers all instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		polls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Status command invocations by result",
		}, []string{"result"}),
		pollDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Wall time of one poll cycle, including notification",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		changes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_changes_total",
			Help:      "Cycles whose snapshot fingerprint differed from the previous one",
		}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification attempts by kind and result",
		}, []string{"kind", "result"}),
		unmatched: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unmatched_lines_total",
			Help:      "Non-blank status lines that were not endpoint lines",
		}),
		garbage: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unrecognized_outputs_total",
			Help:      "Polls whose output had content but no endpoint lines",
		}),
		endpoints: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "endpoints",
			Help:      "Endpoints in the latest snapshot",
		}),
		byState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "endpoints_by_state",
			Help:      "Endpoints in the latest snapshot grouped by state",
		}, []string{"state"}),
		lastPoll: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_poll_timestamp_seconds",
			Help:      "Unix time of the latest completed poll",
		}),
		lastChange: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_change_timestamp_seconds",
			Help:      "Unix time of the latest snapshot change",
		}),
	}
}

// CycleSample is the subset of a poll cycle the metrics care about.
type CycleSample struct {
	At        time.Time
	Duration  time.Duration
	Changed   bool
	Unmatched int
	Garbage   bool
	States    []string
}

// ObserveCycle records one completed poll cycle.
func (m *Metrics) ObserveCycle(s CycleSample) {
	m.polls.WithLabelValues(ResultOK).Inc()
	m.pollDuration.Observe(s.Duration.Seconds())
	m.unmatched.Add(float64(s.Unmatched))
	if s.Garbage {
		m.garbage.Inc()
	}

	m.endpoints.Set(float64(len(s.States)))
	counts := make(map[string]int, len(s.States))
	for _, st := range s.States {
		counts[st]++
	}
	// states come and go; drop series for states no longer reported
	m.byState.Reset()
	for st, n := range counts {
		m.byState.WithLabelValues(st).Set(float64(n))
	}

	m.lastPoll.Set(float64(s.At.Unix()))
	if s.Changed {
		m.changes.Inc()
		m.lastChange.Set(float64(s.At.Unix()))
	}
}

// ObserveExecError records a poll whose command could not be run.
func (m *Metrics) ObserveExecError() {
	m.polls.WithLabelValues(ResultExecError).Inc()
}

// ObserveNotification records one notification attempt. kind is "startup",
// "change" or "failure".
func (m *Metrics) ObserveNotification(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}
