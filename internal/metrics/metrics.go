// Package metrics provides application-level metrics collection backed by Prometheus.
// Each Metrics value owns its registry so tests can assert on isolated counters.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

const namespace = "cosmospool"

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the Prometheus collectors used throughout the application.
type Metrics struct {
	registry *prometheus.Registry

	rpcCalls      *prometheus.CounterVec
	rpcLatency    *prometheus.HistogramVec
	deposits      *prometheus.CounterVec
	sessionEvents *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// Default is the process-wide metrics instance used when none is injected.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Default = New()

// New creates a Metrics value with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_calls_total",
			Help:      "JSON-RPC calls issued to the wallet provider.",
		}, []string{"method", "outcome"}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_latency_seconds",
			Help:      "JSON-RPC round-trip latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deposits_total",
			Help:      "Deposit sequences that reached a terminal state.",
		}, []string{"token", "state", "code"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Wallet session transitions.",
		}, []string{"event"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications shown to the user.",
		}, []string{"severity"}),
	}

	m.registry.MustRegister(m.rpcCalls, m.rpcLatency, m.deposits, m.sessionEvents, m.notifications)
	return m
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRPCCall records an RPC call with its duration and success status.
func (m *Metrics) RecordRPCCall(method string, duration time.Duration, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.rpcCalls.WithLabelValues(method, outcome).Inc()
	m.rpcLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordDeposit records a deposit sequence reaching a terminal state.
// err is nil for succeeded deposits; otherwise its error code is used as a label.
func (m *Metrics) RecordDeposit(token, state string, err error) {
	code := ""
	if err != nil {
		code = poolerr.Code(err)
	}
	m.deposits.WithLabelValues(token, state, code).Inc()
}

// RecordSessionEvent records a session transition such as "connected".
func (m *Metrics) RecordSessionEvent(event string) {
	m.sessionEvents.WithLabelValues(event).Inc()
}

// RecordNotification records a notification shown with the given severity.
func (m *Metrics) RecordNotification(severity string) {
	m.notifications.WithLabelValues(severity).Inc()
}

// WriteText writes a compact "name{labels} value" dump of all counters.
// Histograms are reported by sample count and sum.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	lines := make([]string, 0, len(families))
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			pairs := make([]string, 0, len(metric.GetLabel()))
			for _, lp := range metric.GetLabel() {
				pairs = append(pairs, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			labels := ""
			if len(pairs) > 0 {
				labels = "{" + strings.Join(pairs, ",") + "}"
			}

			switch {
			case metric.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s%s %g", mf.GetName(), labels, metric.GetCounter().GetValue()))
			case metric.GetHistogram() != nil:
				h := metric.GetHistogram()
				lines = append(lines,
					fmt.Sprintf("%s_count%s %d", mf.GetName(), labels, h.GetSampleCount()),
					fmt.Sprintf("%s_sum%s %g", mf.GetName(), labels, h.GetSampleSum()),
				)
			}
		}
	}

	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
