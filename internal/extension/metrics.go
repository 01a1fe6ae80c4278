// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relkit/relkit/internal/event"
)

// MetricsFileName is the Prometheus textfile written on session end.
const MetricsFileName = "metrics.prom"

// MetricsListener records step outcomes and durations and writes them in the
// Prometheus text format when the session ends.
type MetricsListener struct {
	name            string
	continueOnError bool
	path            string
	now             func() time.Time

	registry        *prometheus.Registry
	steps           *prometheus.CounterVec
	stepDuration    *prometheus.HistogramVec
	sessionDuration prometheus.Gauge

	mu      sync.Mutex
	started map[string]time.Time
}

// NewMetricsListener creates a listener writing to <outputDir>/metrics.prom.
// A nil now uses time.Now.
func NewMetricsListener(name string, continueOnError bool, outputDir string, now func() time.Time) *MetricsListener {
	if now == nil {
		now = time.Now
	}
	m := &MetricsListener{
		name:            name,
		continueOnError: continueOnError,
		path:            filepath.Join(outputDir, MetricsFileName),
		now:             now,
		registry:        prometheus.NewRegistry(),
		started:         make(map[string]time.Time),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relkit_step_total",
			Help: "Workflow steps by outcome.",
		}, []string{"step", "outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relkit_step_duration_seconds",
			Help:    "Workflow step duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"step"}),
		sessionDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relkit_session_duration_seconds",
			Help: "Duration of the last session in seconds.",
		}),
	}
	m.registry.MustRegister(m.steps, m.stepDuration, m.sessionDuration)
	return m
}

// Name returns the listener name.
func (m *MetricsListener) Name() string { return m.name }

// ContinueOnError reports whether failures are tolerated.
func (m *MetricsListener) ContinueOnError() bool { return m.continueOnError }

// Registry exposes the underlying registry.
func (m *MetricsListener) Registry() *prometheus.Registry { return m.registry }

// OnSessionStart records the session start time.
func (m *MetricsListener) OnSessionStart(_ context.Context, _ Session) error {
	m.mark(event.Session)
	return nil
}

// OnWorkflowEvent counts step outcomes and observes step durations.
func (m *MetricsListener) OnWorkflowEvent(_ context.Context, _ Session, e event.ExecutionEvent) error {
	if e.IsSession() {
		return nil
	}
	switch e.Type() {
	case event.TypeBefore:
		m.mark(e.Name())
	case event.TypeSuccess, event.TypeFailure:
		m.steps.WithLabelValues(e.Name(), string(e.Type())).Inc()
		if d, ok := m.since(e.Name()); ok {
			m.stepDuration.WithLabelValues(e.Name()).Observe(d.Seconds())
		}
	}
	return nil
}

// OnSessionEnd sets the session duration and writes the textfile.
func (m *MetricsListener) OnSessionEnd(_ context.Context, _ Session) error {
	if d, ok := m.since(event.Session); ok {
		m.sessionDuration.Set(d.Seconds())
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(m.path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func (m *MetricsListener) mark(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started[name] = m.now()
}

func (m *MetricsListener) since(name string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start, ok := m.started[name]
	if !ok {
		return 0, false
	}
	delete(m.started, name)
	return m.now().Sub(start), true
}
