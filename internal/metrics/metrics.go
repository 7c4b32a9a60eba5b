// Package metrics exposes pipeline counters through a Prometheus registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "asdp"

// Collector records stage executions, stage durations, capability fallbacks and audit
// entries. A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	stagesTotal   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	fallbacks     *prometheus.CounterVec
	auditEntries  prometheus.Counter
	sessions      *prometheus.CounterVec
}

// New builds a collector on its own registry.
func New() (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		stagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_executions_total",
			Help:      "Pipeline stages executed, by stage and outcome.",
		}, []string{"stage", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"stage"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capability_fallbacks_total",
			Help:      "Advanced algorithms replaced by their fallback, by capability.",
		}, []string{"capability"}),
		auditEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_total",
			Help:      "Entries appended to session audit logs.",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Cleaning sessions run, by outcome.",
		}, []string{"outcome"}),
	}
	for _, m := range []prometheus.Collector{c.stagesTotal, c.stageDuration, c.fallbacks, c.auditEntries, c.sessions} {
		if err := c.registry.Register(m); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return c, nil
}

// Registry returns the underlying registry, for gathering or tests.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveStage records one stage run.
func (c *Collector) ObserveStage(stage string, d time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.stagesTotal.WithLabelValues(stage, outcome).Inc()
	c.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Fallback records a capability substitution.
func (c *Collector) Fallback(capability string) {
	if c == nil {
		return
	}
	c.fallbacks.WithLabelValues(capability).Inc()
}

// AuditEntry records one audit log append.
func (c *Collector) AuditEntry() {
	if c == nil {
		return
	}
	c.auditEntries.Inc()
}

// Session records a finished session.
func (c *Collector) Session(err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.sessions.WithLabelValues(outcome).Inc()
}

// WriteFile writes the current metrics in the Prometheus text format.
func (c *Collector) WriteFile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
