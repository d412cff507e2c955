// Package metrics exposes Prometheus collectors for subscription and
// settlement activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tipster"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	transitions      *prometheus.CounterVec
	conflictsExpired prometheus.Counter
	sweepExpired     prometheus.Counter
	sweepFailures    prometheus.Counter
	settlements      *prometheus.CounterVec
	bulkItems        *prometheus.CounterVec
	auditDropped     prometheus.Counter
	httpDuration     *prometheus.HistogramVec
}

// MustNew registers the collectors with reg and panics on a registration
// error. Tests should pass a fresh prometheus.NewRegistry().
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "transitions_total",
			Help:      "Subscription status transitions by source and target status.",
		}, []string{"from", "to"}),
		conflictsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "conflicts_expired_total",
			Help:      "Active subscriptions expired because an overlapping one was approved.",
		}),
		sweepExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "sweep_expired_total",
			Help:      "Subscriptions expired by the end-date sweep.",
		}),
		sweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "sweep_failures_total",
			Help:      "Rows the end-date sweep failed to expire.",
		}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "betslip",
			Name:      "settlements_total",
			Help:      "Betslip and leg settlements by kind and outcome.",
		}, []string{"kind", "outcome"}),
		bulkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "betslip",
			Name:      "bulk_settle_items_total",
			Help:      "Bulk settlement items by result code.",
		}, []string{"code"}),
		auditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "dropped_total",
			Help:      "Audit entries dropped because the recorder queue was full or the sink failed.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.transitions, m.conflictsExpired, m.sweepExpired, m.sweepFailures,
		m.settlements, m.bulkItems, m.auditDropped, m.httpDuration,
	)
	return m
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ConflictsExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.conflictsExpired.Add(float64(n))
}

func (m *Metrics) Sweep(expired, failed int) {
	if m == nil {
		return
	}
	m.sweepExpired.Add(float64(expired))
	m.sweepFailures.Add(float64(failed))
}

// Settlement records a settled betslip ("slip") or leg ("leg").
func (m *Metrics) Settlement(kind, outcome string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) BulkItem(code string) {
	if m == nil {
		return
	}
	m.bulkItems.WithLabelValues(code).Inc()
}

func (m *Metrics) AuditDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
