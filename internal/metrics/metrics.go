// Package metrics holds the Prometheus metrics of the rotation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/example/rota/internal/core/rotation"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	operations    *prometheus.CounterVec
	notifications *prometheus.CounterVec
	dispatches    *prometheus.CounterVec
	missedWeeks   prometheus.Counter
	scanWeeks     prometheus.Histogram
}

// New registers the metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.operations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rota_operations_total",
			Help: "rotation operations by name and outcome",
		},
		[]string{"operation", "outcome"},
	)
	m.notifications = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rota_notifications_total",
			Help: "notifications produced by kind",
		},
		[]string{"kind"},
	)
	m.dispatches = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rota_dispatches_total",
			Help: "delivery outcomes recorded by status",
		},
		[]string{"status"},
	)
	m.missedWeeks = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "rota_missed_weeks_total",
			Help: "pending weeks swept to missed",
		},
	)
	m.scanWeeks = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rota_return_week_scan_weeks",
			Help:    "weeks probed before a return or compensation week was found",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 26, 52, 104, 156},
		},
	)

	return m
}

// ObserveOperation counts one operation, labelled by the kind of err.
func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, rotation.Kind(err)).Inc()
}

// ObserveNotification counts one produced notification.
func (m *Metrics) ObserveNotification(kind string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind).Inc()
}

// ObserveDispatch counts one recorded delivery outcome.
func (m *Metrics) ObserveDispatch(status string) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(status).Inc()
}

// AddMissed counts weeks swept to missed.
func (m *Metrics) AddMissed(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.missedWeeks.Add(float64(n))
}

// ObserveScan records how many weeks a return-week search probed.
func (m *Metrics) ObserveScan(weeks int) {
	if m == nil {
		return
	}
	m.scanWeeks.Observe(float64(weeks))
}
