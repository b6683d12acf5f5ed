package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application collectors.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SessionsSwept   prometheus.Counter
	SweepFailures   prometheus.Counter
}

// NewMetrics creates the application collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authd_requests_total",
				Help: "Total number of gRPC requests by method and status code",
			},
			[]string{"method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authd_request_duration_seconds",
				Help:    "gRPC request latency by method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		SessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authd_sessions_swept_total",
			Help: "Total number of expired sessions deleted by the sweeper",
		}),
		SweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authd_sweep_failures_total",
			Help: "Total number of failed sweep runs",
		}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.SessionsSwept, m.SweepFailures)

	return m
}

// ObserveRequest records a finished gRPC request.
func (m *Metrics) ObserveRequest(method, code string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, code).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveSweep records the outcome of one sweep run.
func (m *Metrics) ObserveSweep(deleted int64, err error) {
	if err != nil {
		m.SweepFailures.Inc()
		return
	}
	m.SessionsSwept.Add(float64(deleted))
}
