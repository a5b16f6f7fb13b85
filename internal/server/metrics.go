package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors exported on /metrics.
type Metrics struct {
	Requests    *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Assessments *prometheus.CounterVec
	Iterations  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xrayprep_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xrayprep_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		Assessments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xrayprep_assessments_total",
				Help: "Assessed candidates by outcome (suitable, unsuitable, error)",
			},
			[]string{"outcome"},
		),
		Iterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "xrayprep_feasibility_iterations",
				Help:    "Bisection iterations per feasibility search",
				Buckets: prometheus.LinearBuckets(0, 10, 9),
			},
		),
	}
	reg.MustRegister(m.Requests, m.Duration, m.Assessments, m.Iterations)
	return m
}
