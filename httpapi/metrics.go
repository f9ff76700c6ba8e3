package httpapi

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	goprune "github.com/reoring/goprune"
)

// Metrics counts requests and the report entries they produced.
type Metrics struct {
	requests *prometheus.CounterVec
	pruned   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goprune_requests_total",
			Help: "HTTP requests handled, by route and status code.",
		}, []string{"route", "status"}),
		pruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "goprune_pruned_total",
			Help: "Report entries produced by reductions, by code.",
		}, []string{"code"}),
	}
	reg.MustRegister(m.requests, m.pruned)
	return m
}

func (m *Metrics) observe(route string, status int, report goprune.Issues) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	for _, is := range report {
		m.pruned.WithLabelValues(is.Code).Inc()
	}
}
