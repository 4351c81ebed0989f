package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess     = "success"
	OutcomeForbidden   = "forbidden"
	OutcomeNotFound    = "not_found"
	OutcomeUnreachable = "unreachable"
	OutcomeUpstream    = "upstream_error"
	OutcomeStoreError  = "store_error"
)

// Collector holds the service's Prometheus series. A nil *Collector is a
// valid no-op, which keeps tests free of registry setup.
type Collector struct {
	refreshTotal    *prometheus.CounterVec
	upstreamLatency prometheus.Histogram
	authDenied      *prometheus.CounterVec
	loginTotal      *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subhub_refresh_total",
			Help: "Record refreshes by outcome.",
		}, []string{"outcome"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "subhub_upstream_latency_seconds",
			Help:    "Latency of upstream subscription fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		authDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subhub_auth_denied_total",
			Help: "Requests denied by the auth gate, by reason.",
		}, []string{"reason"}),
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subhub_login_total",
			Help: "Successful logins by role.",
		}, []string{"role"}),
	}

	reg.MustRegister(c.refreshTotal, c.upstreamLatency, c.authDenied, c.loginTotal)
	return c
}

func (c *Collector) RecordRefresh(outcome string) {
	if c == nil {
		return
	}
	c.refreshTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordUpstreamLatency(d time.Duration) {
	if c == nil {
		return
	}
	c.upstreamLatency.Observe(d.Seconds())
}

func (c *Collector) RecordAuthDenied(reason string) {
	if c == nil {
		return
	}
	c.authDenied.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordLogin(role string) {
	if c == nil {
		return
	}
	c.loginTotal.WithLabelValues(role).Inc()
}

// Handler serves the registry for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
