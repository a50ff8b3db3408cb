// Package metrics holds the Prometheus collectors of the web front. Each
// Metrics value owns its registry so several apps (or tests) can coexist in
// one process.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eringen/blogfront/errs"
)

// Metrics groups the collectors.
type Metrics struct {
	Registry *prometheus.Registry

	// GatewayRequests counts calls to the posts service by operation and outcome.
	GatewayRequests *prometheus.CounterVec
	// GatewayDuration tracks call latency in seconds.
	GatewayDuration *prometheus.HistogramVec
	// FallbackPages counts listing pages served from the stand-in dataset.
	FallbackPages prometheus.Counter
	// BreakerState is the posts-api breaker state (0=closed, 1=half-open, 2=open).
	BreakerState prometheus.Gauge
	// BreakerTransitions counts breaker state changes by new state.
	BreakerTransitions *prometheus.CounterVec
	// LoginThrottled counts login attempts rejected by the rate limiter.
	LoginThrottled prometheus.Counter
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		GatewayRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blogfront_gateway_requests_total",
				Help: "Calls to the posts service by operation, status code and error kind",
			},
			[]string{"operation", "status", "kind"},
		),
		GatewayDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blogfront_gateway_request_duration_seconds",
				Help:    "Posts service call duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 15},
			},
			[]string{"operation"},
		),
		FallbackPages: f.NewCounter(prometheus.CounterOpts{
			Name: "blogfront_fallback_pages_total",
			Help: "Listing pages served from the stand-in dataset",
		}),
		BreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "blogfront_circuit_breaker_state",
			Help: "Posts service circuit breaker state (0=closed, 1=half-open, 2=open)",
		}),
		BreakerTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blogfront_circuit_breaker_transitions_total",
				Help: "Posts service circuit breaker transitions by new state",
			},
			[]string{"state"},
		),
		LoginThrottled: f.NewCounter(prometheus.CounterOpts{
			Name: "blogfront_login_throttled_total",
			Help: "Login attempts rejected by the rate limiter",
		}),
	}
}

// ObserveGateway records one finished gateway call. Its signature matches
// gateway.Observer.
func (m *Metrics) ObserveGateway(op string, status int, elapsed time.Duration, err error) {
	kind := "none"
	if err != nil {
		kind = string(errs.KindOf(err))
		if kind == "" {
			kind = "unknown"
		}
	}
	m.GatewayRequests.WithLabelValues(op, strconv.Itoa(status), kind).Inc()
	m.GatewayDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// BreakerChanged records a circuit breaker transition. state is the
// breaker's own name for the new state.
func (m *Metrics) BreakerChanged(_, to string) {
	m.BreakerTransitions.WithLabelValues(to).Inc()
	m.BreakerState.Set(breakerValue(to))
}

func breakerValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
