package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PricingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optiondash_pricing_requests_total",
			Help: "Option pricing evaluations",
		},
		[]string{"type", "status"}, // status: ok|invalid
	)

	MarketDataFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optiondash_marketdata_fetch_total",
			Help: "Historical price fetches by provider",
		},
		[]string{"provider", "status"}, // status: ok|unavailable|error
	)

	MarketDataLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optiondash_marketdata_fetch_duration_seconds",
			Help:    "Historical price fetch latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optiondash_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call twice.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(PricingRequests, MarketDataFetches, MarketDataLatency, HTTPRequests)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one provider call.
func ObserveFetch(provider, status string, started time.Time) {
	MarketDataFetches.WithLabelValues(provider, status).Inc()
	MarketDataLatency.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}

// ObservePricing records one pricing evaluation; typ is call, put or both.
func ObservePricing(typ string, err error) {
	status := "ok"
	if err != nil {
		status = "invalid"
	}
	PricingRequests.WithLabelValues(typ, status).Inc()
}
