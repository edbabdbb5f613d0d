package manager

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

var (
	// Resolution metrics
	resolutionsTotal *prometheus.CounterVec
	resolveDuration  *prometheus.HistogramVec

	// Cache metrics
	cacheEventsTotal *prometheus.CounterVec

	// Health metrics
	providerHealth *prometheus.GaugeVec

	// Registration guard
	metricsOnce       sync.Once
	metricsRegistered bool
)

// Metrics records resolution telemetry. Recorders are safe to call at any
// time; they no-op until InitMetrics has run.
type Metrics struct{}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// InitMetrics initializes all Prometheus metrics. Call once at startup
// when metrics are enabled; recorders stay no-ops otherwise.
func InitMetrics() {
	metricsOnce.Do(func() {
		resolutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jellos_secret_resolutions_total",
				Help: "Total number of secret resolution attempts",
			},
			[]string{"provider", "outcome"},
		)

		resolveDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jellos_resolve_duration_seconds",
				Help:    "Duration of provider lookup calls in seconds",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"provider"},
		)

		cacheEventsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jellos_cache_events_total",
				Help: "Total number of resolution cache events",
			},
			[]string{"event"},
		)

		providerHealth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "jellos_provider_health",
				Help: "Provider health (1=healthy, 0.5=degraded, 0=unavailable)",
			},
			[]string{"provider"},
		)

		metricsRegistered = true
	})
}

// RecordResolution counts the outcome of one lookup attempt.
func (m *Metrics) RecordResolution(providerType provider.Type, outcome string) {
	if !metricsRegistered || resolutionsTotal == nil {
		return
	}
	resolutionsTotal.WithLabelValues(string(providerType), outcome).Inc()
}

// RecordResolveDuration records how long one provider lookup took.
func (m *Metrics) RecordResolveDuration(providerType provider.Type, seconds float64) {
	if !metricsRegistered || resolveDuration == nil {
		return
	}
	resolveDuration.WithLabelValues(string(providerType)).Observe(seconds)
}

// RecordCacheEvent counts a cache hit, miss, store or clear.
func (m *Metrics) RecordCacheEvent(event string) {
	if !metricsRegistered || cacheEventsTotal == nil {
		return
	}
	cacheEventsTotal.WithLabelValues(event).Inc()
}

// RecordProviderHealth records the latest health status for a provider.
func (m *Metrics) RecordProviderHealth(providerType provider.Type, status provider.HealthStatus) {
	if !metricsRegistered || providerHealth == nil {
		return
	}
	value := 0.0
	switch status {
	case provider.StatusHealthy:
		value = 1.0
	case provider.StatusDegraded:
		value = 0.5
	}
	providerHealth.WithLabelValues(string(providerType)).Set(value)
}

// IsMetricsRegistered returns whether metrics have been initialized.
func IsMetricsRegistered() bool {
	return metricsRegistered
}
