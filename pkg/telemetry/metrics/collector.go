// Package metrics provides Prometheus instrumentation for the policy
// layer: operation counters and durations, validation failures, and name
// cache hit/miss/size tracking.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"citadel-sec/citadel/pkg/config"
)

// Collector owns all Prometheus metrics for Citadel and implements
// policy.Observer. Every recording method is a no-op when collection is
// disabled, so a Collector can always be wired in unconditionally.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Policy operation metrics
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	// Validation metrics
	validationFailures *prometheus.CounterVec

	// Name cache metrics
	cacheHitsTotal   prometheus.Counter
	cacheMissesTotal prometheus.Counter
	cacheEntries     prometheus.Gauge
}

// NewCollector creates a metrics collector registered against the given
// registry. If registry is nil, a new one is created; Registry exposes it
// for the /metrics handler.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "citadel"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "policy"
	}
	if len(cfg.OperationDurationBuckets) == 0 {
		// Store round trips are fast local or LAN directory calls
		cfg.OperationDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "operations_total",
				Help:      "Total number of policy operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "operation_duration_seconds",
				Help:      "Duration of policy operations in seconds",
				Buckets:   cfg.OperationDurationBuckets,
			},
			[]string{"operation"},
		),

		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validation_failures_total",
				Help:      "Total number of policy validation failures by field",
			},
			[]string{"field"},
		),

		cacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "name_cache_hits_total",
				Help:      "Total number of name cache hits",
			},
		),

		cacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "name_cache_misses_total",
				Help:      "Total number of name cache misses",
			},
		),

		cacheEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "name_cache_entries",
				Help:      "Current number of names in the policy name cache",
			},
		),
	}

	registry.MustRegister(
		c.operationsTotal,
		c.operationDuration,
		c.validationFailures,
		c.cacheHitsTotal,
		c.cacheMissesTotal,
		c.cacheEntries,
	)

	return c
}

// Registry returns the Prometheus registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordOperation records a completed policy operation.
//
// Parameters:
//   - operation: "read", "add", "update", "delete", or "search"
//   - outcome: "success", "validation_error", "not_found",
//     "already_exists", or "store_error"
//   - duration: total operation duration including the store call
func (c *Collector) RecordOperation(operation, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.operationsTotal.WithLabelValues(operation, outcome).Inc()
	c.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordValidationFailure records a bounds violation for one field.
func (c *Collector) RecordValidationFailure(field string) {
	if !c.config.Enabled {
		return
	}
	c.validationFailures.WithLabelValues(field).Inc()
}

// RecordCacheLookup records one name cache membership check.
func (c *Collector) RecordCacheLookup(hit bool) {
	if !c.config.Enabled {
		return
	}
	if hit {
		c.cacheHitsTotal.Inc()
	} else {
		c.cacheMissesTotal.Inc()
	}
}

// UpdateCacheSize updates the name cache size gauge.
func (c *Collector) UpdateCacheSize(size int) {
	if !c.config.Enabled {
		return
	}
	c.cacheEntries.Set(float64(size))
}
