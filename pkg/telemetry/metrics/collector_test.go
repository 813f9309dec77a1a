package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"citadel-sec/citadel/pkg/config"
)

func newTestCollector(t *testing.T, enabled bool) *Collector {
	t.Helper()
	return NewCollector(&config.MetricsConfig{Enabled: enabled}, prometheus.NewRegistry())
}

func TestCollector_RecordOperation(t *testing.T) {
	c := newTestCollector(t, true)

	c.RecordOperation("add", "success", 5*time.Millisecond)
	c.RecordOperation("add", "success", 7*time.Millisecond)
	c.RecordOperation("add", "already_exists", time.Millisecond)

	if got := testutil.ToFloat64(c.operationsTotal.WithLabelValues("add", "success")); got != 2 {
		t.Errorf("operations_total{add,success} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.operationsTotal.WithLabelValues("add", "already_exists")); got != 1 {
		t.Errorf("operations_total{add,already_exists} = %v, want 1", got)
	}
}

func TestCollector_RecordValidationFailure(t *testing.T) {
	c := newTestCollector(t, true)

	c.RecordValidationFailure("maxAge")
	c.RecordValidationFailure("maxAge")
	c.RecordValidationFailure("name")

	if got := testutil.ToFloat64(c.validationFailures.WithLabelValues("maxAge")); got != 2 {
		t.Errorf("validation_failures_total{maxAge} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.validationFailures.WithLabelValues("name")); got != 1 {
		t.Errorf("validation_failures_total{name} = %v, want 1", got)
	}
}

func TestCollector_CacheMetrics(t *testing.T) {
	c := newTestCollector(t, true)

	c.RecordCacheLookup(true)
	c.RecordCacheLookup(true)
	c.RecordCacheLookup(false)
	c.UpdateCacheSize(17)

	if got := testutil.ToFloat64(c.cacheHitsTotal); got != 2 {
		t.Errorf("name_cache_hits_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.cacheMissesTotal); got != 1 {
		t.Errorf("name_cache_misses_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.cacheEntries); got != 17 {
		t.Errorf("name_cache_entries = %v, want 17", got)
	}
}

func TestCollector_DisabledIsNoop(t *testing.T) {
	c := newTestCollector(t, false)

	c.RecordOperation("add", "success", time.Millisecond)
	c.RecordValidationFailure("name")
	c.RecordCacheLookup(true)
	c.UpdateCacheSize(5)

	if got := testutil.ToFloat64(c.cacheHitsTotal); got != 0 {
		t.Errorf("name_cache_hits_total = %v, want 0 when disabled", got)
	}
	if got := testutil.ToFloat64(c.cacheEntries); got != 0 {
		t.Errorf("name_cache_entries = %v, want 0 when disabled", got)
	}
}

func TestCollector_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(&config.MetricsConfig{Enabled: true}, reg)

	if c.Registry() != reg {
		t.Error("Registry() does not return the injected registry")
	}

	c.RecordCacheLookup(false)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "citadel_policy_name_cache_misses_total" {
			found = true
		}
	}
	if !found {
		t.Error("citadel_policy_name_cache_misses_total not found in registry")
	}
}
