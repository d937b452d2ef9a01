package authsession

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("disabled snapshot not empty: %+v", snap)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricRefreshSuccess)
	m.Inc(MetricRefreshSuccess)
	m.Inc(MetricRefreshSuccess)

	if got := m.Value(MetricRefreshSuccess); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := m.Snapshot().Counters[MetricRefreshSuccess]; got != 3 {
		t.Fatalf("snapshot counter = %d, want 3", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricRefreshCoalesced)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricRefreshCoalesced); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		2 * time.Millisecond,    // bucket 0 (<=5ms)
		9 * time.Millisecond,    // bucket 1 (<=10ms)
		20 * time.Millisecond,   // bucket 2 (<=25ms)
		40 * time.Millisecond,   // bucket 3 (<=50ms)
		90 * time.Millisecond,   // bucket 4 (<=100ms)
		200 * time.Millisecond,  // bucket 5 (<=250ms)
		400 * time.Millisecond,  // bucket 6 (<=500ms)
		2000 * time.Millisecond, // bucket 7 (+Inf)
	}
	for _, d := range observations {
		m.Observe(MetricRefreshLatency, d)
	}

	buckets := m.Snapshot().Histograms[MetricRefreshLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, got := range buckets {
		if got != 1 {
			t.Fatalf("bucket %d = %d, want 1", i, got)
		}
	}
}

func TestMetricsHistogramRequiresOptIn(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricRefreshLatency, time.Millisecond)

	if got := m.Snapshot().Histograms[MetricRefreshLatency]; got != nil {
		t.Fatalf("histogram recorded without opt-in: %v", got)
	}
}
