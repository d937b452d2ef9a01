// Package prometheus exposes the session engine's metrics snapshot as a
// prometheus.Collector so it can join any client_golang registry.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authsession "github.com/secretsafe/authsession"
	"github.com/secretsafe/authsession/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() authsession.MetricsSnapshot
	EventsDropped() uint64
}

// Exporter collects session metrics on scrape. It reads an immutable
// snapshot each time, so it is safe to register alongside a running engine.
type Exporter struct {
	source  metricsSource
	dropped *prometheus.Desc
}

var _ prometheus.Collector = (*Exporter)(nil)

// NewExporter creates an Exporter reading from the given [authsession.Engine].
func NewExporter(engine *authsession.Engine) *Exporter {
	return NewExporterFromSource(engine)
}

// NewExporterFromSource creates an Exporter from a custom snapshot source.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{
		source: source,
		dropped: prometheus.NewDesc(
			"secretsafe_session_events_dropped_total",
			"Dropped session events due to dispatcher backpressure.",
			nil, nil,
		),
	}
}

// Handler returns an http.Handler serving this exporter from a dedicated
// registry, for callers that do not manage their own.
func (e *Exporter) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(e)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, def := range internaldefs.CounterDefs {
		ch <- prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	for _, def := range internaldefs.HistogramDefs {
		ch <- prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	ch <- e.dropped
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	if e == nil || e.source == nil {
		return
	}

	snapshot := e.source.MetricsSnapshot()

	for _, def := range internaldefs.CounterDefs {
		desc := prometheus.NewDesc(def.Name, def.Help, nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(snapshot.Counters[def.ID]))
	}

	for _, def := range internaldefs.HistogramDefs {
		raw := internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID])
		cumulative := internaldefs.CumulativeBuckets(raw)

		buckets := make(map[float64]uint64, len(internaldefs.HistogramBounds))
		for i, le := range internaldefs.HistogramBounds {
			buckets[le] = cumulative[i]
		}
		count := cumulative[len(cumulative)-1]

		desc := prometheus.NewDesc(def.Name, def.Help, nil, nil)
		// Core snapshots track bucket counts only; the sum is not observable.
		ch <- prometheus.MustNewConstHistogram(desc, count, 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(e.dropped, prometheus.CounterValue, float64(e.source.EventsDropped()))
}
