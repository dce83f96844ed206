package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace for all metrics
const namespace = "evreport"

// Collector holds the run metrics for one aggregation process.
type Collector struct {
	// RecordsScanned counts every raw item retrieved from the source.
	RecordsScanned prometheus.Counter

	// RecordsMatched counts records that normalized and fell inside the
	// query window.
	RecordsMatched prometheus.Counter

	// RecordsDropped counts records discarded because no timestamp could
	// be extracted.
	RecordsDropped prometheus.Counter

	// AggregationDuration observes the wall time of complete runs.
	AggregationDuration prometheus.Histogram

	// UniqueEventIDs reports the number of distinct accumulator keys
	// after the most recent run.
	UniqueEventIDs prometheus.Gauge

	registry *prometheus.Registry
}

// NewCollector creates a new metrics collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		RecordsScanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_scanned_total",
			Help:      "Raw records retrieved from the event log source.",
		}),
		RecordsMatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_matched_total",
			Help:      "Records that normalized and matched the query window.",
		}),
		RecordsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Records dropped because their timestamp was unparsable.",
		}),
		AggregationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Wall time of complete aggregation runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		UniqueEventIDs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unique_event_ids",
			Help:      "Distinct normalized event ids in the last run.",
		}),
		registry: registry,
	}
}

// Handler returns an HTTP handler serving the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
