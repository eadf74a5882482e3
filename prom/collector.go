// Package prom exports aggregation metrics to Prometheus.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/cardinal"
)

// Collector implements cardinal.MetricsCollector on top of Prometheus
// counters and histograms.
type Collector struct {
	segments        *prometheus.CounterVec
	segmentDuration *prometheus.HistogramVec
	docs            prometheus.Counter
	values          prometheus.Counter
	results         *prometheus.CounterVec
	merges          *prometheus.CounterVec
	mergeDuration   prometheus.Histogram
}

var _ cardinal.MetricsCollector = (*Collector)(nil)

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		segments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardinal_segments_total",
			Help: "Segments collected, by collector strategy",
		}, []string{"strategy"}),
		segmentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cardinal_segment_duration_seconds",
			Help:    "Time from segment start to flush",
			Buckets: prometheus.DefBuckets,
		}, []string{"strategy"}),
		docs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cardinal_documents_total",
			Help: "Documents collected",
		}),
		values: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cardinal_values_total",
			Help: "Field values seen while collecting",
		}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardinal_results_total",
			Help: "Bucket results built",
		}, []string{"empty"}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardinal_merges_total",
			Help: "Shard result reductions",
		}, []string{"status"}),
		mergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardinal_merge_duration_seconds",
			Help:    "Latency of shard result reductions",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.segments,
		c.segmentDuration,
		c.docs,
		c.values,
		c.results,
		c.merges,
		c.mergeDuration,
	)
	return c
}

// RecordSegment implements cardinal.MetricsCollector.
func (c *Collector) RecordSegment(strategy string, d time.Duration) {
	c.segments.WithLabelValues(strategy).Inc()
	c.segmentDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// RecordCollect implements cardinal.MetricsCollector.
func (c *Collector) RecordCollect(values int) {
	c.docs.Inc()
	c.values.Add(float64(values))
}

// RecordResult implements cardinal.MetricsCollector.
func (c *Collector) RecordResult(empty bool) {
	if empty {
		c.results.WithLabelValues("true").Inc()
	} else {
		c.results.WithLabelValues("false").Inc()
	}
}

// RecordMerge implements cardinal.MetricsCollector.
func (c *Collector) RecordMerge(d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.merges.WithLabelValues(status).Inc()
	c.mergeDuration.Observe(d.Seconds())
}
