package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics tracks workflow engine activity. All methods are safe to
// call on a nil receiver so the engine can run without metrics.
type InventoryMetrics struct {
	registry *prometheus.Registry

	itemsIngested          prometheus.Counter
	itemsDeleted           prometheus.Counter
	itemsByStatus          *prometheus.GaugeVec
	classificationsTotal   *prometheus.CounterVec
	classificationDuration prometheus.Histogram
	insightsTotal          *prometheus.CounterVec
	operationsTotal        *prometheus.CounterVec
}

// NewInventoryMetrics creates and registers inventory metrics.
func NewInventoryMetrics(registry *prometheus.Registry) (*InventoryMetrics, error) {
	m := &InventoryMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *InventoryMetrics) initMetrics() {
	m.itemsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "partscope_items_ingested_total",
		Help: "Total number of inventory items created by intake",
	})
	m.itemsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "partscope_items_deleted_total",
		Help: "Total number of inventory items deleted",
	})
	m.itemsByStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "partscope_items",
		Help: "Current number of inventory items by status",
	}, []string{"status"})
	m.classificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "partscope_classifications_total",
		Help: "Total number of classification attempts",
	}, []string{"result"}) // result: defective, ok, error
	m.classificationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "partscope_classification_duration_seconds",
		Help:    "Time spent in the classifier per image",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
	})
	m.insightsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "partscope_insights_total",
		Help: "Total number of insight generation attempts",
	}, []string{"result"}) // result: generated, missing
	m.operationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "partscope_operations_total",
		Help: "Total number of workflow operations by outcome",
	}, []string{"operation", "outcome"})
}

// RecordIngested counts items created by intake.
func (m *InventoryMetrics) RecordIngested(n int) {
	if m == nil {
		return
	}
	m.itemsIngested.Add(float64(n))
}

// RecordDeleted counts deleted items.
func (m *InventoryMetrics) RecordDeleted(n int64) {
	if m == nil {
		return
	}
	m.itemsDeleted.Add(float64(n))
}

// SetStatusCounts replaces the per-status item gauges.
func (m *InventoryMetrics) SetStatusCounts(counts map[string]int) {
	if m == nil {
		return
	}
	m.itemsByStatus.Reset()
	for status, n := range counts {
		m.itemsByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// RecordClassification records one classifier call.
func (m *InventoryMetrics) RecordClassification(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.classificationsTotal.WithLabelValues(result).Inc()
	m.classificationDuration.Observe(duration.Seconds())
}

// RecordInsight records one insight outcome.
func (m *InventoryMetrics) RecordInsight(result string) {
	if m == nil {
		return
	}
	m.insightsTotal.WithLabelValues(result).Inc()
}

// RecordOperation records the outcome of a workflow operation.
func (m *InventoryMetrics) RecordOperation(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.operationsTotal.WithLabelValues(operation, outcome).Inc()
}

// Describe implements prometheus.Collector.
func (m *InventoryMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.itemsIngested.Describe(ch)
	m.itemsDeleted.Describe(ch)
	m.itemsByStatus.Describe(ch)
	m.classificationsTotal.Describe(ch)
	m.classificationDuration.Describe(ch)
	m.insightsTotal.Describe(ch)
	m.operationsTotal.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *InventoryMetrics) Collect(ch chan<- prometheus.Metric) {
	m.itemsIngested.Collect(ch)
	m.itemsDeleted.Collect(ch)
	m.itemsByStatus.Collect(ch)
	m.classificationsTotal.Collect(ch)
	m.classificationDuration.Collect(ch)
	m.insightsTotal.Collect(ch)
	m.operationsTotal.Collect(ch)
}
