package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smartfarm/flock-performance-service/internal/domain"
	"github.com/smartfarm/flock-performance-service/internal/standard"
)

const namespace = "flock_performance"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// assessment pipeline and the standards table.
type Metrics struct {
	RecordsConsumed     prometheus.Counter
	AssessmentsProduced prometheus.Counter
	TransformErrors     prometheus.Counter // invalid records dropped
	TransformRetries    prometheus.Counter // transient assessment failures retried
	PipelineRunning     prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Standard lookup metrics.
	StandardMisses prometheus.Counter     // records whose age week is not in the table
	MetricStatus   *prometheus.CounterVec // labels: metric={hen_day_percent,...}, status={below,within,above}
	StandardWeeks  prometheus.Gauge       // weeks in the loaded table
	StandardIssues *prometheus.CounterVec // labels: kind={skipped_row,bad_cell}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RecordsConsumed,
		m.AssessmentsProduced,
		m.TransformErrors,
		m.TransformRetries,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.StandardMisses,
		m.MetricStatus,
		m.StandardWeeks,
		m.StandardIssues,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_consumed_total",
			Help:      "Total daily records read from the source topic.",
		}),
		AssessmentsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_produced_total",
			Help:      "Total assessments written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total records dropped because they failed parsing or validation.",
		}),
		TransformRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_retries_total",
			Help:      "Total assessment attempts retried after a transient failure.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of records per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-assess-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		StandardMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "standard_misses_total",
			Help:      "Records whose flock age week has no row in the standard table.",
		}),
		MetricStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metric_status_total",
			Help:      "Assessed metrics by name and band status.",
		}, []string{"metric", "status"}),
		StandardWeeks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "standard_weeks",
			Help:      "Number of weekly rows in the loaded standard table.",
		}),
		StandardIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "standard_parse_issues_total",
			Help:      "Diagnostics raised while parsing the standard table.",
		}, []string{"kind"}),
	}
}

// ObserveStandard records the size of a freshly parsed table and its diagnostics.
func (m *Metrics) ObserveStandard(t *standard.Table, report standard.Report) {
	m.StandardWeeks.Set(float64(t.Len()))
	m.StandardIssues.WithLabelValues("skipped_row").Add(float64(len(report.Skipped)))
	m.StandardIssues.WithLabelValues("bad_cell").Add(float64(len(report.BadCells)))
}

// ObserveAssessment counts a standard miss or each metric's band status.
func (m *Metrics) ObserveAssessment(a domain.Assessment) {
	if !a.StandardFound {
		m.StandardMisses.Inc()
		return
	}
	for _, metric := range a.Metrics {
		m.MetricStatus.WithLabelValues(metric.Name, string(metric.Status)).Inc()
	}
}
