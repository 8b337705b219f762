package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/crimson-sun/recap/internal/model"
)

// Metrics holds the Prometheus collectors for pipeline runs. A nil *Metrics
// records nothing.
type Metrics struct {
	RecordingsTotal  *prometheus.CounterVec
	EventsTotal      prometheus.Counter
	NodesTotal       prometheus.Counter
	SummarizeSeconds prometheus.Histogram
	OutputErrors     prometheus.Counter
}

// NewMetrics creates the pipeline collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RecordingsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recap",
			Subsystem: "pipeline",
			Name:      "recordings_total",
			Help:      "Total number of recordings summarized, by mode.",
		}, []string{"mode"}), // mode: query, stream
		EventsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "recap",
			Subsystem: "pipeline",
			Name:      "events_total",
			Help:      "Total number of raw recording events consumed.",
		}),
		NodesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "recap",
			Subsystem: "pipeline",
			Name:      "nodes_total",
			Help:      "Total number of top-level summary nodes produced.",
		}),
		SummarizeSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "recap",
			Subsystem: "pipeline",
			Name:      "summarize_duration_seconds",
			Help:      "Time spent summarizing one recording.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		OutputErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "recap",
			Subsystem: "pipeline",
			Name:      "output_errors_total",
			Help:      "Total number of summaries the output failed to accept.",
		}),
	}
}

func (m *Metrics) observe(mode string, s model.Summary, took time.Duration) {
	if m == nil {
		return
	}
	m.RecordingsTotal.WithLabelValues(mode).Inc()
	m.EventsTotal.Add(float64(s.EventCount))
	m.NodesTotal.Add(float64(len(s.Nodes)))
	m.SummarizeSeconds.Observe(took.Seconds())
}

func (m *Metrics) outputError() {
	if m == nil {
		return
	}
	m.OutputErrors.Inc()
}
