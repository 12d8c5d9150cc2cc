package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pipelineDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "activity_engine",
		Name:      "pipeline_duration_seconds",
		Help:      "Duration of report pipeline runs.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	streamFetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_engine",
		Name:      "stream_fetch_errors_total",
		Help:      "Failed event store fetches by stream kind.",
	}, []string{"kind"})
	enrichmentDegraded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_engine",
		Name:      "enrichment_degraded_total",
		Help:      "Reports produced without an enrichment stream that failed to load.",
	}, []string{"kind"})
	recordsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_engine",
		Name:      "records_processed_total",
		Help:      "Records leaving each pipeline stage.",
	}, []string{"stage"})
)

func init() {
	prometheus.MustRegister(pipelineDuration, streamFetchErrors, enrichmentDegraded, recordsProcessed)
}

// ObservePipeline records one pipeline run; outcome is "ok" or an error class.
func ObservePipeline(outcome string, d time.Duration) {
	pipelineDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func RecordFetchError(kind string) {
	streamFetchErrors.WithLabelValues(kind).Inc()
}

func RecordEnrichmentDegraded(kind string) {
	enrichmentDegraded.WithLabelValues(kind).Inc()
}

func RecordProcessed(stage string, n int) {
	if n <= 0 {
		return
	}
	recordsProcessed.WithLabelValues(stage).Add(float64(n))
}
