// Package metrics registers the Prometheus counters/histograms exposed on
// /metrics, following the plain prometheus.NewCounterVec/MustRegister
// style used for the legal-ai metrics exporter rather than a framework
// wrapper.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	IngestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "legalrag_ingestions_total", Help: "Completed source ingestion attempts by outcome"},
		[]string{"outcome"}, // ingested | failed
	)

	IngestionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "legalrag_ingestion_stage_duration_seconds",
			Help: "Duration of each ingestion pipeline stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"}, // fetch | normalize | embed | store
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "legalrag_query_duration_seconds",
			Help: "End-to-end AnswerQuery duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	QueriesByArea = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "legalrag_queries_total", Help: "Queries answered by classified legal area"},
		[]string{"area"},
	)

	SourcesPending = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "legalrag_sources_by_state", Help: "Corpus sources currently in each ingestion state"},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(IngestionsTotal, IngestionDuration, QueryDuration, QueriesByArea, SourcesPending)
}
