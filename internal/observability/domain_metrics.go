package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StageTranslate = "translate"
	StageExplain   = "explain"
	StageList      = "list_models"
)

var (
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartfinance_submissions_total",
			Help: "Total number of conversation submissions by outcome.",
		},
		[]string{"outcome"},
	)
	generationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartfinance_generation_requests_total",
			Help: "Total number of generation backend calls by stage and status.",
		},
		[]string{"stage", "status"},
	)
	generationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartfinance_generation_duration_seconds",
			Help:    "Generation backend round-trip latency by stage.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"stage"},
	)
	datasetQueryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "smartfinance_dataset_query_duration_seconds",
			Help:    "Dataset query latency including connection open and close.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
	datasetRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "smartfinance_dataset_rows",
			Help:    "Rows returned per successful dataset query.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 10000},
		},
	)
)

func init() {
	prometheus.MustRegister(
		submissionsTotal,
		generationRequestsTotal,
		generationDurationSeconds,
		datasetQueryDurationSeconds,
		datasetRows,
	)
}

func ObserveSubmission(outcome string) {
	submissionsTotal.WithLabelValues(outcome).Inc()
}

func ObserveGeneration(stage string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	generationRequestsTotal.WithLabelValues(stage, status).Inc()
	generationDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func ObserveDatasetQuery(rows int, elapsed time.Duration) {
	if rows < 0 {
		rows = 0
	}
	datasetQueryDurationSeconds.Observe(elapsed.Seconds())
	datasetRows.Observe(float64(rows))
}
