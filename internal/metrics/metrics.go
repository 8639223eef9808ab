// Package metrics defines prometheus metrics to expose
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "growda_api_request_duration_seconds",
			Help:    "Total time taken for requests in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 60},
		},
		[]string{"endpoint"},
	)

	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "growda_api_inference_duration_seconds",
			Help:    "Time spent in preprocess, model run and postprocess",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"model_version"},
	)

	PreprocessDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "growda_api_preprocess_duration_seconds",
			Help:    "Time spent decoding and normalizing uploaded images",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"model_version"},
	)

	PredictionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growda_api_prediction_count_total",
			Help: "Completed predictions by class and severity tier",
		},
		[]string{"class", "severity"},
	)

	ErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growda_api_error_count",
			Help: "Inference failures by classified kind",
		},
		[]string{"kind", "endpoint"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growda_api_cache_hits_total",
			Help: "Prediction cache hits and misses",
		},
		[]string{"outcome"},
	)

	InflightPredictions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "growda_api_inflight_predictions",
			Help: "Currently running predictions",
		},
	)

	ResponseCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growda_api_status_code",
			Help: "Status Codes",
		},
		[]string{"path", "status_code"},
	)
)
