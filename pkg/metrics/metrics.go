package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/meterplan/meterplan/pkg/readings"
	"github.com/meterplan/meterplan/pkg/types"
)

// Source labels where a batch of readings came from.
type Source string

const (
	SourceHTTP  Source = "http"
	SourceKafka Source = "kafka"
	SourceSeed  Source = "seed"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served.",
		},
		[]string{"route", "method", "status"},
	)
	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	readingBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reading_batches_total",
			Help: "Reading batches processed by outcome.",
		},
		[]string{"source", "outcome"},
	)
	readingsStoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readings_stored_total",
			Help: "Individual readings in accepted batches.",
		},
		[]string{"source"},
	)
)

// ObserveHTTPRequest records a served request.
func ObserveHTTPRequest(route, method string, status int, dur time.Duration) {
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveStore records the outcome of a StoreReadings call.
func ObserveStore(source Source, status types.StoreStatus, batchSize int, err error) {
	outcome := Outcome(status, err)
	readingBatchesTotal.WithLabelValues(string(source), outcome).Inc()
	if err == nil {
		readingsStoredTotal.WithLabelValues(string(source)).Add(float64(batchSize))
	}
}

// ObserveDecodeFailure records a batch that could not be decoded.
func ObserveDecodeFailure(source Source) {
	readingBatchesTotal.WithLabelValues(string(source), "decode_error").Inc()
}

// Outcome maps a store result to a metric label.
func Outcome(status types.StoreStatus, err error) string {
	switch {
	case err == nil:
		return string(status)
	case errors.Is(err, readings.ErrEmptyMeterID):
		return "rejected_meter_id"
	case errors.Is(err, readings.ErrEmptyBatch):
		return "rejected_empty"
	case errors.Is(err, readings.ErrMissingTimestamp):
		return "rejected_missing_timestamp"
	case errors.Is(err, readings.ErrDuplicateTimestamp):
		return "rejected_duplicate_timestamp"
	case errors.Is(err, readings.ErrNonMonotonic):
		return "rejected_non_monotonic"
	default:
		return "error"
	}
}
