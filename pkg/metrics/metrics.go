package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_compressor_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_compressor_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Compression metrics
	CompressionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_compressor_compressions_total",
			Help: "Total number of image compressions",
		},
		[]string{"status", "format"}, // status: applied, fallback, over_budget, invalid
	)

	CompressionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_compressor_compression_duration_seconds",
			Help:    "Compression duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"format"},
	)

	CompressionBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_compressor_compression_bytes",
			Help:    "Compression input/output bytes",
			Buckets: []float64{1024, 10240, 102400, 512000, 1048576, 5242880, 10485760},
		},
		[]string{"direction"}, // input, output
	)

	FinalQuality = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_compressor_final_quality",
			Help:    "Quality of the final encode, after any reduction steps",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	// Queue/Pool metrics
	WorkerPoolQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_compressor_worker_pool_queue_size",
			Help: "Current number of jobs in worker pool queue",
		},
	)

	// Rate limiting metrics
	RateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_compressor_rate_limit_exceeded_total",
			Help: "Total number of requests rejected due to rate limiting",
		},
		[]string{"ip_prefix"}, // First octet for privacy
	)

	// Concurrency metrics
	ConcurrentRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_compressor_concurrent_requests",
			Help: "Current number of concurrent requests being processed",
		},
	)

	ConcurrencyLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_compressor_concurrency_limit_exceeded_total",
			Help: "Total number of requests rejected due to concurrency limit",
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, duration float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordCompression records one compression outcome
func RecordCompression(status, format string, duration float64, inputBytes, outputBytes int, quality float64) {
	CompressionsTotal.WithLabelValues(status, format).Inc()
	CompressionDuration.WithLabelValues(format).Observe(duration)
	CompressionBytes.WithLabelValues("input").Observe(float64(inputBytes))
	CompressionBytes.WithLabelValues("output").Observe(float64(outputBytes))
	FinalQuality.Observe(quality)
}

// UpdateQueueSize updates the worker pool queue gauge
func UpdateQueueSize(queued int) {
	WorkerPoolQueueSize.Set(float64(queued))
}

// RecordRateLimitExceeded records a rate limit rejection
func RecordRateLimitExceeded(ipPrefix string) {
	RateLimitExceeded.WithLabelValues(ipPrefix).Inc()
}

// UpdateConcurrency updates concurrent request gauge
func UpdateConcurrency(count int) {
	ConcurrentRequests.Set(float64(count))
}

// RecordConcurrencyLimitExceeded records a concurrency limit rejection
func RecordConcurrencyLimitExceeded() {
	ConcurrencyLimitExceeded.Inc()
}
