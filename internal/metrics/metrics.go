package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_stream_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_stream_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_stream_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Catalog database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_stream_db_queries_total",
			Help: "Total number of catalog database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_stream_db_query_duration_seconds",
			Help:    "Catalog database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_stream_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Transcode pipeline metrics
var (
	TranscodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_stream_transcodes_total",
			Help: "Total number of HLS transcode attempts",
		},
		[]string{"status"}, // "success", "error", "cancelled"
	)

	TranscodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "movie_stream_transcode_duration_seconds",
			Help:    "Duration of ffmpeg HLS transcodes in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	TranscodesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_stream_transcodes_in_flight",
			Help: "Number of ffmpeg processes currently running",
		},
	)
)

// Upload pipeline metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_stream_uploads_total",
			Help: "Total number of movie upload requests",
		},
		[]string{"status"}, // "success", "validation_error", "error", "cancelled"
	)

	UploadBytesStaged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movie_stream_upload_bytes_staged_total",
			Help: "Total bytes written to scratch storage for uploads",
		},
	)

	PosterUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_stream_poster_uploads_total",
			Help: "Total number of poster uploads",
		},
		[]string{"status"},
	)
)
