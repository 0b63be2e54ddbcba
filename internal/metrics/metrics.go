package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nextquest_rank_duration_seconds",
			Help:    "Duration of a discover ranking pass in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"criterion"},
	)

	RankDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextquest_rank_degraded_total",
			Help: "Discover passes that fell back to defaults because an input was unavailable",
		},
		[]string{"input"}, // "ratings", "favorites", "position"
	)

	FavoriteToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextquest_favorite_toggles_total",
			Help: "Favorite toggles by resulting membership",
		},
		[]string{"result"}, // "added", "removed"
	)

	RemoteWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextquest_remote_write_failures_total",
			Help: "Failed writes against backing stores",
		},
		[]string{"store"},
	)

	BlobUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextquest_blob_uploads_total",
			Help: "Blob uploads by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "rejected"
	)

	BlobUploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nextquest_blob_upload_bytes_total",
			Help: "Bytes written to the blob store",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nextquest_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nextquest_stream_clients",
			Help: "Connected websocket stream clients",
		},
	)
)

// RecordRemoteWriteFailure counts a failed write against store.
func RecordRemoteWriteFailure(store string) {
	RemoteWriteFailures.WithLabelValues(store).Inc()
}
