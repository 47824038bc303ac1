// Package metrics provides Prometheus metrics for the consult-api service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OngoingConsultations tracks the number of consultations currently in progress.
	OngoingConsultations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "consult_ongoing_consultations",
			Help: "Number of consultations currently in progress",
		},
	)

	// ConsultationsStarted tracks the total number of consultations started.
	ConsultationsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consult_consultations_started_total",
			Help: "Total number of consultations started",
		},
	)

	// ConsultationsEnded tracks completed and cancelled consultations.
	ConsultationsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consult_consultations_ended_total",
			Help: "Total number of consultations ended",
		},
		[]string{"status"},
	)

	// QueueJoins tracks queue admissions.
	QueueJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consult_queue_joins_total",
			Help: "Total number of patients admitted to a waiting queue",
		},
	)

	// QueueLeaves tracks voluntary queue departures.
	QueueLeaves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consult_queue_leaves_total",
			Help: "Total number of patients that left a waiting queue",
		},
	)

	// WaitingPatients tracks the current queue depth across all doctors.
	WaitingPatients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "consult_waiting_patients",
			Help: "Number of patients currently waiting across all queues",
		},
	)

	// EventConnections tracks open event-bridge WebSocket connections.
	EventConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "consult_event_connections",
			Help: "Number of open event bridge connections",
		},
	)

	// EventsPublished tracks events pushed through the bridge by type.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consult_events_published_total",
			Help: "Total number of events pushed through the event bridge",
		},
		[]string{"type"},
	)

	// RoomSyncDuration tracks the duration of LiveKit room sync operations.
	RoomSyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "consult_room_sync_duration_seconds",
			Help:    "Duration of LiveKit room sync operations",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RoomSyncErrors tracks errors during LiveKit room sync.
	RoomSyncErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consult_room_sync_errors_total",
			Help: "Total number of errors during LiveKit room sync",
		},
	)

	// HTTPRequests tracks API requests by method, endpoint and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consult_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPRequestDuration tracks API request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "consult_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// TokenGenerationDuration tracks token generation time.
	TokenGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "consult_token_generation_duration_seconds",
			Help:    "Duration of LiveKit token generation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)
)

// RecordConsultationStarted increments consultation start metrics.
func RecordConsultationStarted() {
	ConsultationsStarted.Inc()
	OngoingConsultations.Inc()
}

// RecordConsultationEnded increments consultation end metrics.
func RecordConsultationEnded(status string) {
	ConsultationsEnded.WithLabelValues(status).Inc()
	OngoingConsultations.Dec()
}

// RecordQueueJoin increments queue admission metrics.
func RecordQueueJoin() {
	QueueJoins.Inc()
	WaitingPatients.Inc()
}

// RecordQueueLeave increments queue departure metrics.
func RecordQueueLeave() {
	QueueLeaves.Inc()
	WaitingPatients.Dec()
}

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(method, endpoint, status string, durationSeconds float64) {
	HTTPRequests.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
