package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exposes metrics to a Prometheus registry.
type PrometheusRecorder struct {
	palmCacheHits   prometheus.Counter
	palmCacheMisses prometheus.Counter
	verifyDuration  prometheus.Histogram
	enrollments     *prometheus.CounterVec
	linkings        *prometheus.CounterVec
	payments        *prometheus.CounterVec
	attendance      *prometheus.CounterVec
	accessDecisions *prometheus.CounterVec
	tokensSwept     prometheus.Counter

	eventsPublished    *prometheus.CounterVec
	eventsProcessed    *prometheus.CounterVec
	eventQueueDepth    prometheus.Gauge
	eventBatchSize     prometheus.Histogram
	eventBatchDuration prometheus.Histogram
	eventIngestLag     prometheus.Histogram

	registry *prometheus.Registry
}

// NewPrometheus returns a Recorder backed by a private Prometheus registry.
func NewPrometheus() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	r := &PrometheusRecorder{
		palmCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "palm_cache_hits_total",
			Help: "Palm verification cache hits.",
		}),
		palmCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "palm_cache_misses_total",
			Help: "Palm verification cache misses.",
		}),
		verifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "palm_verify_duration_seconds",
			Help:    "Palm verification latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "palm_enrollments_total",
			Help: "Palm enrollment captures by status.",
		}, []string{"status"}),
		linkings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "palm_linkings_total",
			Help: "Account linking attempts by status.",
		}, []string{"status"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "palm_payments_total",
			Help: "Palm-verified payments by status.",
		}, []string{"status"}),
		attendance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "palm_attendance_total",
			Help: "Attendance records by type.",
		}, []string{"type"}),
		accessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "palm_access_decisions_total",
			Help: "Access control decisions by action.",
		}, []string{"action"}),
		tokensSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "registration_tokens_swept_total",
			Help: "Expired registration tokens purged by the sweeper.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_events_published_total",
			Help: "Activity events published to the stream by status.",
		}, []string{"status"}),
		eventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_events_processed_total",
			Help: "Activity events consumed from the stream by status.",
		}, []string{"status"}),
		eventQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "activity_event_queue_depth",
			Help: "Unprocessed activity events in the stream.",
		}),
		eventBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "activity_event_batch_size",
			Help:    "Activity events per processed batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		eventBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "activity_event_batch_duration_seconds",
			Help:    "Batch processing latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		eventIngestLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "activity_event_ingest_lag_seconds",
			Help:    "Publish-to-persist lag per activity event in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		registry: registry,
	}

	registry.MustRegister(
		r.palmCacheHits,
		r.palmCacheMisses,
		r.verifyDuration,
		r.enrollments,
		r.linkings,
		r.payments,
		r.attendance,
		r.accessDecisions,
		r.tokensSwept,
		r.eventsPublished,
		r.eventsProcessed,
		r.eventQueueDepth,
		r.eventBatchSize,
		r.eventBatchDuration,
		r.eventIngestLag,
	)

	return r
}

// Handler returns an http.Handler serving the metrics endpoint.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// IncPalmCacheHit increments the palm cache hit counter.
func (r *PrometheusRecorder) IncPalmCacheHit() {
	r.palmCacheHits.Inc()
}

// IncPalmCacheMiss increments the palm cache miss counter.
func (r *PrometheusRecorder) IncPalmCacheMiss() {
	r.palmCacheMisses.Inc()
}

// ObserveVerifyDuration records palm verification duration.
func (r *PrometheusRecorder) ObserveVerifyDuration(duration time.Duration) {
	r.verifyDuration.Observe(duration.Seconds())
}

// IncEnrollment increments the enrollment counter for a status.
func (r *PrometheusRecorder) IncEnrollment(status string) {
	r.enrollments.WithLabelValues(status).Inc()
}

// IncLinking increments the linking counter for a status.
func (r *PrometheusRecorder) IncLinking(status string) {
	r.linkings.WithLabelValues(status).Inc()
}

// IncPayment increments the payment counter for a status.
func (r *PrometheusRecorder) IncPayment(status string) {
	r.payments.WithLabelValues(status).Inc()
}

// IncAttendance increments the attendance counter for a record type.
func (r *PrometheusRecorder) IncAttendance(recordType string) {
	r.attendance.WithLabelValues(recordType).Inc()
}

// IncAccessDecision increments the access decision counter for an action.
func (r *PrometheusRecorder) IncAccessDecision(action string) {
	r.accessDecisions.WithLabelValues(action).Inc()
}

// AddTokensSwept adds to the swept token counter.
func (r *PrometheusRecorder) AddTokensSwept(count int64) {
	r.tokensSwept.Add(float64(count))
}

// IncEventPublished increments the published event counter for a status.
func (r *PrometheusRecorder) IncEventPublished(status string) {
	r.eventsPublished.WithLabelValues(status).Inc()
}

// IncEventProcessed increments the processed event counter for a status.
func (r *PrometheusRecorder) IncEventProcessed(status string) {
	r.eventsProcessed.WithLabelValues(status).Inc()
}

// SetEventQueueDepth records the event stream backlog depth.
func (r *PrometheusRecorder) SetEventQueueDepth(depth int64) {
	r.eventQueueDepth.Set(float64(depth))
}

// ObserveEventBatchSize records a processed batch size.
func (r *PrometheusRecorder) ObserveEventBatchSize(size int) {
	r.eventBatchSize.Observe(float64(size))
}

// ObserveEventBatchDuration records batch processing duration.
func (r *PrometheusRecorder) ObserveEventBatchDuration(duration time.Duration) {
	r.eventBatchDuration.Observe(duration.Seconds())
}

// ObserveEventIngestLag records publish-to-persist lag.
func (r *PrometheusRecorder) ObserveEventIngestLag(lag time.Duration) {
	r.eventIngestLag.Observe(lag.Seconds())
}
