package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/palmgate/palmgate/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
// Deployments running the Prometheus recorder mount its Handler()
// directly instead.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "palmgate_palm_cache_hits_total %d\n", snap.PalmCacheHits)
	writeMetric(w, "palmgate_palm_cache_misses_total %d\n", snap.PalmCacheMisses)
	writeMetric(w, "palmgate_palm_verify_duration_seconds_count %d\n", snap.VerifyDurationCount)
	writeMetric(w, "palmgate_palm_verify_duration_seconds_sum %.6f\n", float64(snap.VerifyDurationTotalNs)/1e9)

	writeLabeled(w, "palmgate_palm_enrollments_total", "status", snap.Enrollments)
	writeLabeled(w, "palmgate_palm_linkings_total", "status", snap.Linkings)
	writeLabeled(w, "palmgate_payments_total", "status", snap.Payments)
	writeLabeled(w, "palmgate_attendance_records_total", "type", snap.Attendance)
	writeLabeled(w, "palmgate_access_decisions_total", "action", snap.AccessDecisions)

	writeMetric(w, "palmgate_tokens_swept_total %d\n", snap.TokensSwept)

	writeLabeled(w, "palmgate_activity_events_published_total", "status", snap.EventsPublished)
	writeLabeled(w, "palmgate_activity_events_processed_total", "status", snap.EventsProcessed)
	writeMetric(w, "palmgate_activity_event_queue_depth %d\n", snap.EventQueueDepth)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// writeLabeled writes one line per label value, sorted for stable output.
func writeLabeled(w http.ResponseWriter, name, label string, counts map[string]uint64) {
	values := make([]string, 0, len(counts))
	for value := range counts {
		values = append(values, value)
	}
	sort.Strings(values)
	for _, value := range values {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, value, counts[value])
	}
}
