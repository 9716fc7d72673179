// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Palm verification metrics
	IncPalmCacheHit()
	IncPalmCacheMiss()
	ObserveVerifyDuration(duration time.Duration)

	// Flow metrics
	IncEnrollment(status string)     // status: "captured", "scan_failed"
	IncLinking(status string)        // status: "linked", "rejected"
	IncPayment(status string)        // status: "completed", "failed"
	IncAttendance(recordType string) // record type: "check-in", "check-out", "break"
	IncAccessDecision(action string) // action: "granted", "denied"

	// Housekeeping metrics
	AddTokensSwept(count int64)

	// Activity event stream metrics
	IncEventPublished(status string) // status: "success", "dropped"
	IncEventProcessed(status string) // status: "success", "failed", "dead_lettered"
	SetEventQueueDepth(depth int64)
	ObserveEventBatchSize(size int)
	ObserveEventBatchDuration(duration time.Duration)
	ObserveEventIngestLag(lag time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
