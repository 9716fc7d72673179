package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncPalmCacheHit is a no-op.
func (n *NoopRecorder) IncPalmCacheHit() {}

// IncPalmCacheMiss is a no-op.
func (n *NoopRecorder) IncPalmCacheMiss() {}

// ObserveVerifyDuration is a no-op.
func (n *NoopRecorder) ObserveVerifyDuration(duration time.Duration) {}

// IncEnrollment is a no-op.
func (n *NoopRecorder) IncEnrollment(status string) {}

// IncLinking is a no-op.
func (n *NoopRecorder) IncLinking(status string) {}

// IncPayment is a no-op.
func (n *NoopRecorder) IncPayment(status string) {}

// IncAttendance is a no-op.
func (n *NoopRecorder) IncAttendance(recordType string) {}

// IncAccessDecision is a no-op.
func (n *NoopRecorder) IncAccessDecision(action string) {}

// AddTokensSwept is a no-op.
func (n *NoopRecorder) AddTokensSwept(count int64) {}

// IncEventPublished is a no-op.
func (n *NoopRecorder) IncEventPublished(status string) {}

// IncEventProcessed is a no-op.
func (n *NoopRecorder) IncEventProcessed(status string) {}

// SetEventQueueDepth is a no-op.
func (n *NoopRecorder) SetEventQueueDepth(depth int64) {}

// ObserveEventBatchSize is a no-op.
func (n *NoopRecorder) ObserveEventBatchSize(size int) {}

// ObserveEventBatchDuration is a no-op.
func (n *NoopRecorder) ObserveEventBatchDuration(duration time.Duration) {}

// ObserveEventIngestLag is a no-op.
func (n *NoopRecorder) ObserveEventIngestLag(lag time.Duration) {}
