package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PalmCacheHits         uint64
	PalmCacheMisses       uint64
	VerifyDurationCount   uint64
	VerifyDurationTotalNs int64
	Enrollments           map[string]uint64
	Linkings              map[string]uint64
	Payments              map[string]uint64
	Attendance            map[string]uint64
	AccessDecisions       map[string]uint64
	TokensSwept           int64
	EventsPublished       map[string]uint64
	EventsProcessed       map[string]uint64
	EventQueueDepth       int64
	EventBatches          uint64
	EventBatchEvents      uint64
	EventBatchDurationNs  int64
	EventIngestLagNs      int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	palmCacheHits         uint64
	palmCacheMisses       uint64
	verifyDurationCount   uint64
	verifyDurationTotalNs int64
	tokensSwept           int64
	eventQueueDepth       int64
	eventBatches          uint64
	eventBatchEvents      uint64
	eventBatchDurationNs  int64
	eventIngestLagNs      int64

	mu              sync.Mutex
	enrollments     map[string]uint64
	linkings        map[string]uint64
	payments        map[string]uint64
	attendance      map[string]uint64
	accessDecisions map[string]uint64
	eventsPublished map[string]uint64
	eventsProcessed map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		enrollments:     make(map[string]uint64),
		linkings:        make(map[string]uint64),
		payments:        make(map[string]uint64),
		attendance:      make(map[string]uint64),
		accessDecisions: make(map[string]uint64),
		eventsPublished: make(map[string]uint64),
		eventsProcessed: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		PalmCacheHits:         atomic.LoadUint64(&m.palmCacheHits),
		PalmCacheMisses:       atomic.LoadUint64(&m.palmCacheMisses),
		VerifyDurationCount:   atomic.LoadUint64(&m.verifyDurationCount),
		VerifyDurationTotalNs: atomic.LoadInt64(&m.verifyDurationTotalNs),
		Enrollments:           copyCounts(m.enrollments),
		Linkings:              copyCounts(m.linkings),
		Payments:              copyCounts(m.payments),
		Attendance:            copyCounts(m.attendance),
		AccessDecisions:       copyCounts(m.accessDecisions),
		TokensSwept:           atomic.LoadInt64(&m.tokensSwept),
		EventsPublished:       copyCounts(m.eventsPublished),
		EventsProcessed:       copyCounts(m.eventsProcessed),
		EventQueueDepth:       atomic.LoadInt64(&m.eventQueueDepth),
		EventBatches:          atomic.LoadUint64(&m.eventBatches),
		EventBatchEvents:      atomic.LoadUint64(&m.eventBatchEvents),
		EventBatchDurationNs:  atomic.LoadInt64(&m.eventBatchDurationNs),
		EventIngestLagNs:      atomic.LoadInt64(&m.eventIngestLagNs),
	}
}

// IncPalmCacheHit increments the palm cache hit counter.
func (m *InMemoryRecorder) IncPalmCacheHit() {
	atomic.AddUint64(&m.palmCacheHits, 1)
}

// IncPalmCacheMiss increments the palm cache miss counter.
func (m *InMemoryRecorder) IncPalmCacheMiss() {
	atomic.AddUint64(&m.palmCacheMisses, 1)
}

// ObserveVerifyDuration records palm verification duration.
func (m *InMemoryRecorder) ObserveVerifyDuration(duration time.Duration) {
	atomic.AddUint64(&m.verifyDurationCount, 1)
	atomic.AddInt64(&m.verifyDurationTotalNs, duration.Nanoseconds())
}

// IncEnrollment increments the enrollment counter for a status.
func (m *InMemoryRecorder) IncEnrollment(status string) {
	m.incLabeled(m.enrollments, status)
}

// IncLinking increments the linking counter for a status.
func (m *InMemoryRecorder) IncLinking(status string) {
	m.incLabeled(m.linkings, status)
}

// IncPayment increments the payment counter for a status.
func (m *InMemoryRecorder) IncPayment(status string) {
	m.incLabeled(m.payments, status)
}

// IncAttendance increments the attendance counter for a record type.
func (m *InMemoryRecorder) IncAttendance(recordType string) {
	m.incLabeled(m.attendance, recordType)
}

// IncAccessDecision increments the access decision counter for an action.
func (m *InMemoryRecorder) IncAccessDecision(action string) {
	m.incLabeled(m.accessDecisions, action)
}

// AddTokensSwept adds to the swept token counter.
func (m *InMemoryRecorder) AddTokensSwept(count int64) {
	atomic.AddInt64(&m.tokensSwept, count)
}

// IncEventPublished increments the published event counter for a status.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	m.incLabeled(m.eventsPublished, status)
}

// IncEventProcessed increments the processed event counter for a status.
func (m *InMemoryRecorder) IncEventProcessed(status string) {
	m.incLabeled(m.eventsProcessed, status)
}

// SetEventQueueDepth records the event stream backlog depth.
func (m *InMemoryRecorder) SetEventQueueDepth(depth int64) {
	atomic.StoreInt64(&m.eventQueueDepth, depth)
}

// ObserveEventBatchSize records a processed batch size.
func (m *InMemoryRecorder) ObserveEventBatchSize(size int) {
	atomic.AddUint64(&m.eventBatches, 1)
	atomic.AddUint64(&m.eventBatchEvents, uint64(size))
}

// ObserveEventBatchDuration records batch processing duration.
func (m *InMemoryRecorder) ObserveEventBatchDuration(duration time.Duration) {
	atomic.AddInt64(&m.eventBatchDurationNs, duration.Nanoseconds())
}

// ObserveEventIngestLag records publish-to-persist lag.
func (m *InMemoryRecorder) ObserveEventIngestLag(lag time.Duration) {
	atomic.AddInt64(&m.eventIngestLagNs, lag.Nanoseconds())
}

func (m *InMemoryRecorder) incLabeled(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

func copyCounts(counts map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}
