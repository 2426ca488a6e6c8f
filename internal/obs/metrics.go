package obs

import (
	"sync/atomic"
	"time"

	"github.com/JulianZhan/trading-ledger/internal/eventlog"
)

// maxEventType sizes the fixed counter array; eventlog.EventType is a
// small, closed set today but the array leaves room for the frame
// format to grow new types without a migration.
const maxEventType = 15

// Metrics collects lightweight counters and latency stats for the
// gateway and consumer processes. A nil *Metrics is safe to call any
// method on, so callers that don't care about metrics can pass nil
// instead of threading an "enabled" flag everywhere.
type Metrics struct {
	eventCounts [maxEventType + 1]uint64

	tradesCreated    uint64
	tradesIdempotent uint64
	tradesConflict   uint64

	eventLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	EventCounts      map[eventlog.EventType]uint64
	TradesCreated    uint64
	TradesIdempotent uint64
	TradesConflict   uint64
	EventLatency     LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveEvent increments the per-type event counter and, if writtenAtNs
// is the event's own write timestamp, records how long it took to reach
// this observation point (e.g. writer append to consumer pop).
func (m *Metrics) ObserveEvent(eventType eventlog.EventType, writtenAtNs int64) {
	if m == nil {
		return
	}
	idx := int(eventType)
	if idx >= 0 && idx < len(m.eventCounts) {
		atomic.AddUint64(&m.eventCounts[idx], 1)
	}
	if writtenAtNs > 0 {
		if delta := time.Now().UnixNano() - writtenAtNs; delta >= 0 {
			m.eventLatency.Observe(time.Duration(delta))
		}
	}
}

// IncTradesCreated records a newly created trade, the Go equivalent of
// TradeService.java's trades.created Micrometer counter.
func (m *Metrics) IncTradesCreated() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.tradesCreated, 1)
}

// IncTradesIdempotent records an idempotent resubmission (trades.idempotent).
func (m *Metrics) IncTradesIdempotent() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.tradesIdempotent, 1)
}

// IncTradesConflict records a rejected conflicting resubmission (trades.conflict).
func (m *Metrics) IncTradesConflict() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.tradesConflict, 1)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	eventCounts := make(map[eventlog.EventType]uint64)
	for i := range m.eventCounts {
		if v := atomic.LoadUint64(&m.eventCounts[i]); v > 0 {
			eventCounts[eventlog.EventType(i)] = v
		}
	}
	return Snapshot{
		EventCounts:      eventCounts,
		TradesCreated:    atomic.LoadUint64(&m.tradesCreated),
		TradesIdempotent: atomic.LoadUint64(&m.tradesIdempotent),
		TradesConflict:   atomic.LoadUint64(&m.tradesConflict),
		EventLatency:     m.eventLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
