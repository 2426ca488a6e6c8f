package histogram

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Acceptance thresholds used when a Histogram gates a regression run.
const (
	AcceptanceP99  = 200 * time.Microsecond
	AcceptanceP999 = 500 * time.Microsecond
)

// Histogram records nanosecond latency samples and answers order-statistic
// queries over them. It keeps one entry per *distinct* value recorded
// (value -> count) plus that value set sorted ascending, so Percentile can
// walk it in ascending order exactly the way
// original_source/cpp/src/LatencyHistogram.cpp does over its std::map.
// Insertion locates the insertion point in O(log k) via binary search but,
// unlike a balanced tree, shifts the tail of the slice to insert a new
// distinct value, so a Histogram dominated by first-seen values is O(k)
// worst case per Record; in the steady state of a latency distribution
// (mostly repeated values once warmed up) this is the O(1) map increment
// path.
type Histogram struct {
	mu     sync.Mutex
	counts map[int64]uint64
	sorted []int64
	count  uint64
	sum    int64
}

// New allocates an empty histogram.
func New() *Histogram {
	return &Histogram{counts: make(map[int64]uint64)}
}

// Record adds a single latency sample, in nanoseconds.
func (h *Histogram) Record(ns int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, seen := h.counts[ns]; !seen {
		idx := sort.Search(len(h.sorted), func(i int) bool { return h.sorted[i] >= ns })
		h.sorted = append(h.sorted, 0)
		copy(h.sorted[idx+1:], h.sorted[idx:])
		h.sorted[idx] = ns
	}
	h.counts[ns]++
	h.count++
	h.sum += ns
}

// Count returns the total number of samples recorded.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Min returns the smallest recorded sample, or 0 if none have been
// recorded.
func (h *Histogram) Min() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.sorted) == 0 {
		return 0
	}
	return h.sorted[0]
}

// Max returns the largest recorded sample, or 0 if none have been
// recorded.
func (h *Histogram) Max() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.sorted) == 0 {
		return 0
	}
	return h.sorted[len(h.sorted)-1]
}

// Mean returns the arithmetic mean of all recorded samples, or 0 if none
// have been recorded.
func (h *Histogram) Mean() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 {
		return 0
	}
	return h.sum / int64(h.count)
}

// Percentile returns the sample value such that a fraction p of recorded
// samples are <= it. p is clamped to [0, 1]. It selects the value at index
// floor(p*count), clamped to count-1, by walking the distinct values in
// ascending order while accumulating cumulative counts, matching
// the documented acceptance-gate semantics exactly.
func (h *Histogram) Percentile(p float64) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	target := int64(p * float64(h.count))
	if target >= int64(h.count) {
		target = int64(h.count) - 1
	}

	var cumulative int64
	for _, v := range h.sorted {
		cumulative += int64(h.counts[v])
		if cumulative > target {
			return v
		}
	}
	return h.sorted[len(h.sorted)-1]
}

// Clear resets the histogram to empty.
func (h *Histogram) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts = make(map[int64]uint64)
	h.sorted = nil
	h.count = 0
	h.sum = 0
}

// Summary is a point-in-time snapshot suitable for logging or regression
// gating.
type Summary struct {
	Count    uint64
	Min      time.Duration
	Mean     time.Duration
	P50      time.Duration
	P90      time.Duration
	P99      time.Duration
	P999     time.Duration
	Max      time.Duration
	P99Pass  bool
	P999Pass bool
}

// Snapshot captures the current statistics, including the p99 < 200µs and
// p99.9 < 500µs acceptance checks.
func (h *Histogram) Snapshot() Summary {
	p99 := time.Duration(h.Percentile(0.99))
	p999 := time.Duration(h.Percentile(0.999))
	return Summary{
		Count:    h.Count(),
		Min:      time.Duration(h.Min()),
		Mean:     time.Duration(h.Mean()),
		P50:      time.Duration(h.Percentile(0.50)),
		P90:      time.Duration(h.Percentile(0.90)),
		P99:      p99,
		P999:     p999,
		Max:      time.Duration(h.Max()),
		P99Pass:  p99 < AcceptanceP99,
		P999Pass: p999 < AcceptanceP999,
	}
}

// String renders the summary the way the consumer process logs it every
// 10,000 events.
func (s Summary) String() string {
	return fmt.Sprintf(
		"latency n=%d min=%s mean=%s p50=%s p90=%s p99=%s p99.9=%s max=%s (p99<200us=%t p99.9<500us=%t)",
		s.Count, s.Min, s.Mean, s.P50, s.P90, s.P99, s.P999, s.Max, s.P99Pass, s.P999Pass,
	)
}
