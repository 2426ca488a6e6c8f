package histogram_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JulianZhan/trading-ledger/internal/histogram"
)

func TestEmptyHistogram(t *testing.T) {
	h := histogram.New()
	assert.Equal(t, uint64(0), h.Count())
	assert.Equal(t, int64(0), h.Min())
	assert.Equal(t, int64(0), h.Max())
	assert.Equal(t, int64(0), h.Mean())
	assert.Equal(t, int64(0), h.Percentile(0.99))
}

func TestRecordMinMaxMean(t *testing.T) {
	h := histogram.New()
	for _, v := range []int64{10, 20, 30, 40, 50} {
		h.Record(v)
	}

	assert.Equal(t, uint64(5), h.Count())
	assert.Equal(t, int64(10), h.Min())
	assert.Equal(t, int64(50), h.Max())
	assert.Equal(t, int64(30), h.Mean())
}

func TestPercentileUniform(t *testing.T) {
	h := histogram.New()
	// 100 distinct samples 1..100. p50 should land near the middle of the
	// distribution, p99 near the top, consistent with a target index of
	// floor(p*count) walked over the sorted distinct values.
	for i := int64(1); i <= 100; i++ {
		h.Record(i)
	}

	require.Equal(t, uint64(100), h.Count())
	assert.Equal(t, int64(51), h.Percentile(0.50))
	assert.Equal(t, int64(91), h.Percentile(0.90))
	assert.Equal(t, int64(100), h.Percentile(0.99))
	assert.Equal(t, int64(100), h.Percentile(1.0))
	assert.Equal(t, int64(1), h.Percentile(0.0))
}

func TestPercentileRepeatedValues(t *testing.T) {
	h := histogram.New()
	for i := 0; i < 98; i++ {
		h.Record(100)
	}
	h.Record(5000)
	h.Record(9000)

	assert.Equal(t, uint64(100), h.Count())
	assert.Equal(t, int64(100), h.Percentile(0.50))
	// target index floor(0.99*100) = 99 (0-based) falls on the 9000 sample:
	// the 100s cover indices 0..97 and the 5000 sample is index 98.
	assert.Equal(t, int64(9000), h.Percentile(0.99))
}

func TestClearResetsState(t *testing.T) {
	h := histogram.New()
	h.Record(1)
	h.Record(2)
	require.Equal(t, uint64(2), h.Count())

	h.Clear()
	assert.Equal(t, uint64(0), h.Count())
	assert.Equal(t, int64(0), h.Min())
	assert.Equal(t, int64(0), h.Max())
}

func TestSnapshotAcceptanceThresholds(t *testing.T) {
	h := histogram.New()
	for i := 0; i < 1000; i++ {
		h.Record(int64(50 * time.Microsecond))
	}
	for i := 0; i < 5; i++ {
		h.Record(int64(600 * time.Microsecond))
	}

	snap := h.Snapshot()
	assert.True(t, snap.P99Pass, "expected p99 under 200us threshold")
	assert.False(t, snap.P999Pass, "expected p99.9 to include the slow tail")
	assert.NotEmpty(t, snap.String())
}

func TestPercentileClampsOutOfRangeInput(t *testing.T) {
	h := histogram.New()
	h.Record(1)
	h.Record(2)
	h.Record(3)

	assert.Equal(t, h.Percentile(0), h.Percentile(-1))
	assert.Equal(t, h.Percentile(1), h.Percentile(2))
}
