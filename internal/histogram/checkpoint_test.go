package histogram_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JulianZhan/trading-ledger/internal/histogram"
)

func TestCheckpointRoundTripsThroughSummary(t *testing.T) {
	s := histogram.Summary{
		Count:    42,
		Min:      10 * time.Microsecond,
		Mean:     50 * time.Microsecond,
		P50:      45 * time.Microsecond,
		P90:      90 * time.Microsecond,
		P99:      150 * time.Microsecond,
		P999:     190 * time.Microsecond,
		Max:      300 * time.Microsecond,
		P99Pass:  true,
		P999Pass: true,
	}

	got := s.Checkpoint().Summary()
	assert.Equal(t, s, got)
}

func TestCheckpointEncodeDecodeRoundTrip(t *testing.T) {
	c := histogram.Checkpoint{
		Count:    7,
		Min:      1,
		Mean:     2,
		P50:      3,
		P90:      4,
		P99:      5,
		P999:     6,
		Max:      7,
		P99Pass:  true,
		P999Pass: false,
	}

	buf := c.Encode(nil)
	assert.Len(t, buf, c.SizeInByte())

	got := histogram.Checkpoint{}.Decode(buf)
	assert.Equal(t, c, got)
}

func TestCheckpointWriterAppendsAndReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.bin")

	w, err := histogram.NewCheckpointWriter(path)
	require.NoError(t, err)

	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, w.Write(histogram.Checkpoint{Count: i, P99: int64(i) * 1000}))
	}
	require.NoError(t, w.Close())

	got, err := histogram.ReadCheckpoints(path)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, c := range got {
		assert.Equal(t, uint64(i+1), c.Count)
	}
}
