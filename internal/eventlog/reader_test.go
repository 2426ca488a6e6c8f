package eventlog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JulianZhan/trading-ledger/internal/eventlog"
)

func writeNFrames(t *testing.T, path string, n int) {
	t.Helper()
	w, err := eventlog.NewWriter(path)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		_, err := w.Append(eventlog.EventTypeTradeCreated, []byte("payload"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestReaderYieldsFramesInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.bin")
	writeNFrames(t, path, 5)

	r, err := eventlog.Open(path)
	require.NoError(t, err)
	defer r.Close()

	for want := uint64(1); want <= 5; want++ {
		ev, ok, err := r.ReadNext()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, ev.SequenceNum)
	}

	_, ok, err := r.ReadNext()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenRejectsFileSmallerThanHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.bin")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := eventlog.Open(path)
	assert.ErrorIs(t, err, eventlog.ErrTooSmall)
}

func TestReaderStopsCleanlyAtTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.bin")
	writeNFrames(t, path, 2)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-2))

	r, err := eventlog.Open(path)
	require.NoError(t, err)
	defer r.Close()

	ev, ok, err := r.ReadNext()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), ev.SequenceNum)

	_, ok, err = r.ReadNext()
	require.NoError(t, err)
	assert.False(t, ok, "a torn tail must not surface as an error")
}

func TestReaderRemapIfGrownPicksUpNewFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.bin")
	w, err := eventlog.NewWriter(path)
	require.NoError(t, err)
	_, err = w.Append(eventlog.EventTypeTradeCreated, []byte("first"))
	require.NoError(t, err)

	r, err := eventlog.Open(path)
	require.NoError(t, err)
	defer r.Close()

	ev, ok, err := r.ReadNext()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), ev.SequenceNum)

	_, ok, err = r.ReadNext()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = w.Append(eventlog.EventTypeTradeCreated, []byte("second"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	grown, err := r.RemapIfGrown()
	require.NoError(t, err)
	assert.True(t, grown)

	ev, ok, err = r.ReadNext()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), ev.SequenceNum)
}
