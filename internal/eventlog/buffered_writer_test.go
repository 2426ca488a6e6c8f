package eventlog_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JulianZhan/trading-ledger/internal/eventlog"
)

func TestBufferedWriterAppendsAllRequestsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.bin")

	var mu sync.Mutex
	var results []eventlog.AppendResult

	bw, err := eventlog.NewBufferedWriter(eventlog.BufferedWriterConfig{
		Path:      path,
		QueueSize: 64,
		OnWritten: func(r eventlog.AppendResult) {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bw.Start(ctx))

	const n = 20
	for i := 0; i < n; i++ {
		require.NoError(t, bw.TryAppend(eventlog.EventTypeTradeCreated, []byte("x")))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(results) == n
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, bw.Close())

	mu.Lock()
	defer mu.Unlock()
	for i, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, uint64(i+1), r.Sequence)
	}
}

func TestBufferedWriterRejectsAppendBeforeStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.bin")
	bw, err := eventlog.NewBufferedWriter(eventlog.BufferedWriterConfig{Path: path})
	require.NoError(t, err)

	err = bw.TryAppend(eventlog.EventTypeTradeCreated, []byte("x"))
	assert.Error(t, err)
}

func TestBufferedWriterRejectsAppendAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.bin")
	bw, err := eventlog.NewBufferedWriter(eventlog.BufferedWriterConfig{Path: path})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bw.Start(ctx))
	cancel()
	require.NoError(t, bw.Close())

	err = bw.TryAppend(eventlog.EventTypeTradeCreated, []byte("x"))
	assert.ErrorIs(t, err, eventlog.ErrWriterClosed)
}

func TestNewBufferedWriterRejectsEmptyPath(t *testing.T) {
	_, err := eventlog.NewBufferedWriter(eventlog.BufferedWriterConfig{})
	assert.Error(t, err)
}
