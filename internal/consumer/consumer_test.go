package consumer_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yanun0323/decimal"

	"github.com/JulianZhan/trading-ledger/internal/consumer"
	"github.com/JulianZhan/trading-ledger/internal/eventlog"
)

func TestConsumerProcessesExistingEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event_log.bin")

	w, err := eventlog.NewWriter(path)
	require.NoError(t, err)
	for i := 0; i < 25; i++ {
		_, err := w.AppendTradeCreated(eventlog.TradeCreated{
			TradeID:     "T" + string(rune('A'+i)),
			AccountID:   "ACC1",
			Symbol:      "AAPL",
			Quantity:    decimal.NewFromInt(int64(i + 1)),
			Price:       decimal.NewFromInt(100),
			Side:        eventlog.TradeSideBuy,
			TimestampNs: int64(i),
		})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	c, err := consumer.New(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool {
		return c.Validator().Snapshot().TradesValidated == 25
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not shut down after context cancellation")
	}

	snap := c.Histogram().Snapshot()
	require.Equal(t, uint64(25), snap.Count)
}

func TestConsumerStopMethodShutsDownPipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event_log.bin")

	w, err := eventlog.NewWriter(path)
	require.NoError(t, err)
	_, err = w.AppendTradeCreated(eventlog.TradeCreated{
		TradeID:  "T1",
		Symbol:   "MSFT",
		Quantity: decimal.NewFromInt(1),
		Price:    decimal.NewFromInt(1),
		Side:     eventlog.TradeSideSell,
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	c, err := consumer.New(path)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		return c.Validator().Snapshot().TradesValidated == 1
	}, 2*time.Second, 5*time.Millisecond)

	c.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not shut down after Stop")
	}
}
