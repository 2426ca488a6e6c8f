package eventlog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/decimal"

	"github.com/JulianZhan/trading-ledger/internal/eventlog"
)

func TestTradeCreatedRoundTrip(t *testing.T) {
	trade := eventlog.TradeCreated{
		TradeID:     "T-0001",
		AccountID:   "ACC-1",
		Symbol:      "AAPL",
		Quantity:    decimal.NewFromFloat(10.5),
		Price:       decimal.NewFromFloat(187.23),
		Side:        eventlog.TradeSideBuy,
		TimestampNs: 1_700_000_000_000,
	}

	raw := eventlog.EncodeTradeCreated(trade)
	got, err := eventlog.DecodeTradeCreated(raw)
	require.NoError(t, err)

	assert.Equal(t, trade.TradeID, got.TradeID)
	assert.Equal(t, trade.AccountID, got.AccountID)
	assert.Equal(t, trade.Symbol, got.Symbol)
	assert.Equal(t, 0, trade.Quantity.Cmp(got.Quantity))
	assert.Equal(t, 0, trade.Price.Cmp(got.Price))
	assert.Equal(t, trade.Side, got.Side)
	assert.Equal(t, trade.TimestampNs, got.TimestampNs)
}

func TestEncodeTradeCreatedIsDeterministic(t *testing.T) {
	trade := eventlog.TradeCreated{
		TradeID:   "T1",
		AccountID: "A1",
		Symbol:    "MSFT",
		Quantity:  decimal.NewFromInt(5),
		Price:     decimal.NewFromInt(300),
		Side:      eventlog.TradeSideSell,
	}

	first := eventlog.EncodeTradeCreated(trade)
	second := eventlog.EncodeTradeCreated(trade)
	assert.Equal(t, first, second)
}

func TestDecodeTradeCreatedRejectsMalformedPayload(t *testing.T) {
	_, err := eventlog.DecodeTradeCreated([]byte("not an object"))
	assert.ErrorIs(t, err, eventlog.ErrMalformedPayload)
}

func TestDecodeTradeCreatedRejectsMissingRequiredFields(t *testing.T) {
	_, err := eventlog.DecodeTradeCreated([]byte(`{"account_id":"A1"}`))
	assert.ErrorIs(t, err, eventlog.ErrMalformedPayload)
}
