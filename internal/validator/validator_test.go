package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/decimal"

	"github.com/JulianZhan/trading-ledger/internal/eventlog"
	"github.com/JulianZhan/trading-ledger/internal/validator"
)

func tradeEvent(t *testing.T, trade eventlog.TradeCreated) eventlog.Event {
	t.Helper()
	return eventlog.Event{
		SequenceNum: 1,
		TimestampNs: 1,
		EventType:   eventlog.EventTypeTradeCreated,
		Payload:     eventlog.EncodeTradeCreated(trade),
	}
}

func validTrade() eventlog.TradeCreated {
	return eventlog.TradeCreated{
		TradeID:     "T1",
		AccountID:   "A1",
		Symbol:      "AAPL",
		Quantity:    decimal.NewFromInt(10),
		Price:       decimal.NewFromInt(100),
		Side:        eventlog.TradeSideBuy,
		TimestampNs: 1,
	}
}

func TestValidateAcceptsWellFormedTrade(t *testing.T) {
	v := validator.New()
	err := v.Validate(tradeEvent(t, validTrade()))
	require.NoError(t, err)

	counts := v.Snapshot()
	assert.Equal(t, uint64(1), counts.EventsProcessed)
	assert.Equal(t, uint64(1), counts.TradesValidated)
	assert.Equal(t, uint64(0), counts.ValidationErrors)
}

func TestValidateRejectsMissingTradeID(t *testing.T) {
	v := validator.New()
	trade := validTrade()
	trade.TradeID = ""
	err := v.Validate(tradeEvent(t, trade))
	assert.ErrorIs(t, err, validator.ErrMissingTradeID)

	counts := v.Snapshot()
	assert.Equal(t, uint64(1), counts.EventsProcessed)
	assert.Equal(t, uint64(0), counts.TradesValidated)
	assert.Equal(t, uint64(1), counts.ValidationErrors)
}

func TestValidateRejectsMissingSymbol(t *testing.T) {
	v := validator.New()
	trade := validTrade()
	trade.Symbol = ""
	err := v.Validate(tradeEvent(t, trade))
	assert.ErrorIs(t, err, validator.ErrMissingSymbol)
}

func TestValidateRejectsNonPositiveQuantity(t *testing.T) {
	v := validator.New()
	trade := validTrade()
	trade.Quantity = decimal.NewFromInt(0)
	err := v.Validate(tradeEvent(t, trade))
	assert.ErrorIs(t, err, validator.ErrInvalidQuantity)

	trade.Quantity = decimal.NewFromInt(-5)
	err = v.Validate(tradeEvent(t, trade))
	assert.ErrorIs(t, err, validator.ErrInvalidQuantity)
}

func TestValidateIgnoresUnknownEventTypes(t *testing.T) {
	v := validator.New()
	err := v.Validate(eventlog.Event{
		SequenceNum: 1,
		EventType:   eventlog.EventTypeUnknown,
		Payload:     nil,
	})
	require.NoError(t, err)

	counts := v.Snapshot()
	assert.Equal(t, uint64(1), counts.EventsProcessed)
	assert.Equal(t, uint64(0), counts.TradesValidated)
	assert.Equal(t, uint64(0), counts.ValidationErrors)
}

func TestValidateRejectsMalformedPayload(t *testing.T) {
	v := validator.New()
	err := v.Validate(eventlog.Event{
		SequenceNum: 1,
		EventType:   eventlog.EventTypeTradeCreated,
		Payload:     []byte("not json"),
	})
	assert.ErrorIs(t, err, eventlog.ErrMalformedPayload)

	counts := v.Snapshot()
	assert.Equal(t, uint64(1), counts.ValidationErrors)
}
