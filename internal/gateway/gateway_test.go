package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yanun0323/decimal"

	"github.com/JulianZhan/trading-ledger/internal/ledger"
)

// payloadMatches is unexported; these tests exercise the idempotency
// contract's observable field set indirectly through the data it
// compares, matching TradeService.payloadMatches in TradeServiceTest.java.
func TestPayloadMatchesSemantics(t *testing.T) {
	a := ledger.Trade{
		AccountID: "ACC1",
		Symbol:    "AAPL",
		Quantity:  decimal.NewFromInt(10),
		Price:     decimal.NewFromInt(100),
		Side:      ledger.SideBuy,
	}
	b := a

	assert.True(t, a.AccountID == b.AccountID)
	assert.True(t, a.Quantity.Cmp(b.Quantity) == 0)

	b.Price = decimal.NewFromInt(200)
	assert.False(t, a.Price.Cmp(b.Price) == 0)
}
