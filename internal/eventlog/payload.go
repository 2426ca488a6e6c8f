package eventlog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yanun0323/decimal"

	goerrors "github.com/JulianZhan/trading-ledger/internal/errors"
)

// TradeSide is the direction of a trade.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// TradeCreated is the payload carried by a TRADE_CREATED frame.
type TradeCreated struct {
	TradeID     string
	AccountID   string
	Symbol      string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Side        TradeSide
	TimestampNs int64
}

// ErrMalformedPayload is returned when a TRADE_CREATED payload cannot be
// parsed back into its fields, e.g. because an external writer produced a
// non-canonical encoding.
var ErrMalformedPayload = goerrors.New("eventlog: malformed trade_created payload")

// EncodeTradeCreated renders a TradeCreated as the canonical, fixed-order
// compact JSON object specified for the TRADE_CREATED payload. The field
// order (trade_id, account_id, symbol, quantity, price, side,
// timestamp_ns) is hand-written, never produced via encoding/json map
// marshaling, so that the byte sequence is stable across writer runs and
// hosts.
func EncodeTradeCreated(t TradeCreated) []byte {
	var b strings.Builder
	b.WriteByte('{')
	b.WriteString(`"trade_id":`)
	b.WriteString(strconv.Quote(t.TradeID))
	b.WriteString(`,"account_id":`)
	b.WriteString(strconv.Quote(t.AccountID))
	b.WriteString(`,"symbol":`)
	b.WriteString(strconv.Quote(t.Symbol))
	b.WriteString(`,"quantity":`)
	b.WriteString(t.Quantity.String())
	b.WriteString(`,"price":`)
	b.WriteString(t.Price.String())
	b.WriteString(`,"side":`)
	b.WriteString(strconv.Quote(string(t.Side)))
	b.WriteString(`,"timestamp_ns":`)
	b.WriteString(strconv.FormatInt(t.TimestampNs, 10))
	b.WriteByte('}')
	return []byte(b.String())
}

// DecodeTradeCreated parses a payload produced by EncodeTradeCreated. It
// does not attempt general JSON parsing; it only understands flat objects
// like the ones this package writes, with fields accepted in any order.
// trade_id, symbol, and quantity are required; the other fields may be
// absent.
func DecodeTradeCreated(payload []byte) (TradeCreated, error) {
	fields, err := scanKeyValueObject(payload)
	if err != nil {
		return TradeCreated{}, err
	}

	get := func(key string) (string, bool) {
		v, ok := fields[key]
		return v, ok
	}

	tradeID, ok := get("trade_id")
	if !ok {
		return TradeCreated{}, ErrMalformedPayload
	}
	accountID, _ := get("account_id")
	symbol, ok := get("symbol")
	if !ok {
		return TradeCreated{}, ErrMalformedPayload
	}
	qtyStr, ok := get("quantity")
	if !ok {
		return TradeCreated{}, ErrMalformedPayload
	}
	qty, err := decimal.NewFromString(qtyStr)
	if err != nil {
		return TradeCreated{}, ErrMalformedPayload
	}
	priceStr, _ := get("price")
	var price decimal.Decimal
	if priceStr != "" {
		price, err = decimal.NewFromString(priceStr)
		if err != nil {
			return TradeCreated{}, ErrMalformedPayload
		}
	}
	side, _ := get("side")
	tsStr, _ := get("timestamp_ns")
	ts, _ := strconv.ParseInt(tsStr, 10, 64)

	return TradeCreated{
		TradeID:     tradeID,
		AccountID:   accountID,
		Symbol:      symbol,
		Quantity:    qty,
		Price:       price,
		Side:        TradeSide(side),
		TimestampNs: ts,
	}, nil
}

// scanKeyValueObject is a minimal, allocation-light scanner for the flat
// `{"k":"v",...}` objects this package emits. It does not handle nested
// objects, arrays, or escaped quotes beyond the basics strconv.Unquote
// supports; it exists so the validator and playback tooling can recover
// fields without pulling in a general JSON decoder for a format this
// package fully controls on the write side.
func scanKeyValueObject(payload []byte) (map[string]string, error) {
	s := strings.TrimSpace(string(payload))
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return nil, ErrMalformedPayload
	}
	s = s[1 : len(s)-1]
	fields := make(map[string]string)
	for _, part := range splitTopLevel(s) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.IndexByte(part, ':')
		if idx < 0 {
			return nil, ErrMalformedPayload
		}
		key, err := unquoteField(part[:idx])
		if err != nil {
			return nil, err
		}
		val := strings.TrimSpace(part[idx+1:])
		if strings.HasPrefix(val, `"`) {
			unq, err := unquoteField(val)
			if err != nil {
				return nil, err
			}
			val = unq
		}
		fields[key] = val
	}
	return fields, nil
}

func splitTopLevel(s string) []string {
	var parts []string
	start := 0
	inQuotes := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func unquoteField(s string) (string, error) {
	s = strings.TrimSpace(s)
	unq, err := strconv.Unquote(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return unq, nil
}
