package validator

import (
	"sync/atomic"

	"github.com/yanun0323/decimal"

	goerrors "github.com/JulianZhan/trading-ledger/internal/errors"
	"github.com/JulianZhan/trading-ledger/internal/eventlog"
)

// ErrMissingTradeID, ErrMissingSymbol, and ErrInvalidQuantity cover a
// TRADE_CREATED payload missing trade_id or symbol, or carrying a
// non-positive quantity.
var (
	ErrMissingTradeID  = goerrors.New("validator: trade_created missing trade_id")
	ErrMissingSymbol   = goerrors.New("validator: trade_created missing symbol")
	ErrInvalidQuantity = goerrors.New("validator: trade_created quantity must be positive")
)

// Validator checks decoded events for well-formedness. It holds no
// per-event state beyond the running counters, so a single Validator may
// be shared across the lifetime of one consumer process; it is not,
// however, safe to call Validate from more than one goroutine
// concurrently, since it is meant to sit in the consumer's single-threaded
// hot path.
type Validator struct {
	eventsProcessed  uint64
	tradesValidated  uint64
	validationErrors uint64
}

// New allocates a Validator with zeroed counters.
func New() *Validator {
	return &Validator{}
}

// Validate checks a decoded event. TRADE_CREATED frames are decoded and
// field-checked; any other event type is counted as processed and
// otherwise ignored, since no validation rules are defined for other
// event types today.
func (v *Validator) Validate(ev eventlog.Event) error {
	atomic.AddUint64(&v.eventsProcessed, 1)

	switch ev.EventType {
	case eventlog.EventTypeTradeCreated:
		trade, err := eventlog.DecodeTradeCreated(ev.Payload)
		if err != nil {
			atomic.AddUint64(&v.validationErrors, 1)
			return err
		}
		if err := validateTrade(trade); err != nil {
			atomic.AddUint64(&v.validationErrors, 1)
			return err
		}
		atomic.AddUint64(&v.tradesValidated, 1)
		return nil
	default:
		return nil
	}
}

func validateTrade(t eventlog.TradeCreated) error {
	if t.TradeID == "" {
		return ErrMissingTradeID
	}
	if t.Symbol == "" {
		return ErrMissingSymbol
	}
	if t.Quantity.Cmp(decimal.Zero) <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// Counts is a point-in-time snapshot of the validator's running totals.
type Counts struct {
	EventsProcessed  uint64
	TradesValidated  uint64
	ValidationErrors uint64
}

// Snapshot returns the current counter values. Safe to call from any
// goroutine while Validate runs concurrently on its owner.
func (v *Validator) Snapshot() Counts {
	return Counts{
		EventsProcessed:  atomic.LoadUint64(&v.eventsProcessed),
		TradesValidated:  atomic.LoadUint64(&v.tradesValidated),
		ValidationErrors: atomic.LoadUint64(&v.validationErrors),
	}
}
