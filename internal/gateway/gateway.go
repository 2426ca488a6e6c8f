package gateway

import (
	"context"
	"time"

	"github.com/yanun0323/decimal"
	"github.com/yanun0323/logs"

	goerrors "github.com/JulianZhan/trading-ledger/internal/errors"
	"github.com/JulianZhan/trading-ledger/internal/eventlog"
	"github.com/JulianZhan/trading-ledger/internal/ledger"
	"github.com/JulianZhan/trading-ledger/internal/obs"
)

// ErrTradeConflict is returned when a trade_id already exists with a
// payload that doesn't match the incoming request, mirroring
// TradeService.java's ConflictException.
var ErrTradeConflict = goerrors.New("gateway: trade exists with a different payload")

// CreateTradeRequest mirrors CreateTradeRequest.java.
type CreateTradeRequest struct {
	TradeID   string
	AccountID string
	Symbol    string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Side      ledger.Side
}

// TradeResponse mirrors TradeResponse.java.
type TradeResponse struct {
	TradeID     string
	AccountID   string
	Symbol      string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Side        ledger.Side
	TimestampNs int64
	CreatedAt   time.Time
	Idempotent  bool
}

// Gateway wires the ledger store and the event log writer behind a
// single Submit operation.
type Gateway struct {
	store   *ledger.Store
	writer  *eventlog.Writer
	clock   func() int64
	metrics *obs.Metrics
	traceID *obs.TraceGenerator
}

// New constructs a Gateway over an already-migrated ledger store and an
// open event log writer.
func New(store *ledger.Store, writer *eventlog.Writer) *Gateway {
	return &Gateway{
		store:   store,
		writer:  writer,
		clock:   func() int64 { return time.Now().UnixNano() },
		metrics: obs.NewMetrics(),
		traceID: obs.NewTraceGenerator(0),
	}
}

// Metrics exposes the trades.created/idempotent/conflict counters.
func (g *Gateway) Metrics() *obs.Metrics { return g.metrics }

// Submit creates a trade, or returns the existing one if the trade_id was
// already submitted with an identical payload. It returns
// ErrTradeConflict if the trade_id exists with a different payload.
func (g *Gateway) Submit(ctx context.Context, req CreateTradeRequest) (TradeResponse, error) {
	trace := g.traceID.Next()

	existing, err := g.store.FindByTradeID(ctx, req.TradeID)
	if err != nil {
		return TradeResponse{}, err
	}
	if existing != nil {
		if payloadMatches(*existing, req) {
			logs.Infof("gateway: trace=%d trade %s already exists with same payload, returning existing", trace, req.TradeID)
			g.metrics.IncTradesIdempotent()
			resp := tradeToResponse(*existing)
			resp.Idempotent = true
			return resp, nil
		}
		logs.Errorf("gateway: trace=%d trade %s already exists with a different payload", trace, req.TradeID)
		g.metrics.IncTradesConflict()
		return TradeResponse{}, ErrTradeConflict
	}

	trade := ledger.Trade{
		TradeID:     req.TradeID,
		AccountID:   req.AccountID,
		Symbol:      req.Symbol,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Side:        req.Side,
		TimestampNs: g.clock(),
	}

	if _, err := g.store.CreateTradeWithEntries(ctx, trade); err != nil {
		return TradeResponse{}, err
	}
	logs.Infof("gateway: trace=%d trade %s created", trace, req.TradeID)
	g.metrics.IncTradesCreated()

	if _, err := g.writer.AppendTradeCreated(eventlog.TradeCreated{
		TradeID:     trade.TradeID,
		AccountID:   trade.AccountID,
		Symbol:      trade.Symbol,
		Quantity:    trade.Quantity,
		Price:       trade.Price,
		Side:        eventlog.TradeSide(trade.Side),
		TimestampNs: trade.TimestampNs,
	}); err != nil {
		logs.Errorf("gateway: write event log for trade %s, err: %+v", trade.TradeID, err)
		return TradeResponse{}, err
	}

	return tradeToResponse(trade), nil
}

func payloadMatches(existing ledger.Trade, req CreateTradeRequest) bool {
	return existing.AccountID == req.AccountID &&
		existing.Symbol == req.Symbol &&
		existing.Quantity.Cmp(req.Quantity) == 0 &&
		existing.Price.Cmp(req.Price) == 0 &&
		existing.Side == req.Side
}

func tradeToResponse(t ledger.Trade) TradeResponse {
	return TradeResponse{
		TradeID:     t.TradeID,
		AccountID:   t.AccountID,
		Symbol:      t.Symbol,
		Quantity:    t.Quantity,
		Price:       t.Price,
		Side:        t.Side,
		TimestampNs: t.TimestampNs,
		CreatedAt:   t.CreatedAt,
	}
}
