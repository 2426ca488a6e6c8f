package ledger

import (
	"context"
	"errors"

	"github.com/yanun0323/decimal"
	"gorm.io/gorm"

	goerrors "github.com/JulianZhan/trading-ledger/internal/errors"
	"github.com/JulianZhan/trading-ledger/pkg/conn"
)

// ErrUnbalancedEntries is raised if a trade's DEBIT and CREDIT entries
// don't sum to zero after insertion, mirroring LedgerService.java's
// post-insert invariant check.
var ErrUnbalancedEntries = goerrors.New("ledger: double-entry invariant violated")

// Store persists trades and their ledger entries.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an established PostgreSQL connection.
func NewStore(client *conn.Client) *Store {
	return &Store{db: client.DB()}
}

// AutoMigrate creates or updates the trades and ledger_entries tables.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&Trade{}, &LedgerEntry{})
}

// FindByTradeID returns the trade with the given business trade_id, or
// nil if none exists.
func (s *Store) FindByTradeID(ctx context.Context, tradeID string) (*Trade, error) {
	var t Trade
	err := s.db.WithContext(ctx).Where("trade_id = ?", tradeID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, goerrors.Wrap(err, "ledger: find trade by trade_id")
	}
	return &t, nil
}

// CreateTradeWithEntries inserts trade and its two ledger entries in a
// single transaction, then verifies the double-entry invariant holds.
// amount = quantity * price, written once as a DEBIT and once as a
// CREDIT, matching LedgerService.java.
func (s *Store) CreateTradeWithEntries(ctx context.Context, trade Trade) ([]LedgerEntry, error) {
	amount := trade.Quantity.Mul(trade.Price)

	debit := LedgerEntry{
		TradeID:     trade.TradeID,
		AccountID:   trade.AccountID,
		EntryType:   EntryDebit,
		Amount:      amount,
		TimestampNs: trade.TimestampNs,
	}
	credit := LedgerEntry{
		TradeID:     trade.TradeID,
		AccountID:   trade.AccountID,
		EntryType:   EntryCredit,
		Amount:      amount,
		TimestampNs: trade.TimestampNs,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&trade).Error; err != nil {
			return err
		}
		if err := tx.Create(&debit).Error; err != nil {
			return err
		}
		if err := tx.Create(&credit).Error; err != nil {
			return err
		}

		sum, err := sumEntriesByTradeID(tx, trade.TradeID)
		if err != nil {
			return err
		}
		if !sum.IsZero() {
			return ErrUnbalancedEntries
		}
		return nil
	})
	if err != nil {
		return nil, goerrors.Wrap(err, "ledger: create trade with entries")
	}

	return []LedgerEntry{debit, credit}, nil
}

// EntriesByTradeID returns every ledger entry for a trade, DEBIT and
// CREDIT alike.
func (s *Store) EntriesByTradeID(ctx context.Context, tradeID string) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	if err := s.db.WithContext(ctx).Where("trade_id = ?", tradeID).Find(&entries).Error; err != nil {
		return nil, goerrors.Wrap(err, "ledger: entries by trade_id")
	}
	return entries, nil
}

// sumEntriesByTradeID computes SUM(DEBIT) - SUM(CREDIT), the signed sum
// LedgerEntryMapper.sumEntriesByTradeId computes in SQL.
func sumEntriesByTradeID(tx *gorm.DB, tradeID string) (decimal.Decimal, error) {
	var entries []LedgerEntry
	if err := tx.Where("trade_id = ?", tradeID).Find(&entries).Error; err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, e := range entries {
		switch e.EntryType {
		case EntryDebit:
			sum = sum.Add(e.Amount)
		case EntryCredit:
			sum = sum.Sub(e.Amount)
		}
	}
	return sum, nil
}
