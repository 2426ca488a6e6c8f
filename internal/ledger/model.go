package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/decimal"
	"gorm.io/gorm"
)

// Side is the direction of a trade, mirroring eventlog.TradeSide for the
// persisted domain.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// EntryType distinguishes the two halves of a double-entry pair.
type EntryType string

const (
	EntryDebit  EntryType = "DEBIT"
	EntryCredit EntryType = "CREDIT"
)

// Trade is the persisted record of one trade submission.
type Trade struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TradeID     string    `gorm:"column:trade_id;uniqueIndex;size:128"`
	AccountID   string    `gorm:"column:account_id;size:64;index"`
	Symbol      string    `gorm:"size:16"`
	Quantity    decimal.Decimal `gorm:"type:numeric;serializer:decimalstring"`
	Price       decimal.Decimal `gorm:"type:numeric;serializer:decimalstring"`
	Side        Side
	TimestampNs int64     `gorm:"column:timestamp_ns"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// TableName pins the table name the way gorm's pluralization would
// already produce, kept explicit for clarity.
func (Trade) TableName() string { return "trades" }

// BeforeCreate assigns a UUID primary key when the caller hasn't set one.
func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// LedgerEntry is one DEBIT or CREDIT row belonging to a trade.
type LedgerEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TradeID     string    `gorm:"column:trade_id;index;size:128"`
	AccountID   string    `gorm:"column:account_id;size:64"`
	EntryType   EntryType
	Amount      decimal.Decimal `gorm:"type:numeric;serializer:decimalstring"`
	TimestampNs int64     `gorm:"column:timestamp_ns"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

// BeforeCreate assigns a UUID primary key when the caller hasn't set one.
func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
