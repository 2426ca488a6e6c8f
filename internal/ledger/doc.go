/*
Package ledger persists trades and their double-entry bookkeeping
records: every trade produces a balanced DEBIT/CREDIT pair, enforced as a
single transaction.

# Module
  - Trade: the persisted record of a submitted trade
  - LedgerEntry: one half of a trade's double-entry pair
  - Store: gorm-backed persistence and the idempotency/invariant checks

# Source
  - CreateTradeRequest values accepted by the gateway's Submit operation

# Produce
  - rows in the `trades` and `ledger_entries` tables, queryable by
    trade_id or account_id

# Sharded
  - none; a single PostgreSQL database, one row set per account
*/
package ledger
