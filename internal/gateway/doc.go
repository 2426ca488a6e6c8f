/*
Package gateway accepts trade submissions, enforces the idempotency
contract from the original trade service, and fans each accepted trade
out to both the ledger store and the event log.

# Module
  - Gateway: Submit, the single entrypoint this package exposes

# Source
  - CreateTradeRequest values from an out-of-scope transport (HTTP is a
    named non-goal; this package is transport-agnostic)

# Produce
  - a persisted Trade + balanced ledger entries, and a TRADE_CREATED
    frame appended to the event log

# Sharded
  - none; one Gateway per process, guarded by the ledger store's own
    transaction and the event log writer's mutex
*/
package gateway
