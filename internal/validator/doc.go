/*
Package validator checks decoded events for domain well-formedness and
keeps the counters the consumer process reports on its periodic summary
line.

# Module
  - Validator: stateless field checks plus atomic counters

# Source
  - events popped off the ring buffer by the consumer process

# Produce
  - a pass/fail verdict per event, and running totals of
    events_processed, trades_validated, and validation_errors

# Sharded
  - none; one Validator per consumer goroutine, counters safe for
    concurrent Snapshot reads from the monitor goroutine
*/
package validator
