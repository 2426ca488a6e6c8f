/*
Package consumer wires the event log reader, the ring buffer, the
validator, and the latency histogram into the three-goroutine pipeline
that plays back a trading-ledger event log: one goroutine tails and reads
frames, one goroutine validates them and records latency, and one
goroutine reports periodic totals.

# Module
  - Consumer: owns the pipeline and its three goroutines

# Source
  - an eventlog.Reader positioned at the start of a log file, tailed via
    an eventlog.Tailer as the writer process appends new frames

# Produce
  - validator counters and latency histogram summaries, logged
    periodically and available for a caller to query after shutdown

# Sharded
  - none; one Consumer per process, matching the one-writer-one-reader
    process model
*/
package consumer
