/*
Package eventlog implements the append-only binary event log at the heart
of the trading-ledger pipeline.

# Module
  - frame: serialize/parse a single event frame and the file header
  - writer: own the log file, assign sequence numbers, append atomically
  - reader: memory-map the log and yield frames in order
  - tailer: block until the log file has likely grown

# Source
  - trade submissions from the out-of-scope HTTP/gateway surface

# Produce
  - a strictly ordered stream of TRADE_CREATED (and future) event frames

# Sharded
  - none; single file, single writer process
*/
package eventlog
