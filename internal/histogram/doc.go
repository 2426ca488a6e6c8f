/*
Package histogram tracks nanosecond latency samples and reports order
statistics: count, min, mean, and arbitrary percentiles.

# Module
  - Histogram: insertion and percentile queries over a latency multiset

# Source
  - elapsed times measured by the consumer process between popping an
    event off the ring and finishing its validation

# Produce
  - summary lines consumed by operators / regression gates

# Sharded
  - none; owned by a single goroutine (the consumer thread)
*/
package histogram
