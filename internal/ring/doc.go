/*
Package ring implements a lock-free single-producer/single-consumer ring
buffer: cache-line-isolated head/tail indices, power-of-two capacity, and
wait-free TryPush/TryPop with explicit acquire/release ordering.

# Module
  - Ring: the bounded queue itself

# Source
  - events read by the consumer process's producer goroutine

# Produce
  - events consumed by the validator/histogram goroutine

# Sharded
  - none; exactly one producer and one consumer goroutine
*/
package ring
