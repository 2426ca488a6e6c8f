package ring

import (
	"sync/atomic"

	goerrors "github.com/JulianZhan/trading-ledger/internal/errors"
)

// cacheLine is the typical x86-64 cache line size used for padding.
const cacheLine = 64

// ErrInvalidCapacity is returned by New when capacity is not a positive
// power of two. A fixed-size C++ ring would enforce this with a
// static_assert at compile time; Go generics take capacity as a runtime
// argument, so the same check is a constructor error instead.
var ErrInvalidCapacity = goerrors.New("ring: capacity must be a power of two greater than zero")

// Ring is a lock-free, wait-free single-producer/single-consumer queue.
// Exactly one goroutine may call TryPush; exactly one (different) goroutine
// may call TryPop. Violating that is undefined behavior.
//
// head, tail, and the backing buffer each sit far enough apart to avoid
// false sharing: Go has no alignas(64) equivalent, so each atomic index is
// followed by cacheLine-8 bytes of filler.
type Ring[T any] struct {
	buf  []T
	mask uint64

	_pad0 [cacheLine]byte
	head  atomic.Uint64 // consumer-owned read index
	_pad1 [cacheLine - 8]byte
	tail  atomic.Uint64 // producer-owned write index
	_pad2 [cacheLine - 8]byte
}

// New allocates a ring buffer of the given capacity, which must be a
// positive power of two. Usable capacity is capacity-1: one slot is
// reserved to disambiguate full from empty without a separate counter.
func New[T any](capacity int) (*Ring[T], error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, ErrInvalidCapacity
	}
	return &Ring[T]{
		buf:  make([]T, capacity),
		mask: uint64(capacity - 1),
	}, nil
}

// TryPush writes item into the ring. It returns false without blocking if
// the ring is full.
//
// Ordering: the acquire load of head observes every slot the consumer has
// freed via its release store; the release store of tail publishes this
// item's write to whichever goroutine next acquires tail in TryPop. Go's
// sync/atomic does not expose separate acquire/release orderings (every
// operation is sequentially consistent), a strictly stronger guarantee
// than a C++ acquire/release pairing would need, so it's satisfied by
// construction.
func (r *Ring[T]) TryPush(item T) bool {
	tail := r.tail.Load() // only this goroutine ever writes tail
	next := (tail + 1) & r.mask

	if next == r.head.Load() { // acquire: see consumer's latest progress
		return false
	}

	r.buf[tail] = item
	r.tail.Store(next) // release: publish the write above
	return true
}

// TryPop reads the next item from the ring. It returns false without
// blocking if the ring is empty.
func (r *Ring[T]) TryPop() (T, bool) {
	head := r.head.Load() // only this goroutine ever writes head

	if head == r.tail.Load() { // acquire: see producer's latest progress
		var zero T
		return zero, false
	}

	item := r.buf[head]
	r.head.Store((head + 1) & r.mask) // release: publish the freed slot
	return item, true
}

// Empty reports whether the ring currently holds no items. Advisory only:
// it uses unsynchronized reads and may be stale by the time the caller
// acts on it.
func (r *Ring[T]) Empty() bool {
	return r.head.Load() == r.tail.Load()
}

// Size returns the approximate number of queued items. Advisory only, for
// the same reason as Empty.
func (r *Ring[T]) Size() int {
	head := r.head.Load()
	tail := r.tail.Load()
	if tail >= head {
		return int(tail - head)
	}
	return int(uint64(len(r.buf)) - head + tail)
}

// Capacity returns the ring's usable capacity (SIZE-1). Unlike Empty and
// Size, this is exact: it never changes after construction.
func (r *Ring[T]) Capacity() int {
	return len(r.buf) - 1
}
