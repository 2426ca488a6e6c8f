package ring_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JulianZhan/trading-ledger/internal/ring"
)

func TestNewRejectsNonPowerOfTwoCapacity(t *testing.T) {
	_, err := ring.New[int](3)
	assert.ErrorIs(t, err, ring.ErrInvalidCapacity)

	_, err = ring.New[int](0)
	assert.ErrorIs(t, err, ring.ErrInvalidCapacity)

	_, err = ring.New[int](-8)
	assert.ErrorIs(t, err, ring.ErrInvalidCapacity)
}

func TestCapacityIsSizeMinusOne(t *testing.T) {
	r, err := ring.New[int](8)
	require.NoError(t, err)
	assert.Equal(t, 7, r.Capacity())
}

func TestEmptyRingPopFails(t *testing.T) {
	r, err := ring.New[int](4)
	require.NoError(t, err)
	assert.True(t, r.Empty())

	_, ok := r.TryPop()
	assert.False(t, ok)
}

func TestFullRingRejectsPush(t *testing.T) {
	r, err := ring.New[int](4)
	require.NoError(t, err)

	for i := 0; i < r.Capacity(); i++ {
		require.True(t, r.TryPush(i))
	}
	assert.False(t, r.TryPush(99), "ring must reject a push once at capacity")
}

func TestPushPopPreservesFIFOOrder(t *testing.T) {
	r, err := ring.New[int](8)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.True(t, r.TryPush(i))
	}
	for i := 0; i < 5; i++ {
		v, ok := r.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

// TestConcurrentSPSCDeliversEveryItemExactlyOnce is a goroutine-based
// stress test of the single-producer/single-consumer contract: one
// goroutine pushes, a different goroutine pops, and every pushed value
// must be observed by the consumer exactly once, in order, with no locks
// involved on either side.
func TestConcurrentSPSCDeliversEveryItemExactlyOnce(t *testing.T) {
	const n = 200_000
	r, err := ring.New[int](1024)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !r.TryPush(i) {
				// spin; the ring is bounded and the consumer drains concurrently
			}
		}
	}()

	received := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for len(received) < n {
			v, ok := r.TryPop()
			if !ok {
				continue
			}
			received = append(received, v)
		}
	}()

	wg.Wait()

	require.Len(t, received, n)
	for i, v := range received {
		assert.Equal(t, i, v)
	}
}

func TestSizeReflectsPendingItems(t *testing.T) {
	r, err := ring.New[int](8)
	require.NoError(t, err)

	assert.Equal(t, 0, r.Size())
	for i := 0; i < 3; i++ {
		r.TryPush(i)
	}
	assert.Equal(t, 3, r.Size())

	r.TryPop()
	assert.Equal(t, 2, r.Size())
}
