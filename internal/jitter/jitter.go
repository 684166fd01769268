// ABOUTME: Pacing buffer smoothing irregular packet arrival into steady playback
// ABOUTME: Bounded queue with a full-drain-on-overflow policy
package jitter

// Buffer is a bounded FIFO that decouples an irregular producer (network
// arrivals) from a steady consumer (audio hardware pulls). It is not an
// adaptive jitter buffer: it holds values until the bound is exceeded and
// then bursts everything out at once.
type Buffer[T any] struct {
	items    []T
	capacity int
}

// New creates a pacing buffer with the given capacity.
func New[T any](capacity int) *Buffer[T] {
	return &Buffer[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// PushAndDrain enqueues v. If the buffer already holds at least capacity
// values, all queued values are removed and returned first, so the caller
// gets a batch to flush downstream while v starts the next batch. Returns
// nil while the buffer is still filling.
func (b *Buffer[T]) PushAndDrain(v T) []T {
	if len(b.items) >= b.capacity {
		drained := b.items
		b.items = make([]T, 0, b.capacity)
		b.items = append(b.items, v)
		return drained
	}

	b.items = append(b.items, v)
	return nil
}

// Len reports the number of queued values.
func (b *Buffer[T]) Len() int {
	return len(b.items)
}
