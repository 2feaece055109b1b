// Package ringbuf provides a bounded lock-free queue of frames for one
// producer and one consumer.
package ringbuf

import (
	"sync/atomic"

	"github.com/dudk/rack/value"
)

// Ring is a single-producer single-consumer queue. Push must be called
// from one goroutine and Pop from another one. Neither of them blocks.
type Ring struct {
	buf []value.Frame
	// head is advanced by consumer, tail by producer.
	head atomic.Uint64
	tail atomic.Uint64
}

// New returns ring with capacity of n frames. Capacity is at least 1.
func New(n int) *Ring {
	if n < 1 {
		n = 1
	}
	return &Ring{buf: make([]value.Frame, n)}
}

// Cap returns capacity of the ring.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Len returns number of queued frames.
func (r *Ring) Len() int {
	head := r.head.Load()
	return int(r.tail.Load() - head)
}

// Free returns number of frames which can be pushed.
func (r *Ring) Free() int {
	return r.Cap() - r.Len()
}

// Full reports if push would fail.
func (r *Ring) Full() bool {
	return r.Free() == 0
}

// Push appends the frame. It returns false if the ring is full.
func (r *Ring) Push(f value.Frame) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() >= uint64(len(r.buf)) {
		return false
	}
	r.buf[tail%uint64(len(r.buf))] = f
	r.tail.Store(tail + 1)
	return true
}

// Pop removes the oldest frame. It returns false if the ring is empty.
func (r *Ring) Pop() (value.Frame, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return value.Silence, false
	}
	f := r.buf[head%uint64(len(r.buf))]
	r.head.Store(head + 1)
	return f, true
}
