// Package ring implements the byte ring between the socket producer and the
// frame consumer: single producer, single consumer, fixed capacity.
//
// Cursors are monotonically increasing byte counts; physical indices are
// derived by modulo at access time, so size is always tail-head regardless
// of wraps. One byte is kept unused to distinguish empty from full. The hot
// path needs only acquire/release atomics on the two cursors; a mutex and
// two condition variables exist solely for the blocking primitives.
package ring

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the ring size used when the config does not override it.
const DefaultCapacity = 16 * 1024 * 1024

type Ring struct {
	buf []byte

	head atomic.Uint64 // total bytes consumed; advanced only by the consumer
	tail atomic.Uint64 // total bytes produced; advanced only by the producer
	gen  atomic.Uint64

	mu     sync.Mutex
	data   *sync.Cond // signaled when bytes become readable
	space  *sync.Cond // signaled when bytes become writable
	closed atomic.Bool
}

func New(capacity int) *Ring {
	if capacity < 2 {
		panic(fmt.Sprintf("ring: capacity %d too small", capacity))
	}
	r := &Ring{buf: make([]byte, capacity)}
	r.data = sync.NewCond(&r.mu)
	r.space = sync.NewCond(&r.mu)
	return r
}

// Capacity returns the usable capacity in bytes (one byte is reserved).
func (r *Ring) Capacity() int { return len(r.buf) - 1 }

// Size returns the number of readable bytes.
func (r *Ring) Size() int {
	return int(r.tail.Load() - r.head.Load())
}

// FreeSpace returns the number of writable bytes.
func (r *Ring) FreeSpace() int { return r.Capacity() - r.Size() }

// Empty reports whether no bytes are readable.
func (r *Ring) Empty() bool { return r.Size() == 0 }

// Generation returns the resync counter, incremented by Clear.
func (r *Ring) Generation() uint64 { return r.gen.Load() }

// WritableSlice returns the longest contiguous writable run. It may be
// empty when the ring is full. Producer only.
func (r *Ring) WritableSlice() []byte {
	head := r.head.Load()
	tail := r.tail.Load()
	free := r.Capacity() - int(tail-head)
	if free <= 0 {
		return nil
	}
	pos := int(tail % uint64(len(r.buf)))
	run := len(r.buf) - pos
	if run > free {
		run = free
	}
	return r.buf[pos : pos+run]
}

// Enqueue publishes n bytes previously written into WritableSlice.
// Producer only.
func (r *Ring) Enqueue(n int) error {
	if n < 0 || n > len(r.WritableSlice()) {
		return fmt.Errorf("ring: enqueue %d exceeds writable run", n)
	}
	r.tail.Add(uint64(n))
	r.mu.Lock()
	r.data.Broadcast()
	r.mu.Unlock()
	return nil
}

// PeekFirst returns the first contiguous readable segment. Consumer only.
func (r *Ring) PeekFirst() []byte {
	head := r.head.Load()
	size := int(r.tail.Load() - head)
	if size == 0 {
		return nil
	}
	pos := int(head % uint64(len(r.buf)))
	run := len(r.buf) - pos
	if run > size {
		run = size
	}
	return r.buf[pos : pos+run]
}

// PeekSecond returns the wrapped remainder after PeekFirst, empty unless
// the readable region crosses the end of the buffer. Consumer only.
func (r *Ring) PeekSecond() []byte {
	head := r.head.Load()
	size := int(r.tail.Load() - head)
	pos := int(head % uint64(len(r.buf)))
	run := len(r.buf) - pos
	if size <= run {
		return nil
	}
	return r.buf[:size-run]
}

// Dequeue releases n consumed bytes. Consumer only.
func (r *Ring) Dequeue(n int) error {
	if n < 0 || n > r.Size() {
		return fmt.Errorf("ring: dequeue %d exceeds size %d", n, r.Size())
	}
	r.head.Add(uint64(n))
	r.mu.Lock()
	r.space.Broadcast()
	r.mu.Unlock()
	return nil
}

// Clear drops all buffered bytes and bumps the generation counter so a
// consumer mid-scan can detect the resync. Memory is retained.
func (r *Ring) Clear() {
	r.mu.Lock()
	r.head.Store(r.tail.Load())
	r.gen.Add(1)
	r.space.Broadcast()
	r.mu.Unlock()
}

// WaitForData blocks until more than min bytes are readable or the ring is
// closed. It returns false once the ring is closed.
func (r *Ring) WaitForData(min int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.Size() <= min && !r.closed.Load() {
		r.data.Wait()
	}
	return !r.closed.Load()
}

// WaitForSpace blocks until at least n bytes are writable or the ring is
// closed. It returns false once the ring is closed.
func (r *Ring) WaitForSpace(n int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.FreeSpace() < n && !r.closed.Load() {
		r.space.Wait()
	}
	return !r.closed.Load()
}

// Close wakes every waiter permanently. The buffered bytes stay readable.
func (r *Ring) Close() {
	r.mu.Lock()
	r.closed.Store(true)
	r.data.Broadcast()
	r.space.Broadcast()
	r.mu.Unlock()
}

// Closed reports whether Close has been called.
func (r *Ring) Closed() bool { return r.closed.Load() }
