package kernel

import "sync/atomic"

// IDAllocator hands out face IDs. IDs are never reused, which makes an ID a
// durable provenance token: two solids authored against the same allocator
// can be combined without their face IDs colliding.
type IDAllocator interface {
	// Reserve reserves n consecutive IDs and returns the first one.
	Reserve(n int) uint32
}

// Counter is a monotonic, concurrency-safe IDAllocator.
type Counter struct {
	next atomic.Uint32
}

// NewCounter returns a Counter whose first reserved ID is start.
func NewCounter(start uint32) *Counter {
	c := &Counter{}
	c.next.Store(start)
	return c
}

// Reserve implements IDAllocator.
func (c *Counter) Reserve(n int) uint32 {
	if n < 1 {
		n = 1
	}
	end := c.next.Add(uint32(n))
	return end - uint32(n)
}

var defaultAllocator = NewCounter(1)

// DefaultAllocator returns the process-wide allocator used by engines that
// were not given one explicitly.
func DefaultAllocator() IDAllocator {
	return defaultAllocator
}
