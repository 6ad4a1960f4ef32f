package coro

import (
	"fmt"
	"sync"
)

// scratchPool backs Scratch: byte slices acquired for the lifetime of a
// generation and released back to the pool when that generation unwinds,
// the one case in a garbage-collected runtime where "early release,
// observable until the next matching DeferredRun or Free" (the original
// coro_malloc contract) has any effect — everywhere else, a Go value simply
// lives until the garbage collector reclaims it, so Strdup and Sprintf below
// register no cleanup at all.
var scratchPool = sync.Pool{
	New: func() any { return make([]byte, 0, 256) },
}

// Scratch returns a byte slice of length size, registering a deferred
// action against the Coro's current generation that returns it to an
// internal pool. It is the generalization of coro_malloc to a
// garbage-collected runtime: the slice remains valid after the generation
// unwinds (Go does not use-after-free), but reusing it past that point
// defeats the pooling this helper exists for.
func (c *Coro) Scratch(size int) []byte {
	buf := scratchPool.Get().([]byte)
	if cap(buf) < size {
		buf = make([]byte, size)
	} else {
		buf = buf[:size]
	}
	for i := range buf {
		buf[i] = 0
	}

	c.Defer(func(data any) {
		b := data.([]byte)
		scratchPool.Put(b[:0]) //nolint:staticcheck // reset length, keep capacity
	}, buf)

	return buf
}

// Strdup returns a copy of s. Unlike the C original there is no allocation
// to free, so no deferred action is registered — see the scratchPool
// comment above.
func (c *Coro) Strdup(s string) string {
	b := make([]byte, len(s))
	copy(b, s)
	return string(b)
}

// Strndup returns a copy of the first n bytes of s (or all of s if shorter).
func (c *Coro) Strndup(s string, n int) string {
	if n > len(s) {
		n = len(s)
	}
	return c.Strdup(s[:n])
}

// Sprintf formats according to a format specifier, returning the result.
// Named Sprintf rather than Printf/CoroPrintf since it returns a string
// instead of writing to a stream, matching Go's fmt naming.
func (c *Coro) Sprintf(format string, a ...any) string {
	return fmt.Sprintf(format, a...)
}
