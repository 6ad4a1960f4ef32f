// Package coro implements the stackful-coroutine execution core shared by
// every connection a server handles: cooperative suspension with a
// rendezvous value, and a deferred-cleanup stack that unwinds in strict LIFO
// order on reset, free, or an explicit scoped rewind.
//
// The reference implementation swaps private machine stacks in assembly.
// Go offers no supported way to do that safely, so this package takes the
// alternative the design explicitly sanctions: one goroutine per coroutine,
// synchronized through a pair of unbuffered channels that stand in for the
// caller/callee context slots. Every operation — New, Reset, Resume,
// ResumeValue, Yield, Free, Defer, Defer2, DeferredGeneration, DeferredRun —
// keeps its original name and contract; Free and Reset additionally report
// ErrRunning if the coroutine calls either on itself.
package coro

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Value is the integer rendezvous value exchanged between a Coro and its
// host at every yield/resume. It carries both the return value on
// completion and the handoff value on every suspension.
type Value = int

// Connection-level yield codes. These are the values a Responder yields
// with; the Coro runtime itself is agnostic to their meaning.
const (
	// ConnMayResume is yielded after a chunk or SSE frame has been flushed,
	// offering the host a chance to resume a different connection.
	ConnMayResume Value = iota

	// ConnAbort is yielded when streaming cannot continue (an unrecoverable
	// formatting error, or a write failure surfaced by the byte-sink).
	ConnAbort

	// WaitRead and WaitWrite are yielded internally by I/O wrappers that
	// would otherwise block on EAGAIN/EWOULDBLOCK. Only the write side
	// (iowrap's Sink) has a blocking path today, so only WaitWrite is
	// ever actually yielded; WaitRead is reserved for a future read-side
	// wrapper and is otherwise just vocabulary.
	WaitRead
	WaitWrite
)

// StackMin mirrors CORO_STACK_MIN: 3 * PTHREAD_STACK_MIN / 2 with
// PTHREAD_STACK_MIN floored to 16 KiB, i.e. 24 KiB. Go goroutine stacks grow
// on demand and need no such reservation; StackMin is kept only as the
// documented lower bound a pooled per-request buffer should respect, per the
// original's static assertion that the request buffer fits inside it.
const StackMin = (3 * 16384) / 2

// Func is the body of a coroutine: it receives the Coro it is running on
// (so it can Yield and Defer) and the data it was created or reset with, and
// returns the value the host observes as the result of the final Resume.
type Func func(c *Coro, data any) Value

type deferEntry struct {
	fn func(a, b any)
	a  any
	b  any
}

// Coro is a suspendable execution context with a private goroutine, a
// deferred-cleanup stack, and a yield value shared with its host at every
// handoff.
type Coro struct {
	switcher *Switcher
	fn       Func
	data     any

	resumeCh chan Value // host -> coroutine
	yieldCh  chan Value // coroutine -> host
	killCh   chan struct{}
	doneCh   chan struct{}

	mu      sync.Mutex // guards defers
	defers  []deferEntry

	started bool
	ended   bool

	// runningGID is the id of the goroutine currently executing fn, or 0
	// when no goroutine is. It is set for the entire lifetime of run(),
	// including while that goroutine is blocked inside Yield, since a
	// blocked goroutine cannot itself be the caller of a concurrent
	// Free/Reset — only an active, synchronous self-call can be.
	runningGID atomic.Uint64
}

// New allocates a Coro bound to switcher, ready to run function with data on
// the first Resume. It returns an error in place of the original's null
// sentinel — true allocation failure is not an observable event in a
// garbage-collected runtime, so the only failure modes left are programmer
// error (nil switcher or function).
func New(switcher *Switcher, function Func, data any) (*Coro, error) {
	if switcher == nil {
		return nil, ErrNilSwitcher
	}
	if function == nil {
		return nil, ErrNilFunc
	}

	c := &Coro{switcher: switcher}
	if err := switcher.bind(c); err != nil {
		return nil, err
	}
	c.armChannels()
	c.fn = function
	c.data = data
	return c, nil
}

func (c *Coro) armChannels() {
	c.resumeCh = make(chan Value)
	c.yieldCh = make(chan Value)
	c.killCh = make(chan struct{})
	c.doneCh = make(chan struct{})
}

// Reset re-arms an existing Coro for a new function and argument, running
// all outstanding deferred actions first. This is what lets a server pool
// and reuse the same Coro (and, in the original, the same stack) across
// many requests. Like Free, it reports ErrRunning if called by the
// coroutine's own goroutine.
func (c *Coro) Reset(function Func, data any) error {
	if function == nil {
		return ErrNilFunc
	}
	if c.isSelfCall() {
		return ErrRunning
	}
	if c.started && !c.ended {
		c.kill()
	}

	c.runDeferred(0)
	c.defers = c.defers[:0]

	c.armChannels()
	c.fn = function
	c.data = data
	c.started = false
	c.ended = false
	return nil
}

// Resume transfers control from the host into the coroutine, returning when
// it yields or returns. Equivalent to ResumeValue(c, 0).
func (c *Coro) Resume() (Value, error) {
	return c.ResumeValue(0)
}

// ResumeValue is like Resume, but delivers v as the value the coroutine's
// Yield call observes as its result.
func (c *Coro) ResumeValue(v Value) (Value, error) {
	if c.ended {
		return 0, ErrEnded
	}

	if !c.started {
		c.started = true
		go c.run()
	} else {
		c.resumeCh <- v
	}

	got := <-c.yieldCh
	return got, nil
}

func (c *Coro) run() {
	c.runningGID.Store(getGoroutineID())
	defer c.runningGID.Store(0)
	defer close(c.doneCh)
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(errKilled); ok {
				return
			}
			panic(r)
		}
	}()

	ret := c.fn(c, c.data)
	c.ended = true
	c.yieldCh <- ret
}

// Yield transfers control back to the host, carrying v, and returns the
// next value delivered by a subsequent ResumeValue.
func (c *Coro) Yield(v Value) Value {
	c.yieldCh <- v
	select {
	case got := <-c.resumeCh:
		return got
	case <-c.killCh:
		panic(errKilled{})
	}
}

// isSelfCall reports whether the calling goroutine is the one currently
// running this Coro's function — i.e. the function is calling Free or Reset
// on itself instead of returning or yielding.
func (c *Coro) isSelfCall() bool {
	gid := c.runningGID.Load()
	return gid != 0 && gid == getGoroutineID()
}

// getGoroutineID returns the current goroutine's id, parsed out of its own
// stack trace header. Grounded on the same technique
// joeycumines-go-utilpkg's eventloop.Loop uses to detect same-goroutine
// calls without a dedicated runtime API.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// kill abandons a suspended coroutine without a final resume, unwinding its
// Go-level defers via a recovered panic, and waits for its goroutine to
// exit. It is a no-op if the coroutine never started or already ended.
func (c *Coro) kill() {
	if !c.started || c.ended {
		return
	}
	close(c.killCh)
	<-c.doneCh
}

// Free runs all remaining deferred actions and releases the Coro. The
// caller must not be the coroutine itself — a self-call would have kill()
// wait on a doneCh that only closes when this very goroutine returns from
// run(), deadlocking — so Free reports ErrRunning instead (use DeferredRun
// or return from the function body to clean up from within).
func (c *Coro) Free() error {
	if c.isSelfCall() {
		return ErrRunning
	}
	c.kill()
	c.runDeferred(0)
	c.defers = nil
	c.switcher.release(c)
	return nil
}

// Defer registers a cleanup action invoked with data. Actions run in strict
// LIFO order on reset, free, or a matching DeferredRun.
func (c *Coro) Defer(f func(data any), data any) {
	c.Defer2(func(a, _ any) { f(a) }, data, nil)
}

// Defer2 is Defer with two data arguments, mirroring coro_defer2.
func (c *Coro) Defer2(f func(data1, data2 any), data1, data2 any) {
	c.mu.Lock()
	c.defers = append(c.defers, deferEntry{fn: f, a: data1, b: data2})
	c.mu.Unlock()
}

// DeferredGeneration captures the current depth of the deferred-action
// stack, to be passed to a later DeferredRun.
func (c *Coro) DeferredGeneration() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.defers)
}

// DeferredRun invokes and pops every deferred action registered after
// generation, in LIFO order, implementing scoped cleanup (e.g. one
// keep-alive request's worth of cleanup within a long-lived connection
// coroutine).
func (c *Coro) DeferredRun(generation int) {
	c.runDeferred(generation)
}

func (c *Coro) runDeferred(generation int) {
	c.mu.Lock()
	defers := c.defers
	c.mu.Unlock()

	for i := len(defers); i > generation; i-- {
		d := defers[i-1]
		d.fn(d.a, d.b)
	}

	c.mu.Lock()
	c.defers = c.defers[:generation]
	c.mu.Unlock()
}

// Ended reports whether the coroutine's function has returned.
func (c *Coro) Ended() bool {
	return c.ended
}
