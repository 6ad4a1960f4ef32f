// Package datecache maintains the per-worker RFC 1123 GMT date strings the
// Responder copies into every response's Date and Expires headers, without
// a time.Format call (or a lock) on the request path.
//
// The original refreshes these strings once a second from a dedicated
// per-thread field. Here a Cache owns a background goroutine that does the
// same, and hands out a read-only Snapshot by value, so the Responder never
// touches a mutex. The injectable clock is
// github.com/jacobsa/timeutil.Clock, the same abstraction jacobsa-fuse uses
// to pin wall-clock-dependent fields (ModTime) in its own tests.
package datecache

import (
	"sync/atomic"
	"time"

	"github.com/jacobsa/timeutil"
)

// dateLayout is the fixed-width RFC 1123 GMT format the wire protocol
// requires: always 29 bytes, e.g. "Mon, 02 Jan 2006 15:04:05 GMT".
const dateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// ExpiresOffset is how far into the future the Expires header points.
// The original lwan hard-codes this as well; it is not meant to be a real
// cache-control policy, just a default some clients still look at.
const ExpiresOffset = 10 * time.Second

// Snapshot is the pair of 29-byte RFC 1123 GMT strings a Responder copies
// by value into a response's header buffer.
type Snapshot struct {
	Date    string
	Expires string
}

// Cache refreshes a Snapshot once a second in the background and hands out
// the current one without locking.
type Cache struct {
	clock timeutil.Clock
	value atomic.Value // holds Snapshot

	stop chan struct{}
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the clock used to compute Date/Expires, for
// deterministic tests.
func WithClock(clock timeutil.Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

// New creates a Cache and starts its refresh goroutine. Call Stop when the
// owning worker shuts down.
func New(opts ...Option) *Cache {
	c := &Cache{
		clock: timeutil.RealClock(),
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.refresh()
	go c.loop()
	return c
}

func (c *Cache) loop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.refresh()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) refresh() {
	now := c.clock.Now().UTC()
	c.value.Store(Snapshot{
		Date:    now.Format(dateLayout),
		Expires: now.Add(ExpiresOffset).Format(dateLayout),
	})
}

// Get returns the current Snapshot.
func (c *Cache) Get() Snapshot {
	return c.value.Load().(Snapshot)
}

// Stop terminates the refresh goroutine.
func (c *Cache) Stop() {
	close(c.stop)
}
