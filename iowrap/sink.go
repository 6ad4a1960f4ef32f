// Package iowrap is the byte-sink external collaborator the Responder
// writes through: a single-buffer send and a gathered write, both potential
// suspension points per spec.md §5 — when the underlying transport would
// block, these wrappers yield a wait-for-writable code through the bound
// Coro rather than blocking it outright, the same substitution lwan's
// lwan-io-wrappers.c makes around raw send(2)/writev(2).
package iowrap

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/coroserve/coroserve/coro"
)

// Flags mirrors the handful of send(2) flags the Responder actually uses.
type Flags int

const (
	// FlagMore hints that more data immediately follows (MSG_MORE),
	// used when flushing chunked/SSE headers ahead of the first frame.
	FlagMore Flags = 1 << iota
)

// ErrClosed is returned by a Sink whose underlying connection is closed.
var ErrClosed = errors.New("iowrap: sink closed")

// Sink is the byte-sink external collaborator.
type Sink interface {
	// Send writes buf in a single operation.
	Send(c *coro.Coro, buf []byte, flags Flags) error

	// Writev performs a gathered write of segments as a single operation.
	Writev(c *coro.Coro, segments ...[]byte) error
}

// pollInterval bounds how long the portable Sink's write deadline waits
// before re-checking for a would-block condition and yielding to the host.
const pollInterval = 20 * time.Millisecond

// isClosed reports whether err indicates the underlying connection is
// already closed: net.ErrClosed covers real net.Conn implementations since
// Go 1.16, io.ErrClosedPipe covers net.Pipe.
func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}

// wrapIfClosed reports a closed-connection write through ErrClosed, so
// callers can errors.Is against it instead of matching transport-specific
// errors, while keeping the original error visible via %v.
func wrapIfClosed(err error) error {
	if isClosed(err) {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}
