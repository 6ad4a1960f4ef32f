package iowrap

import (
	"net"
	"time"

	"github.com/coroserve/coroserve/coro"
)

// connSink is the portable Sink: it drives an arbitrary net.Conn through
// short write deadlines, yielding coro.WaitWrite to the bound Coro whenever
// a write would otherwise block, instead of parking the calling goroutine
// for an unbounded time. It works with any net.Conn, including net.Pipe,
// which makes it the one exercised by this package's tests.
type connSink struct {
	conn net.Conn
}

// NewConnSink wraps conn in the portable Sink implementation.
func NewConnSink(conn net.Conn) Sink {
	return &connSink{conn: conn}
}

func (s *connSink) Send(c *coro.Coro, buf []byte, flags Flags) error {
	return s.writev(c, [][]byte{buf})
}

func (s *connSink) Writev(c *coro.Coro, segments ...[]byte) error {
	return s.writev(c, segments)
}

func (s *connSink) writev(c *coro.Coro, segments [][]byte) error {
	buffers := net.Buffers(append([][]byte(nil), segments...))
	for len(buffers) > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(pollInterval)); err != nil {
			return wrapIfClosed(err)
		}
		_, err := buffers.WriteTo(s.conn)
		if err == nil {
			return nil
		}
		if !isTimeout(err) {
			return wrapIfClosed(err)
		}
		if c != nil {
			c.Yield(coro.WaitWrite)
		}
	}
	return nil
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
