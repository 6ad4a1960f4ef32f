//go:build unix

package iowrap

import (
	"errors"
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/coroserve/coroserve/coro"
)

// unixSink performs gathered writes directly against the connection's raw
// file descriptor using golang.org/x/sys/unix.Writev, yielding coro.WaitWrite
// on EAGAIN instead of letting the runtime park the calling goroutine — the
// same substitution lwan-io-wrappers.c makes around writev(2). Grounded on
// the raw-fd idiom in joeycumines-go-utilpkg's eventloop/fd_unix.go, which
// is already why golang.org/x/sys is a teacher dependency.
type unixSink struct {
	raw syscall.RawConn
}

// NewSink wraps conn in the best available Sink: a raw-fd unix.Writev path
// when the connection exposes one, the portable connSink otherwise.
func NewSink(conn net.Conn) Sink {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return NewConnSink(conn)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return NewConnSink(conn)
	}
	return &unixSink{raw: raw}
}

func (s *unixSink) Send(c *coro.Coro, buf []byte, flags Flags) error {
	return s.writev(c, [][]byte{buf})
}

func (s *unixSink) Writev(c *coro.Coro, segments ...[]byte) error {
	return s.writev(c, segments)
}

func (s *unixSink) writev(c *coro.Coro, segments [][]byte) error {
	remaining := nonEmpty(segments)
	for len(remaining) > 0 {
		n, err := s.writeOnce(remaining)
		if err != nil {
			if isWouldBlock(err) {
				if c == nil {
					return err
				}
				c.Yield(coro.WaitWrite)
				continue
			}
			return wrapIfClosed(err)
		}
		remaining = dropWritten(remaining, n)
	}
	return nil
}

// writeOnce issues exactly one unix.Writev against the raw fd. The callback
// passed to raw.Write always returns true so the runtime never silently
// parks waiting for writability on our behalf — suspension is instead made
// visible to the host via the caller's subsequent coro.Yield.
func (s *unixSink) writeOnce(segments [][]byte) (int, error) {
	var n int
	var opErr error
	err := s.raw.Write(func(fd uintptr) bool {
		n, opErr = unix.Writev(int(fd), segments)
		return true
	})
	if err != nil {
		return 0, err
	}
	return n, opErr
}

func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

func nonEmpty(segments [][]byte) [][]byte {
	out := make([][]byte, 0, len(segments))
	for _, s := range segments {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func dropWritten(segments [][]byte, n int) [][]byte {
	for n > 0 && len(segments) > 0 {
		if n < len(segments[0]) {
			segments[0] = segments[0][n:]
			return segments
		}
		n -= len(segments[0])
		segments = segments[1:]
	}
	return segments
}
