//go:build !unix

package iowrap

import "net"

// NewSink wraps conn in the portable Sink implementation; the raw-fd
// unix.Writev fast path in sink_unix.go only builds on unix targets.
func NewSink(conn net.Conn) Sink {
	return NewConnSink(conn)
}
