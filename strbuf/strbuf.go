// Package strbuf is the growable response buffer the Responder reads and
// resets: a minimal wrapper that exposes exactly the three operations the
// original external collaborator needs (get_buffer, get_length, reset) and
// nothing else, so the Responder never has to reason about a richer
// bytes.Buffer API surface it doesn't use.
//
// No growable-buffer library appears anywhere in the retrieval pack, so
// this is one of the few spots where the standard library (bytes.Buffer) is
// the grounded choice rather than a default — see DESIGN.md.
package strbuf

import "bytes"

// Buffer is a growable byte buffer.
type Buffer struct {
	buf bytes.Buffer
}

// New returns an empty Buffer.
func New() *Buffer { return &Buffer{} }

// Write appends p to the buffer, implementing io.Writer so handlers can
// build a response body with fmt.Fprintf et al.
func (b *Buffer) Write(p []byte) (int, error) { return b.buf.Write(p) }

// WriteString appends s to the buffer.
func (b *Buffer) WriteString(s string) (int, error) { return b.buf.WriteString(s) }

// Bytes returns the buffer's contents. The slice is valid until the next
// Reset or Write.
func (b *Buffer) Bytes() []byte { return b.buf.Bytes() }

// Len returns the number of bytes currently buffered.
func (b *Buffer) Len() int { return b.buf.Len() }

// Reset empties the buffer, retaining its underlying storage.
func (b *Buffer) Reset() { b.buf.Reset() }
