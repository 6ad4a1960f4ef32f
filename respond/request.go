// Package respond is the response-formatting engine: given a Request
// describing a handler's reply (status, MIME type, buffered body or a
// streaming callback), it formats HTTP/1.x headers and bodies into the
// request's buffer and/or the socket Sink, driving chunked transfer
// encoding and Server-Sent Events by yielding through the bound Coro.
//
// Grounded directly on lwan-response.c, with the request/flags/method
// surface shaped after dispatchrun-dispatch-go/dispatchhttp's Request and
// Header types.
package respond

import (
	"log/slog"

	"github.com/coroserve/coroserve/coro"
	"github.com/coroserve/coroserve/datecache"
	"github.com/coroserve/coroserve/httpstatus"
	"github.com/coroserve/coroserve/iowrap"
	"github.com/coroserve/coroserve/strbuf"
)

// Flags is the request/connection bitset the Responder consults to decide
// how to format a response. The constants use Go-style names; each one's
// comment gives the original flag name, since the flags are part of the
// contract external collaborators (the request parser, the event loop)
// populate.
type Flags uint32

const (
	FlagHTTP10          Flags = 1 << iota // REQUEST_IS_HTTP_1_0
	FlagSentHeaders                       // RESPONSE_SENT_HEADERS
	FlagChunkedEncoding                   // RESPONSE_CHUNKED_ENCODING
	FlagNoContentLength                   // RESPONSE_NO_CONTENT_LENGTH
	FlagAllowCORS                         // REQUEST_ALLOW_CORS
	FlagKeepAlive                         // CONN_KEEP_ALIVE
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Method is the HTTP request method, limited to the subset the Responder's
// body-bearing check distinguishes.
type Method int

const (
	MethodUnknown Method = iota
	MethodGET
	MethodHEAD
	MethodPOST
	MethodOPTIONS
	MethodDELETE
)

// hasResponseBody reports whether the method carries a
// response body on the wire, mirroring lwan's has_response_body table:
// GET and POST are the only body-bearing methods this engine formats a
// gathered header+body write for.
func (m Method) hasResponseBody() bool {
	return m == MethodGET || m == MethodPOST
}

// KeyValue is one entry of an additional-headers list.
type KeyValue struct {
	Key   string
	Value string
}

// StreamCallback is a handler-registered streaming body producer. It
// returns the status Response should escalate to on failure (>= 400);
// any status below that is treated as success and Response returns without
// writing anything further, the callback having sent the response itself.
type StreamCallback func(req *Request, data any) httpstatus.Code

// Request is the Responder-visible request/response state, produced and
// owned by surrounding collaborators (request parser, connection, event
// loop) and consumed here.
type Request struct {
	Flags Flags

	Method     Method
	URL        string
	RemoteAddr func() string

	// Buffer is the growable response buffer: populated by the handler
	// before calling Response, or one chunk/event frame at a time during
	// streaming.
	Buffer *strbuf.Buffer

	MIMEType          string
	ContentLength     int // used instead of Buffer's length when StreamCallback is set
	AdditionalHeaders []KeyValue

	StreamCallback StreamCallback
	StreamData     any

	Date *datecache.Cache

	Coro *coro.Coro
	Sink iowrap.Sink

	Logger *slog.Logger
}

func (r *Request) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
