package respond

import (
	"github.com/coroserve/coroserve/coro"
	"github.com/coroserve/coroserve/errtmpl"
	"github.com/coroserve/coroserve/httpstatus"
)

// chunkTerminator is the literal final chunk that ends a chunked stream.
const chunkTerminator = "0\r\n\r\n"

// scratchBuffer returns a size-capacity byte slice, preferring the bound
// Coro's pooled scratch allocator (so the buffer is returned to the pool on
// the next matching DeferredRun/Free) and falling back to a plain
// allocation when no Coro is bound, e.g. in tests that exercise header
// formatting directly.
func scratchBuffer(req *Request, size int) []byte {
	if req.Coro != nil {
		return req.Coro.Scratch(size)
	}
	return make([]byte, 0, size)
}

// yield reports v through the bound Coro when one exists, and otherwise
// returns it directly. Handlers exercised without a Coro (e.g. header
// formatting tests) call SendChunk/SendEvent without ever suspending.
func yield(req *Request, v coro.Value) coro.Value {
	if req.Coro != nil {
		return req.Coro.Yield(v)
	}
	return v
}

// Response is the single entry point a handler calls to emit its reply.
func Response(req *Request, status httpstatus.Code) error {
	switch {
	case req.Flags.Has(FlagChunkedEncoding):
		// Send the final zero-length chunk. Delegated to SendChunk itself
		// (rather than writing the terminator directly) so a caller that
		// reaches Response before ever calling SetChunked still gets
		// headers flushed first, exactly as lwan_response() relies on
		// lwan_response_send_chunk to do.
		req.Buffer.Reset()
		if v := SendChunk(req); v == coro.ConnAbort {
			return errChunkedTerminatorFailed
		}
		return nil

	case req.Flags.Has(FlagSentHeaders):
		return nil

	case req.MIMEType == "":
		return DefaultResponse(req, status)

	case req.StreamCallback != nil:
		// The callback stays set while it runs, so headers it formats take
		// Content-Length from req.ContentLength; it is cleared afterwards so
		// the DefaultResponse escalation below cannot call it again.
		result := req.StreamCallback(req, req.StreamData)
		req.StreamCallback = nil
		if result >= httpstatus.BadRequest {
			return DefaultResponse(req, result)
		}
		return nil

	default:
		return respondBuffered(req, status)
	}
}

// respondBuffered formats headers for a fully-buffered (non-streaming)
// response and emits them, plus the body for body-bearing methods, as a
// single gathered write.
func respondBuffered(req *Request, status httpstatus.Code) error {
	buf := scratchBuffer(req, MaxHeaderSize)
	n, ok := PrepareResponseHeaderFull(req, status, buf, req.AdditionalHeaders)
	if !ok {
		req.logger().Error("response header overflow, escalating to internal error", "url", req.URL)
		return DefaultResponse(req, httpstatus.InternalServerError)
	}
	headers := buf[:n]

	var err error
	if req.Method.hasResponseBody() {
		err = req.Sink.Writev(req.Coro, headers, req.Buffer.Bytes())
	} else {
		err = req.Sink.Send(req.Coro, headers, 0)
	}
	if err != nil {
		return err
	}

	req.Flags |= FlagSentHeaders
	return nil
}

// DefaultResponse renders the built-in/configured error page as the body,
// sets the MIME type to text/html, and re-enters Response.
func DefaultResponse(req *Request, status httpstatus.Code) error {
	req.MIMEType = "text/html"
	req.Buffer.Reset()

	vars := errtmpl.Vars{
		ShortMessage: httpstatus.AsString(status),
		LongMessage:  httpstatus.AsDescriptiveString(status),
	}
	if err := errtmpl.Global().ApplyWithBuffer(req.Buffer, vars); err != nil {
		return err
	}

	return Response(req, status)
}
