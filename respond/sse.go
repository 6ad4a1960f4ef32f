package respond

import (
	"github.com/coroserve/coroserve/coro"
	"github.com/coroserve/coroserve/httpstatus"
	"github.com/coroserve/coroserve/iowrap"
)

const eventStreamMIMEType = "text/event-stream"

// SetEventStream formats headers for a Server-Sent Events response and
// flushes them with a "more to come" hint, same contract as SetChunked.
func SetEventStream(req *Request, status httpstatus.Code) bool {
	if req.Flags.Has(FlagSentHeaders) {
		return false
	}

	req.MIMEType = eventStreamMIMEType
	req.Flags |= FlagNoContentLength

	buf := scratchBuffer(req, MaxHeaderSize)
	n, ok := PrepareResponseHeaderFull(req, status, buf, req.AdditionalHeaders)
	if !ok {
		req.logger().Error("event-stream header overflow", "url", req.URL)
		return false
	}

	if err := req.Sink.Send(req.Coro, buf[:n], iowrap.FlagMore); err != nil {
		req.logger().Error("failed to flush event-stream headers", "url", req.URL, "error", err)
		return false
	}

	req.Flags |= FlagSentHeaders
	return true
}

// SendEvent emits one SSE frame: an optional "event: <name>" line, an
// optional "data: <buffer>" segment when the buffer is non-empty, and a
// blank-line terminator, as a single gathered write. It calls
// SetEventStream first if headers have not been sent yet.
func SendEvent(req *Request, eventName string) coro.Value {
	if !req.Flags.Has(FlagSentHeaders) {
		if !SetEventStream(req, httpstatus.OK) {
			return yield(req, coro.ConnAbort)
		}
	}

	var parts [][]byte
	if eventName != "" {
		parts = append(parts, []byte("event: "), []byte(eventName), []byte("\r\n"))
	}
	if req.Buffer.Len() > 0 {
		parts = append(parts, []byte("data: "), req.Buffer.Bytes())
	}
	parts = append(parts, []byte("\r\n\r\n"))

	err := req.Sink.Writev(req.Coro, parts...)
	req.Buffer.Reset()
	if err != nil {
		return yield(req, coro.ConnAbort)
	}
	return yield(req, coro.ConnMayResume)
}
