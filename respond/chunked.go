package respond

import (
	"strconv"

	"github.com/coroserve/coroserve/coro"
	"github.com/coroserve/coroserve/httpstatus"
	"github.com/coroserve/coroserve/iowrap"
)

// hexSizeBufLen comfortably holds the hex digits of any practical chunk
// size (a 64-bit length needs at most 16).
const hexSizeBufLen = 20

// SetChunked formats headers with Transfer-Encoding: chunked into a scratch
// buffer and flushes them with a "more to come" hint. It returns false if
// headers were already sent or formatting overflowed, in which case no
// header bytes were written to the socket.
func SetChunked(req *Request, status httpstatus.Code) bool {
	if req.Flags.Has(FlagSentHeaders) {
		return false
	}

	req.Flags |= FlagChunkedEncoding

	buf := scratchBuffer(req, MaxHeaderSize)
	n, ok := PrepareResponseHeaderFull(req, status, buf, req.AdditionalHeaders)
	if !ok {
		req.logger().Error("chunked response header overflow", "url", req.URL)
		return false
	}

	if err := req.Sink.Send(req.Coro, buf[:n], iowrap.FlagMore); err != nil {
		req.logger().Error("failed to flush chunked headers", "url", req.URL, "error", err)
		return false
	}

	req.Flags |= FlagSentHeaders
	return true
}

// SendChunk emits one chunk of the response buffer's current contents,
// resets the buffer, and yields ConnMayResume to the host. If the buffer is
// empty it instead sends the final zero-length chunk and returns 0 without
// yielding. It calls SetChunked first if headers have not been sent yet.
func SendChunk(req *Request) coro.Value {
	if !req.Flags.Has(FlagSentHeaders) {
		if !SetChunked(req, httpstatus.OK) {
			return yield(req, coro.ConnAbort)
		}
	}

	if req.Buffer.Len() == 0 {
		if err := req.Sink.Send(req.Coro, []byte(chunkTerminator), 0); err != nil {
			return yield(req, coro.ConnAbort)
		}
		return 0
	}

	var sizeBuf [hexSizeBufLen]byte
	hex := strconv.AppendUint(sizeBuf[:0], uint64(req.Buffer.Len()), 16)
	if len(hex) > hexSizeBufLen-2 {
		// Unreachable for any chunk size a real response buffer could
		// hold; kept as the abort path the original documents for a
		// scratch-buffer overflow during hex formatting.
		return yield(req, coro.ConnAbort)
	}

	sizeLine := append(append([]byte{}, hex...), "\r\n"...)
	err := req.Sink.Writev(req.Coro, sizeLine, req.Buffer.Bytes(), []byte("\r\n"))
	req.Buffer.Reset()
	if err != nil {
		return yield(req, coro.ConnAbort)
	}
	return yield(req, coro.ConnMayResume)
}
