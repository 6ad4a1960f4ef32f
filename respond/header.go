package respond

import (
	"strconv"

	"github.com/coroserve/coroserve/httpstatus"
)

// MaxHeaderSize is the fixed scratch-buffer size the Responder formats
// headers into, mirroring the stack buffer lwan_prepare_response_header_full
// writes into. A caller that needs a larger cap may pass its own buffer to
// PrepareResponseHeaderFull directly.
const MaxHeaderSize = 4096

// headerWriter appends into a fixed-capacity buffer, reporting overflow
// instead of growing, so a mid-way overrun can be reported as "0 bytes
// written" with no partial commit observable to the caller — the same
// contract lwan_prepare_response_header_full gives via RETURN_0_ON_OVERFLOW.
type headerWriter struct {
	buf      []byte
	overflow bool
}

func (w *headerWriter) writeString(s string) {
	if w.overflow {
		return
	}
	if len(w.buf)+len(s) > cap(w.buf) {
		w.overflow = true
		return
	}
	w.buf = append(w.buf, s...)
}

// PrepareResponseHeaderFull formats the status line and headers for status
// into buf (reusing its capacity, ignoring its initial length), in a fixed
// order: status line, framing header, Content-Type, Connection,
// additionalHeaders, Date, Expires, the CORS block, Server. Additional
// headers named Server or Transfer-Encoding are dropped.
// It returns the number of bytes written and true, or (0, false) if the
// formatted headers would not fit in buf's capacity.
func PrepareResponseHeaderFull(req *Request, status httpstatus.Code, buf []byte, additionalHeaders []KeyValue) (int, bool) {
	w := &headerWriter{buf: buf[:0]}

	if req.Flags.Has(FlagHTTP10) {
		w.writeString("HTTP/1.0 ")
	} else {
		w.writeString("HTTP/1.1 ")
	}
	w.writeString(httpstatus.AsStringWithCode(status))

	switch {
	case req.Flags.Has(FlagChunkedEncoding):
		w.writeString("\r\nTransfer-Encoding: chunked")
	case req.Flags.Has(FlagNoContentLength):
		// Do nothing.
	default:
		w.writeString("\r\nContent-Length: ")
		if req.StreamCallback != nil {
			w.writeString(strconv.Itoa(req.ContentLength))
		} else {
			w.writeString(strconv.Itoa(req.Buffer.Len()))
		}
	}

	w.writeString("\r\nContent-Type: ")
	w.writeString(req.MIMEType)

	if req.Flags.Has(FlagKeepAlive) {
		w.writeString("\r\nConnection: keep-alive")
	} else {
		w.writeString("\r\nConnection: close")
	}

	dateOverridden, expiresOverridden := false, false

	if status < httpstatus.BadRequest && len(additionalHeaders) > 0 {
		for _, h := range additionalHeaders {
			if h.Key == "Server" || h.Key == "Transfer-Encoding" {
				continue
			}
			if h.Key == "Date" {
				dateOverridden = true
			}
			if h.Key == "Expires" {
				expiresOverridden = true
			}
			w.writeString("\r\n")
			w.writeString(h.Key)
			w.writeString(": ")
			w.writeString(h.Value)
		}
	} else if status == httpstatus.Unauthorized {
		for _, h := range additionalHeaders {
			if h.Key == "WWW-Authenticate" {
				w.writeString("\r\nWWW-Authenticate: ")
				w.writeString(h.Value)
				break
			}
		}
	}

	if !dateOverridden && req.Date != nil {
		snap := req.Date.Get()
		w.writeString("\r\nDate: ")
		w.writeString(snap.Date)
	}
	if !expiresOverridden && req.Date != nil {
		snap := req.Date.Get()
		w.writeString("\r\nExpires: ")
		w.writeString(snap.Expires)
	}

	if req.Flags.Has(FlagAllowCORS) {
		w.writeString("\r\nAccess-Control-Allow-Origin: *")
		w.writeString("\r\nAccess-Control-Allow-Methods: GET, POST, OPTIONS")
		w.writeString("\r\nAccess-Control-Allow-Credentials: true")
		w.writeString("\r\nAccess-Control-Allow-Headers: Origin, Accept, Content-Type")
	}

	w.writeString("\r\nServer: lwan\r\n\r\n")

	if w.overflow {
		return 0, false
	}
	return len(w.buf), true
}
