package respond

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/coroserve/coroserve/coro"
	"github.com/coroserve/coroserve/datecache"
	"github.com/coroserve/coroserve/httpstatus"
	"github.com/coroserve/coroserve/iowrap"
	"github.com/coroserve/coroserve/strbuf"
	"github.com/jacobsa/timeutil"
	"github.com/kylelemons/godebug/pretty"
)

// recordingSink is a test-only iowrap.Sink that appends every write to an
// in-memory log, so assertions can inspect the exact wire bytes a Responder
// produced.
type recordingSink struct {
	out bytes.Buffer
}

func (s *recordingSink) Send(c *coro.Coro, buf []byte, flags iowrap.Flags) error {
	s.out.Write(buf)
	return nil
}

func (s *recordingSink) Writev(c *coro.Coro, segments ...[]byte) error {
	for _, seg := range segments {
		s.out.Write(seg)
	}
	return nil
}

func fixedDate(t *testing.T) *datecache.Cache {
	t.Helper()
	clock := timeutil.SimulatedClock{}
	clock.SetTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	c := datecache.New(datecache.WithClock(&clock))
	t.Cleanup(c.Stop)
	return c
}

func newTestRequest(t *testing.T, sink *recordingSink) *Request {
	t.Helper()
	return &Request{
		Flags:  FlagKeepAlive,
		Method: MethodGET,
		URL:    "/",
		Buffer: strbuf.New(),
		Sink:   sink,
		Date:   fixedDate(t),
	}
}

// TestHeaderEndsWithBlankLine covers testable property 6: a successful
// PrepareResponseHeaderFull call always ends with the CRLF CRLF terminator.
func TestHeaderEndsWithBlankLine(t *testing.T) {
	req := newTestRequest(t, &recordingSink{})
	req.MIMEType = "text/plain"
	req.Buffer.WriteString("hi")

	buf := make([]byte, 0, MaxHeaderSize)
	n, ok := PrepareResponseHeaderFull(req, httpstatus.OK, buf, nil)
	if !ok {
		t.Fatal("expected success")
	}
	if n == 0 {
		t.Fatal("expected non-zero byte count")
	}
	got := string(buf[:n])
	if !strings.HasSuffix(got, "\r\n\r\n") {
		t.Fatalf("header does not end with blank line: %q", got)
	}
}

// TestSetChunkedRejectsAfterHeadersSent covers property 7.
func TestSetChunkedRejectsAfterHeadersSent(t *testing.T) {
	sink := &recordingSink{}
	req := newTestRequest(t, sink)
	req.Flags |= FlagSentHeaders

	if SetChunked(req, httpstatus.OK) {
		t.Fatal("expected SetChunked to return false once headers are sent")
	}
	if SetEventStream(req, httpstatus.OK) {
		t.Fatal("expected SetEventStream to return false once headers are sent")
	}
	if sink.out.Len() != 0 {
		t.Fatalf("expected no bytes written, got %q", sink.out.String())
	}
}

// TestChunkedStreamEndsWithZeroChunk covers property 8 and scenario S3.
func TestChunkedStreamEndsWithZeroChunk(t *testing.T) {
	sink := &recordingSink{}
	req := newTestRequest(t, sink)
	req.MIMEType = "text/plain"
	req.Flags |= FlagChunkedEncoding

	req.Buffer.WriteString("A")
	SendChunk(req)

	req.Buffer.WriteString("BB")
	SendChunk(req)

	if err := Response(req, httpstatus.OK); err != nil {
		t.Fatalf("Response: %v", err)
	}

	got := sink.out.String()
	if !strings.Contains(got, "Transfer-Encoding: chunked") {
		t.Fatalf("missing chunked framing header: %q", got)
	}
	if !strings.HasSuffix(got, "1\r\nA\r\n2\r\nBB\r\n0\r\n\r\n") {
		t.Fatalf("unexpected chunk framing: %q", got)
	}
}

// TestCORSHeadersAppearInOrder covers property 9 and scenario S5.
func TestCORSHeadersAppearInOrder(t *testing.T) {
	sink := &recordingSink{}
	req := newTestRequest(t, sink)
	req.Method = MethodPOST
	req.MIMEType = "text/plain"
	req.Flags |= FlagAllowCORS
	req.Buffer.WriteString("ok")

	if err := Response(req, httpstatus.OK); err != nil {
		t.Fatalf("Response: %v", err)
	}

	got := sink.out.String()
	idx := strings.Index(got, "Access-Control-Allow-Origin: *\r\n"+
		"Access-Control-Allow-Methods: GET, POST, OPTIONS\r\n"+
		"Access-Control-Allow-Credentials: true\r\n"+
		"Access-Control-Allow-Headers: Origin, Accept, Content-Type")
	if idx < 0 {
		t.Fatalf("CORS headers missing or out of order: %q", got)
	}
	connIdx := strings.Index(got, "Connection:")
	if connIdx < 0 || connIdx > idx {
		t.Fatalf("Connection header must precede CORS block: %q", got)
	}
}

// TestAdditionalHeaderFiltering covers property 10.
func TestAdditionalHeaderFiltering(t *testing.T) {
	req := newTestRequest(t, &recordingSink{})
	req.MIMEType = "text/plain"

	buf := make([]byte, 0, MaxHeaderSize)
	n, ok := PrepareResponseHeaderFull(req, httpstatus.OK, buf, []KeyValue{
		{Key: "Server", Value: "evil"},
		{Key: "Date", Value: "override-date"},
		{Key: "Expires", Value: "override-expires"},
		{Key: "X-Custom", Value: "yes"},
	})
	if !ok {
		t.Fatal("expected success")
	}
	got := string(buf[:n])

	if strings.Count(got, "Server:") != 1 {
		t.Fatalf("expected exactly one Server header, got %q", got)
	}
	if strings.Contains(got, "Server: evil") {
		t.Fatalf("additional Server header was not filtered: %q", got)
	}
	if !strings.Contains(got, "Date: override-date") {
		t.Fatalf("Date override did not suppress the default: %q", got)
	}
	if !strings.Contains(got, "Expires: override-expires") {
		t.Fatalf("Expires override did not suppress the default: %q", got)
	}
	if !strings.Contains(got, "X-Custom: yes") {
		t.Fatalf("custom additional header missing: %q", got)
	}
}

// TestUnauthorizedOnlyForwardsWWWAuthenticate covers property 11.
func TestUnauthorizedOnlyForwardsWWWAuthenticate(t *testing.T) {
	req := newTestRequest(t, &recordingSink{})
	req.MIMEType = "text/plain"

	buf := make([]byte, 0, MaxHeaderSize)
	n, ok := PrepareResponseHeaderFull(req, httpstatus.Unauthorized, buf, []KeyValue{
		{Key: "WWW-Authenticate", Value: "Basic"},
		{Key: "X-Other", Value: "dropped"},
	})
	if !ok {
		t.Fatal("expected success")
	}
	got := string(buf[:n])

	if !strings.Contains(got, "WWW-Authenticate: Basic") {
		t.Fatalf("missing WWW-Authenticate: %q", got)
	}
	if strings.Contains(got, "X-Other") {
		t.Fatalf("non-WWW-Authenticate header leaked through on 401: %q", got)
	}
}

// TestPlainGETResponse covers scenario S1.
func TestPlainGETResponse(t *testing.T) {
	sink := &recordingSink{}
	req := newTestRequest(t, sink)
	req.MIMEType = "text/plain"
	req.Buffer.WriteString("hi")

	if err := Response(req, httpstatus.OK); err != nil {
		t.Fatalf("Response: %v", err)
	}

	got := sink.out.String()
	for _, want := range []string{
		"HTTP/1.1 200 OK\r\n",
		"Content-Length: 2\r\n",
		"Content-Type: text/plain\r\n",
		"Connection: keep-alive\r\n",
		"Server: lwan\r\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in %q", want, got)
		}
	}
	if !strings.HasSuffix(got, "\r\n\r\nhi") {
		t.Fatalf("body not appended after headers: %q", got)
	}
	if !req.Flags.Has(FlagSentHeaders) {
		t.Fatal("expected FlagSentHeaders to be set after Response")
	}
}

// TestPlainGETResponseExactBytes pins scenario S1's wire bytes exactly,
// using a byte-accurate diff on mismatch rather than a handful of
// substring checks.
func TestPlainGETResponseExactBytes(t *testing.T) {
	sink := &recordingSink{}
	req := newTestRequest(t, sink)
	req.MIMEType = "text/plain"
	req.Buffer.WriteString("hi")

	if err := Response(req, httpstatus.OK); err != nil {
		t.Fatalf("Response: %v", err)
	}

	want := "HTTP/1.1 200 OK\r\n" +
		"Content-Length: 2\r\n" +
		"Content-Type: text/plain\r\n" +
		"Connection: keep-alive\r\n" +
		"Date: Tue, 02 Jan 2024 03:04:05 GMT\r\n" +
		"Expires: Tue, 02 Jan 2024 03:04:15 GMT\r\n" +
		"Server: lwan\r\n" +
		"\r\n" +
		"hi"

	if diff := pretty.Compare(want, sink.out.String()); diff != "" {
		t.Fatalf("unexpected response bytes (-want +got):\n%s", diff)
	}
}

// TestDefaultErrorResponse covers scenario S2.
func TestDefaultErrorResponse(t *testing.T) {
	sink := &recordingSink{}
	req := newTestRequest(t, sink)
	req.Flags |= FlagHTTP10
	req.Flags &^= FlagKeepAlive

	if err := Response(req, httpstatus.NotFound); err != nil {
		t.Fatalf("Response: %v", err)
	}

	got := sink.out.String()
	if !strings.HasPrefix(got, "HTTP/1.0 404 Not Found\r\n") {
		t.Fatalf("unexpected status line: %q", got)
	}
	if !strings.Contains(got, "Content-Type: text/html") {
		t.Fatalf("missing text/html content type: %q", got)
	}
	if !strings.Contains(got, "Not Found") {
		t.Fatalf("missing short message in body: %q", got)
	}
}

// TestSendEventFraming covers scenario S4.
func TestSendEventFraming(t *testing.T) {
	sink := &recordingSink{}
	req := newTestRequest(t, sink)
	req.Flags |= FlagChunkedEncoding // stays set (SetEventStream only adds FlagNoContentLength); the frames checked below do not depend on it

	req.Buffer.WriteString("1")
	SendEvent(req, "tick")

	SendEvent(req, "")

	got := sink.out.String()
	if !strings.Contains(got, "event: tick\r\ndata: 1\r\n\r\n") {
		t.Fatalf("first frame malformed: %q", got)
	}
	if !strings.HasSuffix(got, "\r\n\r\n") {
		t.Fatalf("second frame missing terminator: %q", got)
	}
}

// TestChunkedResponseFromHandlerThroughCoro exercises the Coro integration:
// a handler running as the coroutine body streams two chunks then finishes,
// mirroring scenario S3 end to end through an actual Coro.
func TestChunkedResponseFromHandlerThroughCoro(t *testing.T) {
	sink := &recordingSink{}
	req := newTestRequest(t, sink)
	req.MIMEType = "text/plain"
	req.Flags |= FlagChunkedEncoding

	sw := coro.NewSwitcher()
	c, err := coro.New(sw, func(c *coro.Coro, data any) coro.Value {
		req.Coro = c
		req.Buffer.WriteString("A")
		SendChunk(req)
		req.Buffer.WriteString("BB")
		SendChunk(req)
		Response(req, httpstatus.OK)
		return 0
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Free()

	for {
		v, err := c.Resume()
		if err != nil {
			t.Fatalf("Resume: %v", err)
		}
		if c.Ended() {
			break
		}
		if v != coro.ConnMayResume {
			t.Fatalf("unexpected yield value %d", v)
		}
	}

	got := sink.out.String()
	if !strings.HasSuffix(got, "1\r\nA\r\n2\r\nBB\r\n0\r\n\r\n") {
		t.Fatalf("unexpected chunk framing: %q", got)
	}
}
