// Command coroserved is a small demonstration server wiring the coroutine
// runtime, the Responder, and their external collaborators into a working
// HTTP/1.x listener. Request parsing is deliberately minimal — it is an
// out-of-scope external collaborator per this repository's charter — just
// enough of the request line and Connection header to drive the handlers
// below.
//
// Grounded on dispatchserver/server.go's Handler/Serve shape, adapted from
// a Connect-RPC frontend to a per-connection coroutine loop.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/coroserve/coroserve/coro"
	"github.com/coroserve/coroserve/datecache"
	"github.com/coroserve/coroserve/errtmpl"
	"github.com/coroserve/coroserve/httpstatus"
	"github.com/coroserve/coroserve/iowrap"
	"github.com/coroserve/coroserve/respond"
	"github.com/coroserve/coroserve/strbuf"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "address to listen on")
	templatePath := flag.String("error-template", "", "path to an error-page template; built-in page used if empty")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *templatePath == "" {
		*templatePath = errtmpl.EnvPath()
	}
	errtmpl.Init(*templatePath, logger)
	defer errtmpl.Shutdown()

	srv := &Server{
		Logger: logger,
		Dates:  datecache.New(),
		Router: demoRoutes(),
	}
	defer srv.Dates.Stop()

	if err := srv.Serve(*addr); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// Handler produces one response for a request, in the coroutine's own
// goroutine. It may stream (chunked or SSE) by calling respond.SendChunk or
// respond.SendEvent any number of times before returning.
type Handler func(req *respond.Request)

// Server accepts connections and runs one Coro per connection, reusing it
// (via Reset) across keep-alive requests the way a pooled worker stack
// would in the original design.
type Server struct {
	Logger *slog.Logger
	Dates  *datecache.Cache
	Router map[string]Handler
}

// Serve listens on addr and serves connections until the listener is closed
// or accept fails unrecoverably.
func (s *Server) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	defer ln.Close()

	s.Logger.Info("listening", "addr", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	switcher := coro.NewSwitcher()
	sink := iowrap.NewSink(conn)
	reader := bufio.NewReader(conn)

	var c *coro.Coro
	for {
		line, method, url, keepAlive, ok := readRequestLine(reader)
		if !ok {
			return
		}

		req := &respond.Request{
			Method:     parseMethod(method),
			URL:        url,
			RemoteAddr: conn.RemoteAddr().String,
			Buffer:     strbuf.New(),
			Date:       s.Dates,
			Sink:       sink,
			Logger:     s.Logger,
		}
		if keepAlive {
			req.Flags |= respond.FlagKeepAlive
		}

		handler, found := s.Router[url]
		if !found {
			handler = func(req *respond.Request) {
				respond.DefaultResponse(req, httpstatus.NotFound)
			}
		}

		fn := func(c *coro.Coro, data any) coro.Value {
			req.Coro = c
			handler(req)
			return 0
		}

		var err error
		if c == nil {
			c, err = coro.New(switcher, fn, nil)
		} else {
			err = c.Reset(fn, nil)
		}
		if err != nil {
			s.Logger.Error("coroutine setup failed", "error", err, "request", line)
			return
		}

		for {
			v, err := c.Resume()
			if err != nil {
				s.Logger.Error("coroutine resume failed", "error", err)
				return
			}
			if c.Ended() {
				break
			}
			switch v {
			case coro.ConnAbort:
				return
			case coro.ConnMayResume, coro.WaitRead, coro.WaitWrite:
				continue
			}
		}

		if !keepAlive {
			if c != nil {
				if err := c.Free(); err != nil {
					s.Logger.Error("coroutine free failed", "error", err)
				}
			}
			return
		}
	}
}

// readRequestLine reads and discards a request up through its blank-line
// terminator, returning the method, the request-target, and whether the
// client asked to keep the connection alive. Real header parsing, framing,
// and body handling belong to the request-parser collaborator this
// repository treats as out of scope.
func readRequestLine(r *bufio.Reader) (raw, method, url string, keepAlive bool, ok bool) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", "", "", false, false
	}
	raw = strings.TrimRight(line, "\r\n")
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return raw, "", "", false, false
	}
	method, url = fields[0], fields[1]
	keepAlive = true

	for {
		headerLine, err := r.ReadString('\n')
		if err != nil {
			return raw, method, url, false, false
		}
		headerLine = strings.TrimRight(headerLine, "\r\n")
		if headerLine == "" {
			break
		}
		if strings.EqualFold(headerLine, "Connection: close") {
			keepAlive = false
		}
	}
	return raw, method, url, keepAlive, true
}

// parseMethod maps a request-line method token to the subset of methods
// this package's body-bearing check distinguishes; anything else is
// MethodUnknown, which formats headers-only responses.
func parseMethod(s string) respond.Method {
	switch s {
	case "GET":
		return respond.MethodGET
	case "HEAD":
		return respond.MethodHEAD
	case "POST":
		return respond.MethodPOST
	case "OPTIONS":
		return respond.MethodOPTIONS
	case "DELETE":
		return respond.MethodDELETE
	default:
		return respond.MethodUnknown
	}
}

// demoRoutes wires the three response modes this repository implements to
// fixed paths, so a manual `curl` session can exercise all of them.
func demoRoutes() map[string]Handler {
	return map[string]Handler{
		"/": func(req *respond.Request) {
			req.MIMEType = "text/plain"
			req.Buffer.WriteString("hi")
			respond.Response(req, httpstatus.OK)
		},
		"/stream": func(req *respond.Request) {
			req.Flags |= respond.FlagChunkedEncoding
			req.MIMEType = "text/plain"
			req.Buffer.WriteString("A")
			respond.SendChunk(req)
			req.Buffer.WriteString("BB")
			respond.SendChunk(req)
			respond.Response(req, httpstatus.OK)
		},
		"/events": func(req *respond.Request) {
			req.Buffer.WriteString("1")
			respond.SendEvent(req, "tick")
			respond.SendEvent(req, "")
		},
	}
}
