// Package errtmpl is the lazily-initialized error-page template: a single
// template compiled once at server startup (from a built-in string, or a
// file path supplied by configuration) and freed at shutdown, exposing two
// string slots, short_message and long_message, the same pair
// lwan_response_init wires up through lwan-template.
//
// No templating library appears anywhere in the retrieval pack, so this
// package uses the standard library's text/template — see DESIGN.md for why
// that is the grounded choice here rather than a default.
package errtmpl

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"text/template"
)

// EnvPath reads the error-template file path from env (or the process
// environment if env is empty), the same os.Environ()-driven default
// dispatch-go's Env option uses for its own configuration surface.
func EnvPath(env ...string) string {
	if len(env) == 0 {
		env = os.Environ()
	}
	return getenv(env, "COROSERVE_ERROR_TEMPLATE")
}

func getenv(env []string, name string) string {
	for _, s := range env {
		n, v, ok := strings.Cut(s, "=")
		if ok && n == name {
			return v
		}
	}
	return ""
}

// builtin is the default error page, translated from lwan's built-in
// error_template_str.
const builtin = `<html><head><style>` +
	`body{` +
	`background:#627d4d;` +
	`background:radial-gradient(ellipse at center,#627d4d 15%,#1f3b08 100%);` +
	`height:100%;font-family:Arial,'Helvetica Neue',Helvetica,sans-serif;text-align:center;border:0;letter-spacing:-1px;margin:0;padding:0}` +
	`.sorry{color:#244837;font-size:18px;line-height:24px;text-shadow:0 1px 1px rgba(255,255,255,0.33)}` +
	`h1{color:#fff;font-size:30px;font-weight:700;text-shadow:0 1px 4px rgba(0,0,0,0.68);letter-spacing:-1px;margin:0}` +
	`</style></head><body>` +
	`<table height="100%" width="100%"><tr><td align="center" valign="middle">` +
	`<div><h1>{{.ShortMessage}}</h1><div class="sorry"><p>{{.LongMessage}}</p></div></div>` +
	`</td></tr></table></body></html>`

// Vars is the pair of variables the template exposes.
type Vars struct {
	ShortMessage string
	LongMessage  string
}

// Template is a compiled error-page template.
type Template struct {
	tpl *template.Template
}

// Compile compiles an error template from a string.
func Compile(text string) (*Template, error) {
	tpl, err := template.New("error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("errtmpl: compile: %w", err)
	}
	return &Template{tpl: tpl}, nil
}

// CompileFile compiles an error template from a file on disk.
func CompileFile(path string) (*Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("errtmpl: read %s: %w", path, err)
	}
	return Compile(string(b))
}

// ApplyWithBuffer renders the template with vars, appending to w.
func (t *Template) ApplyWithBuffer(w interface{ Write([]byte) (int, error) }, vars Vars) error {
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, vars); err != nil {
		return fmt.Errorf("errtmpl: apply: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

var (
	mu     sync.Mutex
	global *Template
)

// Init compiles the process-wide error template, from path if non-empty or
// the built-in page otherwise. It must be called once at server startup,
// mirroring lwan_response_init's lifecycle, and logs (rather than exits)
// on failure, falling back to the built-in page so a misconfigured
// template path cannot take the whole server down.
func Init(path string, logger *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()

	if logger == nil {
		logger = slog.Default()
	}

	if path != "" {
		tpl, err := CompileFile(path)
		if err != nil {
			logger.Error("could not compile error template, falling back to built-in", "path", path, "error", err)
		} else {
			global = tpl
			return
		}
	}

	tpl, err := Compile(builtin)
	if err != nil {
		// The built-in template is a compile-time constant; a failure here
		// can only mean a programming error in this package.
		panic(fmt.Sprintf("errtmpl: built-in template failed to compile: %v", err))
	}
	global = tpl
}

// Shutdown releases the process-wide error template, mirroring
// lwan_response_shutdown.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	global = nil
}

// Global returns the process-wide error template, initializing it with the
// built-in page on first use if Init was never called.
func Global() *Template {
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		tpl, err := Compile(builtin)
		if err != nil {
			panic(fmt.Sprintf("errtmpl: built-in template failed to compile: %v", err))
		}
		global = tpl
	}
	return global
}
