// Package module mounts self-contained HTTP handlers under a single-level
// path prefix and dispatches between them.
package module

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JaimeStill/pdfdesk/pkg/middleware"
)

// ErrInvalidPrefix reports a prefix that is not of the form "/name".
var ErrInvalidPrefix = errors.New("module prefix must be a single-level path such as /api")

// Module serves an inner handler beneath a prefix. The prefix is stripped
// before the inner handler sees the request.
type Module struct {
	prefix  string
	inner   http.Handler
	stack   middleware.System
	handler http.Handler
}

// New creates a Module. It panics when prefix is not a single-level path.
func New(prefix string, inner http.Handler) *Module {
	if err := ValidatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:  prefix,
		inner:   inner,
		stack:   middleware.New(),
		handler: inner,
	}
}

// ValidatePrefix reports whether prefix can name a module.
func ValidatePrefix(prefix string) error {
	name, ok := strings.CutPrefix(prefix, "/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	return nil
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware. The first middleware added runs first.
func (m *Module) Use(mws ...middleware.Func) {
	m.stack.Use(mws...)
	m.handler = m.stack.Apply(m.inner)
}

// Handler returns the inner handler wrapped in the module's middleware.
func (m *Module) Handler() http.Handler {
	return m.handler
}

// ServeHTTP strips the prefix and dispatches through the middleware.
func (m *Module) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, strip(r, m.prefix))
}

func strip(r *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	out := new(http.Request)
	*out = *r
	out.URL = new(url.URL)
	*out.URL = *r.URL
	out.URL.Path = path
	out.URL.RawPath = ""
	return out
}
