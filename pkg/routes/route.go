// Package routes declares handler routes as data so that modules can
// register them on a mux and tooling can enumerate them.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler. Pattern is relative
// to the enclosing Group prefix and may be empty.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Path joins the route pattern onto prefix.
func (r Route) Path(prefix string) string {
	if prefix+r.Pattern == "" {
		return "/"
	}
	return prefix + r.Pattern
}
