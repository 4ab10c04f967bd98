package routes

import "net/http"

// Group collects routes under a shared prefix. Children inherit the prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Walk calls fn for every route in groups, depth first, with the fully
// joined path.
func Walk(fn func(method, path string, handler http.HandlerFunc), groups ...Group) {
	for _, g := range groups {
		walk("", g, fn)
	}
}

// Register adds every route in groups to mux as "METHOD /path".
func Register(mux *http.ServeMux, groups ...Group) {
	Walk(func(method, path string, handler http.HandlerFunc) {
		mux.HandleFunc(method+" "+path, handler)
	}, groups...)
}

// Patterns lists the mux patterns Register would install.
func Patterns(groups ...Group) []string {
	var out []string
	Walk(func(method, path string, _ http.HandlerFunc) {
		out = append(out, method+" "+path)
	}, groups...)
	return out
}

func walk(parent string, g Group, fn func(string, string, http.HandlerFunc)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		fn(r.Method, r.Path(prefix), r.Handler)
	}
	for _, child := range g.Children {
		walk(prefix, child, fn)
	}
}
