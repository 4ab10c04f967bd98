package web

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"net/http"
	"strings"
)

// Site is a read-only set of pages and assets. Every route answers GET and
// HEAD; other methods on a known path get 405, unknown paths the not-found
// handler.
type Site struct {
	mux      *http.ServeMux
	notFound http.Handler
}

// NewSite creates a Site whose unknown paths get http.NotFound.
func NewSite() *Site {
	return &Site{
		mux:      http.NewServeMux(),
		notFound: http.NotFoundHandler(),
	}
}

// Page serves h at route.
func (s *Site) Page(route string, h http.HandlerFunc) {
	s.mux.HandleFunc("GET "+route, h)
}

// NotFound sets the handler for paths no route matches.
func (s *Site) NotFound(h http.Handler) {
	s.notFound = h
}

// Assets serves the files under dir of fsys below prefix, which must end
// in "/". Each file is tagged with a content hash so browsers revalidate
// instead of refetching.
func (s *Site) Assets(prefix string, fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tags, err := etags(sub)
	if err != nil {
		return err
	}

	files := http.StripPrefix(prefix, http.FileServerFS(sub))
	s.mux.HandleFunc("GET "+prefix, func(w http.ResponseWriter, r *http.Request) {
		if tag, ok := tags[strings.TrimPrefix(r.URL.Path, prefix)]; ok {
			w.Header().Set("ETag", tag)
		}
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
	return nil
}

// File serves one file of fsys at route.
func (s *Site) File(route string, fsys fs.FS, name string) {
	s.mux.HandleFunc("GET "+route, func(w http.ResponseWriter, r *http.Request) {
		if _, err := fs.Stat(fsys, name); err != nil {
			s.notFound.ServeHTTP(w, r)
			return
		}
		http.ServeFileFS(w, r, fsys, name)
	})
}

func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, pattern := s.mux.Handler(r); pattern != "" {
		s.mux.ServeHTTP(w, r)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		probe := r.Clone(r.Context())
		probe.Method = http.MethodGet
		if _, pattern := s.mux.Handler(probe); pattern != "" {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
	}

	s.notFound.ServeHTTP(w, r)
}

func etags(fsys fs.FS) (map[string]string, error) {
	tags := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		tags[name] = `"` + hex.EncodeToString(sum[:8]) + `"`
		return nil
	})
	return tags, err
}
