// Package openapi builds OpenAPI 3.1 documents in code and serves them.
package openapi

import (
	"slices"
	"strings"
)

const Version = "3.1.0"

// Spec is an OpenAPI document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Tags       []*Tag               `json:"tags,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// New creates a Spec titled from cfg, relative to the given server URLs,
// with the shared components already registered.
func New(cfg *Config, version string, servers ...string) *Spec {
	spec := &Spec{
		OpenAPI: Version,
		Info: &Info{
			Title:       cfg.Title,
			Version:     version,
			Description: cfg.Description,
		},
		Paths:      make(map[string]*PathItem),
		Components: NewComponents(),
	}
	for _, url := range servers {
		spec.Servers = append(spec.Servers, &Server{URL: url})
	}
	return spec
}

// Tag declares a tag, keeping the declaration order.
func (s *Spec) Tag(name, description string) {
	s.Tags = append(s.Tags, &Tag{Name: name, Description: description})
}

// AddPaths merges paths into the document. Methods already documented on a
// path are replaced.
func (s *Spec) AddPaths(paths map[string]*PathItem) {
	for path, item := range paths {
		existing, ok := s.Paths[path]
		if !ok {
			s.Paths[path] = item
			continue
		}
		for _, method := range methods {
			if op := item.Operation(method); op != nil {
				existing.Set(method, op)
			}
		}
	}
}

var methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// Walk calls fn for every documented operation, sorted by path then method.
func (s *Spec) Walk(fn func(method, path string, op *Operation)) {
	paths := make([]string, 0, len(s.Paths))
	for path := range s.Paths {
		paths = append(paths, path)
	}
	slices.SortFunc(paths, strings.Compare)

	for _, path := range paths {
		for _, method := range methods {
			if op := s.Paths[path].Operation(method); op != nil {
				fn(method, path, op)
			}
		}
	}
}
