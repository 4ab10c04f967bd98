// Package web serves server-rendered page shells from Go templates and the
// static assets they load.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
)

// ViewDef is one page: where it is served, which view template fills the
// layout, and the data the templates receive.
type ViewDef struct {
	Route    string
	Template string
	Title    string
	Bundle   string
	Data     any
}

// ViewData is the value every template executes against.
type ViewData struct {
	Title  string
	Bundle string
	Data   any
}

// Templates holds one layout clone per view template.
type Templates struct {
	layout string
	views  map[string]*template.Template
}

// ParseTemplates parses every file matching layoutGlob in fsys once, then
// clones the result for each distinct view template under viewDir. layout
// names the template executed on render. funcs are visible to all files.
func ParseTemplates(fsys fs.FS, layoutGlob, layout, viewDir string, funcs template.FuncMap, views ...ViewDef) (*Templates, error) {
	base, err := template.New("").Funcs(funcs).ParseFS(fsys, layoutGlob)
	if err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}
	if base.Lookup(layout) == nil {
		return nil, fmt.Errorf("layout %s not found", layout)
	}

	t := &Templates{layout: layout, views: make(map[string]*template.Template)}
	for _, v := range views {
		if _, ok := t.views[v.Template]; ok {
			continue
		}
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(fsys, path.Join(viewDir, v.Template)); err != nil {
			return nil, fmt.Errorf("parse view %s: %w", v.Template, err)
		}
		t.views[v.Template] = clone
	}
	return t, nil
}

// Render writes view to w. Execution happens into a buffer, so a failing
// template writes nothing.
func (t *Templates) Render(w io.Writer, view ViewDef) error {
	tmpl, ok := t.views[view.Template]
	if !ok {
		return fmt.Errorf("view %s not parsed", view.Template)
	}

	var buf bytes.Buffer
	data := ViewData{Title: view.Title, Bundle: view.Bundle, Data: view.Data}
	if err := tmpl.ExecuteTemplate(&buf, t.layout, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// Handler serves view with the given status code.
func (t *Templates) Handler(view ViewDef, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := t.Render(&buf, view); err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if r.Method != http.MethodHead {
			buf.WriteTo(w)
		}
	}
}
