// Package app serves the toolbox pages: a home page listing the tools and
// one shell page per tool. Each tool page opens a workspace through the API
// and drives it from the browser.
package app

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/JaimeStill/pdfdesk/internal/workspaces"
	"github.com/JaimeStill/pdfdesk/pkg/formatting"
	"github.com/JaimeStill/pdfdesk/pkg/web"
)

//go:embed layouts views static
var files embed.FS

const layout = "app.html"

var descriptions = map[workspaces.Tool]string{
	workspaces.ToolMerge:    "Combine several PDF files into a single document.",
	workspaces.ToolSplit:    "Split a PDF into several separate files.",
	workspaces.ToolExtract:  "Pull the pages you pick out of a PDF into a new one.",
	workspaces.ToolRemove:   "Delete the pages you pick from a PDF.",
	workspaces.ToolReorder:  "Change the order of the pages by dragging them.",
	workspaces.ToolSign:     "Draw or upload a signature and place it on a page.",
	workspaces.ToolCompress: "Reduce the size of a PDF at the quality you choose.",
	workspaces.ToolConvert:  "Turn JPG, PNG and other images into a PDF.",
}

// Tool is the template data describing one tool.
type Tool struct {
	Name        workspaces.Tool
	Title       string
	Description string
	Path        string
	Paged       bool
	MaxFiles    int
	MaxFileSize int64
	Accept      []string
}

// Page is the template data of every view. Tool is nil on the home page.
type Page struct {
	API   string
	Tools []Tool
	Tool  *Tool
}

// Config locates the API and bounds the upload hints shown on each page.
type Config struct {
	APIBasePath string
	MaxFileSize int64
}

// Views returns the home view followed by one view per tool in menu order.
func Views(cfg Config) []web.ViewDef {
	all := tools(cfg.MaxFileSize)

	views := []web.ViewDef{{
		Route:    "/{$}",
		Template: "home.html",
		Title:    "PDF Tools",
		Bundle:   "home",
		Data:     Page{API: cfg.APIBasePath, Tools: all},
	}}

	for i := range all {
		t := &all[i]
		views = append(views, web.ViewDef{
			Route:    t.Path,
			Template: string(t.Name) + ".html",
			Title:    t.Title,
			Bundle:   string(t.Name),
			Data:     Page{API: cfg.APIBasePath, Tools: all, Tool: t},
		})
	}

	return views
}

// NewHandler parses every view and returns the page site. Unknown paths
// render the not-found page.
func NewHandler(cfg Config) (http.Handler, error) {
	views := Views(cfg)
	notFound := web.ViewDef{
		Template: "not-found.html",
		Title:    "Page not found",
		Bundle:   "home",
		Data:     Page{API: cfg.APIBasePath, Tools: tools(cfg.MaxFileSize)},
	}

	tmpl, err := web.ParseTemplates(files, "layouts/*.html", layout, "views", funcs(), append(views, notFound)...)
	if err != nil {
		return nil, err
	}

	site := web.NewSite()
	for _, v := range views {
		site.Page(v.Route, tmpl.Handler(v, http.StatusOK))
	}
	if err := site.Assets("/static/", files, "static"); err != nil {
		return nil, err
	}
	site.File("/favicon.svg", files, "static/favicon.svg")
	site.NotFound(tmpl.Handler(notFound, http.StatusNotFound))

	return site, nil
}

func tools(ceiling int64) []Tool {
	names := workspaces.Tools()
	out := make([]Tool, len(names))
	for i, name := range names {
		limits := name.Limits(ceiling)
		out[i] = Tool{
			Name:        name,
			Title:       name.Title(),
			Description: descriptions[name],
			Path:        "/" + string(name),
			Paged:       name.Paged(),
			MaxFiles:    limits.MaxFiles,
			MaxFileSize: limits.MaxFileSize,
			Accept:      limits.Accept,
		}
	}
	return out
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"bytes": func(n int64) string { return formatting.FormatBytes(n, 0) },
		"join":  strings.Join,
	}
}
