package tools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdfdesk/internal/workspaces"
	"github.com/JaimeStill/pdfdesk/pkg/handlers"
	"github.com/JaimeStill/pdfdesk/pkg/routes"
)

const maxOptionsSize = 1 << 20

// Handler provides HTTP endpoints for tool actions.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "tools"),
	}
}

// Routes returns the route group definition for tool endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/tools",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "/{tool}/{workspace}", Handler: h.Run},
		},
	}
}

// Info describes a tool for the page shells.
type Info struct {
	Name  workspaces.Tool `json:"name"`
	Title string          `json:"title"`
	Paged bool            `json:"paged"`
	Path  string          `json:"path"`
}

type runRequest struct {
	Ranges         string `json:"ranges"`
	Prefix         string `json:"prefix"`
	Quality        string `json:"quality"`
	OutputFilename string `json:"output_filename"`
}

// List returns every tool in menu order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tools := workspaces.Tools()
	infos := make([]Info, len(tools))
	for i, t := range tools {
		infos[i] = Info{Name: t, Title: t.Title(), Paged: t.Paged(), Path: "/" + string(t)}
	}
	handlers.RespondJSON(w, http.StatusOK, infos)
}

// Run executes a tool action and streams the resulting document.
// Options are read from a JSON body or from form fields.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	tool, err := workspaces.ParseTool(r.PathValue("tool"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusNotFound, err)
		return
	}

	id, err := uuid.Parse(r.PathValue("workspace"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, workspaces.ErrInvalidID)
		return
	}

	req, err := h.request(w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	out, err := h.sys.Run(r.Context(), tool, id, req)
	if err != nil {
		status := MapHTTPStatus(err)
		if IsBackendError(err) {
			handlers.RespondMessage(w, h.logger, status, FailureMessage, err)
			return
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	handlers.RespondFile(w, out.Filename, out.ContentType, out.Data)
}

func (h *Handler) request(w http.ResponseWriter, r *http.Request) (Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxOptionsSize)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body runRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return Request{}, err
		}
		return Request(body), nil
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxOptionsSize); err != nil {
			return Request{}, err
		}
	} else if err := r.ParseForm(); err != nil {
		return Request{}, err
	}

	return Request{
		Ranges:         r.FormValue("ranges"),
		Prefix:         r.FormValue("prefix"),
		Quality:        r.FormValue("quality"),
		OutputFilename: r.FormValue("output_filename"),
	}, nil
}
