package workspaces

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdfdesk/pkg/handlers"
	"github.com/JaimeStill/pdfdesk/pkg/routes"
)

// multipartMemory is the part of a multipart body held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// Handler provides HTTP endpoints driving workspaces.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger and request size limit.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "workspaces"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for workspace endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/workspaces",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Close},
			{Method: "POST", Pattern: "/{id}/files", Handler: h.AddFiles},
			{Method: "POST", Pattern: "/{id}/remote", Handler: h.AddRemote},
			{Method: "DELETE", Pattern: "/{id}/files/{slot}", Handler: h.RemoveFile},
			{Method: "GET", Pattern: "/{id}/files/{slot}/preview", Handler: h.Preview},
			{Method: "POST", Pattern: "/{id}/document", Handler: h.LoadDocument},
			{Method: "PUT", Pattern: "/{id}/page", Handler: h.SetPage},
			{Method: "POST", Pattern: "/{id}/drag", Handler: h.Drag},
			{Method: "POST", Pattern: "/{id}/dragover", Handler: h.DragOver},
			{Method: "POST", Pattern: "/{id}/drop", Handler: h.Drop},
			{Method: "POST", Pattern: "/{id}/drag/end", Handler: h.EndDrag},
			{Method: "POST", Pattern: "/{id}/selection/toggle", Handler: h.Toggle},
			{Method: "POST", Pattern: "/{id}/selection/all", Handler: h.SelectAll},
			{Method: "DELETE", Pattern: "/{id}/selection", Handler: h.ClearSelection},
			{Method: "POST", Pattern: "/{id}/placement", Handler: h.Place},
			{Method: "PUT", Pattern: "/{id}/signature", Handler: h.SetSignature},
			{Method: "DELETE", Pattern: "/{id}/signature", Handler: h.ClearSignature},
		},
	}
}

type createRequest struct {
	Tool string `json:"tool"`
}

type pageRequest struct {
	Page int `json:"page"`
}

type remoteRequest struct {
	URL string `json:"url"`
}

type signatureRequest struct {
	Data string `json:"data"`
}

type dropResponse struct {
	Moved     bool  `json:"moved"`
	Workspace *View `json:"workspace"`
}

// Create opens a workspace for the tool named in the body.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrUnknownTool)
		return
	}

	tool, err := ParseTool(req.Tool)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	v, err := h.sys.Create(tool)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, v)
}

// Find returns the current workspace view.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	h.respond(w)(h.sys.Find(id))
}

// Close tears the workspace down and discards its staged files.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	if err := h.sys.Close(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddFiles stages the files of a multipart form (field "files" or "file").
func (h *Handler) AddFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	if err := h.parseMultipart(w, r); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	headers := slices.Concat(r.MultipartForm.File["files"], r.MultipartForm.File["file"])
	if len(headers) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	files := make([]Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := readUpload(fh)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
			return
		}
		files = append(files, u)
	}

	result, err := h.sys.AddFiles(r.Context(), id, files)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// AddRemote fetches a document from a URL and stages it.
func (h *Handler) AddRemote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	var req remoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	result, err := h.sys.AddRemote(r.Context(), id, strings.TrimSpace(req.URL))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// RemoveFile drops a queued file and its preview.
func (h *Handler) RemoveFile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	h.respond(w)(h.sys.RemoveFile(r.Context(), id, r.PathValue("slot")))
}

// Preview streams the thumbnail of a queued image.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	blob, err := h.sys.Preview(r.Context(), id, r.PathValue("slot"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer blob.Body.Close()

	w.Header().Set("Content-Type", blob.ContentType)
	if blob.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.ContentLength, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	io.Copy(w, blob.Body)
}

// LoadDocument retries the page count of the workspace document.
func (h *Handler) LoadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	h.respond(w)(h.sys.LoadDocument(r.Context(), id))
}

// SetPage changes the displayed page.
func (h *Handler) SetPage(w http.ResponseWriter, r *http.Request) {
	id, page, ok := h.page(w, r)
	if !ok {
		return
	}
	h.respond(w)(h.sys.SetPage(id, page))
}

// Drag starts moving a page.
func (h *Handler) Drag(w http.ResponseWriter, r *http.Request) {
	id, page, ok := h.page(w, r)
	if !ok {
		return
	}
	h.respond(w)(h.sys.Drag(id, page))
}

// DragOver reports whether the current drag may drop on the target page.
func (h *Handler) DragOver(w http.ResponseWriter, r *http.Request) {
	id, page, ok := h.page(w, r)
	if !ok {
		return
	}

	accepted, err := h.sys.DragOver(id, page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]bool{"accepted": accepted})
}

// Drop moves the dragged page before the target page.
func (h *Handler) Drop(w http.ResponseWriter, r *http.Request) {
	id, page, ok := h.page(w, r)
	if !ok {
		return
	}

	v, moved, err := h.sys.Drop(id, page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, dropResponse{Moved: moved, Workspace: v})
}

// EndDrag abandons the current drag.
func (h *Handler) EndDrag(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	h.respond(w)(h.sys.EndDrag(id))
}

// Toggle flips the selection of one page.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, page, ok := h.page(w, r)
	if !ok {
		return
	}
	h.respond(w)(h.sys.Toggle(id, page))
}

// SelectAll selects every page of the document.
func (h *Handler) SelectAll(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	h.respond(w)(h.sys.SelectAll(id))
}

// ClearSelection empties the selection.
func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	h.respond(w)(h.sys.ClearSelection(id))
}

// Place applies a placement event to the signature region.
func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	var e PlacementEvent
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrUnknownEvent)
		return
	}

	h.respond(w)(h.sys.Place(id, e))
}

// SetSignature accepts {"data": "data:image/..."} as JSON, or a multipart
// form with an "image" file.
func (h *Handler) SetSignature(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	var in SignatureInput

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := h.parseMultipart(w, r); err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		if v := r.FormValue("data"); v != "" {
			in.Data = v
		} else if fhs := r.MultipartForm.File["image"]; len(fhs) > 0 {
			u, err := readUpload(fhs[0])
			if err != nil {
				handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidSignature)
				return
			}
			in.Image = &u
		}
	} else {
		var req signatureRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUploadSize)).Decode(&req); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidSignature)
			return
		}
		in.Data = req.Data
	}

	h.respond(w)(h.sys.SetSignature(r.Context(), id, in))
}

// ClearSignature removes the signature.
func (h *Handler) ClearSignature(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	h.respond(w)(h.sys.ClearSignature(r.Context(), id))
}

func (h *Handler) id(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) (uuid.UUID, int, bool) {
	id, ok := h.id(w, r)
	if !ok {
		return uuid.Nil, 0, false
	}

	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidPage)
		return uuid.Nil, 0, false
	}
	return id, req.Page, true
}

func (h *Handler) respond(w http.ResponseWriter) func(*View, error) {
	return func(v *View, err error) {
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, http.StatusOK, v)
	}
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrFileTooLarge
		}
		return ErrInvalidFile
	}
	return nil
}

func readUpload(fh *multipart.FileHeader) (Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, err
	}

	return Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
