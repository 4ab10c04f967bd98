package workspaces

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/pdfdesk/pkg/source"
	"github.com/JaimeStill/pdfdesk/pkg/storage"
)

var (
	ErrNotFound         = errors.New("workspace not found")
	ErrInvalidID        = errors.New("invalid workspace id")
	ErrUnknownTool      = errors.New("unknown tool")
	ErrSlotNotFound     = errors.New("file not found in workspace")
	ErrNoPreview        = errors.New("preview not available")
	ErrNoDocument       = errors.New("no document loaded")
	ErrUnsupported      = errors.New("operation not available for this tool")
	ErrUnknownEvent     = errors.New("unknown placement event")
	ErrInvalidPage      = errors.New("page out of range")
	ErrInvalidSignature = errors.New("signature must be an image data url or an image file")
	ErrInvalidFile      = errors.New("invalid file upload")
	ErrFileTooLarge     = errors.New("upload exceeds maximum size")
	ErrPageCount        = errors.New("document page count could not be determined")
	ErrBusy             = errors.New("a request is already in progress for this workspace")
)

// MapHTTPStatus maps workspace errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrSlotNotFound),
		errors.Is(err, ErrNoPreview),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBusy):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge),
		errors.Is(err, source.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrPageCount),
		errors.Is(err, source.ErrUnreadable),
		errors.Is(err, source.ErrEmpty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, source.ErrForbiddenHost):
		return http.StatusBadRequest
	case errors.Is(err, source.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrUnknownTool),
		errors.Is(err, ErrNoDocument),
		errors.Is(err, ErrUnsupported),
		errors.Is(err, ErrUnknownEvent),
		errors.Is(err, ErrInvalidPage),
		errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrInvalidFile),
		errors.Is(err, source.ErrInvalidURL):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
