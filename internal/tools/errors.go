package tools

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/pdfdesk/internal/workspaces"
	"github.com/JaimeStill/pdfdesk/pkg/pdfservice"
)

var (
	ErrNoFile         = errors.New("no file selected")
	ErrTooFewFiles    = errors.New("select at least two files to merge")
	ErrEmptySelection = errors.New("select at least one page")
	ErrWholeDocument  = errors.New("cannot remove every page of the document")
	ErrNoSignature    = errors.New("create a signature first")
	ErrNoPosition     = errors.New("position the signature on the document")
	ErrInvalidQuality = errors.New("quality must be low, medium or high")
	ErrInvalidRange   = errors.New("invalid page range")
	ErrToolMismatch   = errors.New("workspace belongs to another tool")
)

// FailureMessage is returned to callers in place of backend error detail.
const FailureMessage = "the PDF service could not process the request, please try again"

// MapHTTPStatus maps tool action errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoFile),
		errors.Is(err, ErrTooFewFiles),
		errors.Is(err, ErrEmptySelection),
		errors.Is(err, ErrWholeDocument),
		errors.Is(err, ErrNoSignature),
		errors.Is(err, ErrNoPosition),
		errors.Is(err, ErrInvalidQuality),
		errors.Is(err, ErrInvalidRange),
		errors.Is(err, ErrToolMismatch):
		return http.StatusBadRequest
	case IsBackendError(err):
		return pdfservice.MapHTTPStatus(err)
	default:
		return workspaces.MapHTTPStatus(err)
	}
}

// IsBackendError reports whether err came from the PDF service.
func IsBackendError(err error) bool {
	var re *pdfservice.ResponseError
	return errors.As(err, &re) ||
		errors.Is(err, pdfservice.ErrUnavailable) ||
		errors.Is(err, pdfservice.ErrInvalidResponse)
}
