package operations

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/pdfdesk/pkg/database"
)

// Domain errors for operation history.
var (
	ErrNotFound  = errors.New("operation not found")
	ErrDuplicate = errors.New("operation already exists")
	ErrInvalidID = errors.New("invalid operation id")

	ErrInvalidFilter = errors.New("invalid operation filter")

	ErrInvalidRecord = errors.New("operation violates a table constraint")
)

// MapHTTPStatus maps operation errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidID) || errors.Is(err, ErrInvalidFilter) {
		return http.StatusBadRequest
	}
	if errors.Is(err, database.ErrNotReady) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
