package pdfservice

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable wraps transport failures reaching the backend.
	ErrUnavailable = errors.New("pdf service unavailable")
	// ErrInvalidResponse indicates a 2xx response the client could not interpret.
	ErrInvalidResponse = errors.New("invalid pdf service response")
)

// ResponseError is a non-2xx answer from the backend.
type ResponseError struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *ResponseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("pdf service %s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("pdf service %s: status %d: %s", e.Endpoint, e.StatusCode, e.Detail)
}

// MapHTTPStatus maps backend errors to the status returned to callers.
// Backend 4xx answers are the caller's input; everything else is a bad gateway.
func MapHTTPStatus(err error) int {
	var re *ResponseError
	if errors.As(err, &re) {
		if re.StatusCode >= 400 && re.StatusCode < 500 {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	}
	if errors.Is(err, ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrInvalidResponse) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
