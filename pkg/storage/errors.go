package storage

import (
	"errors"
	"net/http"
)

// Errors shared by every provider.
var (
	ErrNotFound      = errors.New("staged blob not found")
	ErrEmptyKey      = errors.New("empty storage key")
	ErrInvalidKey    = errors.New(`storage key must not contain ".."`)
	ErrInvalidPrefix = errors.New(`storage prefix must end with "/"`)
)

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey), errors.Is(err, ErrInvalidPrefix):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
