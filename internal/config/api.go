package config

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/pdfdesk/pkg/formatting"
	"github.com/JaimeStill/pdfdesk/pkg/middleware"
	"github.com/JaimeStill/pdfdesk/pkg/openapi"
	"github.com/JaimeStill/pdfdesk/pkg/pagination"
	"github.com/JaimeStill/pdfdesk/pkg/settings"
)

const (
	EnvAPIBasePath      = "PDFDESK_API_BASE_PATH"
	EnvAPIMaxUploadSize = "PDFDESK_API_MAX_UPLOAD_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "PDFDESK_CORS_ENABLED",
	Origins:          "PDFDESK_CORS_ORIGINS",
	AllowedMethods:   "PDFDESK_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "PDFDESK_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "PDFDESK_CORS_EXPOSED_HEADERS",
	AllowCredentials: "PDFDESK_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "PDFDESK_CORS_MAX_AGE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "PDFDESK_OPENAPI_TITLE",
	Description: "PDFDESK_OPENAPI_DESCRIPTION",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "PDFDESK_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "PDFDESK_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, request size, CORS, pagination, and OpenAPI settings.
// MaxUploadSize bounds a whole multipart request, which may carry several files.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes. Call after Finalize.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, _ := formatting.ParseBytes(c.MaxUploadSize)
	return size
}

// Finalize applies defaults, environment overrides, and validation for the
// API config and its nested configs.
func (c *APIConfig) Finalize() error {
	settings.Default(&c.BasePath, "/api")
	settings.Default(&c.MaxUploadSize, "200MB")

	err := settings.Apply(
		settings.String(EnvAPIBasePath, &c.BasePath),
		settings.String(EnvAPIMaxUploadSize, &c.MaxUploadSize),
	)
	if err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge applies the non-zero fields of overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	settings.Overlay(&c.BasePath, overlay.BasePath)
	settings.Overlay(&c.MaxUploadSize, overlay.MaxUploadSize)

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") || (len(c.BasePath) > 1 && strings.HasSuffix(c.BasePath, "/")) {
		return fmt.Errorf("invalid base_path: %q", c.BasePath)
	}
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	return nil
}
