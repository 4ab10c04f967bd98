package api

import (
	"github.com/JaimeStill/pdfdesk/internal/config"
	"github.com/JaimeStill/pdfdesk/internal/infrastructure"
	"github.com/JaimeStill/pdfdesk/internal/workspaces"
	"github.com/JaimeStill/pdfdesk/pkg/pagination"
)

// Runtime is the API's view of the infrastructure: the shared systems with
// an api-scoped logger, plus the limits the domain systems enforce.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Workspaces workspaces.Config
}

// NewRuntime derives the API runtime from the service configuration.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: infra.Scoped("module", "api"),
		Pagination:     cfg.API.Pagination,
		Workspaces: workspaces.Config{
			MaxFileSize:   cfg.Uploads.MaxFileSizeBytes(),
			MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
			Retention:     cfg.Uploads.RetentionDuration(),
			SweepInterval: cfg.Uploads.SweepIntervalDuration(),
		},
	}
}
