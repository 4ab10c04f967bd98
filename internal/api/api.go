// Package api assembles the JSON API: workspaces, tool runs, operation
// history and the OpenAPI document describing them.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/pdfdesk/internal/config"
	"github.com/JaimeStill/pdfdesk/internal/infrastructure"
	"github.com/JaimeStill/pdfdesk/pkg/middleware"
	"github.com/JaimeStill/pdfdesk/pkg/module"
	"github.com/JaimeStill/pdfdesk/pkg/openapi"
	"github.com/JaimeStill/pdfdesk/pkg/routes"
)

// NewModule builds the API module mounted at cfg.API.BasePath. The
// workspace sweeper is registered with the lifecycle coordinator here.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	if err := domain.Workspaces.Start(runtime.Lifecycle); err != nil {
		return nil, fmt.Errorf("workspaces: %w", err)
	}

	serveSpec, err := openapi.Handler(NewSpec(cfg))
	if err != nil {
		return nil, fmt.Errorf("openapi: %w", err)
	}

	mux := http.NewServeMux()
	routes.Register(mux, domain.Groups()...)
	mux.HandleFunc("GET /openapi.json", serveSpec)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS), middleware.Logger(runtime.Logger))
	return m, nil
}
