package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/pdfdesk/internal/api"
	"github.com/JaimeStill/pdfdesk/internal/config"
	"github.com/JaimeStill/pdfdesk/internal/infrastructure"
	"github.com/JaimeStill/pdfdesk/pkg/middleware"
	"github.com/JaimeStill/pdfdesk/pkg/module"
	"github.com/JaimeStill/pdfdesk/web/app"
)

type Modules struct {
	API   *module.Module
	Pages http.Handler
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	pages, err := app.NewHandler(app.Config{
		APIBasePath: cfg.API.BasePath,
		MaxFileSize: cfg.Uploads.MaxFileSizeBytes(),
	})
	if err != nil {
		return nil, err
	}

	return &Modules{
		API:   apiModule,
		Pages: middleware.Logger(infra.Logger.With("module", "app"))(pages),
	}, nil
}

// Mount serves the API under its prefix. Every other path not claimed by
// the health checks is a page.
func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Handle("/", m.Pages)
}

// readiness is the /readyz body. Tool actions keep working while the
// operation history is down, so a missing database only degrades the service.
type readiness struct {
	Status string          `json:"status"`
	Checks map[string]bool `json:"checks"`
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, readiness{Status: "ok"})
	})

	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		report := readiness{
			Status: "ready",
			Checks: map[string]bool{
				"startup":  infra.Lifecycle.Ready(),
				"database": infra.Database.Ready(),
			},
		}

		code := http.StatusOK
		switch {
		case !report.Checks["startup"]:
			report.Status = "not ready"
			code = http.StatusServiceUnavailable
		case !report.Checks["database"]:
			report.Status = "degraded"
		}
		writeStatus(w, code, report)
	})

	return router
}

func writeStatus(w http.ResponseWriter, code int, body readiness) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
