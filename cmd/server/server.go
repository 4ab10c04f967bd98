package main

import (
	"time"

	"github.com/JaimeStill/pdfdesk/internal/config"
	"github.com/JaimeStill/pdfdesk/internal/infrastructure"
)

// Server owns the shared infrastructure and the HTTP listener serving the
// mounted modules.
type Server struct {
	infra *infrastructure.Infrastructure
	http  *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"pdfdesk configured",
		"version", cfg.Version,
		"env", cfg.Env(),
		"addr", cfg.Server.Addr(),
		"api", cfg.API.BasePath,
		"backend", cfg.Service.BaseURL,
		"storage", cfg.Storage.Provider,
	)

	return &Server{
		infra: infra,
		http:  newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start registers the infrastructure hooks, then opens the listener. The
// readiness probe flips once every startup hook has finished.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("ready")
	}()
	return nil
}

// Shutdown stops accepting traffic, closes every open workspace and waits
// for the hooks to finish within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("shutting down", "timeout", timeout)
	if err := s.infra.Lifecycle.Shutdown(timeout); err != nil {
		return err
	}
	s.infra.Logger.Info("stopped")
	return nil
}
