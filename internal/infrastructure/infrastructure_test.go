package infrastructure_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/JaimeStill/pdfdesk/internal/config"
	"github.com/JaimeStill/pdfdesk/internal/infrastructure"
	"github.com/JaimeStill/pdfdesk/pkg/database"
	"github.com/JaimeStill/pdfdesk/pkg/pdfservice"
	"github.com/JaimeStill/pdfdesk/pkg/storage"
)

func validConfig() *config.Config {
	return &config.Config{
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "pdfdesk",
			User:            "pdfdesk",
			Password:        "pdfdesk",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{Provider: storage.ProviderMemory},
		Service: pdfservice.Config{
			BaseURL: "http://backend:8000/api/v1",
			Timeout: "45s",
		},
		Uploads: config.UploadsConfig{PreviewSize: 96},
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.NewWithLogger(validConfig(), discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil || infra.Logger == nil || infra.Database == nil || infra.Storage == nil {
		t.Fatal("core systems must be initialized")
	}
	if infra.Service == nil {
		t.Fatal("Service is nil")
	}
	if infra.Service.BaseURL() != "http://backend:8000/api/v1" {
		t.Errorf("Service.BaseURL() = %q", infra.Service.BaseURL())
	}
	if infra.Previews == nil {
		t.Error("Previews is nil")
	}
	if infra.HTTP == nil || infra.HTTP.Timeout != 45*time.Second {
		t.Errorf("HTTP client timeout = %v, want 45s", infra.HTTP.Timeout)
	}
}

func TestDatabaseNotReadyBeforeStart(t *testing.T) {
	infra, err := infrastructure.NewWithLogger(validConfig(), discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer infra.Database.Connection().Close()

	if infra.Database.Ready() {
		t.Error("database reported ready before the startup ping")
	}
}

func TestNewUnknownStorageProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Provider = "s3"

	if _, err := infrastructure.NewWithLogger(cfg, discard()); err == nil {
		t.Fatal("expected error for unknown storage provider")
	}
}

func TestStartRegistersHooks(t *testing.T) {
	infra, err := infrastructure.NewWithLogger(validConfig(), discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := infra.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := infra.Lifecycle.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestScoped(t *testing.T) {
	infra, err := infrastructure.NewWithLogger(validConfig(), discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer infra.Database.Connection().Close()

	scoped := infra.Scoped("module", "api")
	if scoped == infra {
		t.Fatal("Scoped returned the receiver")
	}
	if scoped.Logger == infra.Logger {
		t.Error("Scoped kept the parent logger")
	}
	if scoped.Lifecycle != infra.Lifecycle || scoped.Service != infra.Service || scoped.HTTP != infra.HTTP {
		t.Error("Scoped must share the underlying systems")
	}
}
