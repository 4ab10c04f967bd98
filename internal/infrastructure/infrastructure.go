// Package infrastructure assembles the shared systems every domain module
// depends on: lifecycle, logging, the operation history database, blob
// storage for staged files, the PDF backend client and preview rendering.
package infrastructure

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/JaimeStill/pdfdesk/internal/config"
	"github.com/JaimeStill/pdfdesk/pkg/database"
	"github.com/JaimeStill/pdfdesk/pkg/lifecycle"
	"github.com/JaimeStill/pdfdesk/pkg/pdfservice"
	"github.com/JaimeStill/pdfdesk/pkg/preview"
	"github.com/JaimeStill/pdfdesk/pkg/source"
	"github.com/JaimeStill/pdfdesk/pkg/storage"
)

// Infrastructure holds the core systems shared by the domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Service   *pdfservice.Client
	Previews  *preview.Generator
	// HTTP fetches remote documents. It shares the backend timeout and refuses
	// non-public addresses unless uploads.allow_private_remote is set.
	HTTP *http.Client
}

// New creates an Infrastructure logging to stderr as cfg.Logging selects.
// Nothing is started; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithLogger(cfg, cfg.Logging.Logger(os.Stderr))
}

// NewWithLogger is New with a caller-supplied logger.
func NewWithLogger(cfg *config.Config, logger *slog.Logger) (*Infrastructure, error) {
	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		db.Connection().Close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	hc := &http.Client{Timeout: cfg.Service.TimeoutDuration()}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Service:   pdfservice.NewWithHTTPClient(&cfg.Service, hc, logger),
		Previews:  preview.New(store, cfg.Uploads.PreviewSize),
		HTTP:      source.NewClient(cfg.Service.TimeoutDuration(), cfg.Uploads.AllowPrivateRemote),
	}, nil
}

// Scoped returns a shallow copy whose logger carries the given attributes.
// The systems themselves are shared.
func (i *Infrastructure) Scoped(args ...any) *Infrastructure {
	scoped := *i
	scoped.Logger = i.Logger.With(args...)
	return &scoped
}

// Start registers the database and storage hooks with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	return nil
}
