// Package storage provides blob storage for staged uploads and previews,
// backed by Azure Blob Storage or an in-process map.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JaimeStill/pdfdesk/pkg/lifecycle"
)

// System manages blob storage operations and lifecycle coordination.
type System interface {
	// Start registers startup hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
	// Upload streams data to a blob at the given key with the specified content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns a stream for the blob at the given key. The caller must close the body.
	// Returns ErrNotFound if the blob does not exist.
	Download(ctx context.Context, key string) (*Blob, error)
	// Delete removes the blob at the given key. Returns ErrNotFound if the blob does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether a blob exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
	// DeletePrefix removes every blob whose key starts with prefix and
	// returns how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Blob is a downloaded blob stream with its recorded content type.
type Blob struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// New creates the storage system selected by cfg.Provider.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	switch cfg.Provider {
	case ProviderAzure:
		return newAzure(cfg, logger)
	case ProviderMemory, "":
		return NewMemory(logger), nil
	default:
		return nil, fmt.Errorf("unknown storage provider: %q", cfg.Provider)
	}
}

// ReadAll downloads the blob at key fully into memory.
func ReadAll(ctx context.Context, s System, key string) ([]byte, string, error) {
	blob, err := s.Download(ctx, key)
	if err != nil {
		return nil, "", err
	}
	defer blob.Body.Close()

	data, err := io.ReadAll(blob.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, blob.ContentType, nil
}

func validatePrefix(prefix string) error {
	if err := validateKey(prefix); err != nil {
		return err
	}
	if !strings.HasSuffix(prefix, "/") {
		return ErrInvalidPrefix
	}
	return nil
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
