package storage_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/pdfdesk/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=pdfdesk;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/pdfdesk;"

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewProviders(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr bool
	}{
		{"memory", storage.Config{Provider: storage.ProviderMemory}, false},
		{"default", storage.Config{}, false},
		{"azure connection string", storage.Config{Provider: storage.ProviderAzure, ContainerName: "workspaces", ConnectionString: azuriteConnString}, false},
		{"azure invalid connection string", storage.Config{Provider: storage.ProviderAzure, ContainerName: "workspaces", ConnectionString: "nope"}, true},
		{"unknown", storage.Config{Provider: "s3"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, err := storage.New(&tt.cfg, discard())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if sys == nil {
				t.Fatal("New() returned nil system")
			}
		})
	}
}

func TestFinalize(t *testing.T) {
	t.Setenv("TEST_STORAGE_PROVIDER", "azure")
	t.Setenv("TEST_STORAGE_URL", "https://acct.blob.core.windows.net")

	env := &storage.Env{Provider: "TEST_STORAGE_PROVIDER", ServiceURL: "TEST_STORAGE_URL"}

	cfg := storage.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if cfg.Provider != storage.ProviderAzure {
		t.Errorf("provider: got %s, want azure", cfg.Provider)
	}
	if cfg.ContainerName != "workspaces" {
		t.Errorf("container_name: got %s, want workspaces", cfg.ContainerName)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("max_retries: got %d, want 3", cfg.MaxRetries)
	}

	t.Setenv("TEST_STORAGE_RETRIES", "many")
	retries := storage.Config{}
	if err := retries.Finalize(&storage.Env{MaxRetries: "TEST_STORAGE_RETRIES"}); err == nil || !strings.Contains(err.Error(), "TEST_STORAGE_RETRIES") {
		t.Errorf("expected malformed retries error, got %v", err)
	}

	bad := storage.Config{Provider: storage.ProviderAzure}
	if err := bad.Finalize(nil); err == nil || !strings.Contains(err.Error(), "service_url") {
		t.Errorf("expected credential error, got %v", err)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory(discard())

	if err := m.Upload(ctx, "workspaces/a/file.pdf", strings.NewReader("%PDF-1.7"), "application/pdf"); err != nil {
		t.Fatalf("upload: %v", err)
	}

	ok, err := m.Exists(ctx, "workspaces/a/file.pdf")
	if err != nil || !ok {
		t.Fatalf("exists: got (%v, %v)", ok, err)
	}

	data, ct, err := storage.ReadAll(ctx, m, "workspaces/a/file.pdf")
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if string(data) != "%PDF-1.7" || ct != "application/pdf" {
		t.Errorf("got (%q, %q)", data, ct)
	}

	if err := m.Delete(ctx, "workspaces/a/file.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.Delete(ctx, "workspaces/a/file.pdf"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
	if _, err := m.Download(ctx, "workspaces/a/file.pdf"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("download: got %v, want ErrNotFound", err)
	}
	if m.Len() != 0 {
		t.Errorf("len: got %d, want 0", m.Len())
	}
}

func TestMemoryDeletePrefix(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory(discard())

	for _, key := range []string{
		"workspaces/a/1/one.pdf",
		"workspaces/a/signature/2/sig.png",
		"workspaces/ab/3/other.pdf",
		"previews/4.png",
	} {
		if err := m.Upload(ctx, key, strings.NewReader("x"), "application/octet-stream"); err != nil {
			t.Fatalf("upload %s: %v", key, err)
		}
	}

	n, err := m.DeletePrefix(ctx, "workspaces/a/")
	if err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	if n != 2 || m.Len() != 2 {
		t.Errorf("removed = %d, remaining = %d, want 2 and 2", n, m.Len())
	}
	if ok, _ := m.Exists(ctx, "workspaces/ab/3/other.pdf"); !ok {
		t.Error("sibling workspace blob removed")
	}

	tests := []struct {
		prefix  string
		wantErr error
	}{
		{"", storage.ErrEmptyKey},
		{"workspaces/a", storage.ErrInvalidPrefix},
		{"workspaces/../", storage.ErrInvalidKey},
	}
	for _, tt := range tests {
		if _, err := m.DeletePrefix(ctx, tt.prefix); !errors.Is(err, tt.wantErr) {
			t.Errorf("DeletePrefix(%q) error = %v, want %v", tt.prefix, err, tt.wantErr)
		}
	}
}

func TestKeyValidation(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory(discard())

	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"empty key", "", storage.ErrEmptyKey},
		{"path traversal", "workspaces/../secrets/key", storage.ErrInvalidKey},
		{"double dot in middle", "docs/..hidden/file.pdf", storage.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.Upload(ctx, tt.key, bytes.NewReader(nil), "application/pdf"); !errors.Is(err, tt.wantErr) {
				t.Errorf("Upload() error = %v, want %v", err, tt.wantErr)
			}
			if _, err := m.Download(ctx, tt.key); !errors.Is(err, tt.wantErr) {
				t.Errorf("Download() error = %v, want %v", err, tt.wantErr)
			}
			if err := m.Delete(ctx, tt.key); !errors.Is(err, tt.wantErr) {
				t.Errorf("Delete() error = %v, want %v", err, tt.wantErr)
			}
			if _, err := m.Exists(ctx, tt.key); !errors.Is(err, tt.wantErr) {
				t.Errorf("Exists() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", storage.ErrNotFound, http.StatusNotFound},
		{"invalid prefix", storage.ErrInvalidPrefix, http.StatusBadRequest},
		{"empty key", storage.ErrEmptyKey, http.StatusBadRequest},
		{"invalid key", storage.ErrInvalidKey, http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("operation failed: %w", storage.ErrNotFound), http.StatusNotFound},
		{"unknown", fmt.Errorf("unexpected failure"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := storage.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
