package operations_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdfdesk/internal/operations"
	"github.com/JaimeStill/pdfdesk/pkg/database"
	"github.com/JaimeStill/pdfdesk/pkg/pagination"
	"github.com/JaimeStill/pdfdesk/pkg/routes"
)

type mockSystem struct {
	listFn   func(ctx context.Context, page pagination.PageRequest, filters operations.Filters) (*pagination.PageResult[operations.Operation], error)
	findFn   func(ctx context.Context, id uuid.UUID) (*operations.Operation, error)
	recordFn func(ctx context.Context, cmd operations.RecordCommand) (*operations.Operation, error)
}

func (m *mockSystem) Handler() *operations.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters operations.Filters) (*pagination.PageResult[operations.Operation], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*operations.Operation, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Record(ctx context.Context, cmd operations.RecordCommand) (*operations.Operation, error) {
	return m.recordFn(ctx, cmd)
}

func newTestHandler(sys operations.System) *operations.Handler {
	return operations.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *operations.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func sampleOperation() operations.Operation {
	return operations.Operation{
		ID:             uuid.MustParse("7a1c3f52-0f7e-4a55-9d61-2f1f5c0e9b11"),
		WorkspaceID:    uuid.MustParse("0b5d2a9e-6c47-4f0e-8d1b-3e9a7c2f4d60"),
		Tool:           "merge",
		Endpoint:       "/merge",
		InputFiles:     []string{"a.pdf", "b.pdf"},
		OutputFilename: ptr("merged_20260115100000.pdf"),
		Status:         operations.StatusSucceeded,
		BytesOut:       2048,
		DurationMS:     315,
		CreatedAt:      time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestHandlerList(t *testing.T) {
	t.Run("returns page with filters applied", func(t *testing.T) {
		var gotFilters operations.Filters
		var gotPage pagination.PageRequest

		sys := &mockSystem{
			listFn: func(_ context.Context, page pagination.PageRequest, filters operations.Filters) (*pagination.PageResult[operations.Operation], error) {
				gotPage = page
				gotFilters = filters
				result := pagination.NewPageResult([]operations.Operation{sampleOperation()}, 1, page.Page, page.PageSize)
				return &result, nil
			},
		}

		mux := setupMux(newTestHandler(sys))
		req := httptest.NewRequest(http.MethodGet, "/operations?tool=merge&status=succeeded&page=1&page_size=10", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if gotFilters.Tool == nil || *gotFilters.Tool != "merge" {
			t.Errorf("Tool filter = %v, want merge", gotFilters.Tool)
		}
		if gotFilters.Status == nil || *gotFilters.Status != "succeeded" {
			t.Errorf("Status filter = %v, want succeeded", gotFilters.Status)
		}
		if gotPage.PageSize != 10 {
			t.Errorf("PageSize = %d, want 10", gotPage.PageSize)
		}

		var result pagination.PageResult[operations.Operation]
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(result.Data) != 1 || result.Data[0].Tool != "merge" {
			t.Errorf("data = %+v, want one merge operation", result.Data)
		}
		if len(result.Data[0].InputFiles) != 2 {
			t.Errorf("InputFiles = %v, want 2 entries", result.Data[0].InputFiles)
		}
	})

	t.Run("malformed filter is rejected", func(t *testing.T) {
		sys := &mockSystem{
			listFn: func(context.Context, pagination.PageRequest, operations.Filters) (*pagination.PageResult[operations.Operation], error) {
				t.Error("List called with a malformed filter")
				return nil, nil
			},
		}

		mux := setupMux(newTestHandler(sys))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/operations?since=last-week", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("database not ready maps to 503", func(t *testing.T) {
		sys := &mockSystem{
			listFn: func(context.Context, pagination.PageRequest, operations.Filters) (*pagination.PageResult[operations.Operation], error) {
				return nil, database.ErrNotReady
			},
		}

		mux := setupMux(newTestHandler(sys))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/operations", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
		}
	})
}

func TestHandlerFind(t *testing.T) {
	op := sampleOperation()

	sys := &mockSystem{
		findFn: func(_ context.Context, id uuid.UUID) (*operations.Operation, error) {
			if id == op.ID {
				return &op, nil
			}
			return nil, operations.ErrNotFound
		},
	}
	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/operations/" + op.ID.String(), http.StatusOK},
		{"not found", "/operations/" + uuid.NewString(), http.StatusNotFound},
		{"invalid id", "/operations/not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
