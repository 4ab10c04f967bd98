package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/JaimeStill/pdfdesk/internal/operations"
	"github.com/JaimeStill/pdfdesk/internal/workspaces"
	"github.com/JaimeStill/pdfdesk/pkg/pdfservice"
	"github.com/JaimeStill/pdfdesk/pkg/placement"
	"github.com/JaimeStill/pdfdesk/pkg/storage"
)

// Backend is the PDF service surface the tool actions drive.
// *pdfservice.Client implements it.
type Backend interface {
	Merge(ctx context.Context, files []pdfservice.Part, outputName string) (*pdfservice.Result, error)
	Split(ctx context.Context, file pdfservice.Part, ranges []pdfservice.Range, prefix string) (*pdfservice.Result, error)
	Extract(ctx context.Context, file pdfservice.Part, pages []int, outputName string) (*pdfservice.Result, error)
	RemovePages(ctx context.Context, file pdfservice.Part, pages []int, outputName string) (*pdfservice.Result, error)
	Reorder(ctx context.Context, file pdfservice.Part, order []int, outputName string) (*pdfservice.Result, error)
	Sign(ctx context.Context, file pdfservice.Part, pos placement.Region, sig pdfservice.Signature, outputName string) (*pdfservice.Result, error)
	Compress(ctx context.Context, file pdfservice.Part, quality pdfservice.Quality, outputName string) (*pdfservice.Result, error)
	ImagesToPDF(ctx context.Context, images []pdfservice.Part, outputName string) (*pdfservice.Result, error)
}

// Recorder persists finished backend calls.
type Recorder interface {
	Record(ctx context.Context, cmd operations.RecordCommand) (*operations.Operation, error)
}

// Runtime bundles the dependencies tool actions require.
// It is constructed by higher-level composition code from Infrastructure and Domain systems.
type Runtime struct {
	Backend    Backend
	Workspaces workspaces.System
	Storage    storage.System
	Operations Recorder
	Logger     *slog.Logger
	Now        func() time.Time
}
