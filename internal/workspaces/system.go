// Package workspaces hosts one session per tool page visit. A workspace owns
// the staged files of the visit and one instance of each page controller,
// and serializes the browser's events on them.
package workspaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdfdesk/pkg/lifecycle"
	"github.com/JaimeStill/pdfdesk/pkg/pdfservice"
	"github.com/JaimeStill/pdfdesk/pkg/storage"
	"github.com/JaimeStill/pdfdesk/pkg/upload"
)

// PageCounter asks the backend for a document's page count.
// *pdfservice.Client implements it.
type PageCounter interface {
	PageCount(ctx context.Context, file pdfservice.Part) (int, error)
}

// Config tunes the workspace registry.
type Config struct {
	// MaxFileSize caps every tool's per-file limit. Zero keeps the tool limits.
	MaxFileSize int64
	// MaxUploadSize bounds a single multipart request body.
	MaxUploadSize int64
	// Retention is how long an idle workspace survives.
	Retention time.Duration
	// SweepInterval is how often expired workspaces are closed.
	SweepInterval time.Duration
	// Now overrides the clock. Nil uses time.Now.
	Now func() time.Time
}

// AddResult reports which files a workspace accepted. PageError is set when
// the tool needs a page count and it could not be determined.
type AddResult struct {
	upload.Result
	Workspace *View  `json:"workspace"`
	PageError string `json:"page_error,omitempty"`
}

// SignatureInput sets the signature from a data URL or an uploaded image.
type SignatureInput struct {
	Data  string
	Image *Upload
}

// System defines the workspace registry contract.
type System interface {
	Handler() *Handler
	Start(lc *lifecycle.Coordinator) error

	Create(tool Tool) (*View, error)
	Find(id uuid.UUID) (*View, error)
	Close(ctx context.Context, id uuid.UUID) error
	Sweep(ctx context.Context) int

	AddFiles(ctx context.Context, id uuid.UUID, files []Upload) (*AddResult, error)
	AddRemote(ctx context.Context, id uuid.UUID, rawURL string) (*AddResult, error)
	RemoveFile(ctx context.Context, id uuid.UUID, slot string) (*View, error)
	Preview(ctx context.Context, id uuid.UUID, slot string) (*storage.Blob, error)
	LoadDocument(ctx context.Context, id uuid.UUID) (*View, error)
	SetPage(id uuid.UUID, page int) (*View, error)

	Drag(id uuid.UUID, page int) (*View, error)
	DragOver(id uuid.UUID, target int) (bool, error)
	Drop(id uuid.UUID, target int) (*View, bool, error)
	EndDrag(id uuid.UUID) (*View, error)

	Toggle(id uuid.UUID, page int) (*View, error)
	SelectAll(id uuid.UUID) (*View, error)
	ClearSelection(id uuid.UUID) (*View, error)

	Place(id uuid.UUID, e PlacementEvent) (*View, error)
	SetSignature(ctx context.Context, id uuid.UUID, in SignatureInput) (*View, error)
	ClearSignature(ctx context.Context, id uuid.UUID) (*View, error)

	// Acquire marks the workspace busy and returns its state for a tool
	// action. It fails with ErrBusy while another action holds it.
	Acquire(id uuid.UUID) (*Snapshot, error)
	// Release clears the busy mark set by Acquire.
	Release(id uuid.UUID)
}
