package workspaces

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdfdesk/pkg/formatting"
	"github.com/JaimeStill/pdfdesk/pkg/placement"
	"github.com/JaimeStill/pdfdesk/pkg/reorder"
	"github.com/JaimeStill/pdfdesk/pkg/selection"
	"github.com/JaimeStill/pdfdesk/pkg/source"
	"github.com/JaimeStill/pdfdesk/pkg/upload"
)

// Upload is a file received from the browser, held in memory until staged.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Document is the single file a paged tool works on.
type Document struct {
	Slot      string `json:"slot"`
	Name      string `json:"name"`
	Origin    string `json:"origin"`
	URL       string `json:"url,omitempty"`
	PageCount int    `json:"page_count"`
}

// Signature is the image stamped by the sign tool: a data URL or a staged image.
type Signature struct {
	Data string
	File *upload.File
}

// Limits describes what the workspace's tool accepts.
type Limits struct {
	MaxFiles         int      `json:"max_files"`
	MaxFileSize      int64    `json:"max_file_size"`
	MaxFileSizeLabel string   `json:"max_file_size_label"`
	Accept           []string `json:"accept"`
}

// SignatureView summarizes the signature without echoing its bytes.
type SignatureView struct {
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
}

// View is the JSON snapshot of a workspace returned after every event.
type View struct {
	ID            uuid.UUID         `json:"id"`
	Tool          Tool              `json:"tool"`
	Title         string            `json:"title"`
	CreatedAt     time.Time         `json:"created_at"`
	ExpiresAt     time.Time         `json:"expires_at"`
	Revision      int               `json:"revision"`
	Busy          bool              `json:"busy"`
	Limits        Limits            `json:"limits"`
	Files         []upload.Slot     `json:"files"`
	Document      *Document         `json:"document,omitempty"`
	Page          int               `json:"page"`
	Order         []int             `json:"order"`
	Dragging      *int              `json:"dragging,omitempty"`
	Selection     []int             `json:"selection"`
	Placement     placement.Machine `json:"placement"`
	RegionVisible bool              `json:"region_visible"`
	Signature     *SignatureView    `json:"signature,omitempty"`
}

// Snapshot is the state a tool action reads once it holds the workspace.
type Snapshot struct {
	ID        uuid.UUID
	Tool      Tool
	Files     []upload.File
	Document  *Document
	Order     []int
	Selection []int
	Region    *placement.Region
	Signature *Signature
}

type workspace struct {
	id      uuid.UUID
	tool    Tool
	created time.Time
	limits  upload.Limits
	logger  *slog.Logger

	mu        sync.Mutex
	touched   time.Time
	revision  int
	busy      bool
	closed    bool
	queue     *upload.Queue
	origins   map[string]string
	doc       *Document
	order     *reorder.Controller
	selection *selection.Set
	place     placement.Machine
	signature *Signature
	page      int
}

func newWorkspace(tool Tool, limits upload.Limits, gen upload.Generator, now time.Time, logger *slog.Logger) *workspace {
	id := uuid.New()
	w := &workspace{
		id:      id,
		tool:    tool,
		created: now,
		touched: now,
		limits:  limits,
		logger:  logger.With("workspace", id, "tool", tool),
		queue:   upload.NewQueue(gen, logger),
		origins: make(map[string]string),
	}
	w.resetPages(0)
	return w
}

// resetPages rebuilds the page controllers for a document of n pages.
// The placement belongs to the previous document and is dropped with it.
func (w *workspace) resetPages(n int) {
	w.order = reorder.New(n)
	w.order.Observe(func(order []int) {
		w.logger.Debug("page order changed", "order", order)
	})

	w.selection = selection.New(n)
	w.selection.Observe(func(pages []int) {
		w.logger.Debug("page selection changed", "pages", pages)
	})

	w.place = placement.Machine{}
	w.page = 0
	if n > 0 {
		w.page = 1
	}
}

func (w *workspace) setDocument(slot upload.Slot, n int) {
	origin := source.KindLocal.String()
	url := w.origins[slot.ID]
	if url != "" {
		origin = source.KindRemote.String()
	}

	w.doc = &Document{
		Slot:      slot.ID,
		Name:      slot.File.Name,
		Origin:    origin,
		URL:       url,
		PageCount: n,
	}
	w.resetPages(n)
}

func (w *workspace) clearDocument() {
	w.doc = nil
	w.resetPages(0)
}

func (w *workspace) view(retention time.Duration) *View {
	v := &View{
		ID:        w.id,
		Tool:      w.tool,
		Title:     w.tool.Title(),
		CreatedAt: w.created,
		ExpiresAt: w.touched.Add(retention),
		Revision:  w.revision,
		Busy:      w.busy,
		Limits: Limits{
			MaxFiles:         w.limits.MaxFiles,
			MaxFileSize:      w.limits.MaxFileSize,
			MaxFileSizeLabel: formatting.FormatBytes(w.limits.MaxFileSize, 0),
			Accept:           w.limits.Accept,
		},
		Files:         w.queue.Slots(),
		Page:          w.page,
		Order:         w.order.Order(),
		Selection:     w.selection.Pages(),
		Placement:     w.place,
		RegionVisible: w.place.Visible(w.page),
	}

	if w.doc != nil {
		doc := *w.doc
		v.Document = &doc
	}

	if id, ok := w.order.Dragging(); ok {
		v.Dragging = &id
	}

	if w.signature != nil {
		if w.signature.File != nil {
			v.Signature = &SignatureView{Kind: "image", Name: w.signature.File.Name}
		} else {
			v.Signature = &SignatureView{Kind: "data"}
		}
	}

	return v
}

func (w *workspace) snapshot() *Snapshot {
	s := &Snapshot{
		ID:        w.id,
		Tool:      w.tool,
		Files:     w.queue.Files(),
		Order:     w.order.Order(),
		Selection: w.selection.Pages(),
	}

	if w.doc != nil {
		doc := *w.doc
		s.Document = &doc
	}

	if w.place.Region != nil {
		r := *w.place.Region
		s.Region = &r
	}

	if w.signature != nil {
		sig := *w.signature
		s.Signature = &sig
	}

	return s
}

// close marks the workspace closed and detaches its queue, returning it
// with the signature key it owned. The caller closes the queue without
// holding the lock; nothing touches it once closed is set.
func (w *workspace) close() (*upload.Queue, []string) {
	var keys []string
	if w.signature != nil && w.signature.File != nil {
		keys = append(keys, w.signature.File.Key)
	}
	w.closed = true
	w.signature = nil
	w.clearDocument()
	return w.queue, keys
}
