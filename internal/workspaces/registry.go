package workspaces

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/pdfdesk/pkg/formatting"
	"github.com/JaimeStill/pdfdesk/pkg/lifecycle"
	"github.com/JaimeStill/pdfdesk/pkg/pdfservice"
	"github.com/JaimeStill/pdfdesk/pkg/placement"
	"github.com/JaimeStill/pdfdesk/pkg/source"
	"github.com/JaimeStill/pdfdesk/pkg/storage"
	"github.com/JaimeStill/pdfdesk/pkg/upload"
)

const stageConcurrency = 4

type registry struct {
	cfg     Config
	store   storage.System
	counter PageCounter
	gen     upload.Generator
	http    *http.Client
	logger  *slog.Logger

	mu         sync.RWMutex
	workspaces map[uuid.UUID]*workspace
}

// New creates the workspace registry. counter and gen may be nil, which
// disables the backend page count and image previews respectively.
func New(
	cfg Config,
	store storage.System,
	counter PageCounter,
	gen upload.Generator,
	client *http.Client,
	logger *slog.Logger,
) System {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Retention <= 0 {
		cfg.Retention = time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &registry{
		cfg:        cfg,
		store:      store,
		counter:    counter,
		gen:        gen,
		http:       client,
		logger:     logger.With("system", "workspaces"),
		workspaces: make(map[uuid.UUID]*workspace),
	}
}

func (r *registry) Handler() *Handler {
	return NewHandler(r, r.logger, r.cfg.MaxUploadSize)
}

// Start runs the expiry sweep until shutdown, then closes every workspace.
func (r *registry) Start(lc *lifecycle.Coordinator) error {
	r.logger.Info("starting workspace sweeper",
		"retention", r.cfg.Retention,
		"interval", r.cfg.SweepInterval,
	)

	lc.Every(r.cfg.SweepInterval, func(ctx context.Context) {
		if n := r.Sweep(ctx); n > 0 {
			r.logger.Info("expired workspaces closed", "count", n)
		}
	})

	lc.OnCleanup(func(ctx context.Context) {
		n := r.closeAll(ctx)
		r.logger.Info("workspaces closed", "count", n)
	})

	return nil
}

func (r *registry) Create(tool Tool) (*View, error) {
	if _, err := ParseTool(string(tool)); err != nil {
		return nil, err
	}

	w := newWorkspace(tool, tool.Limits(r.cfg.MaxFileSize), r.gen, r.cfg.Now(), r.logger)

	r.mu.Lock()
	r.workspaces[w.id] = w
	r.mu.Unlock()

	r.logger.Info("workspace created", "id", w.id, "tool", tool)

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view(r.cfg.Retention), nil
}

func (r *registry) Find(id uuid.UUID) (*View, error) {
	w, err := r.lock(id)
	if err != nil {
		return nil, err
	}
	defer w.mu.Unlock()

	w.touched = r.cfg.Now()
	return w.view(r.cfg.Retention), nil
}

func (r *registry) Close(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	w, ok := r.workspaces[id]
	delete(r.workspaces, id)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	r.teardown(ctx, w)
	r.logger.Info("workspace closed", "id", id)
	return nil
}

// Sweep closes every idle workspace whose retention has elapsed.
// Busy workspaces are never swept.
func (r *registry) Sweep(ctx context.Context) int {
	now := r.cfg.Now()

	r.mu.Lock()
	var expired []*workspace
	for id, w := range r.workspaces {
		w.mu.Lock()
		stale := !w.busy && now.Sub(w.touched) > r.cfg.Retention
		w.mu.Unlock()
		if stale {
			expired = append(expired, w)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()

	for _, w := range expired {
		r.teardown(ctx, w)
	}
	return len(expired)
}

func (r *registry) closeAll(ctx context.Context) int {
	r.mu.Lock()
	all := r.workspaces
	r.workspaces = make(map[uuid.UUID]*workspace)
	r.mu.Unlock()

	for _, w := range all {
		r.teardown(ctx, w)
	}
	return len(all)
}

func (r *registry) AddFiles(ctx context.Context, id uuid.UUID, files []Upload) (*AddResult, error) {
	w, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files", ErrInvalidFile)
	}

	staged, err := r.stage(ctx, w.id, files)
	if err != nil {
		return nil, err
	}

	return r.enqueue(ctx, w, staged, "")
}

func (r *registry) AddRemote(ctx context.Context, id uuid.UUID, rawURL string) (*AddResult, error) {
	w, err := r.get(id)
	if err != nil {
		return nil, err
	}

	src, err := source.Remote(rawURL)
	if err != nil {
		return nil, err
	}
	src = src.Limit(w.limits.MaxFileSize)

	data, err := src.Load(ctx, r.http)
	if err != nil {
		return nil, err
	}

	name := remoteName(src.URL())
	staged, err := r.stage(ctx, w.id, []Upload{{
		Name:        name,
		ContentType: DetectContentType(name, "", data),
		Data:        data,
	}})
	if err != nil {
		return nil, err
	}

	return r.enqueue(ctx, w, staged, src.URL())
}

// enqueue offers staged files to the queue, discards the blobs it refused
// and loads the document of paged tools.
// A workspace closed while the files were staging owns none of them.
func (r *registry) enqueue(ctx context.Context, w *workspace, staged []upload.File, origin string) (*AddResult, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		r.deleteBlobs(context.WithoutCancel(ctx), fileKeys(staged))
		return nil, ErrNotFound
	}
	res := w.queue.Add(staged, w.limits)
	accepted := make(map[string]bool, len(res.Accepted))
	for _, slot := range res.Accepted {
		accepted[slot.File.Key] = true
		if origin != "" {
			w.origins[slot.ID] = origin
		}
	}
	if len(res.Accepted) > 0 {
		w.revision++
	}
	w.touched = r.cfg.Now()
	needsPages := w.tool.Paged() && w.doc == nil && w.queue.Len() > 0
	w.mu.Unlock()

	var refused []string
	for _, f := range staged {
		if !accepted[f.Key] {
			refused = append(refused, f.Key)
		}
	}
	r.deleteBlobs(ctx, refused)

	w.logger.Info("files added",
		"accepted", len(res.Accepted),
		"rejected", len(res.Rejected),
		"dropped", res.Dropped,
	)

	result := &AddResult{Result: res}

	if needsPages {
		if err := r.loadDocument(ctx, w); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, err
			}
			result.PageError = err.Error()
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrNotFound
	}
	result.Workspace = w.view(r.cfg.Retention)

	return result, nil
}

func (r *registry) RemoveFile(ctx context.Context, id uuid.UUID, slotID string) (*View, error) {
	var key string

	v, err := r.mutate(id, func(w *workspace) error {
		slot, ok := w.queue.Remove(slotID)
		if !ok {
			return ErrSlotNotFound
		}
		key = slot.File.Key
		delete(w.origins, slotID)
		if w.doc != nil && w.doc.Slot == slotID {
			w.clearDocument()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.deleteBlobs(ctx, []string{key})
	return v, nil
}

func (r *registry) Preview(ctx context.Context, id uuid.UUID, slotID string) (*storage.Blob, error) {
	w, err := r.lock(id)
	if err != nil {
		return nil, err
	}
	slot, ok := w.queue.Find(slotID)
	w.mu.Unlock()

	if !ok {
		return nil, ErrSlotNotFound
	}
	if slot.Preview == "" {
		return nil, ErrNoPreview
	}
	return r.store.Download(ctx, slot.Preview)
}

func (r *registry) LoadDocument(ctx context.Context, id uuid.UUID) (*View, error) {
	w, err := r.get(id)
	if err != nil {
		return nil, err
	}

	if err := r.loadDocument(ctx, w); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrNotFound
	}
	return w.view(r.cfg.Retention), nil
}

// loadDocument counts the pages of the first queued file and rebuilds the
// page controllers. The lock is not held while the backend is consulted.
func (r *registry) loadDocument(ctx context.Context, w *workspace) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrNotFound
	}
	if !w.tool.Paged() {
		w.mu.Unlock()
		return ErrUnsupported
	}
	slots := w.queue.Slots()
	w.mu.Unlock()

	if len(slots) == 0 {
		return ErrNoDocument
	}
	slot := slots[0]

	data, _, err := storage.ReadAll(ctx, r.store, slot.File.Key)
	if err != nil {
		return err
	}

	n, err := r.countPages(ctx, slot.File, data)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrNotFound
	}
	if _, ok := w.queue.Find(slot.ID); !ok {
		return ErrNoDocument
	}
	if err != nil {
		w.clearDocument()
		w.revision++
		return err
	}

	w.setDocument(slot, n)
	w.revision++
	w.logger.Info("document loaded", "name", slot.File.Name, "pages", n)
	return nil
}

// countPages asks the backend first and falls back to a local count.
// No default is assumed when both fail.
func (r *registry) countPages(ctx context.Context, f upload.File, data []byte) (int, error) {
	if r.counter != nil {
		n, err := r.counter.PageCount(ctx, pdfservice.Part{
			Filename:    f.Name,
			ContentType: f.ContentType,
			Data:        data,
		})
		if err == nil && n > 0 {
			return n, nil
		}
		r.logger.Warn("backend page count failed, counting locally", "name", f.Name, "error", err)
	}

	n, err := source.Local(data).PageCount(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrPageCount, f.Name, err)
	}
	return n, nil
}

func (r *registry) SetPage(id uuid.UUID, page int) (*View, error) {
	return r.mutate(id, func(w *workspace) error {
		if w.doc == nil {
			return ErrNoDocument
		}
		if page < 1 || page > w.doc.PageCount {
			return fmt.Errorf("%w: %d of %d", ErrInvalidPage, page, w.doc.PageCount)
		}
		w.page = page
		return nil
	})
}

func (r *registry) Drag(id uuid.UUID, page int) (*View, error) {
	return r.mutate(id, func(w *workspace) error {
		if err := w.require(w.tool.reorders()); err != nil {
			return err
		}
		w.order.BeginDrag(page)
		return nil
	})
}

func (r *registry) DragOver(id uuid.UUID, target int) (bool, error) {
	w, err := r.lock(id)
	if err != nil {
		return false, err
	}
	defer w.mu.Unlock()

	if err := w.require(w.tool.reorders()); err != nil {
		return false, err
	}
	return w.order.DragOver(target), nil
}

func (r *registry) Drop(id uuid.UUID, target int) (*View, bool, error) {
	var moved bool
	v, err := r.mutate(id, func(w *workspace) error {
		if err := w.require(w.tool.reorders()); err != nil {
			return err
		}
		_, moved = w.order.Drop(target)
		return nil
	})
	return v, moved, err
}

func (r *registry) EndDrag(id uuid.UUID) (*View, error) {
	return r.mutate(id, func(w *workspace) error {
		if err := w.require(w.tool.reorders()); err != nil {
			return err
		}
		w.order.EndDrag()
		return nil
	})
}

func (r *registry) Toggle(id uuid.UUID, page int) (*View, error) {
	return r.mutate(id, func(w *workspace) error {
		if err := w.require(w.tool.selects()); err != nil {
			return err
		}
		w.selection.Toggle(page)
		return nil
	})
}

func (r *registry) SelectAll(id uuid.UUID) (*View, error) {
	return r.mutate(id, func(w *workspace) error {
		if err := w.require(w.tool.selects()); err != nil {
			return err
		}
		w.selection.SelectAll(w.doc.PageCount)
		return nil
	})
}

func (r *registry) ClearSelection(id uuid.UUID) (*View, error) {
	return r.mutate(id, func(w *workspace) error {
		if err := w.require(w.tool.selects()); err != nil {
			return err
		}
		w.selection.Clear()
		return nil
	})
}

func (r *registry) Place(id uuid.UUID, e PlacementEvent) (*View, error) {
	return r.mutate(id, func(w *workspace) error {
		if err := w.require(w.tool.signs()); err != nil {
			return err
		}
		ev, err := e.Event(w.page)
		if err != nil {
			return err
		}
		w.place = placement.Transition(w.place, ev)
		return nil
	})
}

func (r *registry) SetSignature(ctx context.Context, id uuid.UUID, in SignatureInput) (*View, error) {
	w, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if !w.tool.signs() {
		return nil, ErrUnsupported
	}

	sig := &Signature{}
	switch {
	case in.Data != "":
		if !isImageDataURL(in.Data) {
			return nil, ErrInvalidSignature
		}
		sig.Data = in.Data
	case in.Image != nil && len(in.Image.Data) > 0:
		ct := DetectContentType(in.Image.Name, in.Image.ContentType, in.Image.Data)
		if !strings.HasPrefix(ct, "image/") {
			return nil, ErrInvalidSignature
		}
		f := upload.File{
			Name:        in.Image.Name,
			ContentType: ct,
			Size:        int64(len(in.Image.Data)),
			Key:         signatureKey(w.id, in.Image.Name),
		}
		if err := r.store.Upload(ctx, f.Key, bytes.NewReader(in.Image.Data), ct); err != nil {
			return nil, fmt.Errorf("stage signature: %w", err)
		}
		sig.File = &f
	default:
		return nil, ErrInvalidSignature
	}

	var previous string
	v, err := r.mutate(id, func(w *workspace) error {
		if w.signature != nil && w.signature.File != nil {
			previous = w.signature.File.Key
		}
		w.signature = sig
		return nil
	})
	if err != nil {
		if sig.File != nil {
			r.deleteBlobs(ctx, []string{sig.File.Key})
		}
		return nil, err
	}

	r.deleteBlobs(ctx, []string{previous})
	return v, nil
}

func (r *registry) ClearSignature(ctx context.Context, id uuid.UUID) (*View, error) {
	var previous string
	v, err := r.mutate(id, func(w *workspace) error {
		if !w.tool.signs() {
			return ErrUnsupported
		}
		if w.signature != nil && w.signature.File != nil {
			previous = w.signature.File.Key
		}
		w.signature = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.deleteBlobs(ctx, []string{previous})
	return v, nil
}

func (r *registry) Acquire(id uuid.UUID) (*Snapshot, error) {
	w, err := r.lock(id)
	if err != nil {
		return nil, err
	}
	defer w.mu.Unlock()

	if w.busy {
		return nil, ErrBusy
	}
	w.busy = true
	w.touched = r.cfg.Now()
	return w.snapshot(), nil
}

func (r *registry) Release(id uuid.UUID) {
	w, err := r.get(id)
	if err != nil {
		return
	}

	w.mu.Lock()
	w.busy = false
	w.touched = r.cfg.Now()
	w.mu.Unlock()
}

func (r *registry) get(id uuid.UUID) (*workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workspaces[id]
	if !ok {
		return nil, ErrNotFound
	}
	return w, nil
}

// lock returns the workspace with its lock held. A workspace closed after
// the lookup is reported as not found.
func (r *registry) lock(id uuid.UUID) (*workspace, error) {
	w, err := r.get(id)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrNotFound
	}
	return w, nil
}

// mutate applies fn under the workspace lock and returns the resulting view.
// Every call counts as activity for expiry.
func (r *registry) mutate(id uuid.UUID, fn func(w *workspace) error) (*View, error) {
	w, err := r.lock(id)
	if err != nil {
		return nil, err
	}
	defer w.mu.Unlock()

	w.touched = r.cfg.Now()
	if err := fn(w); err != nil {
		return nil, err
	}
	w.revision++
	return w.view(r.cfg.Retention), nil
}

// stage writes uploads to storage concurrently. On failure every blob
// already written is removed.
func (r *registry) stage(ctx context.Context, id uuid.UUID, uploads []Upload) ([]upload.File, error) {
	files := make([]upload.File, len(uploads))
	for i, u := range uploads {
		files[i] = upload.File{
			Name:        u.Name,
			ContentType: DetectContentType(u.Name, u.ContentType, u.Data),
			Size:        int64(len(u.Data)),
			Key:         fileKey(id, u.Name),
		}
	}

	written := make([]bool, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(stageConcurrency)

	for i := range files {
		g.Go(func() error {
			f := files[i]
			if err := r.store.Upload(gctx, f.Key, bytes.NewReader(uploads[i].Data), f.ContentType); err != nil {
				return fmt.Errorf("stage %s: %w", f.Name, err)
			}
			written[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var keys []string
		for i, ok := range written {
			if ok {
				keys = append(keys, files[i].Key)
			}
		}
		r.deleteBlobs(context.WithoutCancel(ctx), keys)
		return nil, err
	}

	return files, nil
}

func (r *registry) teardown(ctx context.Context, w *workspace) {
	w.mu.Lock()
	queue, keys := w.close()
	w.mu.Unlock()

	for _, slot := range queue.Close() {
		keys = append(keys, slot.File.Key)
	}
	r.deleteBlobs(ctx, keys)

	prefix := workspacePrefix(w.id)
	n, err := r.store.DeletePrefix(ctx, prefix)
	if err != nil {
		r.logger.Warn("workspace blob sweep failed", "prefix", prefix, "error", err)
		return
	}
	if n > 0 {
		r.logger.Debug("swept untracked blobs", "prefix", prefix, "count", n)
	}
}

func fileKeys(files []upload.File) []string {
	keys := make([]string, len(files))
	for i, f := range files {
		keys[i] = f.Key
	}
	return keys
}

func (r *registry) deleteBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := r.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("staged file cleanup failed", "key", key, "error", err)
		}
	}
}

func (w *workspace) require(allowed bool) error {
	if !allowed {
		return ErrUnsupported
	}
	if w.doc == nil {
		return ErrNoDocument
	}
	return nil
}

func workspacePrefix(id uuid.UUID) string {
	return "workspaces/" + id.String() + "/"
}

func fileKey(id uuid.UUID, name string) string {
	return fmt.Sprintf("%s%s/%s", workspacePrefix(id), uuid.NewString(), storedName(name))
}

func signatureKey(id uuid.UUID, name string) string {
	return fmt.Sprintf("%ssignature/%s/%s", workspacePrefix(id), uuid.NewString(), storedName(name))
}

func storedName(name string) string {
	if safe := formatting.SafeName(path.Base(name)); safe != "" {
		return safe
	}
	return "file"
}

func remoteName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			return base
		}
	}
	return "document.pdf"
}

// DetectContentType prefers the declared type, then the file extension,
// then the sniffed content.
func DetectContentType(name, declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return mt
	}
	if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(name))); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

func isImageDataURL(s string) bool {
	return strings.HasPrefix(s, "data:image/") && strings.Contains(s, ",")
}
