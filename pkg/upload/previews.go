package upload

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

const releaseTimeout = 30 * time.Second

// Generator produces a displayable preview for an image file and releases it.
// A Generate call that returns an error must not leave a resource behind.
type Generator interface {
	Generate(ctx context.Context, slotID string, f File) (string, error)
	Release(ctx context.Context, handle string) error
}

type preview struct {
	handle   string
	done     bool
	released bool
}

// Previews is a registry of preview handles keyed by slot id.
// Every generated handle is released exactly once: by Release, by ReleaseAll,
// or by the generating goroutine itself when the slot was released first.
// After Close no new generation starts.
type Previews struct {
	gen     Generator
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	entries map[string]*preview
	closed  bool
	wg      sync.WaitGroup
}

// NewPreviews creates a registry backed by gen. A nil gen disables generation.
func NewPreviews(gen Generator, logger *slog.Logger) *Previews {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Previews{
		gen:     gen,
		logger:  logger.With("system", "previews"),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*preview),
	}
}

// Start generates the preview for slotID in the background and reports
// whether generation began. It refuses work once the registry is closed.
func (p *Previews) Start(slotID string, f File) bool {
	if p.gen == nil || !f.IsImage() {
		return false
	}

	p.mu.Lock()
	if _, ok := p.entries[slotID]; ok || p.closed {
		p.mu.Unlock()
		return false
	}
	e := &preview{}
	p.entries[slotID] = e
	p.mu.Unlock()

	p.wg.Go(func() {
		handle, err := p.gen.Generate(p.ctx, slotID, f)

		p.mu.Lock()
		e.done = true
		if err != nil {
			p.mu.Unlock()
			p.logger.Warn("preview generation failed", "slot", slotID, "error", err)
			return
		}
		if e.released {
			p.mu.Unlock()
			p.release(slotID, handle)
			return
		}
		e.handle = handle
		p.mu.Unlock()
	})
	return true
}

// Handle returns the preview handle for slotID once generation has completed.
func (p *Previews) Handle(slotID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[slotID]
	if !ok || e.handle == "" {
		return "", false
	}
	return e.handle, true
}

// Release drops the preview for slotID. A generation still in flight
// releases its handle as soon as it completes.
func (p *Previews) Release(slotID string) {
	p.mu.Lock()
	e, ok := p.entries[slotID]
	if !ok {
		p.mu.Unlock()
		return
	}
	delete(p.entries, slotID)
	e.released = true
	handle := e.handle
	e.handle = ""
	p.mu.Unlock()

	if handle != "" {
		p.release(slotID, handle)
	}
}

// ReleaseAll releases every preview in the registry.
func (p *Previews) ReleaseAll() {
	p.mu.Lock()
	ids := make([]string, 0, len(p.entries))
	for id := range p.entries {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		p.Release(id)
	}
}

// Wait blocks until all in-flight generations have finished.
func (p *Previews) Wait() {
	p.wg.Wait()
}

// Close stops accepting work, releases every preview and cancels the
// in-flight generations before waiting for them. They release their own
// handles on completion.
func (p *Previews) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.ReleaseAll()
	p.cancel()
	p.wg.Wait()
}

func (p *Previews) release(slotID, handle string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := p.gen.Release(ctx, handle); err != nil {
		p.logger.Warn("preview release failed", "slot", slotID, "handle", handle, "error", err)
	}
}
