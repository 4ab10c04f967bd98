// Package upload maintains the bounded list of local files waiting to be sent
// to the PDF service, together with their image previews.
package upload

import (
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdfdesk/pkg/formatting"
)

// File references a staged local file. Key locates its bytes in storage.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Key         string `json:"key"`
}

// IsImage reports whether the file's content type indicates an image.
func (f File) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.ContentType), "image/")
}

// Slot is one pending file in the queue.
type Slot struct {
	ID      string `json:"id"`
	File    File   `json:"file"`
	Preview string `json:"preview,omitempty"`
}

// Limits bound what a queue accepts.
// Accept entries are MIME types ("application/pdf"), wildcards ("image/*")
// or extensions (".pdf"); an empty list accepts any type.
type Limits struct {
	MaxFiles    int
	MaxFileSize int64
	Accept      []string
}

// Rejection reports a file refused by type or size, with every reason that applied.
type Rejection struct {
	File    File     `json:"file"`
	Reasons []string `json:"reasons"`
}

// Result is the outcome of Add. Dropped counts acceptable files truncated
// because the queue had no remaining capacity.
type Result struct {
	Accepted []Slot      `json:"accepted"`
	Rejected []Rejection `json:"rejected"`
	Dropped  int         `json:"dropped"`
}

// Queue is an ordered, bounded list of upload slots.
// It is owned by a single hosting view and is not safe for concurrent use;
// only preview generation runs in the background.
type Queue struct {
	slots    []Slot
	previews *Previews
	closed   bool
}

// NewQueue creates an empty queue. A nil generator disables previews.
func NewQueue(gen Generator, logger *slog.Logger) *Queue {
	return &Queue{
		previews: NewPreviews(gen, logger),
	}
}

// Len returns the number of queued slots.
func (q *Queue) Len() int {
	return len(q.slots)
}

// Add appends the acceptable files in order, up to the capacity left under
// limits.MaxFiles. Files beyond that capacity are dropped without error.
// Image files start preview generation; Add never waits for it.
// A closed queue has no capacity.
func (q *Queue) Add(files []File, limits Limits) Result {
	result := Result{
		Accepted: []Slot{},
		Rejected: []Rejection{},
	}

	remaining := limits.MaxFiles - len(q.slots)
	if q.closed {
		remaining = 0
	}

	for _, f := range files {
		if reasons := limits.check(f); len(reasons) > 0 {
			result.Rejected = append(result.Rejected, Rejection{File: f, Reasons: reasons})
			continue
		}

		if remaining <= 0 {
			result.Dropped++
			continue
		}
		remaining--

		slot := Slot{ID: uuid.NewString(), File: f}
		q.slots = append(q.slots, slot)
		result.Accepted = append(result.Accepted, slot)

		if f.IsImage() {
			q.previews.Start(slot.ID, f)
		}
	}

	return result
}

// Remove deletes the slot and releases its preview.
func (q *Queue) Remove(id string) (Slot, bool) {
	i := slices.IndexFunc(q.slots, func(s Slot) bool { return s.ID == id })
	if i < 0 {
		return Slot{}, false
	}

	slot := q.slots[i]
	q.slots = slices.Delete(q.slots, i, i+1)
	q.previews.Release(id)
	return slot, true
}

// Find returns the slot with the given id.
func (q *Queue) Find(id string) (Slot, bool) {
	for _, s := range q.slots {
		if s.ID == id {
			s.Preview, _ = q.previews.Handle(s.ID)
			return s, true
		}
	}
	return Slot{}, false
}

// Slots returns the queued slots in order with any ready preview handles.
func (q *Queue) Slots() []Slot {
	slots := make([]Slot, len(q.slots))
	for i, s := range q.slots {
		s.Preview, _ = q.previews.Handle(s.ID)
		slots[i] = s
	}
	return slots
}

// Files returns the queued file references in order.
func (q *Queue) Files() []File {
	files := make([]File, len(q.slots))
	for i, s := range q.slots {
		files[i] = s.File
	}
	return files
}

// Close tears the queue down: every preview is released, including those
// still generating, and the slots are returned for the caller to clean up.
// Later Adds accept nothing.
func (q *Queue) Close() []Slot {
	slots := q.slots
	q.slots = nil
	q.closed = true
	q.previews.Close()
	return slots
}

// Closed reports whether Close has run.
func (q *Queue) Closed() bool {
	return q.closed
}

func (l Limits) check(f File) []string {
	var reasons []string

	if !l.accepts(f) {
		reasons = append(reasons, fmt.Sprintf(
			"file-invalid-type: file type must be one of %s",
			strings.Join(l.Accept, ", "),
		))
	}

	if l.MaxFileSize > 0 && f.Size > l.MaxFileSize {
		reasons = append(reasons, fmt.Sprintf(
			"file-too-large: file is larger than %s",
			formatting.FormatBytes(l.MaxFileSize, 0),
		))
	}

	return reasons
}

func (l Limits) accepts(f File) bool {
	if len(l.Accept) == 0 {
		return true
	}

	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	ext := strings.ToLower(path.Ext(f.Name))

	for _, a := range l.Accept {
		a = strings.ToLower(strings.TrimSpace(a))
		switch {
		case strings.HasPrefix(a, "."):
			if ext == a {
				return true
			}
		case strings.HasSuffix(a, "/*"):
			if strings.HasPrefix(ct, strings.TrimSuffix(a, "*")) {
				return true
			}
		case ct == a:
			return true
		}
	}
	return false
}
