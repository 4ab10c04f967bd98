package tools_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdfdesk/internal/operations"
	"github.com/JaimeStill/pdfdesk/internal/tools"
	"github.com/JaimeStill/pdfdesk/internal/workspaces"
	"github.com/JaimeStill/pdfdesk/pkg/pdfservice"
	"github.com/JaimeStill/pdfdesk/pkg/placement"
	"github.com/JaimeStill/pdfdesk/pkg/storage"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

type fakeCounter struct{ pages int }

func (c fakeCounter) PageCount(context.Context, pdfservice.Part) (int, error) {
	return c.pages, nil
}

type recorder struct {
	mu   sync.Mutex
	cmds []operations.RecordCommand
	err  error
}

func (r *recorder) Record(_ context.Context, cmd operations.RecordCommand) (*operations.Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
	if r.err != nil {
		return nil, r.err
	}
	return &operations.Operation{ID: uuid.New(), Tool: cmd.Tool}, nil
}

func (r *recorder) last(t *testing.T) operations.RecordCommand {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cmds) == 0 {
		t.Fatal("no operation recorded")
	}
	return r.cmds[len(r.cmds)-1]
}

// backendCall is what the fake backend saw on one request.
type backendCall struct {
	path   string
	fields map[string]string
	files  map[string][]string
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []backendCall
	reply func(w http.ResponseWriter, r *http.Request)
}

func (b *fakeBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *fakeBackend) last(t *testing.T) backendCall {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.calls) == 0 {
		t.Fatal("backend was not called")
	}
	return b.calls[len(b.calls)-1]
}

type fixture struct {
	sys     tools.System
	ws      workspaces.System
	backend *fakeBackend
	ops     *recorder
}

func newFixture(t *testing.T, pages int) *fixture {
	t.Helper()
	fb := &fakeBackend{
		reply: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.7 result"))
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		call := backendCall{
			path:   strings.TrimPrefix(r.URL.Path, "/api/v1"),
			fields: map[string]string{},
			files:  map[string][]string{},
		}
		for k, v := range r.MultipartForm.Value {
			call.fields[k] = v[0]
		}
		for k, headers := range r.MultipartForm.File {
			for _, h := range headers {
				call.files[k] = append(call.files[k], h.Filename)
			}
		}
		fb.mu.Lock()
		fb.calls = append(fb.calls, call)
		fb.mu.Unlock()
		fb.reply(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := &pdfservice.Config{BaseURL: srv.URL + "/api/v1"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	store := storage.NewMemory(discard())
	ws := workspaces.New(workspaces.Config{}, store, fakeCounter{pages: pages}, nil, nil, discard())
	ops := &recorder{}

	sys := tools.New(&tools.Runtime{
		Backend:    pdfservice.New(cfg, discard()),
		Workspaces: ws,
		Storage:    store,
		Operations: ops,
		Logger:     discard(),
		Now:        func() time.Time { return fixedNow },
	})

	return &fixture{sys: sys, ws: ws, backend: fb, ops: ops}
}

func (f *fixture) workspace(t *testing.T, tool workspaces.Tool, names ...string) uuid.UUID {
	t.Helper()
	v, err := f.ws.Create(tool)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(names) == 0 {
		return v.ID
	}

	files := make([]workspaces.Upload, len(names))
	for i, name := range names {
		ct := "application/pdf"
		if !strings.HasSuffix(name, ".pdf") {
			ct = "image/png"
		}
		files[i] = workspaces.Upload{Name: name, ContentType: ct, Data: []byte("data of " + name)}
	}
	res, err := f.ws.AddFiles(context.Background(), v.ID, files)
	if err != nil {
		t.Fatalf("AddFiles() error = %v", err)
	}
	if len(res.Accepted) != len(names) {
		t.Fatalf("accepted %d of %d files: %+v", len(res.Accepted), len(names), res.Rejected)
	}
	return v.ID
}

func TestParseRanges(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		pages   int
		want    []pdfservice.Range
		wantErr bool
	}{
		{"each", "each", 5, nil, false},
		{"compact", "1-2, 4, 3-5", 5, []pdfservice.Range{{Start: 1, End: 2}, {Start: 4, End: 4}, {Start: 3, End: 5}}, false},
		{"json", `[{"start":1,"end":3,"name":"Part 1"}]`, 3, []pdfservice.Range{{Start: 1, End: 3, Name: "Part 1"}}, false},
		{"empty", "", 5, nil, true},
		{"empty json", "[]", 5, nil, true},
		{"past end", "4-6", 5, nil, true},
		{"reversed", "3-1", 5, nil, true},
		{"zero", "0-2", 5, nil, true},
		{"garbage", "a-b", 5, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tools.ParseRanges(tt.input, tt.pages)
			if tt.wantErr {
				if !errors.Is(err, tools.ErrInvalidRange) {
					t.Errorf("error = %v, want ErrInvalidRange", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ranges = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestValidationBlocksCall(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	removeAll := f.workspace(t, workspaces.ToolRemove, "doc.pdf")
	if _, err := f.ws.SelectAll(removeAll); err != nil {
		t.Fatalf("SelectAll() error = %v", err)
	}

	signNoPos := f.workspace(t, workspaces.ToolSign, "doc.pdf")
	if _, err := f.ws.SetSignature(ctx, signNoPos, workspaces.SignatureInput{Data: "data:image/png;base64,AAAA"}); err != nil {
		t.Fatalf("SetSignature() error = %v", err)
	}

	tests := []struct {
		name string
		tool workspaces.Tool
		id   uuid.UUID
		req  tools.Request
		want error
	}{
		{"merge without files", workspaces.ToolMerge, f.workspace(t, workspaces.ToolMerge), tools.Request{}, tools.ErrNoFile},
		{"merge one file", workspaces.ToolMerge, f.workspace(t, workspaces.ToolMerge, "a.pdf"), tools.Request{}, tools.ErrTooFewFiles},
		{"extract empty selection", workspaces.ToolExtract, f.workspace(t, workspaces.ToolExtract, "doc.pdf"), tools.Request{}, tools.ErrEmptySelection},
		{"remove empty selection", workspaces.ToolRemove, f.workspace(t, workspaces.ToolRemove, "doc.pdf"), tools.Request{}, tools.ErrEmptySelection},
		{"remove whole document", workspaces.ToolRemove, removeAll, tools.Request{}, tools.ErrWholeDocument},
		{"sign without signature", workspaces.ToolSign, f.workspace(t, workspaces.ToolSign, "doc.pdf"), tools.Request{}, tools.ErrNoSignature},
		{"sign without position", workspaces.ToolSign, signNoPos, tools.Request{}, tools.ErrNoPosition},
		{"compress bad quality", workspaces.ToolCompress, f.workspace(t, workspaces.ToolCompress, "doc.pdf"), tools.Request{Quality: "ultra"}, tools.ErrInvalidQuality},
		{"split bad range", workspaces.ToolSplit, f.workspace(t, workspaces.ToolSplit, "doc.pdf"), tools.Request{Ranges: "2-9"}, tools.ErrInvalidRange},
		{"convert without images", workspaces.ToolConvert, f.workspace(t, workspaces.ToolConvert), tools.Request{}, tools.ErrNoFile},
		{"tool mismatch", workspaces.ToolCompress, f.workspace(t, workspaces.ToolMerge, "a.pdf", "b.pdf"), tools.Request{}, tools.ErrToolMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sys.Run(ctx, tt.tool, tt.id, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Run() error = %v, want %v", err, tt.want)
			}
			if tools.MapHTTPStatus(err) != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", tools.MapHTTPStatus(err))
			}
		})
	}

	if n := f.backend.count(); n != 0 {
		t.Errorf("backend called %d times, want 0", n)
	}
	if len(f.ops.cmds) != 0 {
		t.Errorf("recorded %d operations, want 0", len(f.ops.cmds))
	}
}

func TestMerge(t *testing.T) {
	f := newFixture(t, 0)
	id := f.workspace(t, workspaces.ToolMerge, "a.pdf", "b.pdf", "c.pdf")

	out, err := f.sys.Run(context.Background(), workspaces.ToolMerge, id, tools.Request{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if out.Filename != "merged_20260115100000.pdf" {
		t.Errorf("filename = %q", out.Filename)
	}
	if string(out.Data) != "%PDF-1.7 result" || out.ContentType != "application/pdf" {
		t.Errorf("output = %q (%s)", out.Data, out.ContentType)
	}

	call := f.backend.last(t)
	if call.path != pdfservice.EndpointMerge {
		t.Errorf("path = %q", call.path)
	}
	for i, want := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		key := "file" + string(rune('0'+i))
		if got := call.files[key]; len(got) != 1 || got[0] != want {
			t.Errorf("%s = %v, want %s", key, got, want)
		}
	}
	if call.fields["output_filename"] != "merged_20260115100000.pdf" {
		t.Errorf("output_filename = %q", call.fields["output_filename"])
	}

	cmd := f.ops.last(t)
	if cmd.Tool != "merge" || cmd.Endpoint != pdfservice.EndpointMerge || cmd.Error != "" {
		t.Errorf("recorded = %+v", cmd)
	}
	if !slices.Equal(cmd.InputFiles, []string{"a.pdf", "b.pdf", "c.pdf"}) || cmd.BytesOut != int64(len(out.Data)) {
		t.Errorf("recorded inputs %v bytes %d", cmd.InputFiles, cmd.BytesOut)
	}

	v, _ := f.ws.Find(id)
	if v.Busy {
		t.Error("workspace still busy after run")
	}
}

func TestPagedActions(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	extract := f.workspace(t, workspaces.ToolExtract, "report.pdf")
	f.ws.Toggle(extract, 3)
	f.ws.Toggle(extract, 1)

	remove := f.workspace(t, workspaces.ToolRemove, "report.pdf")
	f.ws.Toggle(remove, 2)

	reorder := f.workspace(t, workspaces.ToolReorder, "report.pdf")
	f.ws.Drag(reorder, 4)
	f.ws.Drop(reorder, 1)

	compress := f.workspace(t, workspaces.ToolCompress, "report.pdf")

	tests := []struct {
		name     string
		tool     workspaces.Tool
		id       uuid.UUID
		req      tools.Request
		endpoint string
		field    string
		value    string
		filename string
	}{
		{"extract", workspaces.ToolExtract, extract, tools.Request{}, pdfservice.EndpointExtract, "pages", "1,3", "report_extracted.pdf"},
		{"remove", workspaces.ToolRemove, remove, tools.Request{}, pdfservice.EndpointRemovePages, "pages", "2", "report_pages_removed.pdf"},
		{"reorder", workspaces.ToolReorder, reorder, tools.Request{}, pdfservice.EndpointReorder, "new_order", "[4,1,2,3]", "report_reordered.pdf"},
		{"compress default", workspaces.ToolCompress, compress, tools.Request{}, pdfservice.EndpointCompress, "quality", "medium", "report_compressed_medium.pdf"},
		{"compress override", workspaces.ToolCompress, compress, tools.Request{Quality: "High", OutputFilename: "small"}, pdfservice.EndpointCompress, "quality", "high", "small.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := f.sys.Run(ctx, tt.tool, tt.id, tt.req)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			call := f.backend.last(t)
			if call.path != tt.endpoint {
				t.Errorf("path = %q, want %q", call.path, tt.endpoint)
			}
			if call.fields[tt.field] != tt.value {
				t.Errorf("%s = %q, want %q", tt.field, call.fields[tt.field], tt.value)
			}
			if out.Filename != tt.filename {
				t.Errorf("filename = %q, want %q", out.Filename, tt.filename)
			}
		})
	}
}

func TestSign(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	id := f.workspace(t, workspaces.ToolSign, "contract.pdf")

	if _, err := f.ws.SetSignature(ctx, id, workspaces.SignatureInput{Data: "data:image/png;base64,AAAA"}); err != nil {
		t.Fatalf("SetSignature() error = %v", err)
	}
	container := placement.Rect{Width: 100, Height: 100}
	for _, e := range []workspaces.PlacementEvent{
		{Type: "arm"},
		{Type: "click", Container: container, Pointer: placement.Point{X: 50, Y: 80}},
	} {
		if _, err := f.ws.Place(id, e); err != nil {
			t.Fatalf("Place(%s) error = %v", e.Type, err)
		}
	}

	out, err := f.sys.Run(ctx, workspaces.ToolSign, id, tools.Request{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Filename != "contract_signed.pdf" {
		t.Errorf("filename = %q", out.Filename)
	}

	call := f.backend.last(t)
	if call.fields["signature_data"] != "data:image/png;base64,AAAA" {
		t.Errorf("signature_data = %q", call.fields["signature_data"])
	}
	if !strings.Contains(call.fields["position"], `"page":1`) || !strings.Contains(call.fields["position"], `"x":50`) {
		t.Errorf("position = %q", call.fields["position"])
	}
}

func TestSplitKeepsBackendName(t *testing.T) {
	f := newFixture(t, 6)
	f.backend.reply = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="deck_splits.zip"`)
		w.Write([]byte("PK"))
	}
	id := f.workspace(t, workspaces.ToolSplit, "deck.pdf")

	out, err := f.sys.Run(context.Background(), workspaces.ToolSplit, id, tools.Request{Ranges: "1-3,4-6"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Filename != "deck_splits.zip" || out.ContentType != "application/zip" {
		t.Errorf("output = %q (%s)", out.Filename, out.ContentType)
	}

	call := f.backend.last(t)
	if call.fields["output_filename_prefix"] != "deck" {
		t.Errorf("prefix = %q", call.fields["output_filename_prefix"])
	}
	if !strings.Contains(call.fields["ranges"], `"start":4`) {
		t.Errorf("ranges = %q", call.fields["ranges"])
	}
}

func TestConvertNames(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	one := f.workspace(t, workspaces.ToolConvert, "scan.png")
	out, err := f.sys.Run(ctx, workspaces.ToolConvert, one, tools.Request{})
	if err != nil || out.Filename != "scan_converted.pdf" {
		t.Errorf("single image = %v, %v", out, err)
	}

	many := f.workspace(t, workspaces.ToolConvert, "a.png", "b.png")
	out, err = f.sys.Run(ctx, workspaces.ToolConvert, many, tools.Request{})
	if err != nil || out.Filename != "images_converted.pdf" {
		t.Errorf("several images = %v, %v", out, err)
	}
	if got := f.backend.last(t).files["files"]; !slices.Equal(got, []string{"a.png", "b.png"}) {
		t.Errorf("files = %v", got)
	}
}

func TestBackendFailureIsRecorded(t *testing.T) {
	f := newFixture(t, 0)
	f.backend.reply = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"ghostscript crashed"}`))
	}
	id := f.workspace(t, workspaces.ToolCompress, "doc.pdf")

	_, err := f.sys.Run(context.Background(), workspaces.ToolCompress, id, tools.Request{})
	if !tools.IsBackendError(err) {
		t.Fatalf("error = %v, want backend error", err)
	}
	if tools.MapHTTPStatus(err) != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", tools.MapHTTPStatus(err))
	}

	cmd := f.ops.last(t)
	if cmd.Error == "" || cmd.OutputFilename != "" {
		t.Errorf("recorded = %+v", cmd)
	}

	if _, err := f.ws.Acquire(id); err != nil {
		t.Errorf("workspace not released after failure: %v", err)
	}
}

func TestRecordFailureDoesNotFailAction(t *testing.T) {
	f := newFixture(t, 0)
	f.ops.err = errors.New("database not ready")
	id := f.workspace(t, workspaces.ToolCompress, "doc.pdf")

	if _, err := f.sys.Run(context.Background(), workspaces.ToolCompress, id, tools.Request{}); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestBusyWorkspace(t *testing.T) {
	f := newFixture(t, 0)
	id := f.workspace(t, workspaces.ToolCompress, "doc.pdf")

	if _, err := f.ws.Acquire(id); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	_, err := f.sys.Run(context.Background(), workspaces.ToolCompress, id, tools.Request{})
	if !errors.Is(err, workspaces.ErrBusy) {
		t.Errorf("error = %v, want ErrBusy", err)
	}
	if tools.MapHTTPStatus(err) != http.StatusConflict {
		t.Errorf("status = %d, want 409", tools.MapHTTPStatus(err))
	}
	if f.backend.count() != 0 {
		t.Error("backend called while busy")
	}
}
