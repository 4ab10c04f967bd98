package workspaces_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdfdesk/internal/workspaces"
	"github.com/JaimeStill/pdfdesk/pkg/routes"
	"github.com/JaimeStill/pdfdesk/pkg/storage"
)

func setupMux(h *workspaces.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func newServer(t *testing.T, pages int, maxUpload int64) *http.ServeMux {
	t.Helper()
	sys := workspaces.New(
		workspaces.Config{MaxUploadSize: maxUpload},
		storage.NewMemory(discard()),
		&fakeCounter{pages: pages},
		nil, nil, discard(),
	)
	return setupMux(sys.Handler())
}

func do(t *testing.T, mux *http.ServeMux, method, target, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	return &buf
}

func multipartBody(t *testing.T, field string, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte("%PDF-1.4 handler test"))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func createWorkspace(t *testing.T, mux *http.ServeMux, tool string) workspaces.View {
	t.Helper()
	rec := do(t, mux, "POST", "/workspaces", "application/json", jsonBody(t, map[string]string{"tool": tool}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var v workspaces.View
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return v
}

func TestHandlerCreate(t *testing.T) {
	mux := newServer(t, 0, 0)

	v := createWorkspace(t, mux, "compress")
	if v.Tool != workspaces.ToolCompress || v.Limits.MaxFiles != 1 {
		t.Errorf("view = %+v", v)
	}
	if v.Limits.MaxFileSizeLabel == "" {
		t.Error("missing size label")
	}

	rec := do(t, mux, "POST", "/workspaces", "application/json", jsonBody(t, map[string]string{"tool": "rotate"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown tool status = %d, want 400", rec.Code)
	}
}

func TestHandlerFind(t *testing.T) {
	mux := newServer(t, 0, 0)
	v := createWorkspace(t, mux, "merge")

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"existing", "/workspaces/" + v.ID.String(), http.StatusOK},
		{"invalid id", "/workspaces/not-a-uuid", http.StatusBadRequest},
		{"unknown", "/workspaces/" + uuid.NewString(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, mux, "GET", tt.target, "", nil); rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandlerAddFiles(t *testing.T) {
	mux := newServer(t, 0, 0)
	v := createWorkspace(t, mux, "merge")

	body, ct := multipartBody(t, "files", "one.pdf", "two.pdf")
	rec := do(t, mux, "POST", "/workspaces/"+v.ID.String()+"/files", ct, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res struct {
		Accepted  []json.RawMessage `json:"accepted"`
		Workspace workspaces.View   `json:"workspace"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Accepted) != 2 || len(res.Workspace.Files) != 2 {
		t.Errorf("accepted %d files %d, want 2 and 2", len(res.Accepted), len(res.Workspace.Files))
	}

	empty, ct := multipartBody(t, "files")
	if rec := do(t, mux, "POST", "/workspaces/"+v.ID.String()+"/files", ct, empty); rec.Code != http.StatusBadRequest {
		t.Errorf("empty form status = %d, want 400", rec.Code)
	}
}

func TestHandlerAddFilesTooLarge(t *testing.T) {
	mux := newServer(t, 0, 64)
	v := createWorkspace(t, mux, "merge")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("files", "big.pdf")
	fw.Write(bytes.Repeat([]byte("x"), 1024))
	mw.Close()

	rec := do(t, mux, "POST", "/workspaces/"+v.ID.String()+"/files", mw.FormDataContentType(), &buf)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestHandlerReorderFlow(t *testing.T) {
	mux := newServer(t, 4, 0)
	v := createWorkspace(t, mux, "reorder")
	base := "/workspaces/" + v.ID.String()

	body, ct := multipartBody(t, "file", "deck.pdf")
	if rec := do(t, mux, "POST", base+"/files", ct, body); rec.Code != http.StatusOK {
		t.Fatalf("add status = %d", rec.Code)
	}

	if rec := do(t, mux, "POST", base+"/drag", "application/json", jsonBody(t, map[string]int{"page": 4})); rec.Code != http.StatusOK {
		t.Fatalf("drag status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec := do(t, mux, "POST", base+"/dragover", "application/json", jsonBody(t, map[string]int{"page": 1}))
	var over map[string]bool
	json.NewDecoder(rec.Body).Decode(&over)
	if !over["accepted"] {
		t.Errorf("dragover = %v, want accepted", over)
	}

	rec = do(t, mux, "POST", base+"/drop", "application/json", jsonBody(t, map[string]int{"page": 1}))
	if rec.Code != http.StatusOK {
		t.Fatalf("drop status = %d", rec.Code)
	}
	var drop struct {
		Moved     bool            `json:"moved"`
		Workspace workspaces.View `json:"workspace"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&drop); err != nil {
		t.Fatalf("decode drop: %v", err)
	}
	if !drop.Moved {
		t.Error("drop did not move")
	}
	if got := drop.Workspace.Order; len(got) != 4 || got[0] != 4 || got[1] != 1 {
		t.Errorf("order = %v, want [4 1 2 3]", got)
	}

	if rec := do(t, mux, "POST", base+"/selection/toggle", "application/json", jsonBody(t, map[string]int{"page": 1})); rec.Code != http.StatusBadRequest {
		t.Errorf("toggle on reorder status = %d, want 400", rec.Code)
	}
}

func TestHandlerSignature(t *testing.T) {
	mux := newServer(t, 2, 0)
	v := createWorkspace(t, mux, "sign")
	base := "/workspaces/" + v.ID.String()

	rec := do(t, mux, "PUT", base+"/signature", "application/json",
		jsonBody(t, map[string]string{"data": "data:image/png;base64,AAAA"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("set signature status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"kind":"data"`) {
		t.Errorf("body = %s, want data signature", rec.Body.String())
	}

	rec = do(t, mux, "PUT", base+"/signature", "application/json", jsonBody(t, map[string]string{"data": "nope"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid signature status = %d, want 400", rec.Code)
	}

	rec = do(t, mux, "POST", base+"/placement", "application/json", jsonBody(t, map[string]string{"type": "arm"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("placement without document status = %d, want 400", rec.Code)
	}

	if rec := do(t, mux, "DELETE", base+"/signature", "", nil); rec.Code != http.StatusOK {
		t.Errorf("clear signature status = %d", rec.Code)
	}
}

func TestHandlerClose(t *testing.T) {
	mux := newServer(t, 0, 0)
	v := createWorkspace(t, mux, "convert")
	target := "/workspaces/" + v.ID.String()

	if rec := do(t, mux, "DELETE", target, "", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("close status = %d", rec.Code)
	}
	if rec := do(t, mux, "GET", target, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("find after close status = %d, want 404", rec.Code)
	}
}
