package source_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/pdfdesk/pkg/source"
)

func TestKinds(t *testing.T) {
	local := source.Local([]byte("%PDF"))
	if local.Kind() != source.KindLocal {
		t.Errorf("local kind: got %s", local.Kind())
	}

	remote, err := source.Remote("https://example.com/doc.pdf")
	if err != nil {
		t.Fatalf("remote: %v", err)
	}
	if remote.Kind() != source.KindRemote || remote.URL() != "https://example.com/doc.pdf" {
		t.Errorf("remote: got %s %s", remote.Kind(), remote.URL())
	}

	if (source.Source{}).Kind() != source.KindNone {
		t.Error("zero source should be KindNone")
	}
}

func TestRemoteRejectsInvalidURL(t *testing.T) {
	for _, raw := range []string{"", "doc.pdf", "ftp://host/doc.pdf", "http://", "::"} {
		if _, err := source.Remote(raw); !errors.Is(err, source.ErrInvalidURL) {
			t.Errorf("Remote(%q): got %v, want ErrInvalidURL", raw, err)
		}
	}
}

func TestLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.pdf":
			w.Write([]byte("%PDF-1.4 remote"))
		case "/empty.pdf":
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	remote, _ := source.Remote(srv.URL + "/doc.pdf")
	data, err := remote.Load(ctx, srv.Client())
	if err != nil {
		t.Fatalf("load remote: %v", err)
	}
	if string(data) != "%PDF-1.4 remote" {
		t.Errorf("remote data: got %q", data)
	}

	missing, _ := source.Remote(srv.URL + "/missing.pdf")
	if _, err := missing.Load(ctx, srv.Client()); !errors.Is(err, source.ErrFetch) {
		t.Errorf("missing: got %v, want ErrFetch", err)
	}

	empty, _ := source.Remote(srv.URL + "/empty.pdf")
	if _, err := empty.Load(ctx, srv.Client()); !errors.Is(err, source.ErrEmpty) {
		t.Errorf("empty remote: got %v, want ErrEmpty", err)
	}

	if _, err := source.Local(nil).Load(ctx, nil); !errors.Is(err, source.ErrEmpty) {
		t.Errorf("empty local: got %v, want ErrEmpty", err)
	}
	if _, err := (source.Source{}).Load(ctx, nil); !errors.Is(err, source.ErrEmpty) {
		t.Errorf("zero source: got %v, want ErrEmpty", err)
	}
}

func TestPageCountUnreadable(t *testing.T) {
	_, err := source.Local([]byte("definitely not a pdf")).PageCount(context.Background(), nil)
	if !errors.Is(err, source.ErrUnreadable) {
		t.Errorf("got %v, want ErrUnreadable", err)
	}
}

func TestLoadLimit(t *testing.T) {
	body := strings.Repeat("x", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/declared.pdf":
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			io.WriteString(w, body)
		case "/chunked.pdf":
			io.WriteString(w, body[:1024])
			w.(http.Flusher).Flush()
			io.WriteString(w, body[1024:])
		}
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		path    string
		limit   int64
		wantErr error
	}{
		{"declared length over limit", "/declared.pdf", 1024, source.ErrTooLarge},
		{"streamed body over limit", "/chunked.pdf", 2048, source.ErrTooLarge},
		{"exactly at limit", "/chunked.pdf", 4096, nil},
		{"unbounded", "/declared.pdf", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote, _ := source.Remote(srv.URL + tt.path)
			data, err := remote.Limit(tt.limit).Load(context.Background(), srv.Client())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && len(data) != len(body) {
				t.Errorf("len = %d, want %d", len(data), len(body))
			}
		})
	}
}

func TestNewClientRefusesNonPublic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "%PDF-1.4 internal")
	}))
	defer srv.Close()

	remote, _ := source.Remote(srv.URL + "/doc.pdf")

	if _, err := remote.Load(context.Background(), source.NewClient(time.Second, false)); !errors.Is(err, source.ErrForbiddenHost) {
		t.Errorf("guarded Load() error = %v, want ErrForbiddenHost", err)
	}
	if _, err := remote.Load(context.Background(), source.NewClient(time.Second, true)); err != nil {
		t.Errorf("permissive Load() error = %v", err)
	}
}

func TestPublic(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"2606:2800:220:1::", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"172.16.0.9", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"0.0.0.0", false},
		{"224.0.0.1", false},
		{"::ffff:127.0.0.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := source.Public(netip.MustParseAddr(tt.addr)); got != tt.want {
				t.Errorf("Public(%s) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}
