package middleware_test

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/pdfdesk/pkg/middleware"
)

func ok(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Func {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	sys := middleware.New()
	sys.Use(tag("first"), tag("second"))
	sys.Use(tag("third"))

	h := sys.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if want := []string{"first", "second", "third", "handler"}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    []string
	}{
		{
			name:    "implicit ok",
			handler: ok,
			want:    []string{"level=INFO", "status=200", "bytes=2", "method=POST", "uri=\"/workspaces?x=1\""},
		},
		{
			name: "client error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			want: []string{"level=INFO", "status=404", "bytes=0"},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
			want: []string{"level=ERROR", "status=502"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			h := middleware.Logger(logger)(tt.handler)
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/workspaces?x=1", nil))

			line := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(line, w) {
					t.Errorf("log line missing %q: %s", w, line)
				}
			}
		})
	}
}

func TestLoggerKeepsFlusher(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	h := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := http.NewResponseController(w).Flush(); err != nil {
			t.Errorf("flush: %v", err)
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if !rec.Flushed {
		t.Error("response was not flushed")
	}
}

func corsConfig() *middleware.CORSConfig {
	cfg := &middleware.CORSConfig{
		Enabled: true,
		Origins: []string{"http://localhost:5173"},
	}
	if err := cfg.Finalize(nil); err != nil {
		panic(err)
	}
	return cfg
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		cfg        *middleware.CORSConfig
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
		wantExpose string
		wantMethod string
	}{
		{
			name:       "disabled",
			cfg:        &middleware.CORSConfig{Origins: []string{"http://localhost:5173"}},
			method:     "GET",
			origin:     "http://localhost:5173",
			wantStatus: http.StatusOK,
		},
		{
			name:       "allowed origin",
			cfg:        corsConfig(),
			method:     "POST",
			origin:     "http://localhost:5173",
			wantStatus: http.StatusOK,
			wantOrigin: "http://localhost:5173",
			wantExpose: "Content-Disposition",
		},
		{
			name:       "unknown origin",
			cfg:        corsConfig(),
			method:     "GET",
			origin:     "http://evil.test",
			wantStatus: http.StatusOK,
		},
		{
			name:       "preflight",
			cfg:        corsConfig(),
			method:     "OPTIONS",
			origin:     "http://localhost:5173",
			preflight:  true,
			wantStatus: http.StatusNoContent,
			wantOrigin: "http://localhost:5173",
			wantMethod: "GET, POST, PUT, DELETE, OPTIONS",
		},
		{
			name:       "wildcard",
			cfg:        &middleware.CORSConfig{Enabled: true, Origins: []string{"*"}},
			method:     "GET",
			origin:     "http://anywhere.test",
			wantStatus: http.StatusOK,
			wantOrigin: "http://anywhere.test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := middleware.CORS(tt.cfg)(http.HandlerFunc(ok))

			req := httptest.NewRequest(tt.method, "/api/tools", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Expose-Headers"); got != tt.wantExpose {
				t.Errorf("expose-headers = %q, want %q", got, tt.wantExpose)
			}
			if got := rec.Header().Get("Access-Control-Allow-Methods"); got != tt.wantMethod {
				t.Errorf("allow-methods = %q, want %q", got, tt.wantMethod)
			}
			if tt.preflight && rec.Body.Len() != 0 {
				t.Error("preflight reached the handler")
			}
		})
	}
}

func TestCORSConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := &middleware.CORSConfig{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatal(err)
		}
		if cfg.MaxAge != 3600 || !slices.Equal(cfg.ExposedHeaders, []string{"Content-Disposition"}) {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_CORS_ENABLED", "true")
		t.Setenv("TEST_CORS_ORIGINS", " http://a.test , ,http://b.test")
		t.Setenv("TEST_CORS_MAX_AGE", "60")

		cfg := &middleware.CORSConfig{}
		err := cfg.Finalize(&middleware.CORSEnv{
			Enabled: "TEST_CORS_ENABLED",
			Origins: "TEST_CORS_ORIGINS",
			MaxAge:  "TEST_CORS_MAX_AGE",
		})
		if err != nil {
			t.Fatal(err)
		}
		if !cfg.Enabled || cfg.MaxAge != 60 {
			t.Errorf("cfg = %+v", cfg)
		}
		if want := []string{"http://a.test", "http://b.test"}; !slices.Equal(cfg.Origins, want) {
			t.Errorf("origins = %v, want %v", cfg.Origins, want)
		}
	})

	t.Run("wildcard with credentials", func(t *testing.T) {
		cfg := &middleware.CORSConfig{Origins: []string{"*"}, AllowCredentials: true}
		if err := cfg.Finalize(nil); !errors.Is(err, middleware.ErrWildcardCredentials) {
			t.Errorf("err = %v, want ErrWildcardCredentials", err)
		}
	})
}

func TestCORSConfigMerge(t *testing.T) {
	base := &middleware.CORSConfig{Origins: []string{"http://a.test"}, MaxAge: 100}
	base.Merge(&middleware.CORSConfig{Enabled: true, ExposedHeaders: []string{}})

	if !base.Enabled || base.MaxAge != 100 || !slices.Equal(base.Origins, []string{"http://a.test"}) {
		t.Errorf("merged = %+v", base)
	}
	if base.ExposedHeaders == nil || len(base.ExposedHeaders) != 0 {
		t.Errorf("exposed headers = %v, want empty non-nil", base.ExposedHeaders)
	}
}
