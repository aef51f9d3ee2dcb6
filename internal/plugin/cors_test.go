package plugin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/relaykit/relay/internal/core/domain"
	"github.com/relaykit/relay/internal/pkg/config"
)

func newTestContext(t *testing.T, method, path string) (*domain.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	return domain.NewContext(rec, req), rec
}

func TestCORS_UpdateManyPreservesOtherFields(t *testing.T) {
	c := NewCORS(config.CORSConfig{Enabled: true})
	c.Update("origin", "https://example.com")

	c.UpdateMany(map[string]any{"methods": []string{"GET", "POST"}})

	cfg := c.Config()
	if cfg.Origin != "https://example.com" {
		t.Errorf("origin lost on merge: %q", cfg.Origin)
	}
	if len(cfg.Methods) != 2 {
		t.Errorf("methods not merged: %v", cfg.Methods)
	}
}

func TestCORS_UnknownKeyIgnored(t *testing.T) {
	c := NewCORS(config.CORSConfig{Enabled: true, Origin: "*"})
	c.Update("no_such_field", 42)

	if c.Config().Origin != "*" {
		t.Error("unknown key merge must not disturb config")
	}
}

func TestCORS_MiddlewareSetsHeaders(t *testing.T) {
	c := NewCORS(config.CORSConfig{
		Enabled: true,
		Origin:  "*",
		Methods: []string{"GET", "POST"},
		MaxAge:  600,
	})

	ctx, _ := newTestContext(t, "GET", "/x")
	advanced := false
	err := c.CreateMiddleware()(ctx, func() error { advanced = true; return nil })
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if !advanced {
		t.Error("expected chain to advance for plain request")
	}
	if got := ctx.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("origin header = %q", got)
	}
	if got := ctx.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
		t.Errorf("methods header = %q", got)
	}
	if got := ctx.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Errorf("max-age header = %q", got)
	}
}

func TestCORS_PreflightHaltsChain(t *testing.T) {
	c := NewCORS(config.CORSConfig{Enabled: true, Origin: "*"})

	ctx, rec := newTestContext(t, http.MethodOptions, "/x")
	ctx.Request.Header.Set("Access-Control-Request-Method", "POST")

	advanced := false
	if err := c.CreateMiddleware()(ctx, func() error { advanced = true; return nil }); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if advanced {
		t.Error("preflight must halt the chain")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestCORS_MiddlewareReadsLiveConfig(t *testing.T) {
	c := NewCORS(config.CORSConfig{Enabled: true, Origin: "https://old.example"})
	mw := c.CreateMiddleware()

	ctx, _ := newTestContext(t, "GET", "/x")
	if err := mw(ctx, func() error { return nil }); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if got := ctx.Header().Get("Access-Control-Allow-Origin"); got != "https://old.example" {
		t.Fatalf("first request saw %q", got)
	}

	// Update after registration; the same middleware must see the new
	// value on the next request.
	c.Update("origin", "https://new.example")

	ctx2, _ := newTestContext(t, "GET", "/x")
	if err := mw(ctx2, func() error { return nil }); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if got := ctx2.Header().Get("Access-Control-Allow-Origin"); got != "https://new.example" {
		t.Errorf("second request saw %q, want updated origin", got)
	}
}
