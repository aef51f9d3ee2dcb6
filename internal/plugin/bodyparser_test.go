package plugin

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/relaykit/relay/internal/core/domain"
	"github.com/relaykit/relay/internal/pkg/config"
)

func newBodyContext(t *testing.T, contentType, body string) *domain.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	return domain.NewContext(httptest.NewRecorder(), req)
}

func TestBodyParser_ParsesJSON(t *testing.T) {
	b := NewBodyParser(config.BodyParserConfig{Enabled: true})

	ctx := newBodyContext(t, "application/json", `{"name":"relay"}`)
	advanced := false
	if err := b.CreateMiddleware()(ctx, func() error { advanced = true; return nil }); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if !advanced {
		t.Fatal("expected chain to advance")
	}

	v, ok := ctx.Get(StateBody)
	if !ok {
		t.Fatal("expected parsed body in state")
	}
	m, ok := v.(map[string]any)
	if !ok || m["name"] != "relay" {
		t.Errorf("unexpected parsed body: %#v", v)
	}
}

func TestBodyParser_SkipsUnconfiguredType(t *testing.T) {
	b := NewBodyParser(config.BodyParserConfig{Enabled: true})

	ctx := newBodyContext(t, "text/plain", "hello")
	if err := b.CreateMiddleware()(ctx, func() error { return nil }); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if _, ok := ctx.Get(StateBody); ok {
		t.Error("unconfigured content type must pass through unparsed")
	}
}

func TestBodyParser_MalformedJSON(t *testing.T) {
	b := NewBodyParser(config.BodyParserConfig{Enabled: true})

	ctx := newBodyContext(t, "application/json", `{"broken`)
	advanced := false
	if err := b.CreateMiddleware()(ctx, func() error { advanced = true; return nil }); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if advanced {
		t.Error("malformed body must halt the chain")
	}
	if ctx.StatusCode() != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", ctx.StatusCode())
	}
}

func TestBodyParser_UpdatePreservesOtherFields(t *testing.T) {
	b := NewBodyParser(config.BodyParserConfig{Enabled: true, Limit: 512})

	b.UpdateMany(map[string]any{"types": []string{"application/json", "text/plain"}})

	cfg := b.Config()
	if cfg.Limit != 512 {
		t.Errorf("limit lost on merge: %d", cfg.Limit)
	}
	if len(cfg.Types) != 2 {
		t.Errorf("types not merged: %v", cfg.Types)
	}
}
