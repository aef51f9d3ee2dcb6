package plugin

import (
	"testing"

	"github.com/relaykit/relay/internal/middleware"
	"github.com/relaykit/relay/internal/pkg/config"
)

func TestManager_SetupRegistersEnabledUnitsInOrder(t *testing.T) {
	m := NewManager(config.PluginsConfig{
		CORS:       config.CORSConfig{Enabled: true, Origin: "*"},
		BodyParser: config.BodyParserConfig{Enabled: true},
		Proxy:      config.ProxyConfig{Enabled: true, Path: "/upstream", Upstream: "http://u.invalid"},
	}, nil)

	reg := middleware.NewRegistry()
	if err := m.SetupMiddleware(reg); err != nil {
		t.Fatalf("setup: %v", err)
	}

	// CORS and body parser are global, in that order; the proxy is
	// scoped to its configured path and therefore runs after globals.
	entries := reg.ForPath("/upstream/resource")
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries on proxied path, got %d", len(entries))
	}
	if entries[2].Prefix != "/upstream" {
		t.Errorf("expected proxy scoped to /upstream, got %q", entries[2].Prefix)
	}

	if got := reg.ForPath("/api"); len(got) != 2 {
		t.Errorf("expected 2 global entries off the proxied path, got %d", len(got))
	}
}

func TestManager_SetupSkipsDisabledUnits(t *testing.T) {
	m := NewManager(config.PluginsConfig{
		CORS: config.CORSConfig{Enabled: false},
	}, nil)

	reg := middleware.NewRegistry()
	if err := m.SetupMiddleware(reg); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if got := reg.ForPath("/any"); len(got) != 0 {
		t.Errorf("expected no entries, got %d", len(got))
	}
}

func TestManager_ApplyConfigMerges(t *testing.T) {
	m := NewManager(config.PluginsConfig{
		CORS: config.CORSConfig{Enabled: true, Origin: "https://a.example"},
	}, nil)

	m.ApplyConfig(config.PluginsConfig{
		CORS: config.CORSConfig{Methods: []string{"GET"}},
	})

	cfg := m.CORS.Config()
	if cfg.Origin != "https://a.example" {
		t.Errorf("origin lost on reload merge: %q", cfg.Origin)
	}
	if len(cfg.Methods) != 1 {
		t.Errorf("methods not applied: %v", cfg.Methods)
	}
}
