package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newEngineWith(t *testing.T, files map[string]string) *Engine {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write template: %v", err)
		}
	}
	e := New(dir)
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return e
}

func TestEngine_Render(t *testing.T) {
	e := newEngineWith(t, map[string]string{
		"hello.html": "<h1>Hello, {{.Name}}</h1>",
	})

	out, err := e.Render("hello", map[string]string{"Name": "relay"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<h1>Hello, relay</h1>" {
		t.Errorf("render = %q", out)
	}
}

func TestEngine_EscapesHTML(t *testing.T) {
	e := newEngineWith(t, map[string]string{
		"page.html": "{{.Input}}",
	})

	out, err := e.Render("page", map[string]string{"Input": "<script>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("expected escaped output, got %q", out)
	}
}

func TestEngine_UnknownTemplate(t *testing.T) {
	e := newEngineWith(t, map[string]string{"a.html": "a"})
	if _, err := e.Render("missing", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestEngine_RenderBeforeInitialize(t *testing.T) {
	if _, err := New(t.TempDir()).Render("x", nil); err == nil {
		t.Error("expected error before Initialize")
	}
}
