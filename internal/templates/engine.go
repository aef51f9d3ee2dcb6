// Package templates renders HTML responses from a directory of
// html/template files.
package templates

import (
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/relaykit/relay/internal/core/ports"
)

// Engine is a ports.TemplateEngine backed by html/template. Templates
// are parsed once at Initialize from Dir/*.html and addressed by base
// name without extension.
type Engine struct {
	dir string

	mu  sync.RWMutex
	set *template.Template
}

var _ ports.TemplateEngine = (*Engine)(nil)

func New(dir string) *Engine {
	return &Engine{dir: dir}
}

func (e *Engine) Initialize() error {
	if e.dir == "" {
		return fmt.Errorf("template directory not configured")
	}
	set, err := template.ParseGlob(e.dir + "/*.html")
	if err != nil {
		return fmt.Errorf("parse templates in %s: %w", e.dir, err)
	}

	e.mu.Lock()
	e.set = set
	e.mu.Unlock()
	return nil
}

func (e *Engine) Render(name string, data any) (string, error) {
	e.mu.RLock()
	set := e.set
	e.mu.RUnlock()

	if set == nil {
		return "", fmt.Errorf("template engine not initialized")
	}

	var sb strings.Builder
	if err := set.ExecuteTemplate(&sb, name+".html", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return sb.String(), nil
}
