// Package file provides a config provider backed by a YAML file on
// disk, with change notification via fsnotify.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/relaykit/relay/internal/pkg/config"
)

// debounceWindow coalesces the write/rename bursts editors produce when
// saving a file.
const debounceWindow = 250 * time.Millisecond

// Provider loads configuration from a file and reports changes to it.
type Provider struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New creates a provider for the config file at path.
func New(path string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{path: path, logger: logger}
}

// Load reads and parses the current file contents.
func (p *Provider) Load(_ context.Context) (*config.Config, error) {
	return config.Load(p.path)
}

// Watch begins watching the config file's directory and invokes
// onChange with the freshly loaded config after each modification.
// Watching the directory rather than the file survives the
// rename-and-replace save strategy most editors use.
func (p *Provider) Watch(ctx context.Context, onChange func(*config.Config)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.watcher != nil {
		return fmt.Errorf("already watching %s", p.path)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(p.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(p.path), err)
	}

	p.watcher = w
	p.done = make(chan struct{})
	go p.run(ctx, w, p.done, onChange)
	return nil
}

func (p *Provider) run(ctx context.Context, w *fsnotify.Watcher, done chan struct{}, onChange func(*config.Config)) {
	defer close(done)

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(p.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			cfg, err := config.Load(p.path)
			if err != nil {
				p.logger.Error("config reload failed", "path", p.path, "error", err)
				continue
			}
			p.logger.Info("config reloaded", "path", p.path)
			onChange(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watch error", "path", p.path, "error", err)
		}
	}
}

// Close stops watching. Safe to call without a prior Watch.
func (p *Provider) Close() error {
	p.mu.Lock()
	w, done := p.watcher, p.done
	p.watcher, p.done = nil, nil
	p.mu.Unlock()

	if w == nil {
		return nil
	}
	err := w.Close()
	<-done
	return err
}
