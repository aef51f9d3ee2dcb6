package runtime

import (
	"fmt"
	"log/slog"

	configfile "github.com/relaykit/relay/internal/adapters/config/file"
	"github.com/relaykit/relay/internal/adapters/storage/memory"
	"github.com/relaykit/relay/internal/adapters/storage/sqlite"
	"github.com/relaykit/relay/internal/core/ports"
	"github.com/relaykit/relay/internal/eventbus"
	"github.com/relaykit/relay/internal/templates"
)

// Option is a functional option for configuring an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			return fmt.Errorf("nil logger")
		}
		e.logger = logger
		return nil
	}
}

// WithBus shares an existing bus, letting several engines or embedding
// applications observe the same channels.
func WithBus(bus *eventbus.Bus) Option {
	return func(e *Engine) error {
		e.bus = bus
		return nil
	}
}

// WithTransport sets a custom transport collaborator.
func WithTransport(t ports.Transport) Option {
	return func(e *Engine) error {
		e.transport = t
		return nil
	}
}

// WithFileConfig uses file-based configuration with hot reload. The
// path points at a YAML file watched for changes.
func WithFileConfig(path string) Option {
	return func(e *Engine) error {
		e.config = configfile.New(path, e.logger)
		return nil
	}
}

// WithConfigProvider sets a custom config provider.
func WithConfigProvider(provider ports.ConfigProvider) Option {
	return func(e *Engine) error {
		e.config = provider
		return nil
	}
}

// WithMemorySettings uses the in-memory settings store (default for
// embedded and test use).
func WithMemorySettings() Option {
	return func(e *Engine) error {
		e.settings = memory.New()
		return nil
	}
}

// WithSQLiteSettings uses SQLite-backed settings (default for
// standalone deployments).
func WithSQLiteSettings(path string) Option {
	return func(e *Engine) error {
		store, err := sqlite.New(path)
		if err != nil {
			return fmt.Errorf("create sqlite settings store: %w", err)
		}
		e.settings = store
		return nil
	}
}

// WithSettingsStore sets a custom settings store.
func WithSettingsStore(store ports.SettingsStore) Option {
	return func(e *Engine) error {
		e.settings = store
		return nil
	}
}

// WithTemplates renders responses from html/template files in dir.
func WithTemplates(dir string) Option {
	return func(e *Engine) error {
		e.templates = templates.New(dir)
		return nil
	}
}

// WithTemplateEngine sets a custom template engine.
func WithTemplateEngine(engine ports.TemplateEngine) Option {
	return func(e *Engine) error {
		e.templates = engine
		return nil
	}
}
