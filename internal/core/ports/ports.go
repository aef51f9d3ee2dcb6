// Package ports declares the narrow interfaces through which the engine
// consumes its external collaborators: the raw transport, the keyed
// application-settings store, the template engine, and the config
// provider. Their internals are not part of this design.
package ports

import (
	"context"
	"net/http"
	"time"

	"github.com/relaykit/relay/internal/pkg/config"
)

// TransportOptions configures the transport collaborator at
// initialization. Handler is the engine's dispatch entry point.
type TransportOptions struct {
	Handler      http.Handler
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Transport is the raw socket collaborator. Only this contract matters
// here; binding, serving, and timeouts are its concern.
type Transport interface {
	// Initialize builds the underlying server from options. Called once,
	// before Listen.
	Initialize(opts TransportOptions) error

	// Listen binds and starts serving. It returns once the bind outcome
	// is known; a bind failure is returned synchronously.
	Listen(port int, host string) error

	// Close releases the listening resource and drains in-flight
	// requests until ctx expires.
	Close(ctx context.Context) error
}

// Settings sections. The store is keyed by (section, key).
const (
	SectionServer  = "server"
	SectionPaths   = "paths"
	SectionRoutes  = "routes"
	SectionCache   = "cache"
	SectionEvents  = "events"
	SectionPlugins = "plugins"
	SectionGlobal  = "global"
)

// SettingsStore is the keyed application-settings collaborator.
type SettingsStore interface {
	Get(ctx context.Context, section, key string) (string, bool, error)
	Set(ctx context.Context, section, key, value string) error
	Delete(ctx context.Context, section, key string) error
	Section(ctx context.Context, section string) (map[string]string, error)
	Close() error
}

// TemplateEngine is the rendering collaborator.
type TemplateEngine interface {
	Initialize() error
	Render(template string, data any) (string, error)
}

// ConfigProvider loads and watches engine configuration.
type ConfigProvider interface {
	Load(ctx context.Context) (*config.Config, error)
	Watch(ctx context.Context, onChange func(*config.Config)) error
	Close() error
}
