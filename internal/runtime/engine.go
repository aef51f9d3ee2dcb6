// Package runtime assembles the engine: the event bus, router,
// middleware registry, pipeline, plugin units, and transport adapter,
// wired together over one request channel. Engine can be embedded in
// larger applications or run standalone behind relayd.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relaykit/relay/internal/bridge"
	"github.com/relaykit/relay/internal/core/domain"
	"github.com/relaykit/relay/internal/core/ports"
	"github.com/relaykit/relay/internal/eventbus"
	"github.com/relaykit/relay/internal/middleware"
	"github.com/relaykit/relay/internal/pipeline"
	"github.com/relaykit/relay/internal/pkg/config"
	"github.com/relaykit/relay/internal/plugin"
	"github.com/relaykit/relay/internal/router"
	"github.com/relaykit/relay/internal/transport"
)

// RequestNamespace is the bus channel carrying HTTP traffic.
const RequestNamespace = "http"

// Engine is the request-dispatch engine. Routes and middleware are
// registered during setup; Start wires the pipeline to the request
// event and configures the transport; Listen (directly or through the
// ready system event) binds the socket.
type Engine struct {
	// Dependencies (injected via options)
	bus       *eventbus.Bus
	transport ports.Transport
	settings  ports.SettingsStore
	templates ports.TemplateEngine
	config    ports.ConfigProvider
	logger    *slog.Logger

	// Internal state
	events     *eventbus.Channel
	router     *router.Router
	middleware *middleware.Registry
	pipeline   *pipeline.Pipeline
	adapter    *transport.Adapter
	bridge     *bridge.Bridge
	plugins    *plugin.Manager
	cfg        *config.Config

	// Lifecycle management
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	started bool
}

// New creates an engine with the given options. Defaults: a fresh bus,
// the HTTP transport, the in-memory settings store, and slog.Default.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if e.bus == nil {
		e.bus = eventbus.New()
	}
	if e.transport == nil {
		e.transport = transport.NewHTTP(e.logger)
	}

	e.events = e.bus.Channel(RequestNamespace)
	e.router = router.New()
	e.middleware = middleware.NewRegistry()
	if err := e.middleware.Use(middleware.RequestLogger(e.logger)); err != nil {
		return nil, fmt.Errorf("install request logger: %w", err)
	}
	e.pipeline = pipeline.New(e.router, e.middleware, e.events, e.logger)
	e.adapter = transport.NewAdapter(e.events, e.transport, e.logger)
	e.bridge = bridge.New(e.events, e.Listen)

	return e, nil
}

// Events returns the engine's request channel, for embedders that want
// to observe or emit bus events directly.
func (e *Engine) Events() *eventbus.Channel {
	return e.events
}

// Settings returns the settings store, or nil when none is configured.
func (e *Engine) Settings() ports.SettingsStore {
	return e.settings
}

// Render renders a template through the configured template engine.
func (e *Engine) Render(name string, data any) (string, error) {
	if e.templates == nil {
		return "", &domain.SetupError{Op: "render", Detail: "no template engine configured"}
	}
	return e.templates.Render(name, data)
}

// Route registration surface. Paths are normalized at registration;
// registering the same (method, path) again replaces the prior handler.

func (e *Engine) Handle(method, path string, h domain.Handler) error {
	return e.router.Register(method, path, h)
}

func (e *Engine) Get(path string, h domain.Handler) error     { return e.Handle("GET", path, h) }
func (e *Engine) Post(path string, h domain.Handler) error    { return e.Handle("POST", path, h) }
func (e *Engine) Put(path string, h domain.Handler) error     { return e.Handle("PUT", path, h) }
func (e *Engine) Delete(path string, h domain.Handler) error  { return e.Handle("DELETE", path, h) }
func (e *Engine) Patch(path string, h domain.Handler) error   { return e.Handle("PATCH", path, h) }
func (e *Engine) Head(path string, h domain.Handler) error    { return e.Handle("HEAD", path, h) }
func (e *Engine) Options(path string, h domain.Handler) error { return e.Handle("OPTIONS", path, h) }

// All registers a handler matching any method for the path.
func (e *Engine) All(path string, h domain.Handler) error {
	return e.Handle(router.MethodAll, path, h)
}

// Use registers a global middleware. Accepted shapes are the direct
// convention func(*Context, Next) error and the triple convention
// func(ResponseWriter, *Request, Next) error.
func (e *Engine) Use(fn any) error {
	return e.middleware.Use(fn)
}

// UseFor registers a middleware scoped to a path prefix.
func (e *Engine) UseFor(prefix string, fn any) error {
	return e.middleware.UseFor(prefix, fn)
}

// UseMethod registers the named method of target as a global
// middleware. The attachment is validated up front so a nil instance or
// a missing method fails at setup time, not during a request.
func (e *Engine) UseMethod(target any, member string) error {
	if err := middleware.ValidateAttachment(target, member); err != nil {
		return err
	}
	m := reflect.ValueOf(target).MethodByName(member)
	return e.middleware.Use(m.Interface())
}

// On registers a handler for one of the system events: ready triggers
// the transport listen, the rest attach listeners. Unknown names fail
// with UnknownSystemEventError.
func (e *Engine) On(event domain.SystemEvent, arg any) error {
	return e.bridge.Handle(event, arg)
}

// Start wires the pipeline to the request event, loads configuration,
// installs plugin middleware, and emits the one-shot options event that
// initializes the transport. It does not bind the socket; that is
// Listen's job.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return &domain.SetupError{Op: "start", Detail: "engine already started"}
	}
	e.ctx, e.cancel = context.WithCancel(ctx)

	cfg, err := e.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	e.cfg = cfg

	e.plugins = plugin.NewManager(cfg.Plugins, e.logger)
	if err := e.plugins.SetupMiddleware(e.middleware); err != nil {
		return fmt.Errorf("setup plugin middleware: %w", err)
	}

	if e.templates != nil {
		if err := e.templates.Initialize(); err != nil {
			return fmt.Errorf("initialize templates: %w", err)
		}
	}

	if err := e.persistServerSettings(cfg); err != nil {
		return fmt.Errorf("persist server settings: %w", err)
	}

	// The pipeline is the sole subscriber of the request event. An
	// error it returns was observed by no failure listener; record it
	// on the context so the dispatch handler can produce the fallback.
	e.events.On(domain.EventRequest, func(ev eventbus.Event) {
		c, ok := ev.Data.(*domain.Context)
		if !ok {
			e.logger.Error("request event carried unexpected payload",
				slog.String("type", fmt.Sprintf("%T", ev.Data)))
			return
		}
		if err := e.pipeline.Execute(c); err != nil {
			c.Fail(err)
		}
	})

	e.events.Emit(domain.EventOptions, ports.TransportOptions{
		Handler:      http.HandlerFunc(e.dispatch),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	})

	if e.config != nil {
		go e.watchConfig()
	}

	e.started = true
	e.logger.Info("engine started",
		slog.Int("routes", len(e.router.Routes())),
		slog.String("state", e.adapter.State().String()))
	return nil
}

// Listen binds the transport using the loaded server configuration for
// any zero port or empty host.
func (e *Engine) Listen(port int, host, message string) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return &domain.SetupError{Op: "listen", Detail: "engine not started"}
	}
	cfg := e.cfg
	e.mu.Unlock()

	if port == 0 {
		port = cfg.Server.Port
	}
	if host == "" {
		host = cfg.Server.Host
	}
	if message == "" {
		message = cfg.Server.Message
	}
	return e.adapter.Listen(port, host, message)
}

// Shutdown stops the transport and closes the engine's collaborators.
// Safe to call more than once.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Info("shutting down engine")
	if e.cancel != nil {
		e.cancel()
	}

	err := e.adapter.Shutdown(ctx)

	if e.settings != nil {
		if cerr := e.settings.Close(); cerr != nil {
			e.logger.Error("failed to close settings store", slog.String("error", cerr.Error()))
		}
	}
	if e.config != nil {
		if cerr := e.config.Close(); cerr != nil {
			e.logger.Error("failed to close config provider", slog.String("error", cerr.Error()))
		}
	}
	return err
}

// dispatch is the transport's entry point: it wraps the raw pair in a
// context, emits the request event, and produces the fallback response
// for failures nothing observed.
func (e *Engine) dispatch(w http.ResponseWriter, r *http.Request) {
	c := domain.NewContext(w, r)
	c.RequestID = uuid.NewString()
	c.Header().Set("X-Request-ID", c.RequestID)

	observed := e.events.SafeEmit(domain.EventRequest, c)
	if !observed {
		// No pipeline subscribed; the engine was bypassed.
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	if err := c.DispatchError(); err != nil {
		e.logger.Error("request failed",
			slog.String("method", c.Method),
			slog.String("path", c.Path),
			slog.String("request_id", c.RequestID),
			slog.String("error", err.Error()))
		if !c.Written() {
			http.Error(c.Writer(), "internal server error", http.StatusInternalServerError)
		}
	}
}

func (e *Engine) loadConfig() (*config.Config, error) {
	if e.config != nil {
		return e.config.Load(e.ctx)
	}
	return config.Load("")
}

// persistServerSettings mirrors the effective server configuration into
// the settings store so operational tooling can read it back.
func (e *Engine) persistServerSettings(cfg *config.Config) error {
	if e.settings == nil {
		return nil
	}
	for key, value := range map[string]string{
		"port":    fmt.Sprintf("%d", cfg.Server.Port),
		"host":    cfg.Server.Host,
		"message": cfg.Server.Message,
	} {
		if value == "" {
			continue
		}
		if err := e.settings.Set(e.ctx, ports.SectionServer, key, value); err != nil {
			return err
		}
	}
	return nil
}

// watchConfig applies plugin configuration changes as the file is
// rewritten. Routes and middleware registration are fixed at setup;
// only plugin settings are live.
func (e *Engine) watchConfig() {
	onChange := func(cfg *config.Config) {
		e.mu.Lock()
		e.cfg = cfg
		plugins := e.plugins
		e.mu.Unlock()

		if plugins != nil {
			plugins.ApplyConfig(cfg.Plugins)
			e.logger.Info("plugin configuration reloaded")
		}
	}

	if err := e.config.Watch(e.ctx, onChange); err != nil {
		if err != context.Canceled {
			e.logger.Error("config watch failed", slog.String("error", err.Error()))
		}
	}
}
