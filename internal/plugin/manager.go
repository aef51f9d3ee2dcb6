package plugin

import (
	"log/slog"

	"github.com/relaykit/relay/internal/middleware"
	"github.com/relaykit/relay/internal/pkg/config"
)

// Manager owns the plugin units and installs their middleware at
// startup.
type Manager struct {
	CORS       *CORS
	BodyParser *BodyParser
	Proxy      *Proxy

	logger *slog.Logger
}

// NewManager builds all units from file configuration.
func NewManager(cfg config.PluginsConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		CORS:       NewCORS(cfg.CORS),
		BodyParser: NewBodyParser(cfg.BodyParser),
		Proxy:      NewProxy(cfg.Proxy),
		logger:     logger,
	}
}

// SetupMiddleware registers the middleware of every enabled unit in a
// fixed priority order: header-affecting units before payload-consuming
// units before forwarding. The proxy registers path-scoped when its
// path is configured.
func (m *Manager) SetupMiddleware(reg *middleware.Registry) error {
	if m.CORS.Enabled() {
		if err := reg.Use(m.CORS.CreateMiddleware()); err != nil {
			return err
		}
		m.logger.Info("plugin middleware registered", slog.String("plugin", m.CORS.Name()))
	}
	if m.BodyParser.Enabled() {
		if err := reg.Use(m.BodyParser.CreateMiddleware()); err != nil {
			return err
		}
		m.logger.Info("plugin middleware registered", slog.String("plugin", m.BodyParser.Name()))
	}
	if m.Proxy.Enabled() {
		var err error
		if prefix := m.Proxy.PathPrefix(); prefix != "" {
			err = reg.UseFor(prefix, m.Proxy.CreateMiddleware())
		} else {
			err = reg.Use(m.Proxy.CreateMiddleware())
		}
		if err != nil {
			return err
		}
		m.logger.Info("plugin middleware registered", slog.String("plugin", m.Proxy.Name()))
	}
	return nil
}

// ApplyConfig merges a freshly loaded file configuration into the live
// units. Only fields the file sets are merged; registration is
// untouched, and updates affect subsequent requests.
func (m *Manager) ApplyConfig(cfg config.PluginsConfig) {
	cors := map[string]any{}
	if cfg.CORS.Origin != "" {
		cors["origin"] = cfg.CORS.Origin
	}
	if len(cfg.CORS.Methods) > 0 {
		cors["methods"] = cfg.CORS.Methods
	}
	if len(cfg.CORS.Headers) > 0 {
		cors["headers"] = cfg.CORS.Headers
	}
	if cfg.CORS.MaxAge > 0 {
		cors["max_age"] = cfg.CORS.MaxAge
	}
	m.CORS.UpdateMany(cors)

	body := map[string]any{}
	if cfg.BodyParser.Limit > 0 {
		body["limit"] = cfg.BodyParser.Limit
	}
	if len(cfg.BodyParser.Types) > 0 {
		body["types"] = cfg.BodyParser.Types
	}
	m.BodyParser.UpdateMany(body)

	proxy := map[string]any{}
	if cfg.Proxy.Path != "" {
		proxy["path"] = cfg.Proxy.Path
	}
	if cfg.Proxy.Upstream != "" {
		proxy["upstream"] = cfg.Proxy.Upstream
	}
	m.Proxy.UpdateMany(proxy)
}
