package plugin

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/relaykit/relay/internal/core/domain"
	"github.com/relaykit/relay/internal/middleware"
	"github.com/relaykit/relay/internal/pkg/config"
)

// ProxyConfig is the whole-value configuration of the proxy unit.
type ProxyConfig struct {
	Path     string
	Upstream string
	Timeout  time.Duration
}

// Proxy forwards matching requests to a single upstream. The produced
// middleware is terminal: it never calls its continuation, so no later
// stage or route handler runs for a proxied request.
type Proxy struct {
	enabled atomic.Bool
	cfg     atomic.Pointer[ProxyConfig]

	// transport overrides the upstream round tripper; set during test
	// setup only.
	transport http.RoundTripper
}

// NewProxy builds the unit from file configuration.
func NewProxy(fc config.ProxyConfig) *Proxy {
	timeout := time.Duration(fc.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	p := &Proxy{}
	p.enabled.Store(fc.Enabled)
	p.cfg.Store(&ProxyConfig{
		Path:     fc.Path,
		Upstream: fc.Upstream,
		Timeout:  timeout,
	})
	return p
}

func (p *Proxy) Name() string { return "proxy" }

func (p *Proxy) Enabled() bool     { return p.enabled.Load() }
func (p *Proxy) SetEnabled(v bool) { p.enabled.Store(v) }

// Config returns the current whole-value configuration.
func (p *Proxy) Config() ProxyConfig { return *p.cfg.Load() }

// PathPrefix returns the path scope this unit registers under, or an
// empty string for global.
func (p *Proxy) PathPrefix() string { return p.cfg.Load().Path }

// SetTransport overrides the upstream round tripper. Setup-time only.
func (p *Proxy) SetTransport(rt http.RoundTripper) { p.transport = rt }

// Update merges one field; see CORS.Update for merge semantics.
func (p *Proxy) Update(key string, value any) {
	p.UpdateMany(map[string]any{key: value})
}

// UpdateMany merges the given fields as one whole-value swap.
func (p *Proxy) UpdateMany(fields map[string]any) {
	next := *p.cfg.Load()
	for key, value := range fields {
		switch key {
		case "path":
			if v, ok := value.(string); ok {
				next.Path = v
			}
		case "upstream":
			if v, ok := value.(string); ok {
				next.Upstream = v
			}
		case "timeout":
			if v, ok := value.(time.Duration); ok {
				next.Timeout = v
			}
		}
	}
	p.cfg.Store(&next)
}

// CreateMiddleware returns the proxying middleware. The upstream is
// resolved from the unit's current configuration per request; with no
// upstream configured the request passes through.
func (p *Proxy) CreateMiddleware() middleware.Func {
	return func(ctx *domain.Context, next domain.Next) error {
		cfg := p.cfg.Load()
		if cfg.Upstream == "" {
			return next()
		}

		target, err := url.Parse(cfg.Upstream)
		if err != nil {
			return err
		}

		rp := httputil.NewSingleHostReverseProxy(target)
		if p.transport != nil {
			rp.Transport = p.transport
		} else {
			rp.Transport = &http.Transport{ResponseHeaderTimeout: cfg.Timeout}
		}
		rp.ServeHTTP(ctx.Writer(), ctx.Request)
		return nil
	}
}
