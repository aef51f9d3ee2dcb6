// Package plugin provides the configurable middleware producers: CORS,
// body parsing, and proxying. Each unit owns a shared configuration
// cell read live by the middleware it produces, so updates take effect
// on the next dispatched request without re-registration. Cells swap
// whole values; a request never observes a torn mix of old and new
// fields.
package plugin

import (
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/relaykit/relay/internal/core/domain"
	"github.com/relaykit/relay/internal/middleware"
	"github.com/relaykit/relay/internal/pkg/config"
)

// CORSConfig is the whole-value configuration of the CORS unit.
type CORSConfig struct {
	Origin  string
	Methods []string
	Headers []string
	MaxAge  int
}

// CORS emits cross-origin response headers and answers preflight
// requests.
type CORS struct {
	enabled atomic.Bool
	cfg     atomic.Pointer[CORSConfig]
}

// NewCORS builds the unit from file configuration.
func NewCORS(fc config.CORSConfig) *CORS {
	c := &CORS{}
	c.enabled.Store(fc.Enabled)
	c.cfg.Store(&CORSConfig{
		Origin:  fc.Origin,
		Methods: fc.Methods,
		Headers: fc.Headers,
		MaxAge:  fc.MaxAge,
	})
	return c
}

func (c *CORS) Name() string { return "cors" }

// Enabled reports whether SetupMiddleware registers this unit.
func (c *CORS) Enabled() bool { return c.enabled.Load() }

// SetEnabled toggles the unit. Takes effect at the next setup pass.
func (c *CORS) SetEnabled(v bool) { c.enabled.Store(v) }

// Config returns the current whole-value configuration.
func (c *CORS) Config() CORSConfig { return *c.cfg.Load() }

// Update merges one field into the current configuration. Unspecified
// fields are untouched; unknown keys are ignored. Merging never fails.
func (c *CORS) Update(key string, value any) {
	c.UpdateMany(map[string]any{key: value})
}

// UpdateMany merges the given fields into the current configuration as
// one whole-value swap.
func (c *CORS) UpdateMany(fields map[string]any) {
	next := *c.cfg.Load()
	for key, value := range fields {
		switch key {
		case "origin":
			if v, ok := value.(string); ok {
				next.Origin = v
			}
		case "methods":
			if v, ok := toStringSlice(value); ok {
				next.Methods = v
			}
		case "headers":
			if v, ok := toStringSlice(value); ok {
				next.Headers = v
			}
		case "max_age":
			if v, ok := value.(int); ok {
				next.MaxAge = v
			}
		}
	}
	c.cfg.Store(&next)
}

// CreateMiddleware returns the CORS middleware. It reads the unit's
// current configuration on every request.
func (c *CORS) CreateMiddleware() middleware.Func {
	return func(ctx *domain.Context, next domain.Next) error {
		cfg := c.cfg.Load()

		h := ctx.Header()
		if cfg.Origin != "" {
			h.Set("Access-Control-Allow-Origin", cfg.Origin)
		}
		if len(cfg.Methods) > 0 {
			h.Set("Access-Control-Allow-Methods", strings.Join(cfg.Methods, ", "))
		}
		if len(cfg.Headers) > 0 {
			h.Set("Access-Control-Allow-Headers", strings.Join(cfg.Headers, ", "))
		}
		if cfg.MaxAge > 0 {
			h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		// Preflight ends here; the chain deliberately halts.
		if ctx.Method == http.MethodOptions && ctx.Request.Header.Get("Access-Control-Request-Method") != "" {
			ctx.Status(http.StatusNoContent)
			return nil
		}
		return next()
	}
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
