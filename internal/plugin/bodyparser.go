package plugin

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/relaykit/relay/internal/core/domain"
	"github.com/relaykit/relay/internal/middleware"
	"github.com/relaykit/relay/internal/pkg/config"
)

// Default body-parser limits.
const (
	DefaultBodyLimit = 1 << 20 // 1 MiB
)

// StateBody is the context state key under which the parsed body is
// stored.
const StateBody = "body"

// BodyParserConfig is the whole-value configuration of the body-parser
// unit.
type BodyParserConfig struct {
	Limit int64
	Types []string
}

// BodyParser reads and decodes request bodies for matching content
// types, storing the result in the context state bag.
type BodyParser struct {
	enabled atomic.Bool
	cfg     atomic.Pointer[BodyParserConfig]
}

// NewBodyParser builds the unit from file configuration.
func NewBodyParser(fc config.BodyParserConfig) *BodyParser {
	limit := fc.Limit
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	types := fc.Types
	if len(types) == 0 {
		types = []string{"application/json"}
	}

	b := &BodyParser{}
	b.enabled.Store(fc.Enabled)
	b.cfg.Store(&BodyParserConfig{Limit: limit, Types: types})
	return b
}

func (b *BodyParser) Name() string { return "body-parser" }

func (b *BodyParser) Enabled() bool     { return b.enabled.Load() }
func (b *BodyParser) SetEnabled(v bool) { b.enabled.Store(v) }

// Config returns the current whole-value configuration.
func (b *BodyParser) Config() BodyParserConfig { return *b.cfg.Load() }

// Update merges one field; see CORS.Update for merge semantics.
func (b *BodyParser) Update(key string, value any) {
	b.UpdateMany(map[string]any{key: value})
}

// UpdateMany merges the given fields as one whole-value swap.
func (b *BodyParser) UpdateMany(fields map[string]any) {
	next := *b.cfg.Load()
	for key, value := range fields {
		switch key {
		case "limit":
			switch v := value.(type) {
			case int64:
				next.Limit = v
			case int:
				next.Limit = int64(v)
			}
		case "types":
			if v, ok := toStringSlice(value); ok {
				next.Types = v
			}
		}
	}
	b.cfg.Store(&next)
}

// CreateMiddleware returns the body-parsing middleware. Requests whose
// content type is not configured pass through untouched.
func (b *BodyParser) CreateMiddleware() middleware.Func {
	return func(ctx *domain.Context, next domain.Next) error {
		cfg := b.cfg.Load()

		if ctx.Request.Body == nil || ctx.Request.ContentLength == 0 {
			return next()
		}
		contentType := ctx.Request.Header.Get("Content-Type")
		if !matchesType(contentType, cfg.Types) {
			return next()
		}

		reader := io.LimitReader(ctx.Request.Body, cfg.Limit)
		raw, err := io.ReadAll(reader)
		if err != nil {
			return err
		}

		if strings.HasPrefix(contentType, "application/json") {
			var parsed any
			if err := json.Unmarshal(raw, &parsed); err != nil {
				ctx.Status(http.StatusBadRequest)
				return nil
			}
			ctx.Set(StateBody, parsed)
		} else {
			ctx.Set(StateBody, raw)
		}
		return next()
	}
}

func matchesType(contentType string, types []string) bool {
	for _, t := range types {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}
