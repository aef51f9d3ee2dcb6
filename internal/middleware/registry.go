// Package middleware stores the ordered, path-scoped middleware chain.
// Registration accepts a closed set of calling conventions and
// normalizes each into the canonical Func shape once, at registration
// time; dispatch never re-inspects the shape.
package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/relaykit/relay/internal/core/domain"
	"github.com/relaykit/relay/internal/pathutil"
)

// Func is the canonical middleware shape: inspect or mutate the
// context, then call next to advance the chain. Returning without
// calling next halts the chain; that is a deliberate short-circuit,
// not an error.
type Func func(*domain.Context, domain.Next) error

// LegacyFunc is the triple-argument convention carried for handlers
// written against the raw request/response pair. It is adapted into
// Func at registration by a context shim.
type LegacyFunc func(http.ResponseWriter, *http.Request, domain.Next) error

// Style identifies the convention a middleware was registered with.
type Style int

const (
	StyleDirect Style = iota
	StyleLegacyTriple
)

// Entry is one stored middleware. A zero Prefix means global; global
// entries always run before path-scoped ones regardless of
// registration order.
type Entry struct {
	Prefix string
	Fn     Func
	Style  Style
}

// Registry holds middleware in insertion order. It is mutated only
// during setup, before traffic.
type Registry struct {
	mu     sync.RWMutex
	global []Entry
	scoped []Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Use registers a global middleware. Accepted shapes: Func,
// LegacyFunc, or their underlying function signatures. Anything else
// is a SetupError.
func (r *Registry) Use(fn any) error {
	entry, err := adapt(fn)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.global = append(r.global, entry)
	r.mu.Unlock()
	return nil
}

// UseFor registers a middleware scoped to requests whose normalized
// path starts with Normalize(prefix).
func (r *Registry) UseFor(prefix string, fn any) error {
	normalized, err := pathutil.Normalize(prefix)
	if err != nil {
		return err
	}

	entry, err := adapt(fn)
	if err != nil {
		return err
	}
	entry.Prefix = normalized

	r.mu.Lock()
	r.scoped = append(r.scoped, entry)
	r.mu.Unlock()
	return nil
}

// ForPath returns the chain for a normalized request path: all global
// entries first, then scoped entries whose prefix matches, each group
// in insertion order.
func (r *Registry) ForPath(path string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.global)+len(r.scoped))
	out = append(out, r.global...)
	for _, e := range r.scoped {
		if strings.HasPrefix(path, e.Prefix) {
			out = append(out, e)
		}
	}
	return out
}

// adapt normalizes a registration shape into the canonical Func. Shape
// detection happens here and only here.
func adapt(fn any) (Entry, error) {
	switch v := fn.(type) {
	case nil:
		return Entry{}, &domain.SetupError{Op: "register middleware", Detail: "nil middleware"}
	case Func:
		return Entry{Fn: v, Style: StyleDirect}, nil
	case func(*domain.Context, domain.Next) error:
		return Entry{Fn: v, Style: StyleDirect}, nil
	case LegacyFunc:
		return Entry{Fn: adaptLegacy(v), Style: StyleLegacyTriple}, nil
	case func(http.ResponseWriter, *http.Request, domain.Next) error:
		return Entry{Fn: adaptLegacy(v), Style: StyleLegacyTriple}, nil
	default:
		return Entry{}, &domain.SetupError{
			Op:     "register middleware",
			Detail: fmt.Sprintf("unsupported shape %T; want func(*Context, Next) error or func(ResponseWriter, *Request, Next) error", fn),
		}
	}
}

// adaptLegacy builds the shim that hands a legacy middleware the
// request/response pair backing the context.
func adaptLegacy(v LegacyFunc) Func {
	return func(c *domain.Context, next domain.Next) error {
		return v(c.Writer(), c.Request, next)
	}
}
