// Package router maps (method, normalized path) pairs to handlers. A
// lookup miss is a first-class result, never an error; "not found"
// policy belongs to whoever listens for it.
package router

import (
	"strings"
	"sync"

	"github.com/relaykit/relay/internal/core/domain"
	"github.com/relaykit/relay/internal/pathutil"
)

// MethodAll is the wildcard method. An ALL entry matches any method for
// its path when no exact (method, path) entry exists.
const MethodAll = "ALL"

// Methods lists the supported registration methods besides MethodAll.
var Methods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// Route is one registered entry, keyed uniquely by (Method, Path).
type Route struct {
	Method  string
	Path    string
	Handler domain.Handler
	Version string
}

// Router is the route registry. Registration happens during setup,
// before traffic; lookups are read-only thereafter.
type Router struct {
	mu     sync.RWMutex
	routes map[string]map[string]Route // method -> normalized path -> route
}

// New creates an empty router.
func New() *Router {
	return &Router{routes: make(map[string]map[string]Route)}
}

// Register stores a handler under (method, Normalize(path)). Registering
// the same key again replaces the prior entry; last write wins.
func (r *Router) Register(method, path string, h domain.Handler) error {
	method = strings.ToUpper(method)
	if !validMethod(method) {
		return &domain.SetupError{Op: "register route", Detail: "unsupported method " + method}
	}
	if h == nil {
		return &domain.SetupError{Op: "register route", Detail: "nil handler for " + method + " " + path}
	}

	normalized, err := pathutil.Normalize(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.routes[method] == nil {
		r.routes[method] = make(map[string]Route)
	}
	r.routes[method][normalized] = Route{
		Method:  method,
		Path:    normalized,
		Handler: h,
	}
	return nil
}

// Lookup resolves a handler for (method, Normalize(path)). An exact
// method entry wins; otherwise an ALL entry for the same path matches.
// The second result reports whether a handler was found.
func (r *Router) Lookup(method, path string) (domain.Handler, bool) {
	normalized, err := pathutil.Normalize(path)
	if err != nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if route, ok := r.routes[strings.ToUpper(method)][normalized]; ok {
		return route.Handler, true
	}
	if route, ok := r.routes[MethodAll][normalized]; ok {
		return route.Handler, true
	}
	return nil, false
}

// Routes returns a snapshot of all registered routes.
func (r *Router) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Route, 0, len(r.routes))
	for _, byPath := range r.routes {
		for _, route := range byPath {
			out = append(out, route)
		}
	}
	return out
}

func validMethod(method string) bool {
	if method == MethodAll {
		return true
	}
	for _, m := range Methods {
		if m == method {
			return true
		}
	}
	return false
}
