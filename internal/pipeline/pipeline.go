// Package pipeline composes the router and middleware registry into one
// per-request execution: global middleware, then path-scoped middleware,
// then route dispatch. Execution is strictly single-pass; nothing is
// retried.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/relaykit/relay/internal/core/domain"
	"github.com/relaykit/relay/internal/eventbus"
	"github.com/relaykit/relay/internal/middleware"
	"github.com/relaykit/relay/internal/pathutil"
	"github.com/relaykit/relay/internal/router"
)

// Pipeline executes one request against the registered chain and route
// table. It is the sole subscriber of the request event.
type Pipeline struct {
	router     *router.Router
	middleware *middleware.Registry
	events     *eventbus.Channel
	logger     *slog.Logger
}

// New creates a pipeline over the given router, registry, and event
// channel.
func New(r *router.Router, reg *middleware.Registry, events *eventbus.Channel, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		router:     r,
		middleware: reg,
		events:     events,
		logger:     logger,
	}
}

// Execute runs the chain for one request. Failure handling is dual:
// an uncaught error is reported through request:failed, and returned to
// the caller only when no listener observed it, leaving the fallback
// response to the transport. A router miss emits router:miss and
// returns nil without writing; producing "not found" is a listener's
// job, never the pipeline's.
func (p *Pipeline) Execute(ctx *domain.Context) error {
	err := p.run(ctx)
	if err == nil {
		return nil
	}

	observed := p.events.SafeEmit(domain.EventRequestFailed, domain.Failure{
		Err:       err,
		Method:    ctx.Method,
		Path:      ctx.Path,
		RequestID: ctx.RequestID,
		Timestamp: time.Now(),
	})
	if observed {
		return nil
	}
	return err
}

func (p *Pipeline) run(ctx *domain.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during dispatch: %v", r)
		}
	}()

	matchPath := ctx.Path
	if normalized, nerr := pathutil.Normalize(ctx.Path); nerr == nil {
		matchPath = normalized
	}
	entries := p.middleware.ForPath(matchPath)

	var advance func(i int) error
	advance = func(i int) error {
		if i < len(entries) {
			// The chain moves only when the middleware calls its
			// continuation. Returning without calling it halts here.
			return entries[i].Fn(ctx, func() error { return advance(i + 1) })
		}
		return p.dispatch(ctx)
	}
	return advance(0)
}

func (p *Pipeline) dispatch(ctx *domain.Context) error {
	handler, ok := p.router.Lookup(ctx.Method, ctx.Path)
	if !ok {
		p.logger.Debug("route miss",
			slog.String("method", ctx.Method),
			slog.String("path", ctx.Path),
		)
		p.events.Emit(domain.EventRouterMiss, domain.Miss{
			Method: ctx.Method,
			Path:   ctx.Path,
		})
		return nil
	}
	return handler(ctx)
}
