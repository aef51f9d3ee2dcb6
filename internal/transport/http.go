package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/relaykit/relay/internal/core/ports"
)

// HTTP is the default transport collaborator: a net/http server whose
// root handler is a chi mux carrying the recoverer and OpenTelemetry
// instrumentation, with the engine's dispatch handler mounted beneath.
type HTTP struct {
	logger *slog.Logger
	srv    *http.Server
	ln     net.Listener
}

var _ ports.Transport = (*HTTP)(nil)

// NewHTTP creates an unconfigured HTTP transport.
func NewHTTP(logger *slog.Logger) *HTTP {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTP{logger: logger}
}

// Initialize builds the server from options.
func (h *HTTP) Initialize(opts ports.TransportOptions) error {
	if opts.Handler == nil {
		return errors.New("transport options carry no handler")
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "relay")
	})
	r.Mount("/", opts.Handler)

	h.srv = &http.Server{
		Handler:      r,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}
	return nil
}

// Listen binds synchronously and serves in the background, so a bind
// failure is reported to the caller rather than lost in a goroutine.
func (h *HTTP) Listen(port int, host string) error {
	if h.srv == nil {
		return errors.New("transport not initialized")
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	h.ln = ln

	go func() {
		if serveErr := h.srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			h.logger.Error("serve stopped", slog.String("error", serveErr.Error()))
		}
	}()
	return nil
}

// Close shuts the server down gracefully, draining in-flight requests
// until ctx expires.
func (h *HTTP) Close(ctx context.Context) error {
	if h.srv == nil {
		return nil
	}
	return h.srv.Shutdown(ctx)
}

// Addr returns the bound address, or an empty string before Listen.
func (h *HTTP) Addr() string {
	if h.ln == nil {
		return ""
	}
	return h.ln.Addr().String()
}
