// Package transport wraps the raw transport collaborator in an
// explicit lifecycle: Created, Initializing, Listening, ShuttingDown,
// Closed. Construction subscribes once to the options event; receiving
// it configures the underlying transport and moves the adapter to
// Initializing, making the two-phase construction directly observable.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/relaykit/relay/internal/core/domain"
	"github.com/relaykit/relay/internal/core/ports"
	"github.com/relaykit/relay/internal/eventbus"
)

// State is the adapter lifecycle state.
type State int32

const (
	StateCreated State = iota
	StateInitializing
	StateListening
	StateShuttingDown
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateListening:
		return "listening"
	case StateShuttingDown:
		return "shutting-down"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Adapter drives the transport collaborator through its lifecycle and
// routes bind failures through the server:crashed event.
type Adapter struct {
	transport ports.Transport
	events    *eventbus.Channel
	logger    *slog.Logger

	state   atomic.Int32
	initErr error
}

// NewAdapter creates the adapter and subscribes once to the options
// event on the given channel.
func NewAdapter(events *eventbus.Channel, t ports.Transport, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		transport: t,
		events:    events,
		logger:    logger,
	}
	events.Once(domain.EventOptions, func(ev eventbus.Event) {
		opts, ok := ev.Data.(ports.TransportOptions)
		if !ok {
			a.initErr = &domain.SetupError{
				Op:     "initialize transport",
				Detail: fmt.Sprintf("options event carried %T, want TransportOptions", ev.Data),
			}
			return
		}
		a.configure(opts)
	})
	return a
}

// State returns the current lifecycle state.
func (a *Adapter) State() State {
	return State(a.state.Load())
}

func (a *Adapter) configure(opts ports.TransportOptions) {
	if !a.state.CompareAndSwap(int32(StateCreated), int32(StateInitializing)) {
		return
	}
	if err := a.transport.Initialize(opts); err != nil {
		a.initErr = fmt.Errorf("initialize transport: %w", err)
		return
	}
	a.logger.Debug("transport initialized")
}

// Listen binds the transport. On success the adapter is Listening and
// the startup message is logged. On failure the crash is reported
// through server:crashed; the original error is returned only when no
// listener observed it, letting the embedder choose between reactive
// and exceptional handling.
func (a *Adapter) Listen(port int, host, message string) error {
	if a.initErr != nil {
		return a.initErr
	}
	if a.State() != StateInitializing {
		return &domain.SetupError{
			Op:     "listen",
			Detail: fmt.Sprintf("transport is %s, want initializing (was the options event emitted?)", a.State()),
		}
	}

	if err := a.transport.Listen(port, host); err != nil {
		observed := a.events.SafeEmit(domain.EventServerCrashed, domain.CrashReport{
			Message:   message,
			Err:       err,
			Stack:     string(debug.Stack()),
			Timestamp: time.Now(),
		})
		if observed {
			return nil
		}
		return err
	}

	a.state.Store(int32(StateListening))
	if message != "" {
		a.logger.Info(message, slog.Int("port", port), slog.String("host", host))
	} else {
		a.logger.Info("listening", slog.Int("port", port), slog.String("host", host))
	}
	return nil
}

// Shutdown releases the listening resource and moves the adapter to
// Closed. Calling Shutdown after Closed is a no-op returning nil.
func (a *Adapter) Shutdown(ctx context.Context) error {
	state := a.State()
	if state == StateClosed || state == StateShuttingDown {
		return nil
	}

	a.state.Store(int32(StateShuttingDown))
	err := a.transport.Close(ctx)
	a.state.Store(int32(StateClosed))
	if err != nil {
		return fmt.Errorf("close transport: %w", err)
	}
	a.logger.Info("transport closed")
	return nil
}
