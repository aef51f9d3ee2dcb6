// Package bridge maps the closed set of system-event names to
// registration and trigger strategies. The dispatch is a fixed lookup
// table; any name outside the set fails immediately, naming the event.
package bridge

import (
	"fmt"

	"github.com/relaykit/relay/internal/core/domain"
	"github.com/relaykit/relay/internal/eventbus"
)

// ReadyOptions is the payload of the ready event: it triggers the
// transport listen with the supplied port, host, and startup message.
type ReadyOptions struct {
	Port    int
	Host    string
	Message string
}

// Listener receives bridged system events.
type Listener func(eventbus.Event)

// ListenFunc is the trigger the ready event invokes.
type ListenFunc func(port int, host, message string) error

// listenerEvents maps system-event names that register a listener to
// the internal bus event each observes.
var listenerEvents = map[domain.SystemEvent]string{
	domain.SystemCrashed:       domain.EventServerCrashed,
	domain.SystemRouterMiss:    domain.EventRouterMiss,
	domain.SystemRequestFailed: domain.EventRequestFailed,
}

// Bridge routes system events into the engine.
type Bridge struct {
	events *eventbus.Channel
	listen ListenFunc
}

// New creates a bridge over the given channel and listen trigger.
func New(events *eventbus.Channel, listen ListenFunc) *Bridge {
	return &Bridge{events: events, listen: listen}
}

// Handle applies the strategy for the named system event. ready wants
// a ReadyOptions payload; the remaining events want a Listener. Any
// unrecognized name is an UnknownSystemEventError.
func (b *Bridge) Handle(event domain.SystemEvent, arg any) error {
	if event == domain.SystemReady {
		opts, ok := arg.(ReadyOptions)
		if !ok {
			return &domain.SetupError{
				Op:     "handle ready",
				Detail: fmt.Sprintf("want ReadyOptions, got %T", arg),
			}
		}
		return b.listen(opts.Port, opts.Host, opts.Message)
	}

	busEvent, ok := listenerEvents[event]
	if !ok {
		return &domain.UnknownSystemEventError{Name: string(event)}
	}

	fn, ok := arg.(Listener)
	if !ok {
		if raw, rawOK := arg.(func(eventbus.Event)); rawOK {
			fn = raw
			ok = true
		}
	}
	if !ok {
		return &domain.SetupError{
			Op:     "handle " + string(event),
			Detail: fmt.Sprintf("want Listener, got %T", arg),
		}
	}

	b.events.On(busEvent, eventbus.Listener(fn))
	return nil
}
