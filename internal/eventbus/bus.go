// Package eventbus provides the namespaced publish/subscribe bus that
// carries every inbound request and every lifecycle event. Emission is
// a synchronous fan-out in registration order; SafeEmit additionally
// reports whether any listener observed the event, which is what lets
// callers choose between reactive and exceptional failure handling.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is delivered to every listener registered for its name.
type Event struct {
	Name string
	Time time.Time
	Data any
}

// Listener receives events synchronously, in registration order.
type Listener func(Event)

// Bus owns a set of isolated channels. Multiple protocol domains share
// one bus without event-name collisions by taking separate channels.
type Bus struct {
	mu       sync.Mutex
	channels map[string]*Channel
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{channels: make(map[string]*Channel)}
}

// Channel returns the channel for the given namespace, creating it on
// first use. Repeated calls with the same namespace return the same
// channel.
func (b *Bus) Channel(namespace string) *Channel {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.channels[namespace]
	if !ok {
		ch = newChannel(namespace)
		b.channels[namespace] = ch
	}
	return ch
}

// registration is one listener slot. once registrations disarm
// themselves atomically so they fire at most one time even when the
// same event is emitted from concurrent request chains.
type registration struct {
	id    uint64
	fn    Listener
	once  bool
	fired atomic.Bool
}

// Channel is a named partition of the bus: a mapping from event name to
// an ordered sequence of listeners.
type Channel struct {
	namespace string

	mu        sync.RWMutex
	listeners map[string][]*registration
	nextID    atomic.Uint64
}

func newChannel(namespace string) *Channel {
	return &Channel{
		namespace: namespace,
		listeners: make(map[string][]*registration),
	}
}

// Namespace returns the channel's namespace.
func (c *Channel) Namespace() string {
	return c.namespace
}

// On registers a listener for the named event and returns a handle that
// unregisters it.
func (c *Channel) On(event string, fn Listener) (unregister func()) {
	return c.register(event, fn, false)
}

// Once registers a listener that is removed after its first invocation.
func (c *Channel) Once(event string, fn Listener) (unregister func()) {
	return c.register(event, fn, true)
}

func (c *Channel) register(event string, fn Listener, once bool) func() {
	reg := &registration{id: c.nextID.Add(1), fn: fn, once: once}

	c.mu.Lock()
	c.listeners[event] = append(c.listeners[event], reg)
	c.mu.Unlock()

	return func() { c.remove(event, reg.id) }
}

func (c *Channel) remove(event string, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	regs := c.listeners[event]
	for i, reg := range regs {
		if reg.id == id {
			c.listeners[event] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(c.listeners[event]) == 0 {
		delete(c.listeners, event)
	}
}

// Emit invokes every listener registered for the event, synchronously,
// in registration order.
func (c *Channel) Emit(event string, data any) {
	c.SafeEmit(event, data)
}

// SafeEmit is Emit but reports whether any listener existed. Callers
// use the result to decide whether to additionally surface the
// condition as an error.
func (c *Channel) SafeEmit(event string, data any) bool {
	// Snapshot under the read lock, deliver outside it, so listeners
	// may register or unregister without deadlocking.
	c.mu.RLock()
	regs := c.listeners[event]
	snapshot := make([]*registration, len(regs))
	copy(snapshot, regs)
	c.mu.RUnlock()

	if len(snapshot) == 0 {
		return false
	}

	ev := Event{Name: event, Time: time.Now(), Data: data}
	for _, reg := range snapshot {
		if reg.once {
			if reg.fired.Swap(true) {
				continue
			}
			c.remove(event, reg.id)
		}
		reg.fn(ev)
	}
	return true
}

// ListenerCount returns the number of listeners registered for the
// event.
func (c *Channel) ListenerCount(event string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.listeners[event])
}
