package domain

import "time"

// SystemEvent identifies one of the fixed lifecycle and error events
// exposed on the system-event registration surface. The set is closed:
// the bridge rejects any other name with UnknownSystemEventError.
type SystemEvent string

const (
	// SystemReady triggers the transport listen with the supplied
	// port, host, and startup message.
	SystemReady SystemEvent = "ready"

	// SystemCrashed reports a bind or listen failure.
	SystemCrashed SystemEvent = "crashed"

	// SystemRouterMiss reports a request that matched no route. A miss
	// is a first-class event, not an error, so "not found" policy
	// stays pluggable.
	SystemRouterMiss SystemEvent = "router:miss"

	// SystemRequestFailed reports an uncaught failure during request
	// dispatch.
	SystemRequestFailed SystemEvent = "request:failed"
)

// Internal bus event names. The transport emits EventOptions once at
// startup and EventRequest once per inbound request; the pipeline emits
// the failure and miss events.
const (
	EventOptions       = "options"
	EventRequest       = "request"
	EventRequestFailed = "request:failed"
	EventRouterMiss    = "router:miss"
	EventServerCrashed = "server:crashed"
)

// Failure is the payload of a request:failed event.
type Failure struct {
	Err       error
	Method    string
	Path      string
	RequestID string
	Timestamp time.Time
}

// Miss is the payload of a router:miss event.
type Miss struct {
	Method string
	Path   string
}

// CrashReport is the payload of a server:crashed event.
type CrashReport struct {
	Message   string
	Err       error
	Stack     string
	Timestamp time.Time
}
