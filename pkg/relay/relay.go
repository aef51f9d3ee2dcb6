// Package relay provides the public API for embedding the request
// engine. This is the stable surface for external consumers.
package relay

import (
	"github.com/relaykit/relay/internal/bridge"
	"github.com/relaykit/relay/internal/core/domain"
	"github.com/relaykit/relay/internal/eventbus"
	"github.com/relaykit/relay/internal/runtime"
)

// Engine is the request-dispatch engine. See internal/runtime.Engine
// for full documentation.
type Engine = runtime.Engine

// Option is a functional option for configuring an Engine.
type Option = runtime.Option

// Context carries one inbound request through the pipeline.
type Context = domain.Context

// Next advances the middleware chain.
type Next = domain.Next

// Handler handles a matched route.
type Handler = domain.Handler

// SystemEvent names one of the fixed lifecycle and error events.
type SystemEvent = domain.SystemEvent

// ReadyOptions is the payload of the Ready event; handling it binds the
// transport.
type ReadyOptions = bridge.ReadyOptions

// Event is a bus event as delivered to listeners.
type Event = eventbus.Event

// Listener receives bridged system events.
type Listener = bridge.Listener

// System events accepted by Engine.On.
const (
	Ready         = domain.SystemReady
	Crashed       = domain.SystemCrashed
	RouterMiss    = domain.SystemRouterMiss
	RequestFailed = domain.SystemRequestFailed
)

// New creates an Engine with the given options.
// Example:
//
//	eng, err := relay.New(
//	    relay.WithFileConfig("relay.yaml"),
//	    relay.WithSQLiteSettings("./data/relay.db"),
//	)
var New = runtime.New

// Configuration options.
var (
	// Config sources
	WithFileConfig     = runtime.WithFileConfig
	WithConfigProvider = runtime.WithConfigProvider

	// Settings storage
	WithMemorySettings = runtime.WithMemorySettings
	WithSQLiteSettings = runtime.WithSQLiteSettings
	WithSettingsStore  = runtime.WithSettingsStore

	// Rendering
	WithTemplates      = runtime.WithTemplates
	WithTemplateEngine = runtime.WithTemplateEngine

	// Advanced options
	WithLogger    = runtime.WithLogger
	WithBus       = runtime.WithBus
	WithTransport = runtime.WithTransport
)

// Error classification helpers.
var (
	IsValidation         = domain.IsValidation
	IsSetup              = domain.IsSetup
	IsUnknownSystemEvent = domain.IsUnknownSystemEvent
)
