// Package domain provides the canonical types shared by the dispatch
// engine: the request context, handler signatures, system events, and
// the error taxonomy.
package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports invalid input to a setup-time operation, such
// as an empty path passed to the normalizer. It is always returned
// synchronously at registration time, never deferred to request time.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// SetupError reports an invalid registration: an unsupported middleware
// shape, an attachment to a member that does not exist on the target
// instance, or a lifecycle call made out of order.
type SetupError struct {
	Op     string
	Detail string
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

// IsSetup reports whether err is a SetupError.
func IsSetup(err error) bool {
	var se *SetupError
	return errors.As(err, &se)
}

// UnknownSystemEventError is returned when an unrecognized name is
// passed to the system-event registration surface. The offending name
// is always included in the message.
type UnknownSystemEventError struct {
	Name string
}

func (e *UnknownSystemEventError) Error() string {
	return fmt.Sprintf("unknown system event %q", e.Name)
}

// IsUnknownSystemEvent reports whether err is an UnknownSystemEventError.
func IsUnknownSystemEvent(err error) bool {
	var ue *UnknownSystemEventError
	return errors.As(err, &ue)
}
