package middleware

import (
	"fmt"
	"reflect"

	"github.com/relaykit/relay/internal/core/domain"
)

// ValidateAttachment checks that declarative middleware or route
// behavior is being attached to a method bound to a live instance. It
// fails at setup time with a descriptive error instead of deferring a
// nil dereference or missing-method failure to request time.
func ValidateAttachment(target any, member string) error {
	if target == nil {
		return &domain.SetupError{
			Op:     "attach " + member,
			Detail: "target is nil, not an instance",
		}
	}

	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return &domain.SetupError{
			Op:     "attach " + member,
			Detail: fmt.Sprintf("target %s is a nil pointer, not an instance", v.Type()),
		}
	}

	if m := v.MethodByName(member); !m.IsValid() {
		return &domain.SetupError{
			Op:     "attach " + member,
			Detail: fmt.Sprintf("%s has no method %s bound to an instance", v.Type(), member),
		}
	}
	return nil
}
