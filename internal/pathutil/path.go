// Package pathutil canonicalizes route paths. Every path stored in the
// router or middleware registry, and every path looked up at dispatch
// time, goes through Normalize so that registration and lookup always
// agree on separators.
package pathutil

import (
	"strings"

	"github.com/relaykit/relay/internal/core/domain"
)

// Normalize collapses repeated separators, forces a single leading
// separator, and strips any trailing separator. Normalize is idempotent.
// An empty input is a ValidationError.
func Normalize(path string) (string, error) {
	if path == "" {
		return "", &domain.ValidationError{Field: "path", Reason: "must not be empty"}
	}

	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/"), nil
}

// Join composes a controller-level prefix with a per-route path. Both
// parts are normalized independently, concatenated, and re-normalized,
// so the result never carries doubled or missing separators. An empty
// prefix contributes nothing.
func Join(prefix, path string) (string, error) {
	normalized, err := Normalize(path)
	if err != nil {
		return "", err
	}
	if prefix == "" {
		return normalized, nil
	}

	normalizedPrefix, err := Normalize(prefix)
	if err != nil {
		return "", err
	}
	return Normalize(normalizedPrefix + normalized)
}
