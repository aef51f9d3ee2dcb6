// Package testutil provides shared test helpers.
package testutil

import (
	"net/http"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"
)

// NewRecorder creates a VCR recorder in the given mode, writing or
// replaying the named cassette. The caller owns cleanup via the
// returned function.
func NewRecorder(t *testing.T, cassettePath string, mode recorder.Mode) (*recorder.Recorder, func()) {
	t.Helper()

	r, err := recorder.NewAsMode(cassettePath, mode, nil)
	if err != nil {
		t.Fatalf("create recorder: %v", err)
	}

	// Match on method and URL only.
	r.SetMatcher(func(req *http.Request, i cassette.Request) bool {
		return req.Method == i.Method && req.URL.String() == i.URL
	})

	cleanup := func() {
		if err := r.Stop(); err != nil {
			t.Errorf("stop recorder: %v", err)
		}
	}
	return r, cleanup
}
