package plugin

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v2/recorder"

	"github.com/relaykit/relay/internal/core/domain"
	"github.com/relaykit/relay/internal/pkg/config"
	"github.com/relaykit/relay/internal/testutil"
)

func TestProxy_ForwardsAndReplays(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello from upstream"))
	}))

	cassette := filepath.Join(t.TempDir(), "proxy")

	serve := func(t *testing.T, rec *recorder.Recorder) *httptest.ResponseRecorder {
		t.Helper()
		p := NewProxy(config.ProxyConfig{Enabled: true, Upstream: upstream.URL})
		p.SetTransport(rec)

		req := httptest.NewRequest(http.MethodGet, "/echo", nil)
		w := httptest.NewRecorder()
		ctx := domain.NewContext(w, req)

		advanced := false
		if err := p.CreateMiddleware()(ctx, func() error { advanced = true; return nil }); err != nil {
			t.Fatalf("proxy middleware: %v", err)
		}
		if advanced {
			t.Error("proxy middleware is terminal and must not advance the chain")
		}
		return w
	}

	// Record pass hits the live upstream and writes the cassette.
	rec, stop := testutil.NewRecorder(t, cassette, recorder.ModeRecording)
	w := serve(t, rec)
	if w.Code != http.StatusOK || w.Body.String() != "hello from upstream" {
		t.Fatalf("unexpected proxied response: %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Upstream") != "yes" {
		t.Error("upstream header not forwarded")
	}
	stop()

	// Replay pass is served entirely from the cassette.
	upstream.Close()
	rec2, stop2 := testutil.NewRecorder(t, cassette, recorder.ModeReplaying)
	defer stop2()

	w2 := serve(t, rec2)
	if w2.Code != http.StatusOK || w2.Body.String() != "hello from upstream" {
		t.Errorf("replayed response differs: %d %q", w2.Code, w2.Body.String())
	}
}

func TestProxy_NoUpstreamPassesThrough(t *testing.T) {
	p := NewProxy(config.ProxyConfig{Enabled: true})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	ctx := domain.NewContext(httptest.NewRecorder(), req)

	advanced := false
	if err := p.CreateMiddleware()(ctx, func() error { advanced = true; return nil }); err != nil {
		t.Fatalf("proxy middleware: %v", err)
	}
	if !advanced {
		t.Error("expected pass-through with no upstream configured")
	}
}

func TestProxy_UpdateUpstreamTakesEffect(t *testing.T) {
	p := NewProxy(config.ProxyConfig{Enabled: true, Upstream: "http://old.invalid"})
	p.Update("upstream", "http://new.invalid")

	if got := p.Config().Upstream; got != "http://new.invalid" {
		t.Errorf("upstream = %q", got)
	}
	if got := p.Config().Timeout; got <= 0 {
		t.Errorf("timeout default lost: %v", got)
	}
}
