package bridge

import (
	"strings"
	"testing"

	"github.com/relaykit/relay/internal/core/domain"
	"github.com/relaykit/relay/internal/eventbus"
)

func TestHandle_ReadyTriggersListen(t *testing.T) {
	ch := eventbus.New().Channel("http")

	var gotPort int
	var gotHost, gotMessage string
	b := New(ch, func(port int, host, message string) error {
		gotPort, gotHost, gotMessage = port, host, message
		return nil
	})

	err := b.Handle(domain.SystemReady, ReadyOptions{Port: 8080, Host: "0.0.0.0", Message: "up"})
	if err != nil {
		t.Fatalf("handle ready: %v", err)
	}
	if gotPort != 8080 || gotHost != "0.0.0.0" || gotMessage != "up" {
		t.Errorf("listen got (%d, %q, %q)", gotPort, gotHost, gotMessage)
	}
}

func TestHandle_RegistersListeners(t *testing.T) {
	cases := []struct {
		system domain.SystemEvent
		bus    string
	}{
		{domain.SystemCrashed, domain.EventServerCrashed},
		{domain.SystemRouterMiss, domain.EventRouterMiss},
		{domain.SystemRequestFailed, domain.EventRequestFailed},
	}

	for _, tc := range cases {
		ch := eventbus.New().Channel("http")
		b := New(ch, nil)

		calls := 0
		if err := b.Handle(tc.system, Listener(func(eventbus.Event) { calls++ })); err != nil {
			t.Fatalf("handle %s: %v", tc.system, err)
		}

		ch.Emit(tc.bus, nil)
		if calls != 1 {
			t.Errorf("%s: expected listener on %s to fire once, got %d", tc.system, tc.bus, calls)
		}
	}
}

func TestHandle_UnknownEventNamesOffender(t *testing.T) {
	b := New(eventbus.New().Channel("http"), nil)

	err := b.Handle(domain.SystemEvent("restarted"), Listener(func(eventbus.Event) {}))
	if err == nil {
		t.Fatal("expected error for unknown event")
	}
	if !domain.IsUnknownSystemEvent(err) {
		t.Fatalf("expected UnknownSystemEventError, got %T", err)
	}
	if !strings.Contains(err.Error(), "restarted") {
		t.Errorf("error must name the offending event: %v", err)
	}
}

func TestHandle_WrongPayloadShape(t *testing.T) {
	b := New(eventbus.New().Channel("http"), func(int, string, string) error { return nil })

	if err := b.Handle(domain.SystemReady, "not options"); err == nil || !domain.IsSetup(err) {
		t.Errorf("expected SetupError for ready payload, got %v", err)
	}
	if err := b.Handle(domain.SystemCrashed, 42); err == nil || !domain.IsSetup(err) {
		t.Errorf("expected SetupError for listener payload, got %v", err)
	}
}
