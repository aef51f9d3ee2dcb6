package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		isValid   bool
		isSetup   bool
		isUnknown bool
	}{
		{
			name:    "validation",
			err:     &ValidationError{Field: "path", Reason: "empty"},
			isValid: true,
		},
		{
			name:    "setup",
			err:     &SetupError{Op: "register middleware", Detail: "nil middleware"},
			isSetup: true,
		},
		{
			name:      "unknown system event",
			err:       &UnknownSystemEventError{Name: "restarted"},
			isUnknown: true,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidation(tt.err); got != tt.isValid {
				t.Errorf("IsValidation = %v, want %v", got, tt.isValid)
			}
			if got := IsSetup(tt.err); got != tt.isSetup {
				t.Errorf("IsSetup = %v, want %v", got, tt.isSetup)
			}
			if got := IsUnknownSystemEvent(tt.err); got != tt.isUnknown {
				t.Errorf("IsUnknownSystemEvent = %v, want %v", got, tt.isUnknown)
			}
		})
	}
}

func TestClassificationSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("start: %w", &SetupError{Op: "listen", Detail: "not initialized"})
	if !IsSetup(err) {
		t.Error("wrapped SetupError not classified")
	}
}

func TestUnknownSystemEventError_NamesOffender(t *testing.T) {
	err := &UnknownSystemEventError{Name: "restarted"}
	if !strings.Contains(err.Error(), "restarted") {
		t.Errorf("message must name the event: %q", err.Error())
	}
}
