package services_test

import (
	"errors"
	"testing"

	"sigmatch/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "crm", "create association", "company 42", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to survive wrapping, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected cause to survive wrapping, got %v", err)
	}
	want := "external service error: crm: create association: company 42: boom"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient fallback, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"external", services.Wrap(services.ErrExternalTool, "search", "query", "", errors.New("timeout")), true},
		{"transient", services.Wrap(services.ErrTransient, "llm", "extract", "", nil), true},
		{"validation", services.Wrap(services.ErrValidation, "matcher", "fetch signal", "", nil), false},
		{"configuration", services.Wrap(services.ErrConfiguration, "config", "load", "", nil), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsRecoverable(tc.err); got != tc.want {
				t.Fatalf("IsRecoverable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
