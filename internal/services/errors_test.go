package services_test

import (
	"errors"
	"strings"
	"testing"

	"podbench/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "preprocess", "split", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"preprocess", "split", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "export", "bundle", "", errors.New("disk full"))
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected nil marker to default to ErrIO, got %v", err)
	}
}

func TestWrapWithoutBaseError(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "", "", "empty transcript", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "empty transcript") {
		t.Fatalf("expected message in error string %q", err.Error())
	}
}
