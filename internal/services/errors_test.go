package services_test

import (
	"errors"
	"testing"

	"rostersync/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("socket closed")
	err := services.Wrap(services.ErrTransient, "directory", "add tags", "request failed", base)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	want := "transient failure: directory: add tags: request failed: socket closed"
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("nil marker should default to transient, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	if !services.IsFatal(services.Wrap(services.ErrConfiguration, "config", "load", "token missing", nil)) {
		t.Fatal("configuration errors are fatal")
	}
	if services.IsFatal(services.Wrap(services.ErrPermission, "applier", "remove", "rank too low", nil)) {
		t.Fatal("permission errors are not fatal")
	}
}
