package app

import (
	"io"
	"strings"
	"testing"
)

func TestRuntimeFactory_UnsupportedRuntime(t *testing.T) {
	factory := NewRuntimeFactory()

	_, err := factory.GetRuntime("podman")
	if err == nil {
		t.Fatal("Expected error for unsupported runtime, got nil")
	}
	if !strings.Contains(err.Error(), "unsupported container runtime") {
		t.Errorf("Expected 'unsupported container runtime' error, got: %v", err)
	}
}

func TestRuntimeFactory_GetBuilder_UnsupportedRuntime(t *testing.T) {
	factory := NewRuntimeFactory()

	_, err := factory.GetBuilder("podman")
	if err == nil {
		t.Fatal("Expected error for unsupported runtime, got nil")
	}
}

func TestRuntimeFactory_GetLauncher_UnsupportedRuntime(t *testing.T) {
	factory := NewRuntimeFactory()

	_, err := factory.GetLauncher("podman", io.Discard, io.Discard)
	if err == nil {
		t.Fatal("Expected error for unsupported runtime, got nil")
	}
}

func TestRuntimeFactory_Docker(t *testing.T) {
	factory := NewRuntimeFactory()

	// Succeeds when a Docker daemon is reachable; otherwise the error must
	// carry the Docker context.
	rt, err := factory.GetRuntime("docker")
	if err != nil {
		if !strings.Contains(err.Error(), "Docker") {
			t.Errorf("Unexpected error format: %v", err)
		}
		return
	}
	if rt == nil {
		t.Error("Expected non-nil runtime on success")
	}
}
