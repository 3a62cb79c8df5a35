package app

import (
	"fmt"
	"io"

	"botstrap/internal/builder"
	"botstrap/internal/launcher"
	"botstrap/internal/runtime"
	runtimePkg "botstrap/pkg/runtime"
)

// RuntimeFactory creates container runtimes and the components built on top
// of them by string identifier. This decouples the workflow orchestrator
// from concrete runtime implementations.
type RuntimeFactory struct{}

// NewRuntimeFactory creates a new instance of RuntimeFactory.
func NewRuntimeFactory() *RuntimeFactory {
	return &RuntimeFactory{}
}

// GetRuntime returns the container runtime implementation for the given name.
func (f *RuntimeFactory) GetRuntime(name string) (runtimePkg.ContainerRuntime, error) {
	switch name {
	case "docker":
		dockerRuntime, err := runtime.NewDockerRuntime()
		if err != nil {
			return nil, fmt.Errorf("failed to create Docker runtime: %w", err)
		}
		return dockerRuntime, nil
	default:
		return nil, fmt.Errorf("unsupported container runtime: %s", name)
	}
}

// GetBuilder returns an image builder backed by the named runtime.
func (f *RuntimeFactory) GetBuilder(runtimeName string) (builder.Builder, error) {
	rt, err := f.GetRuntime(runtimeName)
	if err != nil {
		return nil, err
	}
	return builder.NewImageBuilder(rt), nil
}

// GetLauncher returns a container launcher backed by the named runtime,
// streaming container output to the given writers.
func (f *RuntimeFactory) GetLauncher(runtimeName string, stdout, stderr io.Writer) (launcher.Launcher, error) {
	rt, err := f.GetRuntime(runtimeName)
	if err != nil {
		return nil, err
	}
	return launcher.NewContainerLauncher(rt, stdout, stderr), nil
}
