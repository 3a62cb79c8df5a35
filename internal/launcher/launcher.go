package launcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"botstrap/pkg/recipe"
	"botstrap/pkg/runtime"
)

// Launcher defines the interface for starting the single foreground process
// of a built image.
type Launcher interface {
	// Launch runs one container from the recipe's image and blocks until
	// its process exits, returning the process exit code.
	Launch(ctx context.Context, spec *recipe.Spec) (int64, error)
}

// ContainerLauncher implements the Launcher interface using a container
// runtime.
type ContainerLauncher struct {
	containerRuntime runtime.ContainerRuntime
	stdout           io.Writer
	stderr           io.Writer
}

// NewContainerLauncher creates a new ContainerLauncher writing the container's
// output streams to the given writers.
func NewContainerLauncher(containerRuntime runtime.ContainerRuntime, stdout, stderr io.Writer) *ContainerLauncher {
	return &ContainerLauncher{
		containerRuntime: containerRuntime,
		stdout:           stdout,
		stderr:           stderr,
	}
}

// Launch starts exactly one container from the built image. The entry point
// is whatever was baked into the image at build time; the only configuration
// handed over is the recipe's declared runtime environment. The container's
// exit code is returned verbatim as the sole success/failure signal. No
// restart or retry happens here.
func (l *ContainerLauncher) Launch(ctx context.Context, spec *recipe.Spec) (int64, error) {
	image := spec.Image.Reference()
	slog.Info("Launching container", "image", image, "entrypoint", spec.Entrypoint)

	exitCode, err := l.containerRuntime.RunContainer(ctx, runtime.RunOptions{
		Image:  image,
		Env:    spec.Runtime.Env,
		Stdout: l.stdout,
		Stderr: l.stderr,
	})
	if err != nil {
		return -1, fmt.Errorf("failed to run container: %w", err)
	}

	if exitCode != 0 {
		slog.Warn("Container process exited nonzero", "image", image, "exitCode", exitCode)
	} else {
		slog.Info("Container process exited cleanly", "image", image)
	}

	return exitCode, nil
}
