package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"

	"botstrap/pkg/runtime"
)

// DockerRuntime implements the ContainerRuntime interface using the Docker
// Engine API client.
type DockerRuntime struct {
	client *client.Client
}

// NewDockerRuntime creates a new DockerRuntime instance using client.FromEnv.
func NewDockerRuntime() (*DockerRuntime, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	// Check if Docker daemon is accessible
	ctx := context.Background()
	_, err = dockerClient.Ping(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Docker daemon: %w", err)
	}

	return &DockerRuntime{
		client: dockerClient,
	}, nil
}

// PullImage pulls an image from its registry.
func (d *DockerRuntime) PullImage(ctx context.Context, imageName string) error {
	slog.Info("Pulling image", "image", imageName)

	reader, err := d.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", imageName, err)
	}
	defer reader.Close()

	// Drain the pull output (but don't print it to avoid clutter)
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to stream image pull output: %w", err)
	}

	slog.Info("Successfully pulled image", "image", imageName)
	return nil
}

// BuildImage tars the staged build context, submits it to the daemon, and
// consumes the build stream. Any error reported by the daemon aborts the
// build; no partially-built image is tagged.
func (d *DockerRuntime) BuildImage(ctx context.Context, opts runtime.BuildOptions) (*runtime.BuildResult, error) {
	slog.Info("Building image", "tag", opts.Tag, "context", opts.ContextDir)

	buildContext, err := archive.TarWithOptions(opts.ContextDir, &archive.TarOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to tar build context %s: %w", opts.ContextDir, err)
	}
	defer buildContext.Close()

	resp, err := d.client.ImageBuild(ctx, buildContext, types.ImageBuildOptions{
		Tags:        []string{opts.Tag},
		Dockerfile:  opts.Dockerfile,
		Labels:      opts.Labels,
		NoCache:     opts.NoCache,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start image build: %w", err)
	}
	defer resp.Body.Close()

	if err := consumeBuildStream(resp.Body); err != nil {
		return nil, err
	}

	inspect, _, err := d.client.ImageInspectWithRaw(ctx, opts.Tag)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect built image %s: %w", opts.Tag, err)
	}

	slog.Info("Successfully built image", "tag", opts.Tag, "id", inspect.ID)
	return &runtime.BuildResult{
		ID:   inspect.ID,
		Size: inspect.Size,
	}, nil
}

// consumeBuildStream decodes the daemon's JSON build output, surfacing
// progress lines to the log and converting a stream error into a build
// failure.
func consumeBuildStream(body io.Reader) error {
	decoder := json.NewDecoder(body)
	for {
		var msg jsonmessage.JSONMessage
		if err := decoder.Decode(&msg); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to decode build output: %w", err)
		}

		if msg.Error != nil {
			return fmt.Errorf("image build failed: %s", msg.Error.Message)
		}
		if msg.Stream != "" {
			slog.Debug("Build output", "line", msg.Stream)
		}
	}
}

// RunContainer creates and starts one container from the given image, streams
// its demuxed output to the provided writers until the foreground process
// exits, removes the container, and returns the process exit code.
func (d *DockerRuntime) RunContainer(ctx context.Context, opts runtime.RunOptions) (int64, error) {
	slog.Info("Running container", "image", opts.Image)

	// Convert env vars to slice format
	var envVars []string
	for key, value := range opts.Env {
		envVars = append(envVars, fmt.Sprintf("%s=%s", key, value))
	}

	containerConfig := &container.Config{
		Image: opts.Image,
		Env:   envVars,
	}

	resp, err := d.client.ContainerCreate(ctx, containerConfig, &container.HostConfig{}, nil, nil, "")
	if err != nil {
		return -1, fmt.Errorf("failed to create container: %w", err)
	}

	containerID := resp.ID
	defer func() {
		if err := d.client.ContainerRemove(context.Background(), containerID, container.RemoveOptions{Force: true}); err != nil {
			slog.Error("Failed to remove container", "containerID", containerID, "error", err)
		}
	}()

	if err := d.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return -1, fmt.Errorf("failed to start container: %w", err)
	}

	logs, err := d.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return -1, fmt.Errorf("failed to attach to container logs: %w", err)
	}
	defer logs.Close()

	// The log stream is multiplexed; split it back into stdout and stderr.
	if _, err := stdcopy.StdCopy(opts.Stdout, opts.Stderr, logs); err != nil {
		return -1, fmt.Errorf("failed to stream container output: %w", err)
	}

	waitCh, errCh := d.client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return -1, fmt.Errorf("failed to wait for container: %w", err)
	case status := <-waitCh:
		if status.Error != nil {
			return -1, fmt.Errorf("container wait returned error: %s", status.Error.Message)
		}
		slog.Info("Container exited", "containerID", containerID, "exitCode", status.StatusCode)
		return status.StatusCode, nil
	}
}
