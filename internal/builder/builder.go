package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/docker/go-units"

	"botstrap/internal/provenance"
	"botstrap/internal/render"
	"botstrap/pkg/recipe"
	"botstrap/pkg/runtime"
)

// Builder defines the interface for turning a staged build context into a
// tagged image.
type Builder interface {
	// Build runs the image build for the recipe against the staged context
	// directory. The noCache flag forces every layer to be rebuilt; the pull
	// flag refreshes the pinned base image from its registry first.
	Build(spec *recipe.Spec, contextDir string, noCache, pull bool) (*runtime.BuildResult, error)
}

// ImageBuilder implements the Builder interface using a container runtime.
type ImageBuilder struct {
	containerRuntime runtime.ContainerRuntime
}

// NewImageBuilder creates a new ImageBuilder.
func NewImageBuilder(containerRuntime runtime.ContainerRuntime) *ImageBuilder {
	return &ImageBuilder{
		containerRuntime: containerRuntime,
	}
}

// Build submits the staged build context to the runtime and tags the result.
// Every failure aborts the sequence; a failed build tags no image.
func (b *ImageBuilder) Build(spec *recipe.Spec, contextDir string, noCache, pull bool) (*runtime.BuildResult, error) {
	ctx := context.Background()

	if _, err := os.Stat(contextDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("build context directory does not exist: %s", contextDir)
	}
	if _, err := os.Stat(filepath.Join(contextDir, render.DockerfileName)); os.IsNotExist(err) {
		return nil, fmt.Errorf("build context has no %s; run render first", render.DockerfileName)
	}

	tag := spec.Image.Reference()
	slog.Info("Starting image build", "tag", tag, "base", spec.Base.Reference(), "context", contextDir)

	if pull {
		if err := b.containerRuntime.PullImage(ctx, spec.Base.Reference()); err != nil {
			return nil, fmt.Errorf("failed to pull base image %s: %w", spec.Base.Reference(), err)
		}
	}

	labels, err := provenance.Labels(spec.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to collect source provenance: %w", err)
	}

	result, err := b.containerRuntime.BuildImage(ctx, runtime.BuildOptions{
		ContextDir: contextDir,
		Dockerfile: render.DockerfileName,
		Tag:        tag,
		Labels:     labels,
		NoCache:    noCache,
	})
	if err != nil {
		return nil, fmt.Errorf("image build failed: %w", err)
	}

	slog.Info("Image build completed", "tag", tag, "id", result.ID, "size", units.HumanSize(float64(result.Size)))
	return result, nil
}
