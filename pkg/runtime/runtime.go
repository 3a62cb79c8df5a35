// Located in pkg/runtime/runtime.go
package runtime

import (
	"context"
	"io"
)

// BuildOptions defines the parameters for building an image from a staged
// build context directory.
type BuildOptions struct {
	ContextDir string
	Dockerfile string
	Tag        string
	Labels     map[string]string
	NoCache    bool
}

// BuildResult describes the image produced by a successful build.
type BuildResult struct {
	ID   string
	Size int64
}

// RunOptions defines the parameters for launching a container from a built
// image. The container runs the entry-point command baked into the image;
// no arguments are supplied here.
type RunOptions struct {
	Image  string
	Env    map[string]string
	Stdout io.Writer
	Stderr io.Writer
}

// ContainerRuntime defines the contract for image and container operations.
type ContainerRuntime interface {
	// PullImage fetches an image from its registry, so a build can refresh
	// the pinned base before the daemon resolves it from its local cache.
	PullImage(ctx context.Context, image string) error
	BuildImage(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	// RunContainer starts one container, streams its output until the
	// process exits, and returns the process exit code.
	RunContainer(ctx context.Context, opts RunOptions) (int64, error)
}
