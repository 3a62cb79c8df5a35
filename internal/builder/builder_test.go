package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"botstrap/pkg/recipe"
	runtimePkg "botstrap/pkg/runtime"
)

// MockContainerRuntime is a mock implementation of the ContainerRuntime interface
type MockContainerRuntime struct {
	*mock.Mock
}

func NewMockContainerRuntime() *MockContainerRuntime {
	return &MockContainerRuntime{Mock: &mock.Mock{}}
}

func (m *MockContainerRuntime) PullImage(ctx context.Context, image string) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *MockContainerRuntime) BuildImage(ctx context.Context, opts runtimePkg.BuildOptions) (*runtimePkg.BuildResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*runtimePkg.BuildResult), args.Error(1)
}

func (m *MockContainerRuntime) RunContainer(ctx context.Context, opts runtimePkg.RunOptions) (int64, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(int64), args.Error(1)
}

func stagedContext(t *testing.T) (spec *recipe.Spec, contextDir string) {
	t.Helper()
	tmpDir := t.TempDir()

	sourceDir := filepath.Join(tmpDir, "bot")
	if err := os.MkdirAll(sourceDir, 0755); err != nil {
		t.Fatal(err)
	}

	contextDir = filepath.Join(tmpDir, "context")
	if err := os.MkdirAll(contextDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(contextDir, "Dockerfile"), []byte("FROM python:3.11-slim\n"), 0644); err != nil {
		t.Fatal(err)
	}

	spec = &recipe.Spec{
		Base:       recipe.BaseImage{Name: "python", Tag: "3.11-slim"},
		Manifest:   recipe.Manifest{File: filepath.Join(tmpDir, "requirements.txt")},
		Source:     sourceDir,
		Entrypoint: []string{"python", "bot.py"},
		Image:      recipe.Image{Name: "like-bot", Tag: "1.0.0"},
	}
	return spec, contextDir
}

func TestImageBuilder_Build_Success(t *testing.T) {
	spec, contextDir := stagedContext(t)

	mockRuntime := NewMockContainerRuntime()
	mockRuntime.On("BuildImage", mock.Anything, mock.MatchedBy(func(opts runtimePkg.BuildOptions) bool {
		return opts.Tag == "like-bot:1.0.0" && opts.ContextDir == contextDir && opts.Dockerfile == "Dockerfile"
	})).Return(&runtimePkg.BuildResult{ID: "sha256:abc123", Size: 123456789}, nil)

	imageBuilder := NewImageBuilder(mockRuntime)
	result, err := imageBuilder.Build(spec, contextDir, false, false)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if result.ID != "sha256:abc123" {
		t.Errorf("Expected image ID 'sha256:abc123', got '%s'", result.ID)
	}
	// Without the pull flag the registry is never contacted.
	mockRuntime.AssertNotCalled(t, "PullImage", mock.Anything, mock.Anything)
	mockRuntime.AssertExpectations(t)
}

func TestImageBuilder_Build_RuntimeFailure(t *testing.T) {
	spec, contextDir := stagedContext(t)

	mockRuntime := NewMockContainerRuntime()
	mockRuntime.On("BuildImage", mock.Anything, mock.Anything).
		Return(nil, errors.New("manifest entry nonexistent-package==0.0.0 could not be resolved"))

	imageBuilder := NewImageBuilder(mockRuntime)
	_, err := imageBuilder.Build(spec, contextDir, false, false)
	if err == nil {
		t.Fatal("Expected build failure to propagate, got nil")
	}
	if !strings.Contains(err.Error(), "image build failed") {
		t.Errorf("Expected wrapped build error, got: %v", err)
	}
}

func TestImageBuilder_Build_MissingContext(t *testing.T) {
	spec, _ := stagedContext(t)

	mockRuntime := NewMockContainerRuntime()
	imageBuilder := NewImageBuilder(mockRuntime)

	_, err := imageBuilder.Build(spec, filepath.Join(t.TempDir(), "missing"), false, false)
	if err == nil {
		t.Fatal("Expected error for missing build context, got nil")
	}
	if !strings.Contains(err.Error(), "build context directory does not exist") {
		t.Errorf("Expected 'build context directory' error, got: %v", err)
	}

	// The runtime must never be invoked without a staged context.
	mockRuntime.AssertNotCalled(t, "BuildImage", mock.Anything, mock.Anything)
}

func TestImageBuilder_Build_MissingDockerfile(t *testing.T) {
	spec, _ := stagedContext(t)
	emptyContext := t.TempDir()

	mockRuntime := NewMockContainerRuntime()
	imageBuilder := NewImageBuilder(mockRuntime)

	_, err := imageBuilder.Build(spec, emptyContext, false, false)
	if err == nil {
		t.Fatal("Expected error for context without Dockerfile, got nil")
	}
	if !strings.Contains(err.Error(), "run render first") {
		t.Errorf("Expected 'run render first' error, got: %v", err)
	}
	mockRuntime.AssertNotCalled(t, "BuildImage", mock.Anything, mock.Anything)
}

func TestImageBuilder_Build_NoCachePassedThrough(t *testing.T) {
	spec, contextDir := stagedContext(t)

	mockRuntime := NewMockContainerRuntime()
	mockRuntime.On("BuildImage", mock.Anything, mock.MatchedBy(func(opts runtimePkg.BuildOptions) bool {
		return opts.NoCache
	})).Return(&runtimePkg.BuildResult{ID: "sha256:def456", Size: 1}, nil)

	imageBuilder := NewImageBuilder(mockRuntime)
	if _, err := imageBuilder.Build(spec, contextDir, true, false); err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	mockRuntime.AssertExpectations(t)
}

func TestImageBuilder_Build_PullRefreshesBaseImage(t *testing.T) {
	spec, contextDir := stagedContext(t)

	mockRuntime := NewMockContainerRuntime()
	mockRuntime.On("PullImage", mock.Anything, "python:3.11-slim").Return(nil)
	mockRuntime.On("BuildImage", mock.Anything, mock.Anything).
		Return(&runtimePkg.BuildResult{ID: "sha256:abc123", Size: 1}, nil)

	imageBuilder := NewImageBuilder(mockRuntime)
	if _, err := imageBuilder.Build(spec, contextDir, false, true); err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	mockRuntime.AssertExpectations(t)
}

func TestImageBuilder_Build_PullFailureAbortsBuild(t *testing.T) {
	spec, contextDir := stagedContext(t)

	mockRuntime := NewMockContainerRuntime()
	mockRuntime.On("PullImage", mock.Anything, "python:3.11-slim").
		Return(errors.New("registry unreachable"))

	imageBuilder := NewImageBuilder(mockRuntime)
	_, err := imageBuilder.Build(spec, contextDir, false, true)
	if err == nil {
		t.Fatal("Expected pull failure to abort the build, got nil")
	}
	if !strings.Contains(err.Error(), "failed to pull base image") {
		t.Errorf("Expected wrapped pull error, got: %v", err)
	}
	mockRuntime.AssertNotCalled(t, "BuildImage", mock.Anything, mock.Anything)
}
