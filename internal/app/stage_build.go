package app

import (
	"context"
	"fmt"
	"log/slog"

	"botstrap/pkg/recipe"
)

// BuildStage implements the Stage interface for the image build stage
type BuildStage struct {
	recipe         *recipe.Recipe
	runtimeFactory *RuntimeFactory
	contextDir     string
	noCache        bool
	pull           bool
	isDryRun       bool
}

// NewBuildStage creates a new build stage instance
func NewBuildStage(recipe *recipe.Recipe, runtimeFactory *RuntimeFactory, contextDir string, noCache, pull, isDryRun bool) *BuildStage {
	return &BuildStage{
		recipe:         recipe,
		runtimeFactory: runtimeFactory,
		contextDir:     contextDir,
		noCache:        noCache,
		pull:           pull,
		isDryRun:       isDryRun,
	}
}

// Name returns the name of the stage
func (s *BuildStage) Name() string {
	return "build"
}

// Execute performs the image build stage logic
func (s *BuildStage) Execute(ctx context.Context, state *ExecutionState) error {
	if s.isDryRun {
		fmt.Printf("%s🔍 DRY RUN: Would build image '%s' from base '%s'%s\n",
			ColorYellow, s.recipe.Spec.Image.Reference(), s.recipe.Spec.Base.Reference(), ColorReset)
		fmt.Printf("%s🔍 DRY RUN: Would install dependencies from '%s' in a dedicated layer%s\n",
			ColorYellow, s.recipe.Spec.Manifest.File, ColorReset)
	} else {
		imageBuilder, err := s.runtimeFactory.GetBuilder("docker")
		if err != nil {
			return fmt.Errorf("builder initialization failed: %w", err)
		}

		if _, err := imageBuilder.Build(&s.recipe.Spec, s.contextDir, s.noCache, s.pull); err != nil {
			return fmt.Errorf("image build failed: %w", err)
		}
	}

	if s.isDryRun {
		fmt.Printf("%s✅ Build simulation completed successfully%s\n", ColorGreen, ColorReset)
	} else {
		fmt.Printf("%s✅ Image built: %s%s\n", ColorGreen, s.recipe.Spec.Image.Reference(), ColorReset)
	}
	slog.Info("Build stage completed successfully", "image", s.recipe.Spec.Image.Reference(), "dryRun", s.isDryRun)
	return nil
}
