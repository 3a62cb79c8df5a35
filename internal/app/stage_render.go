package app

import (
	"context"
	"fmt"
	"log/slog"

	"botstrap/internal/render"
	"botstrap/pkg/recipe"
)

// RenderStage implements the Stage interface for the build-context rendering stage
type RenderStage struct {
	recipe     *recipe.Recipe
	contextDir string
	isDryRun   bool
}

// NewRenderStage creates a new render stage instance
func NewRenderStage(recipe *recipe.Recipe, contextDir string, isDryRun bool) *RenderStage {
	return &RenderStage{
		recipe:     recipe,
		contextDir: contextDir,
		isDryRun:   isDryRun,
	}
}

// Name returns the name of the stage
func (s *RenderStage) Name() string {
	return "render"
}

// Execute stages the build context: Dockerfile, dependency manifest, source tree
func (s *RenderStage) Execute(ctx context.Context, state *ExecutionState) error {
	if err := render.Stage(&s.recipe.Spec, s.contextDir, s.isDryRun); err != nil {
		return fmt.Errorf("build context rendering failed: %w", err)
	}

	if s.isDryRun {
		fmt.Printf("%s✅ Render simulation completed successfully%s\n", ColorGreen, ColorReset)
	} else {
		fmt.Printf("%s✅ Build context staged in: %s%s\n", ColorGreen, s.contextDir, ColorReset)
	}
	slog.Info("Render stage completed successfully", "contextDir", s.contextDir, "dryRun", s.isDryRun)
	return nil
}
