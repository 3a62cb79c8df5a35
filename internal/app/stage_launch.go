package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"botstrap/pkg/recipe"
)

// LaunchStage implements the Stage interface for the container launch stage
type LaunchStage struct {
	recipe         *recipe.Recipe
	runtimeFactory *RuntimeFactory
	isDryRun       bool
}

// NewLaunchStage creates a new launch stage instance
func NewLaunchStage(recipe *recipe.Recipe, runtimeFactory *RuntimeFactory, isDryRun bool) *LaunchStage {
	return &LaunchStage{
		recipe:         recipe,
		runtimeFactory: runtimeFactory,
		isDryRun:       isDryRun,
	}
}

// Name returns the name of the stage
func (s *LaunchStage) Name() string {
	return "launch"
}

// Execute starts the single foreground process of the built image
func (s *LaunchStage) Execute(ctx context.Context, state *ExecutionState) error {
	if s.isDryRun {
		fmt.Printf("%s🔍 DRY RUN: Would launch container from image '%s'%s\n",
			ColorYellow, s.recipe.Spec.Image.Reference(), ColorReset)
		fmt.Printf("%s🔍 DRY RUN: Would run entrypoint %v as the container's foreground process%s\n",
			ColorYellow, s.recipe.Spec.Entrypoint, ColorReset)
		fmt.Printf("%s✅ Launch simulation completed successfully%s\n", ColorGreen, ColorReset)
		return nil
	}

	containerLauncher, err := s.runtimeFactory.GetLauncher("docker", os.Stdout, os.Stderr)
	if err != nil {
		return fmt.Errorf("launcher initialization failed: %w", err)
	}

	exitCode, err := containerLauncher.Launch(ctx, &s.recipe.Spec)
	if err != nil {
		return fmt.Errorf("container launch failed: %w", err)
	}

	if exitCode != 0 {
		return fmt.Errorf("container process exited with code %d", exitCode)
	}

	fmt.Printf("%s✅ Container ran to completion: %s%s\n", ColorGreen, s.recipe.Spec.Image.Reference(), ColorReset)
	slog.Info("Launch stage completed successfully", "image", s.recipe.Spec.Image.Reference())
	return nil
}
