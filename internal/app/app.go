package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"botstrap/internal/parser"
	"botstrap/internal/ui"
)

const (
	// Color codes for console output
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
)

// DefaultContextDir is where the build context is staged when no explicit
// directory is given.
const DefaultContextDir = ".botstrap/context"

// ApplyOptions controls the apply workflow.
type ApplyOptions struct {
	DryRun      bool
	RetainState bool
	NoLaunch    bool
	NoCache     bool
	Pull        bool
	ContextDir  string
}

// Apply orchestrates the complete botstrap workflow using a stateful
// execution engine: render the build context, build the image, launch the
// container. Stages already completed by an interrupted run are skipped.
func Apply(recipePath string, opts ApplyOptions) error {
	slog.Info("Starting botstrap apply workflow", "recipePath", recipePath, "dryRun", opts.DryRun)

	if opts.ContextDir == "" {
		opts.ContextDir = DefaultContextDir
	}

	// Load existing state or create new state
	state, err := loadState()
	if err != nil {
		return fmt.Errorf("failed to load execution state: %w", err)
	}

	var isResume bool
	if state == nil {
		// Fresh start - create new state
		runID := uuid.New().String()
		state = newState(recipePath, runID)
		slog.Info("Starting new botstrap workflow", "runId", runID, "recipePath", recipePath)
	} else {
		// Resume existing run
		isResume = true
		nextStage := state.getNextStage()
		fmt.Printf("%s📋 State file found. Resuming from stage: %s%s\n", ColorYellow, nextStage, ColorReset)
		slog.Info("Resuming botstrap workflow", "runId", state.RunID, "nextStage", nextStage, "lastStage", state.LastSuccessfulStage)
		fmt.Println()
	}

	if opts.DryRun {
		fmt.Printf("%s🔍 DRY RUN MODE - No actual changes will be made%s\n", ColorYellow, ColorReset)
		if isResume {
			fmt.Printf("%s🔍 DRY RUN: Simulating resume from stage: %s%s\n", ColorYellow, state.getNextStage(), ColorReset)
		}
		fmt.Println()
	}

	// Parse recipe (needed for all stages)
	r, err := parser.Parse(recipePath)
	if err != nil {
		return fmt.Errorf("recipe parsing failed: %w", err)
	}
	slog.Info("Recipe parsed successfully", "name", r.Metadata.Name, "kind", r.Kind)

	// Surface pinning warnings before any work happens
	for _, warning := range parser.Lint(r) {
		fmt.Printf("%s⚠️  %s%s\n", ColorYellow, warning, ColorReset)
	}

	factory := NewRuntimeFactory()

	stages := []Stage{
		NewRenderStage(r, opts.ContextDir, opts.DryRun),
		NewBuildStage(r, factory, opts.ContextDir, opts.NoCache, opts.Pull, opts.DryRun),
	}
	if !opts.NoLaunch {
		stages = append(stages, NewLaunchStage(r, factory, opts.DryRun))
	}

	console := ui.NewConsole()

	ctx := context.Background()
	for i, stage := range stages {
		stageID := ExecutionStage(stage.Name())

		if state.shouldSkipStage(stageID) {
			fmt.Printf("%s⏭️  Stage %d: %s (skipped - already completed)%s\n", ColorGreen, i+1, stage.Name(), ColorReset)
			fmt.Println()
			continue
		}

		console.PrintStage(i+1, stage.Name())
		if err := stage.Execute(ctx, state); err != nil {
			return fmt.Errorf("%s stage failed: %w", stage.Name(), err)
		}

		// Update state after successful completion
		state.LastSuccessfulStage = stageID
		if !opts.DryRun {
			if err := saveState(state); err != nil {
				return fmt.Errorf("failed to save state after %s stage: %w", stage.Name(), err)
			}
		}
		fmt.Println()
	}

	// Mark workflow as completed and clean up state file
	state.LastSuccessfulStage = StageCompleted
	if !opts.DryRun {
		if opts.RetainState {
			// Save final state for auditing purposes
			if err := saveState(state); err != nil {
				slog.Warn("Failed to save final state", "error", err)
			} else {
				slog.Info("State file retained for auditing", "file", StateFileName)
			}
		} else {
			// Remove state file on successful completion
			if err := removeStateFile(); err != nil {
				slog.Warn("Failed to clean up state file", "error", err)
			}
		}
	}

	// Workflow completion
	if opts.DryRun {
		fmt.Printf("%s🎉 DRY RUN COMPLETED - All stages simulated successfully!%s\n", ColorGreen, ColorReset)
		fmt.Printf("%sNo images were built and no containers were started.%s\n", ColorYellow, ColorReset)
	} else {
		fmt.Printf("%s🎉 BOTSTRAP APPLY COMPLETED SUCCESSFULLY!%s\n", ColorGreen, ColorReset)
		fmt.Printf("%s✨ Image '%s' is ready!%s\n", ColorWhite, r.Spec.Image.Reference(), ColorReset)
	}

	slog.Info("Botstrap apply workflow completed successfully", "recipeName", r.Metadata.Name, "dryRun", opts.DryRun)
	return nil
}

// ValidatePrerequisites checks that all required external dependencies are available.
func ValidatePrerequisites() error {
	slog.Info("Validating botstrap prerequisites")

	// Check if Docker is available (required for build and launch)
	if _, err := NewRuntimeFactory().GetRuntime("docker"); err != nil {
		return fmt.Errorf("Docker prerequisite check failed: %w", err)
	}

	slog.Info("All prerequisites validated successfully")
	return nil
}
