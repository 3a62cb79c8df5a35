package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"botstrap/internal/app"
	"botstrap/internal/builder"
	"botstrap/internal/errors"
	"botstrap/internal/launcher"
	"botstrap/internal/manifest"
	"botstrap/internal/parser"
	"botstrap/internal/render"
	"botstrap/internal/runtime"
	"botstrap/internal/ui"
)

// version is set at build time via ldflags
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "botstrap",
	Short:   "Botstrap - Deterministic container builds for single-process bots",
	Version: version,
	Long: `Botstrap is a CLI tool that turns a declarative recipe into a container
image: a pinned base runtime, a dependency layer installed from a manifest,
the application source, and exactly one foreground entry-point process.`,
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a complete recipe workflow",
	Long: `Apply executes the complete botstrap workflow: rendering the build context,
building the image, and launching the container - all from a single command.

This orchestrates all individual commands (render, build, run) in the correct sequence.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			fmt.Fprintln(os.Stderr, "Error: --file flag is required")
			os.Exit(1)
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		retainState, _ := cmd.Flags().GetBool("retain-state")
		noLaunch, _ := cmd.Flags().GetBool("no-launch")
		noCache, _ := cmd.Flags().GetBool("no-cache")
		pull, _ := cmd.Flags().GetBool("pull")
		contextDir, _ := cmd.Flags().GetString("context")

		// A dry run touches no runtime; everything else needs a reachable daemon
		if !dryRun {
			if err := app.ValidatePrerequisites(); err != nil {
				fail(errors.NewRuntimeError(err.Error(), "", "Ensure the Docker daemon is running and reachable", err))
			}
		}

		// Execute the complete workflow via app orchestrator
		opts := app.ApplyOptions{
			DryRun:      dryRun,
			RetainState: retainState,
			NoLaunch:    noLaunch,
			NoCache:     noCache,
			Pull:        pull,
			ContextDir:  contextDir,
		}
		if err := app.Apply(file, opts); err != nil {
			fail(err)
		}
	},
}

var vetCmd = &cobra.Command{
	Use:   "vet",
	Short: "Validate a recipe and its dependency manifest",
	Long: `Vet parses and validates the recipe YAML file and its dependency manifest,
reporting errors and reproducibility findings (unpinned base image, floating
version constraints, duplicate packages) without building anything.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			fmt.Fprintln(os.Stderr, "Error: --file flag is required")
			os.Exit(1)
		}

		console := ui.NewConsole()

		r, err := parser.Parse(file)
		if err != nil {
			fail(err)
		}

		m, err := manifest.Parse(r.Spec.Manifest.File)
		if err != nil {
			fail(err)
		}

		var findings int
		for _, warning := range parser.Lint(r) {
			console.PrintWarning(warning.String())
			findings++
		}
		for _, finding := range m.Lint() {
			console.PrintWarning(fmt.Sprintf("%s: %s", m.Path, finding))
			findings++
		}

		if findings == 0 {
			console.PrintSuccess(fmt.Sprintf("Recipe '%s' is valid: %d dependencies, entrypoint %v", r.Metadata.Name, len(m.Entries), r.Spec.Entrypoint))
		} else {
			console.PrintInfo(fmt.Sprintf("Recipe '%s' is valid with %d findings", r.Metadata.Name, findings))
		}
	},
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Stage the build context from a recipe",
	Long: `Render processes a recipe YAML file and stages the complete build context
locally - Dockerfile, dependency manifest, and application source - for
verification before any image is built.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			fmt.Fprintln(os.Stderr, "Error: --file flag is required")
			os.Exit(1)
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		contextDir, _ := cmd.Flags().GetString("context")

		// Parse and validate the recipe file
		r, err := parser.Parse(file)
		if err != nil {
			fail(err)
		}

		fmt.Printf("Rendering recipe: %s\n", r.Metadata.Name)

		if err := render.Stage(&r.Spec, contextDir, dryRun); err != nil {
			fail(errors.NewRenderError(err.Error(), "", "Check that spec.source and spec.manifest.file exist and are readable", err))
		}

		if dryRun {
			fmt.Println("Dry run completed successfully.")
		} else {
			fmt.Printf("Build context staged in: %s\n", contextDir)
		}
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the image from a staged build context",
	Long: `Build submits the staged build context to the Docker daemon and tags the
resulting image. The dependency layer is installed strictly before the
application source is copied in, so source-only edits reuse the cached layer.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			fmt.Fprintln(os.Stderr, "Error: --file flag is required")
			os.Exit(1)
		}

		noCache, _ := cmd.Flags().GetBool("no-cache")
		pull, _ := cmd.Flags().GetBool("pull")
		contextDir, _ := cmd.Flags().GetString("context")

		// Parse and validate the recipe file
		r, err := parser.Parse(file)
		if err != nil {
			fail(err)
		}

		fmt.Printf("Building image for: %s\n", r.Metadata.Name)

		// Create Docker runtime instance
		dockerRuntime, err := runtime.NewDockerRuntime()
		if err != nil {
			fail(errors.NewRuntimeError(err.Error(), "", "Ensure the Docker daemon is running and reachable", err))
		}

		imageBuilder := builder.NewImageBuilder(dockerRuntime)

		if _, err := imageBuilder.Build(&r.Spec, contextDir, noCache, pull); err != nil {
			fail(errors.NewBuildError(err.Error(), "", "Run 'botstrap render' first to stage the build context", err))
		}

		fmt.Printf("Successfully built image: %s\n", r.Spec.Image.Reference())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the built image as a single foreground process",
	Long: `Run starts one container from the recipe's built image, streams its output,
and exits with the container process's exit code. No restart or retry policy
is applied; lifecycle management belongs to an external orchestrator.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			fmt.Fprintln(os.Stderr, "Error: --file flag is required")
			os.Exit(1)
		}

		// Parse and validate the recipe file
		r, err := parser.Parse(file)
		if err != nil {
			fail(err)
		}

		dockerRuntime, err := runtime.NewDockerRuntime()
		if err != nil {
			fail(errors.NewRuntimeError(err.Error(), "", "Ensure the Docker daemon is running and reachable", err))
		}

		containerLauncher := launcher.NewContainerLauncher(dockerRuntime, os.Stdout, os.Stderr)

		exitCode, err := containerLauncher.Launch(context.Background(), &r.Spec)
		if err != nil {
			fail(errors.NewLaunchError(err.Error(), "", "Build the image first with 'botstrap build' or 'botstrap apply'", err))
		}

		// The container's exit code is the sole success/failure signal
		os.Exit(int(exitCode))
	},
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "Path to the recipe YAML file (required)")
	applyCmd.Flags().Bool("dry-run", false, "Simulate the workflow without making any changes")
	applyCmd.Flags().Bool("retain-state", false, "Keep the state file after successful completion for auditing purposes")
	applyCmd.Flags().Bool("no-launch", false, "Stop after the build stage without launching the container")
	applyCmd.Flags().Bool("no-cache", false, "Rebuild every image layer, ignoring the layer cache")
	applyCmd.Flags().Bool("pull", false, "Pull the pinned base image from its registry before building")
	applyCmd.Flags().String("context", app.DefaultContextDir, "Directory to stage the build context in")
	if err := applyCmd.MarkFlagRequired("file"); err != nil {
		slog.Error("Failed to mark file flag as required for apply command", "error", err)
	}
	rootCmd.AddCommand(applyCmd)

	vetCmd.Flags().StringP("file", "f", "", "Path to the recipe YAML file (required)")
	if err := vetCmd.MarkFlagRequired("file"); err != nil {
		slog.Error("Failed to mark file flag as required for vet command", "error", err)
	}
	rootCmd.AddCommand(vetCmd)

	renderCmd.Flags().StringP("file", "f", "", "Path to the recipe YAML file (required)")
	renderCmd.Flags().Bool("dry-run", false, "Print files that would be staged without actually writing them")
	renderCmd.Flags().String("context", app.DefaultContextDir, "Directory to stage the build context in")
	if err := renderCmd.MarkFlagRequired("file"); err != nil {
		slog.Error("Failed to mark file flag as required for render command", "error", err)
	}
	rootCmd.AddCommand(renderCmd)

	buildCmd.Flags().StringP("file", "f", "", "Path to the recipe YAML file (required)")
	buildCmd.Flags().Bool("no-cache", false, "Rebuild every image layer, ignoring the layer cache")
	buildCmd.Flags().Bool("pull", false, "Pull the pinned base image from its registry before building")
	buildCmd.Flags().String("context", app.DefaultContextDir, "Directory of the staged build context")
	if err := buildCmd.MarkFlagRequired("file"); err != nil {
		slog.Error("Failed to mark file flag as required for build command", "error", err)
	}
	rootCmd.AddCommand(buildCmd)

	runCmd.Flags().StringP("file", "f", "", "Path to the recipe YAML file (required)")
	if err := runCmd.MarkFlagRequired("file"); err != nil {
		slog.Error("Failed to mark file flag as required for run command", "error", err)
	}
	rootCmd.AddCommand(runCmd)
}

// fail reports err through the error handler (console plus the rotated log
// file) and exits nonzero.
func fail(err error) {
	errors.HandleError(err)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
