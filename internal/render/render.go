package render

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"botstrap/internal/manifest"
	"botstrap/pkg/recipe"
)

const (
	// DockerfileName is the file the renderer writes at the context root.
	DockerfileName = "Dockerfile"

	dockerignoreName = ".dockerignore"
)

// dockerfileTemplate renders the deterministic build sequence. The manifest
// is copied and installed in its own layer, strictly before the application
// source, so source-only edits never invalidate the dependency layer.
var dockerfileTemplate = template.Must(template.New("dockerfile").Parse(`FROM {{.BaseRef}}

WORKDIR {{.Workdir}}

COPY {{.ManifestFile}} ./
RUN {{.InstallCommand}}

COPY . .

CMD {{.Entrypoint}}
`))

// dockerignore keeps build metadata out of the image's source layer.
const dockerignore = `Dockerfile
.dockerignore
`

type templateData struct {
	BaseRef        string
	Workdir        string
	ManifestFile   string
	InstallCommand string
	Entrypoint     string
}

// Dockerfile renders the build recipe into Dockerfile text. Rendering is
// pure: the same recipe always produces the same bytes.
func Dockerfile(spec *recipe.Spec) (string, error) {
	if spec == nil {
		return "", fmt.Errorf("spec cannot be nil")
	}

	install, err := installCommand(spec)
	if err != nil {
		return "", err
	}

	// Exec-form CMD is a JSON array, so marshal the argv directly.
	argv, err := json.Marshal(spec.Entrypoint)
	if err != nil {
		return "", fmt.Errorf("failed to encode entrypoint: %w", err)
	}

	data := templateData{
		BaseRef:        spec.Base.Reference(),
		Workdir:        spec.WorkdirOrDefault(),
		ManifestFile:   filepath.Base(spec.Manifest.File),
		InstallCommand: install,
		Entrypoint:     string(argv),
	}

	var sb strings.Builder
	if err := dockerfileTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render Dockerfile: %w", err)
	}

	return sb.String(), nil
}

// installCommand returns the dependency install invocation for the recipe's
// installer family. The cache is always discarded to keep the layer small.
func installCommand(spec *recipe.Spec) (string, error) {
	switch spec.InstallerOrDefault() {
	case "pip":
		return fmt.Sprintf("pip install --no-cache-dir -r %s", filepath.Base(spec.Manifest.File)), nil
	default:
		return "", fmt.Errorf("unsupported installer: %s", spec.Manifest.Installer)
	}
}

// Stage assembles the build context for a recipe: the application source
// tree, the dependency manifest, the rendered Dockerfile, and a dockerignore.
// The manifest must parse before anything is written; a build context is
// never staged for a recipe whose dependencies are unreadable.
func Stage(spec *recipe.Spec, destDir string, isDryRun bool) error {
	if spec == nil {
		return fmt.Errorf("spec cannot be nil")
	}

	sourcePath := spec.Source
	if _, err := os.Stat(sourcePath); os.IsNotExist(err) {
		return fmt.Errorf("source directory not found: %s", sourcePath)
	}

	// Fail before staging if the manifest is missing or malformed.
	if _, err := manifest.Parse(spec.Manifest.File); err != nil {
		return err
	}

	dockerfile, err := Dockerfile(spec)
	if err != nil {
		return err
	}

	if isDryRun {
		return performDryRun(spec, destDir, dockerfile)
	}

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return fmt.Errorf("failed to create build context directory: %w", err)
	}

	// Source tree first, manifest second: a manifest living inside the
	// source tree is overwritten with itself, one living outside is added.
	if err := copyDirectory(sourcePath, destDir); err != nil {
		return fmt.Errorf("failed to copy source directory: %w", err)
	}

	manifestDest := filepath.Join(destDir, filepath.Base(spec.Manifest.File))
	if err := ensureInside(destDir, manifestDest); err != nil {
		return err
	}
	if err := copyFile(spec.Manifest.File, manifestDest); err != nil {
		return fmt.Errorf("failed to copy dependency manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(destDir, DockerfileName), []byte(dockerfile), 0644); err != nil {
		return fmt.Errorf("failed to write Dockerfile: %w", err)
	}

	if err := os.WriteFile(filepath.Join(destDir, dockerignoreName), []byte(dockerignore), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dockerignoreName, err)
	}

	return nil
}

// performDryRun logs what would be staged without writing anything.
func performDryRun(spec *recipe.Spec, destDir, dockerfile string) error {
	fmt.Printf("DRY RUN: Would stage build context in %s\n", destDir)

	err := filepath.WalkDir(spec.Source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(spec.Source, path)
		if err != nil {
			return err
		}

		destFile := filepath.Join(destDir, relPath)
		if d.IsDir() {
			fmt.Printf("DRY RUN: Would create directory: %s\n", destFile)
		} else {
			fmt.Printf("DRY RUN: Would copy file: %s\n", destFile)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk source directory: %w", err)
	}

	fmt.Printf("DRY RUN: Would copy manifest: %s\n", filepath.Join(destDir, filepath.Base(spec.Manifest.File)))
	fmt.Printf("DRY RUN: Would create file: %s\n", filepath.Join(destDir, DockerfileName))
	fmt.Println("DRY RUN: Dockerfile content would be:")
	fmt.Println(dockerfile)

	return nil
}

// copyDirectory recursively copies a directory from src to dst.
func copyDirectory(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		destPath := filepath.Join(dst, relPath)
		if err := ensureInside(dst, destPath); err != nil {
			return err
		}

		if d.IsDir() {
			return os.MkdirAll(destPath, 0750)
		}

		return copyFile(path, destPath)
	})
}

// ensureInside rejects destinations that resolve outside the build context
// directory. Sources may be relative and may climb above the working
// directory; only what gets written is constrained.
func ensureInside(dir, path string) error {
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes build context %s: %s", dir, path)
	}
	return nil
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to get source file info: %w", err)
	}

	return os.Chmod(dst, srcInfo.Mode())
}
