package recipe

// Recipe is the root object that holds the entire configuration for a botstrap build.
// It's populated by parsing the user's botstrap.yaml file.
type Recipe struct {
	APIVersion string   `yaml:"apiVersion" validate:"required"`
	Kind       string   `yaml:"kind" validate:"required,eq=Recipe"`
	Metadata   Metadata `yaml:"metadata" validate:"required"`
	Spec       Spec     `yaml:"spec" validate:"required"`
}

// Metadata contains project-level metadata.
type Metadata struct {
	Name        string            `yaml:"name" validate:"required"`
	Description string            `yaml:"description"`
	Labels      map[string]string `yaml:"labels,omitempty"`
}

// Spec contains the detailed specification of the image to build.
type Spec struct {
	Base       BaseImage `yaml:"base" validate:"required"`
	Workdir    string    `yaml:"workdir"`
	Manifest   Manifest  `yaml:"manifest" validate:"required"`
	Source     string    `yaml:"source" validate:"required"`
	Entrypoint []string  `yaml:"entrypoint" validate:"required,min=1,dive,required"`
	Image      Image     `yaml:"image" validate:"required"`
	Runtime    Runtime   `yaml:"runtime,omitempty"`
}

// BaseImage identifies the runtime environment the image is built on.
// The tag is mandatory so rebuilds are reproducible; a content digest may
// additionally be given to pin the base byte-for-byte.
type BaseImage struct {
	Name   string `yaml:"name" validate:"required"`
	Tag    string `yaml:"tag" validate:"required,ne=latest"`
	Digest string `yaml:"digest,omitempty"`
}

// Reference returns the full image reference, preferring the digest form
// when a digest is pinned.
func (b BaseImage) Reference() string {
	if b.Digest != "" {
		return b.Name + "@" + b.Digest
	}
	return b.Name + ":" + b.Tag
}

// Manifest declares the dependency manifest file and the installer that
// consumes it. Dependencies are installed in their own image layer, before
// any application source is copied in.
type Manifest struct {
	File      string `yaml:"file" validate:"required"`
	Installer string `yaml:"installer" validate:"omitempty,oneof=pip"`
}

// Image names the build output.
type Image struct {
	Name string `yaml:"name" validate:"required"`
	Tag  string `yaml:"tag" validate:"required,ne=latest"`
}

// Reference returns the tag applied to the built image.
func (i Image) Reference() string {
	return i.Name + ":" + i.Tag
}

// Runtime holds the explicit configuration handed to the launched container.
// The entry-point command itself takes no arguments; anything the process
// needs at runtime is declared here rather than picked up ambiently.
type Runtime struct {
	Env map[string]string `yaml:"env,omitempty"`
}

// DefaultWorkdir is used when the recipe does not set spec.workdir.
const DefaultWorkdir = "/app"

// DefaultInstaller is used when the recipe does not set spec.manifest.installer.
const DefaultInstaller = "pip"

// WorkdirOrDefault returns the container working directory, applying the default.
func (s *Spec) WorkdirOrDefault() string {
	if s.Workdir == "" {
		return DefaultWorkdir
	}
	return s.Workdir
}

// InstallerOrDefault returns the manifest installer, applying the default.
func (s *Spec) InstallerOrDefault() string {
	if s.Manifest.Installer == "" {
		return DefaultInstaller
	}
	return s.Manifest.Installer
}
