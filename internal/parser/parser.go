package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/distribution/reference"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"botstrap/pkg/recipe"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Warning is a non-fatal finding about a recipe, e.g. a base image pinned by
// tag but not by content digest.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Field, w.Message)
}

// Parse reads and validates a recipe YAML file, returning the parsed Recipe
// struct or an error. Structural validation (validator tags) and semantic
// validation (image reference well-formedness, pinning) both run here; a
// recipe that parses is safe to hand to the renderer.
func Parse(filePath string) (*recipe.Recipe, error) {
	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("recipe file not found: %s", filePath)
	}

	// Configure Viper
	v := viper.New()
	v.SetConfigFile(filePath)
	v.SetConfigType("yaml")

	// Read the file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("recipe file not found: %s", filePath)
		}
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}

	// Unmarshal into Recipe struct
	var r recipe.Recipe
	if err := v.Unmarshal(&r); err != nil {
		return nil, fmt.Errorf("failed to parse recipe file - malformed YAML: %w", err)
	}

	// Validate the structure
	if err := validate.Struct(&r); err != nil {
		return nil, formatValidationError(err)
	}

	// Validate what struct tags cannot express
	if err := validateSemantics(&r); err != nil {
		return nil, err
	}

	return &r, nil
}

// validateSemantics checks image references and paths beyond tag-level rules.
func validateSemantics(r *recipe.Recipe) error {
	named, err := reference.ParseNormalizedNamed(r.Spec.Base.Name)
	if err != nil {
		return fmt.Errorf("invalid base image name %q: %w", r.Spec.Base.Name, err)
	}

	if _, err := reference.WithTag(named, r.Spec.Base.Tag); err != nil {
		return fmt.Errorf("invalid base image tag %q: %w", r.Spec.Base.Tag, err)
	}

	if r.Spec.Base.Digest != "" {
		if _, err := reference.Parse(r.Spec.Base.Name + "@" + r.Spec.Base.Digest); err != nil {
			return fmt.Errorf("invalid base image digest %q: %w", r.Spec.Base.Digest, err)
		}
	}

	if _, err := reference.ParseNormalizedNamed(r.Spec.Image.Name); err != nil {
		return fmt.Errorf("invalid output image name %q: %w", r.Spec.Image.Name, err)
	}

	if r.Spec.Workdir != "" && !strings.HasPrefix(r.Spec.Workdir, "/") {
		return fmt.Errorf("workdir must be an absolute container path, got %q", r.Spec.Workdir)
	}

	return nil
}

// Lint reports non-fatal findings for a recipe that already passed Parse.
func Lint(r *recipe.Recipe) []Warning {
	var warnings []Warning

	// A tag pins the base for humans; only a digest pins it byte-for-byte.
	if r.Spec.Base.Digest == "" {
		warnings = append(warnings, Warning{
			Field:   "spec.base.digest",
			Message: fmt.Sprintf("base image %s is pinned by tag only; add a content digest for byte-for-byte reproducible rebuilds", r.Spec.Base.Reference()),
		})
	}

	return warnings
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, formatFieldError(e))
		}

		if len(errorMessages) == 1 {
			return fmt.Errorf("validation error: %s", errorMessages[0])
		}

		result := "validation errors:\n"
		for _, msg := range errorMessages {
			result += fmt.Sprintf("  - %s\n", msg)
		}
		return fmt.Errorf("%s", result)
	}
	return fmt.Errorf("validation failed: %w", err)
}

// formatFieldError formats a single validation error into a user-friendly message.
func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("field '%s' is required but missing", field)
	case "eq":
		return fmt.Sprintf("field '%s' must be '%s'", field, e.Param())
	case "ne":
		return fmt.Sprintf("field '%s' must not be '%s'", field, e.Param())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", field, e.Param())
	case "min":
		return fmt.Sprintf("field '%s' must have at least %s entries", field, e.Param())
	default:
		return fmt.Sprintf("field '%s' failed validation (%s)", field, tag)
	}
}
