package errors

import "errors"

var (
	ErrRecipeNotFound    = errors.New("recipe file not found")
	ErrRecipeParseFailed = errors.New("recipe parsing failed")
	ErrManifestInvalid   = errors.New("dependency manifest invalid")
	ErrRenderFailed      = errors.New("build context rendering failed")
	ErrBuildFailed       = errors.New("image build failed")
	ErrLaunchFailed      = errors.New("container launch failed")
	ErrRuntimeFailed     = errors.New("runtime operation failed")
	ErrFileSystemFailed  = errors.New("filesystem operation failed")
)

// BotstrapError carries the failure class plus enough context to tell the
// user what broke and what to do about it. Every build-sequence failure is
// surfaced; none is swallowed.
type BotstrapError struct {
	Type        error
	Context     string
	Cause       string
	Suggestion  string
	OriginalErr error
}

func (e *BotstrapError) Error() string {
	return e.OriginalErr.Error()
}

func (e *BotstrapError) Unwrap() error {
	return e.OriginalErr
}

func NewBotstrapError(errorType error, context, cause, suggestion string, originalErr error) *BotstrapError {
	return &BotstrapError{
		Type:        errorType,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewRecipeError(context, cause, suggestion string, originalErr error) *BotstrapError {
	return NewBotstrapError(ErrRecipeNotFound, context, cause, suggestion, originalErr)
}

func NewParseError(context, cause, suggestion string, originalErr error) *BotstrapError {
	return NewBotstrapError(ErrRecipeParseFailed, context, cause, suggestion, originalErr)
}

func NewManifestError(context, cause, suggestion string, originalErr error) *BotstrapError {
	return NewBotstrapError(ErrManifestInvalid, context, cause, suggestion, originalErr)
}

func NewRenderError(context, cause, suggestion string, originalErr error) *BotstrapError {
	return NewBotstrapError(ErrRenderFailed, context, cause, suggestion, originalErr)
}

func NewBuildError(context, cause, suggestion string, originalErr error) *BotstrapError {
	return NewBotstrapError(ErrBuildFailed, context, cause, suggestion, originalErr)
}

func NewLaunchError(context, cause, suggestion string, originalErr error) *BotstrapError {
	return NewBotstrapError(ErrLaunchFailed, context, cause, suggestion, originalErr)
}

func NewRuntimeError(context, cause, suggestion string, originalErr error) *BotstrapError {
	return NewBotstrapError(ErrRuntimeFailed, context, cause, suggestion, originalErr)
}

func NewFileSystemError(context, cause, suggestion string, originalErr error) *BotstrapError {
	return NewBotstrapError(ErrFileSystemFailed, context, cause, suggestion, originalErr)
}
