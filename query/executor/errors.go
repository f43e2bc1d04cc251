package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrParameterCountMismatch is returned when placeholders and parameters disagree
	ErrParameterCountMismatch = errors.New("parameter count mismatch")
	// ErrUnknownParameter is returned for a named placeholder without a value
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrMissingRepository is returned when neither SQL nor a repository name is set
	ErrMissingRepository = errors.New("a repository name is required when no SQL is set")
	// ErrRepositoryNotFound is returned when the repository has no metadata
	ErrRepositoryNotFound = errors.New("unable to find repository")
	// ErrUnsupportedParameters is returned for parameters that are neither a slice nor a map
	ErrUnsupportedParameters = errors.New("parameters must be []any or map[string]any")
)

// ParameterCountError reports the expected and supplied counts
type ParameterCountError struct {
	Placeholders int
	Params       int
}

func (e *ParameterCountError) Error() string {
	return fmt.Sprintf("%s: sql has %d placeholders, got %d parameters", ErrParameterCountMismatch, e.Placeholders, e.Params)
}

func (e *ParameterCountError) Unwrap() error { return ErrParameterCountMismatch }

// UnknownParameterError names the placeholder without a value
type UnknownParameterError struct {
	Name string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("%s: :%s", ErrUnknownParameter, e.Name)
}

func (e *UnknownParameterError) Unwrap() error { return ErrUnknownParameter }
