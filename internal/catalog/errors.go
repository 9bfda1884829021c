package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateLabel is returned when two entries normalize to the same label.
	ErrDuplicateLabel = errors.New("duplicate identity label")

	// ErrMixedDimensions is returned when entries disagree on embedding length.
	ErrMixedDimensions = errors.New("identity embeddings have different dimensions")
)

// LoadError reports a catalog source that could not be loaded. It is fatal at startup.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load catalog from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type duplicateError struct {
	label    string
	previous string
}

func (e *duplicateError) Error() string {
	return fmt.Sprintf("%v: %q collides with %q", ErrDuplicateLabel, e.label, e.previous)
}

func (e *duplicateError) Unwrap() error { return ErrDuplicateLabel }

type dimensionError struct {
	label     string
	got, want int
}

func (e *dimensionError) Error() string {
	return fmt.Sprintf("%v: %q has %d values, expected %d", ErrMixedDimensions, e.label, e.got, e.want)
}

func (e *dimensionError) Unwrap() error { return ErrMixedDimensions }
