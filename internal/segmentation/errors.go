package segmentation

import (
	"errors"
	"fmt"
)

// ErrModelNotFound is returned when no artifact exists at the configured
// location. The calling request fails; there is no automatic retry.
var ErrModelNotFound = errors.New("segmentation: model artifact not found")

// ModelMismatchError is returned when an artifact is incompatible with the
// caller's feature schema. It carries the expected and actual shapes so the
// caller can correct the input instead of retrying blindly.
type ModelMismatchError struct {
	Expected int // feature count the artifact was trained with
	Actual   int // feature count presented at apply time
	Detail   string
}

func (e *ModelMismatchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("segmentation: model mismatch: %s (expected %d features, got %d)", e.Detail, e.Expected, e.Actual)
	}
	return fmt.Sprintf("segmentation: model mismatch: expected %d features, got %d", e.Expected, e.Actual)
}

// InsufficientDataError is returned when a training set has fewer distinct
// customers than the requested cluster count.
type InsufficientDataError struct {
	Required int
	Got      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("segmentation: need at least %d distinct customers to fit %d clusters, got %d", e.Required, e.Required, e.Got)
}
