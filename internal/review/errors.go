package review

import (
	"errors"
	"fmt"

	"labeller/internal/labelstore"
)

var (
	// ErrAlreadyAtBoundary reports a step before the first image or a skip
	// past the last one.
	ErrAlreadyAtBoundary = errors.New("already at boundary")
	// ErrOutOfRange reports a jump outside the catalog.
	ErrOutOfRange = errors.New("position out of range")
	// ErrFinished reports an operation on a finished cursor or closed session.
	ErrFinished = errors.New("session finished")
	// ErrNothingToSave reports a progress save with no labels recorded.
	ErrNothingToSave = errors.New("no labels to save yet")
)

// Edge names the catalog boundary a navigation hit.
type Edge string

const (
	EdgeFirst Edge = "first"
	EdgeLast  Edge = "last"
)

// BoundaryError is returned when navigation would leave the catalog.
type BoundaryError struct {
	Edge Edge
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("this is the %s image", e.Edge)
}

func (e *BoundaryError) Unwrap() error { return ErrAlreadyAtBoundary }

// ErrorKind classifies the error for user-facing severity mapping.
func (e *BoundaryError) ErrorKind() string { return "info" }

// RangeError is returned by JumpTo for positions outside [0, Len).
type RangeError struct {
	Position int
	Len      int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("position %d outside catalog of %d images", e.Position, e.Len)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// ErrorKind classifies the error for user-facing severity mapping.
func (e *RangeError) ErrorKind() string { return "validation" }

// Informational reports whether err is a non-fatal notice that leaves all
// state unchanged.
func Informational(err error) bool {
	return errors.Is(err, ErrAlreadyAtBoundary) ||
		errors.Is(err, ErrNothingToSave) ||
		errors.Is(err, labelstore.ErrNothingToClear)
}
