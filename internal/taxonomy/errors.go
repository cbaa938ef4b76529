package taxonomy

import (
	"errors"
	"fmt"
)

var (
	// ErrCommentRequired marks submissions missing a mandatory comment.
	ErrCommentRequired = errors.New("comment required")
	// ErrIncompleteGrading marks multi-tier gradings with unselected tiers.
	ErrIncompleteGrading = errors.New("incomplete grading")
	// ErrInvalidSelection marks categories, tiers, or values the variant does not accept.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrNoCategory marks grading selections made before a category was chosen.
	ErrNoCategory = errors.New("no category selected")
)

// ValidationError describes a rejected label submission. The prior label for
// the image is never touched when one is returned.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ErrorKind classifies the error for user-facing severity mapping.
func (e *ValidationError) ErrorKind() string { return "validation" }

func invalid(field string, err error, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Err: err, Reason: fmt.Sprintf(format, args...)}
}
