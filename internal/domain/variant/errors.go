package variant

import (
	"errors"
	"fmt"
)

var (
	ErrVariantNotFound  = errors.New("variant not found")
	ErrPrecondition     = errors.New("transition precondition not met")
	ErrGenerationFailed = errors.New("failed to generate ad variations")
	ErrInvalidCounters  = errors.New("counter increments must be non-negative")
	ErrNoDrafts         = errors.New("no drafts to save")
	ErrCreativesOff     = errors.New("creative storage not configured")
)

// PreconditionError is returned when a transition is attempted from the wrong state
type PreconditionError struct {
	Action   string
	Required string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("variant must be %s before it can be %s", e.Required, e.Action)
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// GenerationError wraps any failure of the text-generation step
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	if e.Cause == nil {
		return ErrGenerationFailed.Error()
	}
	return ErrGenerationFailed.Error() + ": " + e.Cause.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}
