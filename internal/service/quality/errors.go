package quality

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation marks malformed or missing caller input.
var ErrValidation = errors.New("validation error")

// ErrEditWindowExpired marks an update attempted after the edit deadline.
var ErrEditWindowExpired = errors.New("edit window expired")

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// EditWindowExpiredError is returned by Guard.Authorize once the deadline has passed.
type EditWindowExpiredError struct {
	Deadline time.Time
	Elapsed  time.Duration
}

func (e *EditWindowExpiredError) Error() string {
	return fmt.Sprintf("entry can no longer be edited: deadline %s passed %s ago",
		e.Deadline.Format(time.RFC3339), e.Elapsed.Truncate(time.Second))
}

func (e *EditWindowExpiredError) Is(target error) bool {
	return target == ErrEditWindowExpired
}
