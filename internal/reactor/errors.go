package reactor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates reactor settings that cannot be simulated.
	ErrInvalidConfig = errors.New("reactor: invalid configuration")

	// ErrNotImplemented is returned for declared reactor variants with no implementation.
	ErrNotImplemented = errors.New("reactor: not implemented")

	// ErrSessionDone is returned when stepping a finished session.
	ErrSessionDone = errors.New("reactor: session already finished")
)

// StepError wraps an error raised while evaluating a step.
type StepError struct {
	Step int
	Time float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
