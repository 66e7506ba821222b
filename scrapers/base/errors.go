package base

import (
	"context"
	"errors"
	"fmt"
)

// ErrUsage indicates missing or malformed caller input.
type ErrUsage struct {
	Err error
}

func (e ErrUsage) Error() string {
	return fmt.Errorf("usage: %w", e.Err).Error()
}

func (e ErrUsage) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates a page or element did not become ready in time.
type ErrTimeout struct {
	Step string
	Err  error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %s: %w", e.Step, e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrStructure indicates the page did not have the expected shape.
type ErrStructure struct {
	Err error
}

func (e ErrStructure) Error() string {
	return fmt.Errorf("structure: %w", e.Err).Error()
}

func (e ErrStructure) Unwrap() error {
	return e.Err
}

// ErrUnsupported is returned by backends that cannot perform an operation.
type ErrUnsupported struct {
	Backend string
	Op      string
}

func (e ErrUnsupported) Error() string {
	return fmt.Sprintf("unsupported: %s backend cannot %s", e.Backend, e.Op)
}

// Structuref builds an ErrStructure from a format string.
func Structuref(format string, args ...interface{}) error {
	return ErrStructure{Err: fmt.Errorf(format, args...)}
}

// StepError names the step that failed and turns deadline errors into
// ErrTimeout.
func StepError(step string, err error) error {
	if err == nil {
		return nil
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Step: step, Err: err}
	}
	return fmt.Errorf("%s: %w", step, err)
}

// ErrorKind returns a short label for err.
func ErrorKind(err error) string {
	if err == nil {
		return "none"
	}
	var usage ErrUsage
	if errors.As(err, &usage) {
		return "usage"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var structure ErrStructure
	if errors.As(err, &structure) {
		return "structure"
	}
	var unsupported ErrUnsupported
	if errors.As(err, &unsupported) {
		return "unsupported"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "runtime"
}
