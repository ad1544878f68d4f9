package cli

import (
	"errors"
	"fmt"
)

// ErrUsage marks command-line errors. main maps it to exit status 2.
var ErrUsage = errors.New("usage error")

// UsageError wraps an argument parsing or validation failure.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUsage) true for every UsageError.
func (e *UsageError) Is(target error) bool {
	return target == ErrUsage
}

// Usage wraps err as a UsageError. nil stays nil.
func Usage(err error) error {
	if err == nil {
		return nil
	}
	var ue *UsageError
	if errors.As(err, &ue) {
		return err
	}
	return &UsageError{Err: err}
}

// Usagef formats a new UsageError.
func Usagef(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}
