package sandbox

import (
	"errors"
	"fmt"
)

// Sentinel errors for sandbox execution.
var (
	// ErrGuestRuntime indicates an exception raised by guest code.
	ErrGuestRuntime = errors.New("guest runtime error")

	// ErrTimeout indicates the wall-clock execution budget was exceeded.
	// It is a guest-runtime failure: errors.Is(ErrTimeout, ErrGuestRuntime)
	// style matching is provided through GuestError.
	ErrTimeout = errors.New("execution timeout")
)

// GuestError is an exception raised while running guest code, including
// timeouts triggered by budget enforcement.
type GuestError struct {
	// Message is the exception message.
	Message string

	// Stack is the formatted guest stack trace, when available.
	Stack string

	// Timeout marks budget-enforcement interruptions.
	Timeout bool
}

// Error returns the exception message.
func (e *GuestError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: %s", ErrTimeout.Error(), e.Message)
	}
	return e.Message
}

// Is matches ErrGuestRuntime for all guest errors, and additionally
// ErrTimeout for budget interruptions.
func (e *GuestError) Is(target error) bool {
	if target == ErrGuestRuntime {
		return true
	}
	return e.Timeout && target == ErrTimeout
}
