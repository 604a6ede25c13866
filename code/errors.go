package code

import (
	"errors"
	"fmt"
)

// Sentinel errors for error classification.
var (
	// ErrFunctionNotFound indicates the named function is absent from the
	// session's CodeContext. Fatal for that call; never retried.
	ErrFunctionNotFound = errors.New("function not found")

	// ErrMalformedSource indicates the target function could not be
	// statically located within its own registered source.
	ErrMalformedSource = errors.New("malformed source")

	// ErrConfiguration indicates an invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")
)

// InspectError reports a static-inspection failure with the registered
// function name for context.
type InspectError struct {
	// Function is the registered function name.
	Function string

	// Message describes what could not be derived.
	Message string

	// Err is the underlying parse error, if any.
	Err error
}

// Error returns the failure message naming the function.
func (e *InspectError) Error() string {
	return fmt.Sprintf("%s: %s", e.Function, e.Message)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *InspectError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches ErrMalformedSource.
func (e *InspectError) Is(target error) bool {
	return target == ErrMalformedSource
}
