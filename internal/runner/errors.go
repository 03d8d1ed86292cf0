package runner

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/orchard/internal/tree"
)

// HookKind names the four hook lists.
type HookKind string

const (
	HookBeforeAll  HookKind = "beforeAll"
	HookBeforeEach HookKind = "beforeEach"
	HookAfterEach  HookKind = "afterEach"
	HookAfterAll   HookKind = "afterAll"
)

// HookError reports a failing setup or teardown hook.
type HookError struct {
	Kind HookKind

	// Scope owns the failing hook; Index is its position in the list.
	Scope *tree.Scope
	Index int

	Err error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	desc := ""
	if e.Scope != nil {
		desc = e.Scope.Description
	}
	return fmt.Sprintf("%s hook #%d in %q failed: %v", e.Kind, e.Index, desc, e.Err)
}

// Unwrap returns the hook's own error.
func (e *HookError) Unwrap() error {
	return e.Err
}

// IsHookError returns true if err is, or wraps, a *HookError.
func IsHookError(err error) bool {
	var he *HookError
	return errors.As(err, &he)
}

// TimeoutError is the failure recorded for a body that outlived its timeout.
type TimeoutError struct {
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("test timed out after %s", e.Timeout)
}

// IsTimeout returns true if err is, or wraps, a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// PanicError wraps a value recovered from a panicking test body.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("test body panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
