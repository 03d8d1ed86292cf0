package tree

import (
	"errors"
	"fmt"
)

// ConstructionErrorCode categorizes builder misuse.
type ConstructionErrorCode string

const (
	// ErrCodeSealed indicates a registration after Build returned, typically
	// from a goroutine started by an asynchronous populate callback.
	ErrCodeSealed ConstructionErrorCode = "SEALED"

	// ErrCodeNoScope indicates a registration on a builder with no active scope.
	ErrCodeNoScope ConstructionErrorCode = "NO_SCOPE"

	// ErrCodeNilCallback indicates a nil populate, body or hook.
	ErrCodeNilCallback ConstructionErrorCode = "NIL_CALLBACK"

	// ErrCodeInvalidTimeout indicates a zero or negative explicit timeout.
	ErrCodeInvalidTimeout ConstructionErrorCode = "INVALID_TIMEOUT"
)

// ConstructionError is a programmer error raised while building a tree.
type ConstructionError struct {
	Code    ConstructionErrorCode
	Message string
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConstructionError reports whether err is, or wraps, a *ConstructionError.
func IsConstructionError(err error) bool {
	var ce *ConstructionError
	return errors.As(err, &ce)
}

func constructionPanic(code ConstructionErrorCode, format string, args ...any) {
	panic(&ConstructionError{Code: code, Message: fmt.Sprintf(format, args...)})
}
