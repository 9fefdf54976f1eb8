package errors

import (
	"errors"
	"fmt"
)

// Failure classes surfaced to callers. Command handlers map them to replies,
// enforcement handlers only log them.
var (
	ErrAuthorizationDenied  = errors.New("authorization denied")
	ErrPreconditionFailed   = errors.New("precondition failed")
	ErrPlatformActionFailed = errors.New("platform action failed")
	ErrStorage              = errors.New("storage error")
	ErrNotFound             = errors.New("not found")
)

// StorageError wraps a failure of the ledger backing store.
type StorageError struct {
	Op   string
	List string
	Err  error
}

func (e *StorageError) Error() string {
	if e.List == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.List, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// PreconditionError carries a user-facing reason. Reason is a translation key.
type PreconditionError struct {
	Reason string
	Args   []any
	// Cause refines the failure class, ErrNotFound for a missing record.
	Cause error
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + fmt.Sprintf(e.Reason, e.Args...)
}

func (e *PreconditionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrPreconditionFailed}
	}
	return []error{ErrPreconditionFailed, e.Cause}
}

func Precondition(reason string, args ...any) error {
	return &PreconditionError{Reason: reason, Args: args}
}

// NotFound is a precondition failure caused by a missing record.
func NotFound(reason string, args ...any) error {
	return &PreconditionError{Reason: reason, Args: args, Cause: ErrNotFound}
}

// PlatformError wraps a failed outbound call to the chat platform.
func PlatformError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ErrPlatformActionFailed, err))
}
