package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared across the engine.
var (
	// ErrNotFound indicates a referenced audit entry or resource is missing.
	ErrNotFound = errors.New("not found")

	// ErrNotRollbackable indicates an audit entry that cannot be rolled back:
	// ineligible, missing inverse payload, compensating entry, or already
	// rolled back.
	ErrNotRollbackable = errors.New("audit entry is not rollbackable")
)

// ValidationError reports missing or malformed required fields.
// Fails fast, never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// PermissionError reports a role or tenant-scope check failure.
// Fails fast, never retried.
type PermissionError struct {
	Actor  Actor
	Action string
	Ref    ResourceRef
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s (%s) may not %s %s",
		e.Actor.UserID, e.Actor.Role, e.Action, e.Ref)
}

// ConflictError reports a server-detected version mismatch. Pauses autosave
// for the resource until the caller resolves the conflict.
type ConflictError struct {
	Record *ConflictRecord
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s: %d conflicting fields",
		e.Record.Ref, len(e.Record.ConflictingFields))
}

// WindowExpiredError reports a rollback attempted past the rollback window.
// Carries elapsed and limit for display.
type WindowExpiredError struct {
	Elapsed time.Duration
	Limit   time.Duration
}

func (e *WindowExpiredError) Error() string {
	return fmt.Sprintf("rollback window expired: %.0f minutes elapsed, limit %.0f",
		e.Elapsed.Minutes(), e.Limit.Minutes())
}

// TransientError reports a network or timeout failure that may be retried
// with backoff. Offline указывает на потерю связи: такой коммит уходит в
// offline queue вместо повторной отправки на месте.
type TransientError struct {
	Offline bool
	Err     error
}

func (e *TransientError) Error() string {
	if e.Offline {
		return fmt.Sprintf("offline: %v", e.Err)
	}
	return fmt.Sprintf("transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError reports a change whose retry cap was exceeded. Terminal:
// the change is surfaced to the user as failed, never retried again.
type PermanentError struct {
	Attempts int
	Err      error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent failure after %d attempts: %v", e.Attempts, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a transient failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsOffline reports whether err indicates connectivity loss specifically.
func IsOffline(err error) bool {
	var te *TransientError
	return errors.As(err, &te) && te.Offline
}
