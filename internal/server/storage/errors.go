package storage

import "errors"

// Common storage errors
var (
	// ErrResourceNotFound indicates that the content resource was not found
	ErrResourceNotFound = errors.New("resource not found")

	// ErrEntryNotFound indicates that the audit entry was not found
	ErrEntryNotFound = errors.New("audit entry not found")
)
