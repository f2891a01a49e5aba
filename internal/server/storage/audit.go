package storage

import (
	"context"

	"github.com/jtomassoni/mmb-sub000/internal/models"
)

//go:generate moq -out audit_mock.go . AuditStore

// AuditStore defines the append-only audit trail store. Entries are immutable
// once written; the only permitted update is the rolled-back marker.
type AuditStore interface {
	// Insert appends one audit entry.
	Insert(ctx context.Context, entry *models.AuditEntry) error

	// GetByID returns one entry.
	// Returns ErrEntryNotFound if the entry doesn't exist.
	GetByID(ctx context.Context, id string) (*models.AuditEntry, error)

	// Query returns a filtered, ordered, paginated slice of the trail.
	Query(ctx context.Context, filter models.AuditFilter) (*models.AuditPage, error)

	// Stats aggregates the trail for reporting.
	Stats(ctx context.Context, filter models.AuditFilter) (*models.AuditStats, error)

	// MarkRolledBack flags an entry as consumed by a rollback so it cannot
	// be rolled back twice.
	// Returns ErrEntryNotFound if the entry doesn't exist.
	MarkRolledBack(ctx context.Context, id string) error
}
