package storage

import (
	"context"
	"time"

	"github.com/jtomassoni/mmb-sub000/internal/models"
)

// Record is one stored content resource with its version counter.
type Record struct {
	Ref       models.ResourceRef
	Fields    map[string]any
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

//go:generate moq -out resource_mock.go . ResourceStore

// ResourceStore defines the versioned record store the commit and rollback
// paths write through. Single-record atomic read-modify-write semantics.
type ResourceStore interface {
	// Get returns the current record.
	// Returns ErrResourceNotFound if the resource doesn't exist.
	Get(ctx context.Context, ref models.ResourceRef) (*Record, error)

	// Apply merges fields into the record iff baseVersion matches the stored
	// version, bumping the version. baseVersion 0 creates the resource.
	// On a version mismatch the current record is returned as conflict and
	// nothing is written.
	Apply(ctx context.Context, ref models.ResourceRef, baseVersion int64, fields map[string]any) (rec *Record, conflict *Record, err error)

	// Restore merges fields into the record without a version gate. Used by
	// the rollback path for narrow field-by-field restores.
	Restore(ctx context.Context, ref models.ResourceRef, fields map[string]any) (*Record, error)
}
