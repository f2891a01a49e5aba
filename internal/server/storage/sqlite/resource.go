package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jtomassoni/mmb-sub000/internal/models"
	"github.com/jtomassoni/mmb-sub000/internal/server/storage"
)

// Get retrieves the current record for a resource
// Returns ErrResourceNotFound if the resource doesn't exist
func (s *Storage) Get(ctx context.Context, ref models.ResourceRef) (*storage.Record, error) {
	query := `
		SELECT fields, version, created_at, updated_at
		FROM resources
		WHERE site_id = ? AND kind = ? AND resource_id = ?
	`

	var fieldsJSON string
	var version, createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, ref.SiteID, ref.Kind, ref.ResourceID).Scan(
		&fieldsJSON, &version, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}

	fields, err := unmarshalFields(fieldsJSON)
	if err != nil {
		return nil, err
	}

	return &storage.Record{
		Ref:       ref,
		Fields:    fields,
		Version:   version,
		CreatedAt: unixMilliToTime(createdAt),
		UpdatedAt: unixMilliToTime(updatedAt),
	}, nil
}

// Apply merges fields into the record iff baseVersion matches the stored
// version. The read-modify-write runs inside one transaction so concurrent
// committers serialize on the version check.
// Возвращает (nil, current, nil) при version mismatch.
func (s *Storage) Apply(ctx context.Context, ref models.ResourceRef, baseVersion int64, fields map[string]any) (*storage.Record, *storage.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		SELECT fields, version, created_at
		FROM resources
		WHERE site_id = ? AND kind = ? AND resource_id = ?
	`

	var storedJSON string
	var storedVersion, createdAt int64
	now := time.Now()

	err = tx.QueryRowContext(ctx, query, ref.SiteID, ref.Kind, ref.ResourceID).Scan(
		&storedJSON, &storedVersion, &createdAt,
	)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Ресурса нет: base_version 0 означает create.
		if baseVersion != 0 {
			return nil, nil, storage.ErrResourceNotFound
		}

		fieldsJSON, err := json.Marshal(fields)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal fields: %w", err)
		}

		insert := `
			INSERT INTO resources (site_id, kind, resource_id, fields, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, 1, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, insert,
			ref.SiteID, ref.Kind, ref.ResourceID, string(fieldsJSON),
			now.UnixMilli(), now.UnixMilli(),
		); err != nil {
			return nil, nil, fmt.Errorf("failed to insert resource: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
		}

		return &storage.Record{
			Ref:       ref,
			Fields:    cloneFields(fields),
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}, nil, nil

	case err != nil:
		return nil, nil, fmt.Errorf("failed to read resource: %w", err)
	}

	stored, err := unmarshalFields(storedJSON)
	if err != nil {
		return nil, nil, err
	}

	// Version mismatch: возвращаем текущее состояние как conflict.
	if storedVersion != baseVersion {
		return nil, &storage.Record{
			Ref:       ref,
			Fields:    stored,
			Version:   storedVersion,
			CreatedAt: unixMilliToTime(createdAt),
			UpdatedAt: now,
		}, nil
	}

	// Field-by-field merge поверх сохранённого состояния.
	merged := cloneFields(stored)
	for k, v := range fields {
		merged[k] = v
	}

	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	update := `
		UPDATE resources
		SET fields = ?, version = ?, updated_at = ?
		WHERE site_id = ? AND kind = ? AND resource_id = ?
	`
	if _, err := tx.ExecContext(ctx, update,
		string(mergedJSON), storedVersion+1, now.UnixMilli(),
		ref.SiteID, ref.Kind, ref.ResourceID,
	); err != nil {
		return nil, nil, fmt.Errorf("failed to update resource: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &storage.Record{
		Ref:       ref,
		Fields:    merged,
		Version:   storedVersion + 1,
		CreatedAt: unixMilliToTime(createdAt),
		UpdatedAt: now,
	}, nil, nil
}

// Restore merges fields into the record without a version gate, bumping the
// version. Used by the rollback path.
// Returns ErrResourceNotFound if the resource doesn't exist.
func (s *Storage) Restore(ctx context.Context, ref models.ResourceRef, fields map[string]any) (*storage.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		SELECT fields, version, created_at
		FROM resources
		WHERE site_id = ? AND kind = ? AND resource_id = ?
	`

	var storedJSON string
	var storedVersion, createdAt int64

	err = tx.QueryRowContext(ctx, query, ref.SiteID, ref.Kind, ref.ResourceID).Scan(
		&storedJSON, &storedVersion, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to read resource: %w", err)
	}

	stored, err := unmarshalFields(storedJSON)
	if err != nil {
		return nil, err
	}

	merged := cloneFields(stored)
	for k, v := range fields {
		merged[k] = v
	}

	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	now := time.Now()
	update := `
		UPDATE resources
		SET fields = ?, version = ?, updated_at = ?
		WHERE site_id = ? AND kind = ? AND resource_id = ?
	`
	if _, err := tx.ExecContext(ctx, update,
		string(mergedJSON), storedVersion+1, now.UnixMilli(),
		ref.SiteID, ref.Kind, ref.ResourceID,
	); err != nil {
		return nil, fmt.Errorf("failed to restore resource: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &storage.Record{
		Ref:       ref,
		Fields:    merged,
		Version:   storedVersion + 1,
		CreatedAt: unixMilliToTime(createdAt),
		UpdatedAt: now,
	}, nil
}

// Helper functions

func unmarshalFields(data string) (map[string]any, error) {
	fields := make(map[string]any)
	if data == "" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
	}
	return fields, nil
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func unixMilliToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}
