// Package rollback implements the time-boxed compensating rollback of
// audited mutations. Each eligible audit entry may be rolled back exactly
// once, within a fixed window of its commit; the rollback itself produces a
// compensating audit entry that is permanently non-rollbackable.
package rollback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jtomassoni/mmb-sub000/internal/clock"
	"github.com/jtomassoni/mmb-sub000/internal/models"
	"github.com/jtomassoni/mmb-sub000/internal/permissions"
	"github.com/jtomassoni/mmb-sub000/internal/server/storage"
)

//go:generate moq -out deps_mock.go . AuditLog Restorer Notifier

// AuditLog is the slice of the audit trail the coordinator needs.
type AuditLog interface {
	// Get returns one audit entry by id.
	Get(ctx context.Context, id string) (*models.AuditEntry, error)

	// RecordCompensating appends the compensating entry for a rollback.
	RecordCompensating(ctx context.Context, actor models.Actor, original *models.AuditEntry, reason string) *models.AuditEntry

	// MarkRolledBack flags the original entry as consumed.
	MarkRolledBack(ctx context.Context, id string) error
}

// Restorer applies the inverse mutation to the backing store.
type Restorer interface {
	Restore(ctx context.Context, ref models.ResourceRef, fields map[string]any) (*storage.Record, error)
}

// Notifier is the optional side effect fired after a successful rollback.
// Best-effort: invoked on a separate goroutine, never blocks the result.
type Notifier interface {
	NotifyRollback(entry, compensating *models.AuditEntry, actor models.Actor)
}

// restorableFields enumerates, per resource kind, the backing fields a
// rollback may touch. The inverse payload is filtered down to these: a
// narrow field-by-field restore, never a generic object replace.
var restorableFields = map[models.ResourceKind]map[string]bool{
	models.KindEvent: fieldSet(
		"title", "description", "date", "start_time", "end_time",
		"location", "image_url", "published",
	),
	models.KindSpecial: fieldSet(
		"name", "description", "price", "category", "available", "image_url",
	),
	models.KindHours: fieldSet(
		"monday", "tuesday", "wednesday", "thursday", "friday",
		"saturday", "sunday", "notes",
	),
	models.KindProfile: fieldSet(
		"name", "tagline", "about", "phone", "email", "address", "logo_url",
	),
}

func fieldSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// Coordinator validates rollback eligibility and issues the compensating
// commit.
type Coordinator struct {
	auditLog AuditLog
	restorer Restorer
	notifier Notifier
	clk      clock.Clock
	logger   *slog.Logger
}

// NewCoordinator creates the rollback coordinator. notifier may be nil.
func NewCoordinator(auditLog AuditLog, restorer Restorer, notifier Notifier,
	clk clock.Clock, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		auditLog: auditLog,
		restorer: restorer,
		notifier: notifier,
		clk:      clk,
		logger:   logger,
	}
}

// Rollback reverses the mutation recorded by one audit entry. Point-in-time
// check, no retry: a failed rollback must be explicitly re-invoked.
//
// Failure kinds, in check order: models.ErrNotFound, *models.PermissionError,
// *models.WindowExpiredError, models.ErrNotRollbackable.
func (c *Coordinator) Rollback(ctx context.Context, auditID string, actor models.Actor, reason string) (*models.AuditEntry, error) {
	entry, err := c.auditLog.Get(ctx, auditID)
	if err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			return nil, fmt.Errorf("audit entry %s: %w", auditID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load audit entry: %w", err)
	}

	// Авторитетная проверка прав: update на ресурс записи + tenant scope.
	if err := permissions.Check(actor, entry.Ref, permissions.ActionUpdate); err != nil {
		return nil, err
	}

	if !entry.RollbackEligible || len(entry.InversePayload) == 0 {
		return nil, fmt.Errorf("audit entry %s: %w", auditID, models.ErrNotRollbackable)
	}

	elapsed := c.clk.Now().Sub(entry.Timestamp)
	if elapsed > models.RollbackWindow {
		return nil, &models.WindowExpiredError{Elapsed: elapsed, Limit: models.RollbackWindow}
	}

	// Ровно один откат на исходную мутацию.
	if entry.RolledBack {
		return nil, fmt.Errorf("audit entry %s already rolled back: %w", auditID, models.ErrNotRollbackable)
	}

	payload := c.restorePayload(entry)
	if len(payload) == 0 {
		return nil, fmt.Errorf("audit entry %s has no restorable fields: %w", auditID, models.ErrNotRollbackable)
	}

	if _, err := c.restorer.Restore(ctx, entry.Ref, payload); err != nil {
		return nil, fmt.Errorf("failed to restore %s: %w", entry.Ref, err)
	}

	compensating := c.auditLog.RecordCompensating(ctx, actor, entry, reason)

	if err := c.auditLog.MarkRolledBack(ctx, entry.ID); err != nil {
		// Маркер best-effort: откат уже применён, потерю флага только логируем.
		c.logger.Error("Failed to mark audit entry rolled back",
			"entry_id", entry.ID, "error", err)
	}

	c.logger.Info("Rollback applied",
		"entry_id", entry.ID,
		"compensating_id", compensating.ID,
		"ref", entry.Ref,
		"actor", actor.UserID,
		"elapsed_minutes", elapsed.Minutes())

	if c.notifier != nil {
		go c.notify(entry, compensating, actor)
	}

	return compensating, nil
}

// restorePayload filters the inverse payload down to the fields the entry's
// resource kind permits restoring.
func (c *Coordinator) restorePayload(entry *models.AuditEntry) map[string]any {
	allowed := restorableFields[entry.Ref.Kind]
	payload := make(map[string]any, len(entry.InversePayload))
	for k, v := range entry.InversePayload {
		if allowed[k] {
			payload[k] = v
		}
	}
	return payload
}

// notify runs the notifier, recovering panics so a broken notifier can never
// affect an already-applied rollback.
func (c *Coordinator) notify(entry, compensating *models.AuditEntry, actor models.Actor) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Rollback notifier panicked", "panic", r)
		}
	}()
	c.notifier.NotifyRollback(entry, compensating, actor)
}
