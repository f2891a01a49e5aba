// Package audit implements the append-only audit trail: field-level diffs of
// every committed mutation, rollback eligibility, queries and aggregate
// statistics. Audit writes are best-effort telemetry: a failed write is
// logged and swallowed so the edit path never breaks.
package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jtomassoni/mmb-sub000/internal/clock"
	"github.com/jtomassoni/mmb-sub000/internal/diff"
	"github.com/jtomassoni/mmb-sub000/internal/models"
	"github.com/jtomassoni/mmb-sub000/internal/permissions"
	"github.com/jtomassoni/mmb-sub000/internal/server/metrics"
	"github.com/jtomassoni/mmb-sub000/internal/server/storage"
)

// Service is the audit trail service.
type Service struct {
	store  storage.AuditStore
	logger *slog.Logger
	clk    clock.Clock
}

// NewService creates the audit trail service.
func NewService(store storage.AuditStore, logger *slog.Logger, clk clock.Clock) *Service {
	return &Service{
		store:  store,
		logger: logger,
		clk:    clk,
	}
}

// Record appends one audit entry for a committed mutation. The field diff is
// the union of keys in before/after whose serialized values differ; the
// inverse payload carries the old values of changed fields.
//
// Запись best-effort: ошибка персистенции логируется и проглатывается,
// потеря телеметрии никогда не ломает edit path. Возвращается entry,
// даже если сохранить её не удалось.
func (s *Service) Record(ctx context.Context, actor models.Actor, action models.AuditAction,
	ref models.ResourceRef, before, after map[string]any, success bool, reason string) *models.AuditEntry {

	fieldDiff := diff.Compute(before, after)

	eligible := success &&
		action.Mutating() &&
		ref.Kind.RollbackAllowed() &&
		len(fieldDiff) > 0

	entry := &models.AuditEntry{
		ID:               uuid.New().String(),
		Actor:            actor,
		Action:           action,
		Ref:              ref,
		BeforeSnapshot:   before,
		AfterSnapshot:    after,
		FieldDiff:        fieldDiff,
		InversePayload:   diff.Inverse(fieldDiff),
		Success:          success,
		RollbackEligible: eligible,
		Reason:           reason,
		Timestamp:        s.clk.Now(),
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		s.logger.Error("Failed to persist audit entry",
			"entry_id", entry.ID, "ref", ref, "action", action, "error", err)
		metrics.AuditWriteFailures.Inc()
	}

	return entry
}

// RecordCompensating appends the audit entry produced by a rollback.
// Компенсирующая запись всегда non-rollbackable: откаты не откатываются.
func (s *Service) RecordCompensating(ctx context.Context, actor models.Actor,
	original *models.AuditEntry, reason string) *models.AuditEntry {

	fieldDiff := diff.Compute(original.AfterSnapshot, original.BeforeSnapshot)

	entry := &models.AuditEntry{
		ID:               uuid.New().String(),
		Actor:            actor,
		Action:           models.ActionRollback,
		Ref:              original.Ref,
		BeforeSnapshot:   original.AfterSnapshot,
		AfterSnapshot:    original.BeforeSnapshot,
		FieldDiff:        fieldDiff,
		Success:          true,
		RollbackEligible: false,
		Reason:           reason,
		Timestamp:        s.clk.Now(),
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		s.logger.Error("Failed to persist compensating audit entry",
			"entry_id", entry.ID, "original_id", original.ID, "error", err)
		metrics.AuditWriteFailures.Inc()
	}

	return entry
}

// Get returns one audit entry by id.
func (s *Service) Get(ctx context.Context, id string) (*models.AuditEntry, error) {
	return s.store.GetByID(ctx, id)
}

// MarkRolledBack flags an entry as consumed by a rollback.
func (s *Service) MarkRolledBack(ctx context.Context, id string) error {
	return s.store.MarkRolledBack(ctx, id)
}

// Query returns a filtered page of the trail. Non-superadmin actors are
// scoped to their own site: a filter naming another site is denied, an empty
// site filter is narrowed.
func (s *Service) Query(ctx context.Context, actor models.Actor, filter models.AuditFilter) (*models.AuditPage, error) {
	scoped, err := s.scopeFilter(actor, filter)
	if err != nil {
		return nil, err
	}
	return s.store.Query(ctx, scoped)
}

// Stats returns aggregate statistics under the same tenant scoping as Query.
func (s *Service) Stats(ctx context.Context, actor models.Actor, filter models.AuditFilter) (*models.AuditStats, error) {
	scoped, err := s.scopeFilter(actor, filter)
	if err != nil {
		return nil, err
	}
	return s.store.Stats(ctx, scoped)
}

// scopeFilter enforces the permission gate on audit queries.
func (s *Service) scopeFilter(actor models.Actor, filter models.AuditFilter) (models.AuditFilter, error) {
	if actor.Role == models.RoleSuperadmin {
		return filter, nil
	}

	if !actor.Role.IsValid() {
		return filter, &models.PermissionError{Actor: actor, Action: "audit.query"}
	}

	if filter.SiteID == "" {
		filter.SiteID = actor.SiteID
		return filter, nil
	}

	if !permissions.CanAccessSite(actor.Role, actor.SiteID, filter.SiteID) {
		return filter, &models.PermissionError{
			Actor:  actor,
			Action: "audit.query",
			Ref:    models.ResourceRef{SiteID: filter.SiteID},
		}
	}

	return filter, nil
}
