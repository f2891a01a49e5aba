package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jtomassoni/mmb-sub000/internal/audit"
	"github.com/jtomassoni/mmb-sub000/internal/models"
	"github.com/jtomassoni/mmb-sub000/internal/rollback"
	"github.com/jtomassoni/mmb-sub000/internal/server/metrics"
	"github.com/jtomassoni/mmb-sub000/pkg/api"
)

// AuditHandler обслуживает запросы к audit trail и откаты.
type AuditHandler struct {
	logger   *slog.Logger
	audit    *audit.Service
	rollback *rollback.Coordinator
}

// NewAuditHandler creates the audit trail handler.
func NewAuditHandler(logger *slog.Logger, auditSvc *audit.Service, coordinator *rollback.Coordinator) *AuditHandler {
	return &AuditHandler{
		logger:   logger,
		audit:    auditSvc,
		rollback: coordinator,
	}
}

// HandleQuery обрабатывает GET /api/v1/audit.
// Фильтры передаются query-параметрами; non-superadmin видит только свой сайт.
func (h *AuditHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := GetActor(ctx)
	if !ok {
		h.logger.Error("Actor not found in context")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	filter, err := parseAuditFilter(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid filter", err.Error())
		return
	}

	page, err := h.audit.Query(ctx, actor, filter)
	if err != nil {
		var permErr *models.PermissionError
		if errors.As(err, &permErr) {
			writeError(w, h.logger, http.StatusForbidden, "permission denied", err.Error())
			return
		}
		h.logger.Error("Failed to query audit trail", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	entries := make([]api.AuditEntry, 0, len(page.Entries))
	for _, e := range page.Entries {
		entries = append(entries, toAPIEntry(e))
	}

	writeJSON(w, h.logger, http.StatusOK, api.AuditQueryResponse{
		Entries: entries,
		Total:   page.Total,
		HasMore: page.HasMore,
	})
}

// HandleStats обрабатывает GET /api/v1/audit/stats.
func (h *AuditHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := GetActor(ctx)
	if !ok {
		h.logger.Error("Actor not found in context")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	filter, err := parseAuditFilter(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid filter", err.Error())
		return
	}

	stats, err := h.audit.Stats(ctx, actor, filter)
	if err != nil {
		var permErr *models.PermissionError
		if errors.As(err, &permErr) {
			writeError(w, h.logger, http.StatusForbidden, "permission denied", err.Error())
			return
		}
		h.logger.Error("Failed to compute audit stats", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, toAPIStats(stats))
}

// HandleRollback обрабатывает POST /api/v1/rollback.
//
// Маппинг ошибок координатора на статусы: not found → 404, permission → 403,
// not rollbackable → 409, window expired → 410 с телом WindowExpiredBody.
func (h *AuditHandler) HandleRollback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := GetActor(ctx)
	if !ok {
		h.logger.Error("Actor not found in context")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req api.RollbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Failed to decode rollback request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.AuditID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "invalid request body", "audit_id is required")
		return
	}

	compensating, err := h.rollback.Rollback(ctx, req.AuditID, actor, req.Reason)
	if err != nil {
		h.writeRollbackError(w, req.AuditID, err)
		return
	}

	metrics.RollbacksTotal.WithLabelValues("success").Inc()
	writeJSON(w, h.logger, http.StatusOK, api.RollbackResponse{
		CompensatingEntry: toAPIEntry(compensating),
		Message:           "change rolled back",
	})
}

func (h *AuditHandler) writeRollbackError(w http.ResponseWriter, auditID string, err error) {
	var (
		permErr   *models.PermissionError
		windowErr *models.WindowExpiredError
	)

	switch {
	case errors.Is(err, models.ErrNotFound):
		metrics.RollbacksTotal.WithLabelValues("not_found").Inc()
		writeError(w, h.logger, http.StatusNotFound, "audit entry not found", auditID)

	case errors.As(err, &permErr):
		metrics.RollbacksTotal.WithLabelValues("permission_denied").Inc()
		writeError(w, h.logger, http.StatusForbidden, "permission denied", err.Error())

	case errors.As(err, &windowErr):
		metrics.RollbacksTotal.WithLabelValues("window_expired").Inc()
		writeJSON(w, h.logger, http.StatusGone, api.WindowExpiredBody{
			Error:          "rollback window expired",
			ElapsedMinutes: windowErr.Elapsed.Minutes(),
			LimitMinutes:   windowErr.Limit.Minutes(),
		})

	case errors.Is(err, models.ErrNotRollbackable):
		metrics.RollbacksTotal.WithLabelValues("not_rollbackable").Inc()
		writeError(w, h.logger, http.StatusConflict, "entry is not rollbackable", err.Error())

	default:
		h.logger.Error("Rollback failed", "audit_id", auditID, "error", err)
		metrics.RollbacksTotal.WithLabelValues("error").Inc()
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// parseAuditFilter извлекает фильтр из query-параметров.
func parseAuditFilter(r *http.Request) (models.AuditFilter, error) {
	q := r.URL.Query()
	filter := models.AuditFilter{
		ActorID:    q.Get("actor_id"),
		Action:     models.AuditAction(q.Get("action")),
		Kind:       models.ResourceKind(q.Get("kind")),
		ResourceID: q.Get("resource_id"),
		SiteID:     q.Get("site_id"),
		OrderBy:    q.Get("order_by"),
		OrderDesc:  q.Get("order") == "desc",
	}

	if v := q.Get("success"); v != "" {
		success, err := strconv.ParseBool(v)
		if err != nil {
			return filter, &models.ValidationError{Field: "success", Reason: "must be a boolean"}
		}
		filter.Success = &success
	}
	if v := q.Get("since"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, &models.ValidationError{Field: "since", Reason: "must be RFC3339"}
		}
		filter.StartDate = ts
	}
	if v := q.Get("until"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, &models.ValidationError{Field: "until", Reason: "must be RFC3339"}
		}
		filter.EndDate = ts
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, &models.ValidationError{Field: "limit", Reason: "must be a non-negative integer"}
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, &models.ValidationError{Field: "offset", Reason: "must be a non-negative integer"}
		}
		filter.Offset = n
	}

	return filter, nil
}

// toAPIEntry конвертирует доменную audit-запись в wire-формат.
func toAPIEntry(e *models.AuditEntry) api.AuditEntry {
	var fieldDiff map[string]api.AuditFieldDiff
	if len(e.FieldDiff) > 0 {
		fieldDiff = make(map[string]api.AuditFieldDiff, len(e.FieldDiff))
		for k, change := range e.FieldDiff {
			fieldDiff[k] = api.AuditFieldDiff{Old: change.Old, New: change.New}
		}
	}

	return api.AuditEntry{
		ID:               e.ID,
		ActorID:          e.Actor.UserID,
		ActorRole:        string(e.Actor.Role),
		Action:           string(e.Action),
		SiteID:           e.Ref.SiteID,
		Kind:             string(e.Ref.Kind),
		ResourceID:       e.Ref.ResourceID,
		BeforeSnapshot:   e.BeforeSnapshot,
		AfterSnapshot:    e.AfterSnapshot,
		FieldDiff:        fieldDiff,
		Success:          e.Success,
		RollbackEligible: e.RollbackEligible,
		RolledBack:       e.RolledBack,
		Reason:           e.Reason,
		Timestamp:        e.Timestamp,
	}
}

// toAPIStats конвертирует агрегаты в wire-формат.
func toAPIStats(s *models.AuditStats) api.AuditStatsResponse {
	byAction := make(map[string]int, len(s.ByAction))
	for k, v := range s.ByAction {
		byAction[string(k)] = v
	}
	byKind := make(map[string]int, len(s.ByKind))
	for k, v := range s.ByKind {
		byKind[string(k)] = v
	}
	topActors := make([]api.AuditActorRank, 0, len(s.TopActors))
	for _, a := range s.TopActors {
		topActors = append(topActors, api.AuditActorRank{ActorID: a.ActorID, Count: a.Count})
	}

	return api.AuditStatsResponse{
		Total:     s.Total,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		ByAction:  byAction,
		ByKind:    byKind,
		BySite:    s.BySite,
		TopActors: topActors,
	}
}
