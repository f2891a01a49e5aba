package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/jtomassoni/mmb-sub000/internal/audit"
	"github.com/jtomassoni/mmb-sub000/internal/diff"
	"github.com/jtomassoni/mmb-sub000/internal/models"
	"github.com/jtomassoni/mmb-sub000/internal/permissions"
	"github.com/jtomassoni/mmb-sub000/internal/server/metrics"
	"github.com/jtomassoni/mmb-sub000/internal/server/storage"
	"github.com/jtomassoni/mmb-sub000/pkg/api"
)

// CommitHandler принимает коммиты coalesced-изменений от editor-клиентов.
type CommitHandler struct {
	logger    *slog.Logger
	resources storage.ResourceStore
	audit     *audit.Service
}

// NewCommitHandler creates the commit handler.
func NewCommitHandler(logger *slog.Logger, resources storage.ResourceStore, auditSvc *audit.Service) *CommitHandler {
	return &CommitHandler{
		logger:    logger,
		resources: resources,
		audit:     auditSvc,
	}
}

// HandleCommit обрабатывает POST /api/v1/commit.
//
// Версионированный optimistic commit: baseVersion 0 создаёт ресурс, иначе
// изменения применяются только при совпадении версии. При несовпадении
// возвращается 409 с текущим состоянием сервера и списком конфликтующих
// полей; на сервере ничего не записывается.
func (h *CommitHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
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

	var req api.CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Failed to decode commit request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ref := models.ResourceRef{
		SiteID:     req.SiteID,
		Kind:       models.ResourceKind(req.Kind),
		ResourceID: req.ResourceID,
	}

	if err := validateCommit(&req, ref); err != nil {
		h.logger.Warn("Commit validation failed", "ref", ref, "error", err)
		metrics.CommitsTotal.WithLabelValues("validation").Inc()
		writeError(w, h.logger, http.StatusUnprocessableEntity, "validation failed", err.Error())
		return
	}

	action := permissions.ActionUpdate
	auditAction := models.ActionUpdate
	if req.BaseVersion == 0 {
		action = permissions.ActionCreate
		auditAction = models.ActionCreate
	}

	if err := permissions.Check(actor, ref, action); err != nil {
		h.logger.Warn("Commit denied", "ref", ref, "actor", actor.UserID, "error", err)
		metrics.CommitsTotal.WithLabelValues("permission").Inc()
		writeError(w, h.logger, http.StatusForbidden, "permission denied", err.Error())
		return
	}

	// Снимок до изменения нужен для field-level diff в audit trail.
	var before map[string]any
	if prev, err := h.resources.Get(ctx, ref); err == nil {
		before = prev.Fields
	} else if !errors.Is(err, storage.ErrResourceNotFound) {
		h.logger.Error("Failed to load resource", "ref", ref, "error", err)
		metrics.CommitsTotal.WithLabelValues("error").Inc()
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rec, conflict, err := h.resources.Apply(ctx, ref, req.BaseVersion, req.Fields)
	if err != nil {
		if errors.Is(err, storage.ErrResourceNotFound) {
			metrics.CommitsTotal.WithLabelValues("not_found").Inc()
			writeError(w, h.logger, http.StatusNotFound, "resource not found", ref.Key())
			return
		}
		h.logger.Error("Failed to apply commit", "ref", ref, "error", err)
		metrics.CommitsTotal.WithLabelValues("error").Inc()
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if conflict != nil {
		h.logger.Info("Commit conflict",
			"ref", ref,
			"base_version", req.BaseVersion,
			"server_version", conflict.Version)
		metrics.CommitsTotal.WithLabelValues("conflict").Inc()
		writeJSON(w, h.logger, http.StatusConflict, api.ConflictBody{
			LocalChanges:      req.Fields,
			ServerChanges:     conflict.Fields,
			ConflictingFields: conflictingFields(req.Fields, conflict.Fields),
			ServerVersion:     conflict.Version,
		})
		return
	}

	entry := h.audit.Record(ctx, actor, auditAction, ref, before, rec.Fields, true, "")

	metrics.CommitsTotal.WithLabelValues("success").Inc()
	h.logger.Info("Commit applied",
		"ref", ref,
		"version", rec.Version,
		"actor", actor.UserID,
		"fields", len(req.Fields))

	writeJSON(w, h.logger, http.StatusOK, api.CommitResponse{
		Fields:  rec.Fields,
		Version: rec.Version,
		AuditID: entry.ID,
	})
}

// validateCommit проверяет обязательные поля запроса.
func validateCommit(req *api.CommitRequest, ref models.ResourceRef) error {
	switch {
	case req.SiteID == "":
		return &models.ValidationError{Field: "site_id", Reason: "required"}
	case !ref.Kind.IsValid():
		return &models.ValidationError{Field: "kind", Reason: "unknown resource kind"}
	case req.ResourceID == "":
		return &models.ValidationError{Field: "resource_id", Reason: "required"}
	case len(req.Fields) == 0:
		return &models.ValidationError{Field: "fields", Reason: "empty change set"}
	case req.BaseVersion < 0:
		return &models.ValidationError{Field: "base_version", Reason: "must be non-negative"}
	}
	return nil
}

// conflictingFields возвращает отправленные поля, чьё значение на сервере
// отличается от присланного. Отсортированы для детерминизма.
func conflictingFields(submitted, server map[string]any) []string {
	fields := make([]string, 0, len(submitted))
	for k, v := range submitted {
		if sv, ok := server[k]; !ok || !diff.Equal(v, sv) {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return fields
}
