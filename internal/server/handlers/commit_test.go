package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtomassoni/mmb-sub000/internal/audit"
	"github.com/jtomassoni/mmb-sub000/internal/clock"
	"github.com/jtomassoni/mmb-sub000/internal/models"
	"github.com/jtomassoni/mmb-sub000/internal/server/storage"
	"github.com/jtomassoni/mmb-sub000/pkg/api"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// withActor puts the authenticated actor into the request context the way
// AuthMiddleware does.
func withActor(r *http.Request, actor models.Actor) *http.Request {
	ctx := context.WithValue(r.Context(), UserIDKey, actor.UserID)
	ctx = context.WithValue(ctx, RoleKey, string(actor.Role))
	ctx = context.WithValue(ctx, SiteIDKey, actor.SiteID)
	return r.WithContext(ctx)
}

func commitRequest(t *testing.T, actor models.Actor, body api.CommitRequest) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/commit", bytes.NewReader(payload))
	return withActor(req, actor)
}

func newCommitFixture(resources *storage.ResourceStoreMock) (*CommitHandler, *storage.AuditStoreMock) {
	logger := setupTestLogger()
	auditStore := &storage.AuditStoreMock{
		InsertFunc: func(ctx context.Context, entry *models.AuditEntry) error {
			return nil
		},
	}
	clk := clock.NewVirtual(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	auditSvc := audit.NewService(auditStore, logger, clk)
	return NewCommitHandler(logger, resources, auditSvc), auditStore
}

func TestHandleCommit_Success(t *testing.T) {
	resources := &storage.ResourceStoreMock{
		GetFunc: func(ctx context.Context, ref models.ResourceRef) (*storage.Record, error) {
			return &storage.Record{
				Ref:     ref,
				Fields:  map[string]any{"title": "Trivia Night"},
				Version: 3,
			}, nil
		},
		ApplyFunc: func(ctx context.Context, ref models.ResourceRef, baseVersion int64, fields map[string]any) (*storage.Record, *storage.Record, error) {
			return &storage.Record{
				Ref:     ref,
				Fields:  map[string]any{"title": "Bingo Night"},
				Version: baseVersion + 1,
			}, nil, nil
		},
	}
	h, auditStore := newCommitFixture(resources)

	actor := models.Actor{UserID: "u1", Role: models.RoleManager, SiteID: "site-1"}
	req := commitRequest(t, actor, api.CommitRequest{
		SiteID:      "site-1",
		Kind:        "event",
		ResourceID:  "evt-1",
		Fields:      map[string]any{"title": "Bingo Night"},
		BaseVersion: 3,
	})
	w := httptest.NewRecorder()

	h.HandleCommit(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.CommitResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, int64(4), resp.Version)
	assert.Equal(t, "Bingo Night", resp.Fields["title"])
	assert.NotEmpty(t, resp.AuditID)

	// Каждый успешный коммит оставляет audit-запись.
	require.Len(t, auditStore.InsertCalls(), 1)
	entry := auditStore.InsertCalls()[0].Entry
	assert.Equal(t, models.ActionUpdate, entry.Action)
	assert.True(t, entry.RollbackEligible)
	assert.Equal(t, "Trivia Night", entry.InversePayload["title"])
}

func TestHandleCommit_CreateUsesBaseVersionZero(t *testing.T) {
	resources := &storage.ResourceStoreMock{
		GetFunc: func(ctx context.Context, ref models.ResourceRef) (*storage.Record, error) {
			return nil, storage.ErrResourceNotFound
		},
		ApplyFunc: func(ctx context.Context, ref models.ResourceRef, baseVersion int64, fields map[string]any) (*storage.Record, *storage.Record, error) {
			return &storage.Record{Ref: ref, Fields: fields, Version: 1}, nil, nil
		},
	}
	h, auditStore := newCommitFixture(resources)

	actor := models.Actor{UserID: "u1", Role: models.RoleManager, SiteID: "site-1"}
	req := commitRequest(t, actor, api.CommitRequest{
		SiteID:      "site-1",
		Kind:        "special",
		ResourceID:  "sp-1",
		Fields:      map[string]any{"name": "Fish Fry", "price": 12.99},
		BaseVersion: 0,
	})
	w := httptest.NewRecorder()

	h.HandleCommit(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, auditStore.InsertCalls(), 1)
	assert.Equal(t, models.ActionCreate, auditStore.InsertCalls()[0].Entry.Action)
}

func TestHandleCommit_Conflict(t *testing.T) {
	serverState := map[string]any{"title": "Karaoke Night", "location": "Main bar"}
	resources := &storage.ResourceStoreMock{
		GetFunc: func(ctx context.Context, ref models.ResourceRef) (*storage.Record, error) {
			return &storage.Record{Ref: ref, Fields: serverState, Version: 7}, nil
		},
		ApplyFunc: func(ctx context.Context, ref models.ResourceRef, baseVersion int64, fields map[string]any) (*storage.Record, *storage.Record, error) {
			return nil, &storage.Record{Ref: ref, Fields: serverState, Version: 7}, nil
		},
	}
	h, auditStore := newCommitFixture(resources)

	actor := models.Actor{UserID: "u1", Role: models.RoleManager, SiteID: "site-1"}
	req := commitRequest(t, actor, api.CommitRequest{
		SiteID:      "site-1",
		Kind:        "event",
		ResourceID:  "evt-1",
		Fields:      map[string]any{"title": "Bingo Night", "location": "Main bar"},
		BaseVersion: 5,
	})
	w := httptest.NewRecorder()

	h.HandleCommit(w, req)

	require.Equal(t, http.StatusConflict, w.Code)

	var body api.ConflictBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, int64(7), body.ServerVersion)
	assert.Equal(t, "Bingo Night", body.LocalChanges["title"])
	assert.Equal(t, "Karaoke Night", body.ServerChanges["title"])
	// location совпадает и потому не конфликтует.
	assert.Equal(t, []string{"title"}, body.ConflictingFields)

	// Конфликт ничего не записывает, в том числе в audit trail.
	assert.Empty(t, auditStore.InsertCalls())
}

func TestHandleCommit_Validation(t *testing.T) {
	h, _ := newCommitFixture(&storage.ResourceStoreMock{})
	actor := models.Actor{UserID: "u1", Role: models.RoleManager, SiteID: "site-1"}

	tests := []struct {
		name string
		body api.CommitRequest
	}{
		{
			name: "missing site_id",
			body: api.CommitRequest{Kind: "event", ResourceID: "evt-1", Fields: map[string]any{"a": 1}},
		},
		{
			name: "unknown kind",
			body: api.CommitRequest{SiteID: "site-1", Kind: "menu", ResourceID: "m-1", Fields: map[string]any{"a": 1}},
		},
		{
			name: "missing resource_id",
			body: api.CommitRequest{SiteID: "site-1", Kind: "event", Fields: map[string]any{"a": 1}},
		},
		{
			name: "empty fields",
			body: api.CommitRequest{SiteID: "site-1", Kind: "event", ResourceID: "evt-1"},
		},
		{
			name: "negative base version",
			body: api.CommitRequest{SiteID: "site-1", Kind: "event", ResourceID: "evt-1", Fields: map[string]any{"a": 1}, BaseVersion: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleCommit(w, commitRequest(t, actor, tt.body))
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}
}

func TestHandleCommit_PermissionDenied(t *testing.T) {
	h, auditStore := newCommitFixture(&storage.ResourceStoreMock{})

	tests := []struct {
		name  string
		actor models.Actor
	}{
		{
			name:  "staff cannot write",
			actor: models.Actor{UserID: "u2", Role: models.RoleStaff, SiteID: "site-1"},
		},
		{
			name:  "manager crossing sites",
			actor: models.Actor{UserID: "u3", Role: models.RoleManager, SiteID: "site-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleCommit(w, commitRequest(t, tt.actor, api.CommitRequest{
				SiteID:      "site-1",
				Kind:        "event",
				ResourceID:  "evt-1",
				Fields:      map[string]any{"title": "x"},
				BaseVersion: 1,
			}))
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
	assert.Empty(t, auditStore.InsertCalls())
}

func TestHandleCommit_NotFound(t *testing.T) {
	resources := &storage.ResourceStoreMock{
		GetFunc: func(ctx context.Context, ref models.ResourceRef) (*storage.Record, error) {
			return nil, storage.ErrResourceNotFound
		},
		ApplyFunc: func(ctx context.Context, ref models.ResourceRef, baseVersion int64, fields map[string]any) (*storage.Record, *storage.Record, error) {
			return nil, nil, storage.ErrResourceNotFound
		},
	}
	h, _ := newCommitFixture(resources)

	actor := models.Actor{UserID: "u1", Role: models.RoleManager, SiteID: "site-1"}
	w := httptest.NewRecorder()
	h.HandleCommit(w, commitRequest(t, actor, api.CommitRequest{
		SiteID:      "site-1",
		Kind:        "event",
		ResourceID:  "evt-gone",
		Fields:      map[string]any{"title": "x"},
		BaseVersion: 4,
	}))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleCommit_StorageError(t *testing.T) {
	resources := &storage.ResourceStoreMock{
		GetFunc: func(ctx context.Context, ref models.ResourceRef) (*storage.Record, error) {
			return nil, storage.ErrResourceNotFound
		},
		ApplyFunc: func(ctx context.Context, ref models.ResourceRef, baseVersion int64, fields map[string]any) (*storage.Record, *storage.Record, error) {
			return nil, nil, errors.New("database is locked")
		},
	}
	h, _ := newCommitFixture(resources)

	actor := models.Actor{UserID: "u1", Role: models.RoleManager, SiteID: "site-1"}
	w := httptest.NewRecorder()
	h.HandleCommit(w, commitRequest(t, actor, api.CommitRequest{
		SiteID:      "site-1",
		Kind:        "event",
		ResourceID:  "evt-1",
		Fields:      map[string]any{"title": "x"},
		BaseVersion: 1,
	}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleCommit_Unauthorized(t *testing.T) {
	h, _ := newCommitFixture(&storage.ResourceStoreMock{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/commit", bytes.NewReader([]byte("{}")))
	w := httptest.NewRecorder()
	h.HandleCommit(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleCommit_MethodNotAllowed(t *testing.T) {
	h, _ := newCommitFixture(&storage.ResourceStoreMock{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/commit", nil)
	req = withActor(req, models.Actor{UserID: "u1", Role: models.RoleManager, SiteID: "site-1"})
	w := httptest.NewRecorder()
	h.HandleCommit(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleCommit_InvalidBody(t *testing.T) {
	h, _ := newCommitFixture(&storage.ResourceStoreMock{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/commit", bytes.NewReader([]byte("{not json")))
	req = withActor(req, models.Actor{UserID: "u1", Role: models.RoleManager, SiteID: "site-1"})
	w := httptest.NewRecorder()
	h.HandleCommit(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConflictingFields(t *testing.T) {
	submitted := map[string]any{
		"title":    "Bingo Night",
		"location": "Main bar",
		"date":     "2026-09-05",
	}
	server := map[string]any{
		"title":    "Karaoke Night",
		"location": "Main bar",
	}

	got := conflictingFields(submitted, server)
	assert.Equal(t, []string{"date", "title"}, got)
}
