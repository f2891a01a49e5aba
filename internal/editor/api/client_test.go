package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtomassoni/mmb-sub000/internal/models"
	"github.com/jtomassoni/mmb-sub000/pkg/api"
)

func commitReq() api.CommitRequest {
	return api.CommitRequest{
		SiteID:      "site-1",
		Kind:        "event",
		ResourceID:  "evt-1",
		Fields:      map[string]any{"title": "Trivia Night"},
		BaseVersion: 3,
	}
}

func TestCommit_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/commit", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req api.CommitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "site-1", req.SiteID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.CommitResponse{
			Fields:  req.Fields,
			Version: req.BaseVersion + 1,
			AuditID: "audit-1",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	result, err := client.Commit(context.Background(), "test-token", commitReq())
	require.NoError(t, err)
	require.NotNil(t, result.Success)
	assert.Nil(t, result.Conflict)
	assert.Equal(t, int64(4), result.Success.Version)
	assert.Equal(t, "audit-1", result.Success.AuditID)
}

func TestCommit_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(api.ConflictBody{
			LocalChanges:      map[string]any{"title": "Trivia Night"},
			ServerChanges:     map[string]any{"title": "Karaoke Night"},
			ConflictingFields: []string{"title"},
			ServerVersion:     7,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	result, err := client.Commit(context.Background(), "test-token", commitReq())
	require.NoError(t, err)
	require.NotNil(t, result.Conflict)
	assert.Nil(t, result.Success)
	assert.Equal(t, int64(7), result.Conflict.ServerVersion)
	assert.Equal(t, []string{"title"}, result.Conflict.ConflictingFields)
}

func TestCommit_PermissionDenied(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		client := NewClient(srv.URL)
		_, err := client.Commit(context.Background(), "test-token", commitReq())
		require.Error(t, err)

		var permErr *models.PermissionError
		assert.ErrorAs(t, err, &permErr)
		assert.False(t, models.IsTransient(err))
		srv.Close()
	}
}

func TestCommit_ValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "validation failed"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Commit(context.Background(), "test-token", commitReq())
	require.Error(t, err)

	var valErr *models.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Reason, "validation failed")
}

func TestCommit_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Commit(context.Background(), "test-token", commitReq())
	require.Error(t, err)
	assert.True(t, models.IsTransient(err))
	assert.False(t, models.IsOffline(err))
}

func TestCommit_ConnectionRefusedIsOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // порт освобождён, соединение будет отклонено

	client := NewClient(srv.URL)
	_, err := client.Commit(context.Background(), "test-token", commitReq())
	require.Error(t, err)
	assert.True(t, models.IsOffline(err))
}

func TestCommit_TimeoutIsTransientNotOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Commit(ctx, "test-token", commitReq())
	require.Error(t, err)
	assert.True(t, models.IsTransient(err))
	assert.False(t, models.IsOffline(err))
}

func TestPing(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/health", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		assert.NoError(t, NewClient(srv.URL).Ping(context.Background()))
	})

	t.Run("unhealthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := NewClient(srv.URL).Ping(context.Background())
		require.Error(t, err)
		assert.True(t, models.IsTransient(err))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		err := NewClient(srv.URL).Ping(context.Background())
		require.Error(t, err)
		assert.True(t, models.IsOffline(err))
	})
}

func TestRollback_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/rollback", r.URL.Path)

		var req api.RollbackRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "audit-1", req.AuditID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.RollbackResponse{
			CompensatingEntry: api.AuditEntry{ID: "audit-2", Action: "rollback"},
			Message:           "change rolled back",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.Rollback(context.Background(), "test-token", api.RollbackRequest{
		AuditID: "audit-1",
		Reason:  "typo",
	})
	require.NoError(t, err)
	assert.Equal(t, "audit-2", resp.CompensatingEntry.ID)
}

func TestRollback_ErrorMapping(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).Rollback(context.Background(), "t", api.RollbackRequest{AuditID: "x"})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("forbidden", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).Rollback(context.Background(), "t", api.RollbackRequest{AuditID: "x"})
		var permErr *models.PermissionError
		assert.ErrorAs(t, err, &permErr)
	})

	t.Run("not rollbackable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(api.ErrorResponse{Error: "entry is not rollbackable"})
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).Rollback(context.Background(), "t", api.RollbackRequest{AuditID: "x"})
		assert.ErrorIs(t, err, models.ErrNotRollbackable)
	})

	t.Run("window expired", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusGone)
			json.NewEncoder(w).Encode(api.WindowExpiredBody{
				Error:          "rollback window expired",
				ElapsedMinutes: 25.5,
				LimitMinutes:   20,
			})
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).Rollback(context.Background(), "t", api.RollbackRequest{AuditID: "x"})
		require.Error(t, err)

		var winErr *models.WindowExpiredError
		require.ErrorAs(t, err, &winErr)
		assert.Equal(t, 25*time.Minute+30*time.Second, winErr.Elapsed)
		assert.Equal(t, 20*time.Minute, winErr.Limit)
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).Rollback(context.Background(), "t", api.RollbackRequest{AuditID: "x"})
		assert.True(t, models.IsTransient(err))
	})
}

func TestQueryAudit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/audit", r.URL.Path)
		assert.Equal(t, "site-1", r.URL.Query().Get("site_id"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.AuditQueryResponse{
			Entries: []api.AuditEntry{{ID: "audit-1", Action: "update"}},
			Total:   1,
		})
	}))
	defer srv.Close()

	params := url.Values{}
	params.Set("site_id", "site-1")
	params.Set("limit", "10")

	resp, err := NewClient(srv.URL).QueryAudit(context.Background(), "test-token", params)
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "audit-1", resp.Entries[0].ID)
	assert.Equal(t, 1, resp.Total)
}

func TestQueryAudit_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).QueryAudit(context.Background(), "t", url.Values{})
	var permErr *models.PermissionError
	assert.ErrorAs(t, err, &permErr)
}
