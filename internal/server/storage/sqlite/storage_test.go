package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtomassoni/mmb-sub000/internal/models"
	"github.com/jtomassoni/mmb-sub000/internal/server/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func eventRef(id string) models.ResourceRef {
	return models.ResourceRef{SiteID: "site-1", Kind: models.KindEvent, ResourceID: id}
}

func TestApply_CreateWithBaseVersionZero(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	ref := eventRef("evt-1")

	fields := map[string]any{"title": "Trivia Night", "published": true}
	rec, conflict, err := s.Apply(ctx, ref, 0, fields)
	require.NoError(t, err)
	require.Nil(t, conflict)
	assert.Equal(t, int64(1), rec.Version)
	assert.Equal(t, "Trivia Night", rec.Fields["title"])

	got, err := s.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, "Trivia Night", got.Fields["title"])
	assert.Equal(t, true, got.Fields["published"])
}

func TestApply_CreateOnMissingResourceRequiresZeroBase(t *testing.T) {
	s := newTestStorage(t)

	_, _, err := s.Apply(context.Background(), eventRef("evt-gone"), 3, map[string]any{"title": "x"})
	assert.ErrorIs(t, err, storage.ErrResourceNotFound)
}

func TestApply_UpdateMergesFields(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	ref := eventRef("evt-1")

	_, _, err := s.Apply(ctx, ref, 0, map[string]any{
		"title":    "Trivia Night",
		"location": "Main bar",
	})
	require.NoError(t, err)

	rec, conflict, err := s.Apply(ctx, ref, 1, map[string]any{"title": "Bingo Night"})
	require.NoError(t, err)
	require.Nil(t, conflict)

	// Field-by-field merge: нетронутые поля сохраняются.
	assert.Equal(t, int64(2), rec.Version)
	assert.Equal(t, "Bingo Night", rec.Fields["title"])
	assert.Equal(t, "Main bar", rec.Fields["location"])
}

func TestApply_VersionMismatchReturnsConflict(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	ref := eventRef("evt-1")

	_, _, err := s.Apply(ctx, ref, 0, map[string]any{"title": "Trivia Night"})
	require.NoError(t, err)
	_, _, err = s.Apply(ctx, ref, 1, map[string]any{"title": "Karaoke Night"})
	require.NoError(t, err)

	// Коммит от устаревшей версии.
	rec, conflict, err := s.Apply(ctx, ref, 1, map[string]any{"title": "Bingo Night"})
	require.NoError(t, err)
	assert.Nil(t, rec)
	require.NotNil(t, conflict)
	assert.Equal(t, int64(2), conflict.Version)
	assert.Equal(t, "Karaoke Night", conflict.Fields["title"])

	// На сервере ничего не записано.
	got, err := s.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, "Karaoke Night", got.Fields["title"])
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Get(context.Background(), eventRef("missing"))
	assert.ErrorIs(t, err, storage.ErrResourceNotFound)
}

func TestRestore_MergesWithoutVersionGate(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	ref := eventRef("evt-1")

	_, _, err := s.Apply(ctx, ref, 0, map[string]any{
		"title":    "Trivia Night",
		"location": "Main bar",
	})
	require.NoError(t, err)
	_, _, err = s.Apply(ctx, ref, 1, map[string]any{"title": "Bingo Night"})
	require.NoError(t, err)

	rec, err := s.Restore(ctx, ref, map[string]any{"title": "Trivia Night"})
	require.NoError(t, err)

	// Restore бампает версию и не требует совпадения base.
	assert.Equal(t, int64(3), rec.Version)
	assert.Equal(t, "Trivia Night", rec.Fields["title"])
	assert.Equal(t, "Main bar", rec.Fields["location"])
}

func TestRestore_NotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Restore(context.Background(), eventRef("missing"), map[string]any{"title": "x"})
	assert.ErrorIs(t, err, storage.ErrResourceNotFound)
}

func auditEntry(actorID, action, resourceID string, ts time.Time) *models.AuditEntry {
	return &models.AuditEntry{
		ID:             uuid.New().String(),
		Actor:          models.Actor{UserID: actorID, Role: models.RoleManager, SiteID: "site-1"},
		Action:         models.AuditAction(action),
		Ref:            eventRef(resourceID),
		BeforeSnapshot: map[string]any{"title": "old"},
		AfterSnapshot:  map[string]any{"title": "new"},
		FieldDiff: map[string]models.FieldChange{
			"title": {Old: "old", New: "new"},
		},
		InversePayload:   map[string]any{"title": "old"},
		Success:          true,
		RollbackEligible: true,
		Timestamp:        ts,
	}
}

func TestAudit_InsertAndGetByID(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	entry := auditEntry("u1", "update", "evt-1", time.Now().Truncate(time.Millisecond))
	entry.Reason = "menu fix"
	require.NoError(t, s.Insert(ctx, entry))

	got, err := s.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, entry.Actor, got.Actor)
	assert.Equal(t, models.ActionUpdate, got.Action)
	assert.Equal(t, entry.Ref, got.Ref)
	assert.Equal(t, map[string]any{"title": "old"}, got.BeforeSnapshot)
	assert.Equal(t, map[string]any{"title": "new"}, got.AfterSnapshot)
	assert.Equal(t, map[string]any{"title": "old"}, got.InversePayload)
	assert.Equal(t, "old", got.FieldDiff["title"].Old)
	assert.True(t, got.Success)
	assert.True(t, got.RollbackEligible)
	assert.False(t, got.RolledBack)
	assert.Equal(t, "menu fix", got.Reason)
	assert.Equal(t, entry.Timestamp.UnixMilli(), got.Timestamp.UnixMilli())
}

func TestAudit_GetByID_NotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrEntryNotFound)
}

func TestAudit_NilSnapshotsStoredAsNull(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	entry := auditEntry("u1", "create", "evt-1", time.Now())
	entry.BeforeSnapshot = nil
	entry.InversePayload = nil
	require.NoError(t, s.Insert(ctx, entry))

	got, err := s.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Nil(t, got.BeforeSnapshot)
	assert.Nil(t, got.InversePayload)
	assert.NotNil(t, got.AfterSnapshot)
}

func TestAudit_QueryFilterAndPagination(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		e := auditEntry("u1", "update", "evt-1", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.Insert(ctx, e))
	}
	other := auditEntry("u2", "create", "evt-2", base.Add(10*time.Minute))
	require.NoError(t, s.Insert(ctx, other))

	t.Run("filter by actor", func(t *testing.T) {
		page, err := s.Query(ctx, models.AuditFilter{ActorID: "u2"})
		require.NoError(t, err)
		require.Len(t, page.Entries, 1)
		assert.Equal(t, "u2", page.Entries[0].Actor.UserID)
		assert.Equal(t, 1, page.Total)
		assert.False(t, page.HasMore)
	})

	t.Run("filter by action", func(t *testing.T) {
		page, err := s.Query(ctx, models.AuditFilter{Action: models.ActionCreate})
		require.NoError(t, err)
		require.Len(t, page.Entries, 1)
	})

	t.Run("time range", func(t *testing.T) {
		page, err := s.Query(ctx, models.AuditFilter{
			StartDate: base.Add(1 * time.Minute),
			EndDate:   base.Add(3 * time.Minute),
		})
		require.NoError(t, err)
		assert.Len(t, page.Entries, 3)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := s.Query(ctx, models.AuditFilter{Limit: 4})
		require.NoError(t, err)
		assert.Len(t, page.Entries, 4)
		assert.Equal(t, 6, page.Total)
		assert.True(t, page.HasMore)

		rest, err := s.Query(ctx, models.AuditFilter{Limit: 4, Offset: 4})
		require.NoError(t, err)
		assert.Len(t, rest.Entries, 2)
		assert.False(t, rest.HasMore)
	})

	t.Run("order desc by timestamp", func(t *testing.T) {
		page, err := s.Query(ctx, models.AuditFilter{OrderDesc: true, Limit: 1})
		require.NoError(t, err)
		require.Len(t, page.Entries, 1)
		assert.Equal(t, "evt-2", page.Entries[0].Ref.ResourceID)
	})
}

func TestAudit_Stats(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Insert(ctx, auditEntry("u1", "update", "evt-1", base)))
	}
	failed := auditEntry("u2", "create", "evt-2", base)
	failed.Success = false
	require.NoError(t, s.Insert(ctx, failed))

	stats, err := s.Stats(ctx, models.AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 3, stats.ByAction[models.ActionUpdate])
	assert.Equal(t, 1, stats.ByAction[models.ActionCreate])
	assert.Equal(t, 4, stats.ByKind[models.KindEvent])
	assert.Equal(t, 4, stats.BySite["site-1"])

	require.NotEmpty(t, stats.TopActors)
	assert.Equal(t, "u1", stats.TopActors[0].ActorID)
	assert.Equal(t, 3, stats.TopActors[0].Count)
}

func TestAudit_MarkRolledBack(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	entry := auditEntry("u1", "update", "evt-1", time.Now())
	require.NoError(t, s.Insert(ctx, entry))

	require.NoError(t, s.MarkRolledBack(ctx, entry.ID))

	got, err := s.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, got.RolledBack)

	assert.ErrorIs(t, s.MarkRolledBack(ctx, "missing"), storage.ErrEntryNotFound)
}
