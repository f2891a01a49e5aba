package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jtomassoni/mmb-sub000/internal/models"
	"github.com/jtomassoni/mmb-sub000/internal/server/storage"
)

// Insert appends one audit entry
func (s *Storage) Insert(ctx context.Context, entry *models.AuditEntry) error {
	before, err := marshalNullable(entry.BeforeSnapshot)
	if err != nil {
		return err
	}
	after, err := marshalNullable(entry.AfterSnapshot)
	if err != nil {
		return err
	}
	fieldDiff, err := marshalNullable(entry.FieldDiff)
	if err != nil {
		return err
	}
	inverse, err := marshalNullable(entry.InversePayload)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_log (
			id, actor_id, actor_role, actor_site_id, action,
			site_id, kind, resource_id,
			before_snapshot, after_snapshot, field_diff, inverse_payload,
			success, rollback_eligible, rolled_back, reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Actor.UserID,
		entry.Actor.Role,
		entry.Actor.SiteID,
		entry.Action,
		entry.Ref.SiteID,
		entry.Ref.Kind,
		entry.Ref.ResourceID,
		before,
		after,
		fieldDiff,
		inverse,
		boolToInt(entry.Success),
		boolToInt(entry.RollbackEligible),
		boolToInt(entry.RolledBack),
		entry.Reason,
		entry.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

// GetByID returns one audit entry
// Returns ErrEntryNotFound if the entry doesn't exist
func (s *Storage) GetByID(ctx context.Context, id string) (*models.AuditEntry, error) {
	query := auditSelect + ` WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)
	entry, err := scanAuditEntry(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}

	return entry, nil
}

// Query returns a filtered, ordered, paginated page of the audit trail
func (s *Storage) Query(ctx context.Context, filter models.AuditFilter) (*models.AuditPage, error) {
	where, args := buildAuditWhere(filter)

	// Полное количество для пагинации.
	var total int
	countQuery := `SELECT COUNT(*) FROM audit_log` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count audit entries: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	orderColumn := "created_at"
	if filter.OrderBy == "action" {
		orderColumn = "action"
	}
	direction := "ASC"
	if filter.OrderDesc {
		direction = "DESC"
	}

	query := auditSelect + where +
		fmt.Sprintf(" ORDER BY %s %s, id %s LIMIT ? OFFSET ?", orderColumn, direction, direction)
	queryArgs := append(append([]any{}, args...), limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []*models.AuditEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return &models.AuditPage{
		Entries: entries,
		Total:   total,
		HasMore: filter.Offset+len(entries) < total,
	}, nil
}

// Stats aggregates audit activity matching the filter
func (s *Storage) Stats(ctx context.Context, filter models.AuditFilter) (*models.AuditStats, error) {
	where, args := buildAuditWhere(filter)

	stats := &models.AuditStats{
		ByAction: make(map[models.AuditAction]int),
		ByKind:   make(map[models.ResourceKind]int),
		BySite:   make(map[string]int),
	}

	// Итог + success/error.
	totalsQuery := `
		SELECT COUNT(*),
		       COALESCE(SUM(success), 0)
		FROM audit_log` + where
	if err := s.db.QueryRowContext(ctx, totalsQuery, args...).Scan(&stats.Total, &stats.Succeeded); err != nil {
		return nil, fmt.Errorf("failed to aggregate totals: %w", err)
	}
	stats.Failed = stats.Total - stats.Succeeded

	groupings := []struct {
		column string
		assign func(key string, count int)
	}{
		{"action", func(k string, c int) { stats.ByAction[models.AuditAction(k)] = c }},
		{"kind", func(k string, c int) { stats.ByKind[models.ResourceKind(k)] = c }},
		{"site_id", func(k string, c int) { stats.BySite[k] = c }},
	}

	for _, g := range groupings {
		query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM audit_log%s GROUP BY %s`, g.column, where, g.column)
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate by %s: %w", g.column, err)
		}
		for rows.Next() {
			var key string
			var count int
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan aggregate: %w", err)
			}
			g.assign(key, count)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("rows iteration error: %w", err)
		}
		rows.Close()
	}

	// Top-10 акторов по количеству записей.
	topQuery := `
		SELECT actor_id, COUNT(*) AS cnt
		FROM audit_log` + where + `
		GROUP BY actor_id
		ORDER BY cnt DESC, actor_id ASC
		LIMIT 10`
	rows, err := s.db.QueryContext(ctx, topQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top actors: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var ac models.ActorCount
		if err := rows.Scan(&ac.ActorID, &ac.Count); err != nil {
			return nil, fmt.Errorf("failed to scan top actor: %w", err)
		}
		stats.TopActors = append(stats.TopActors, ac)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return stats, nil
}

// MarkRolledBack flags an entry as consumed by a rollback
// Returns ErrEntryNotFound if the entry doesn't exist
func (s *Storage) MarkRolledBack(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE audit_log SET rolled_back = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark entry rolled back: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrEntryNotFound
	}

	return nil
}

const auditSelect = `
	SELECT id, actor_id, actor_role, actor_site_id, action,
	       site_id, kind, resource_id,
	       before_snapshot, after_snapshot, field_diff, inverse_payload,
	       success, rollback_eligible, rolled_back, reason, created_at
	FROM audit_log`

// buildAuditWhere собирает WHERE-условие из фильтра
func buildAuditWhere(filter models.AuditFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.ActorID != "" {
		conds = append(conds, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.Role != "" {
		conds = append(conds, "actor_role = ?")
		args = append(args, filter.Role)
	}
	if filter.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.ResourceID != "" {
		conds = append(conds, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if filter.SiteID != "" {
		conds = append(conds, "site_id = ?")
		args = append(args, filter.SiteID)
	}
	if filter.Success != nil {
		conds = append(conds, "success = ?")
		args = append(args, boolToInt(*filter.Success))
	}
	if !filter.StartDate.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.StartDate.UnixMilli())
	}
	if !filter.EndDate.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, filter.EndDate.UnixMilli())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanAuditEntry reads one row using the auditSelect column order
func scanAuditEntry(scan func(dest ...any) error) (*models.AuditEntry, error) {
	entry := &models.AuditEntry{}
	var before, after, fieldDiff, inverse, reason sql.NullString
	var success, eligible, rolledBack int
	var createdAt int64

	err := scan(
		&entry.ID,
		&entry.Actor.UserID,
		&entry.Actor.Role,
		&entry.Actor.SiteID,
		&entry.Action,
		&entry.Ref.SiteID,
		&entry.Ref.Kind,
		&entry.Ref.ResourceID,
		&before,
		&after,
		&fieldDiff,
		&inverse,
		&success,
		&eligible,
		&rolledBack,
		&reason,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalNullable(before, &entry.BeforeSnapshot); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(after, &entry.AfterSnapshot); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(fieldDiff, &entry.FieldDiff); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(inverse, &entry.InversePayload); err != nil {
		return nil, err
	}

	entry.Success = intToBool(success)
	entry.RollbackEligible = intToBool(eligible)
	entry.RolledBack = intToBool(rolledBack)
	entry.Reason = reason.String
	entry.Timestamp = unixMilliToTime(createdAt)

	return entry, nil
}

func marshalNullable(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal audit field: %w", err)
	}
	// nil map сериализуется в "null" - храним как NULL.
	if string(data) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalNullable[T any](src sql.NullString, dst *T) error {
	if !src.Valid || src.String == "" || src.String == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(src.String), dst); err != nil {
		return fmt.Errorf("failed to unmarshal audit field: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}
