package api

import "time"

// AuditEntry представляет одну запись audit trail в wire-формате
type AuditEntry struct {
	ID               string                    `json:"id"`
	ActorID          string                    `json:"actor_id"`
	ActorRole        string                    `json:"actor_role"`
	Action           string                    `json:"action"`
	SiteID           string                    `json:"site_id"`
	Kind             string                    `json:"kind"`
	ResourceID       string                    `json:"resource_id"`
	BeforeSnapshot   map[string]any            `json:"before_snapshot,omitempty"`
	AfterSnapshot    map[string]any            `json:"after_snapshot,omitempty"`
	FieldDiff        map[string]AuditFieldDiff `json:"field_diff,omitempty"`
	Success          bool                      `json:"success"`
	RollbackEligible bool                      `json:"rollback_eligible"`
	RolledBack       bool                      `json:"rolled_back"`
	Reason           string                    `json:"reason,omitempty"`
	Timestamp        time.Time                 `json:"timestamp"`
}

// AuditFieldDiff представляет изменение одного поля
type AuditFieldDiff struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// AuditQueryResponse представляет страницу результатов запроса audit trail
type AuditQueryResponse struct {
	Entries []AuditEntry `json:"entries"`
	Total   int          `json:"total"`
	HasMore bool         `json:"has_more"`
}

// AuditStatsResponse представляет агрегированную статистику audit trail
type AuditStatsResponse struct {
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	ByAction  map[string]int   `json:"by_action"`
	ByKind    map[string]int   `json:"by_kind"`
	BySite    map[string]int   `json:"by_site"`
	TopActors []AuditActorRank `json:"top_actors"`
}

// AuditActorRank представляет одну позицию в top-N активных акторов
type AuditActorRank struct {
	ActorID string `json:"actor_id"`
	Count   int    `json:"count"`
}

// RollbackRequest представляет запрос на откат одной audit-записи
type RollbackRequest struct {
	AuditID string `json:"audit_id"`
	Reason  string `json:"reason"`
}

// RollbackResponse представляет успешный ответ на откат
type RollbackResponse struct {
	CompensatingEntry AuditEntry `json:"compensating_entry"`
	Message           string     `json:"message,omitempty"`
}

// WindowExpiredBody представляет тело 410 ответа при истёкшем окне отката
type WindowExpiredBody struct {
	Error          string  `json:"error"`
	ElapsedMinutes float64 `json:"elapsed_minutes"`
	LimitMinutes   float64 `json:"limit_minutes"`
}
