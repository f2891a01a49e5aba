package models

import "time"

// RollbackWindow is the fixed duration after a mutation during which it may
// be reversed. Enforced authoritatively at rollback time; any client-facing
// countdown is advisory only.
const RollbackWindow = 20 * time.Minute

// AuditAction is the kind of mutation an audit entry records.
type AuditAction string

// Audit actions. Rollback entries are compensating records and are never
// themselves rollback-eligible.
const (
	ActionCreate   AuditAction = "create"
	ActionUpdate   AuditAction = "update"
	ActionDelete   AuditAction = "delete"
	ActionRollback AuditAction = "rollback"
)

// Mutating reports whether the action is one of create/update/delete.
// Только мутирующие действия могут быть откачены.
func (a AuditAction) Mutating() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// FieldChange holds the old and new value of one changed field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// AuditEntry records one committed mutation. Immutable once written.
type AuditEntry struct {
	ID               string                 `json:"id"`
	Actor            Actor                  `json:"actor"`
	Action           AuditAction            `json:"action"`
	Ref              ResourceRef            `json:"ref"`
	BeforeSnapshot   map[string]any         `json:"before_snapshot"`
	AfterSnapshot    map[string]any         `json:"after_snapshot"`
	FieldDiff        map[string]FieldChange `json:"field_diff"`
	InversePayload   map[string]any         `json:"inverse_payload,omitempty"`
	Success          bool                   `json:"success"`
	RollbackEligible bool                   `json:"rollback_eligible"`
	RolledBack       bool                   `json:"rolled_back"`
	Reason           string                 `json:"reason,omitempty"`
	Timestamp        time.Time              `json:"timestamp"`
}

// WithinRollbackWindow reports whether the entry is still inside the rollback
// window at the given instant.
func (e *AuditEntry) WithinRollbackWindow(now time.Time) bool {
	return now.Sub(e.Timestamp) <= RollbackWindow
}

// AuditFilter narrows audit trail queries. Zero values mean "no constraint".
type AuditFilter struct {
	ActorID    string
	Role       Role
	Action     AuditAction
	Kind       ResourceKind
	ResourceID string
	SiteID     string
	Success    *bool
	StartDate  time.Time
	EndDate    time.Time
	Limit      int
	Offset     int
	OrderBy    string // "timestamp" or "action"; default "timestamp"
	OrderDesc  bool
}

// AuditPage is one page of audit query results.
type AuditPage struct {
	Entries []*AuditEntry
	Total   int
	HasMore bool
}

// AuditStats aggregates audit activity for reporting.
type AuditStats struct {
	Total     int
	Succeeded int
	Failed    int
	ByAction  map[AuditAction]int
	ByKind    map[ResourceKind]int
	BySite    map[string]int
	TopActors []ActorCount
}

// ActorCount pairs an actor id with its entry count for top-N reporting.
type ActorCount struct {
	ActorID string
	Count   int
}
