package models

import "fmt"

// ResourceKind тип контентного ресурса, редактируемого через autosave engine.
type ResourceKind string

// Kinds of editable site content.
const (
	KindEvent   ResourceKind = "event"
	KindSpecial ResourceKind = "special"
	KindHours   ResourceKind = "hours"
	KindProfile ResourceKind = "profile"
)

// rollbackAllowList contains resource kinds whose mutations may be rolled
// back. Kinds outside this list still get audit entries, but those entries
// are never rollback-eligible.
var rollbackAllowList = map[ResourceKind]bool{
	KindEvent:   true,
	KindSpecial: true,
	KindHours:   true,
	KindProfile: true,
}

// IsValid reports whether the kind is one of the known content kinds.
func (k ResourceKind) IsValid() bool {
	switch k {
	case KindEvent, KindSpecial, KindHours, KindProfile:
		return true
	}
	return false
}

// RollbackAllowed reports whether mutations of this kind may be rolled back.
func (k ResourceKind) RollbackAllowed() bool {
	return rollbackAllowList[k]
}

// ResourceRef uniquely identifies one editable resource within a tenant site.
type ResourceRef struct {
	SiteID     string       `json:"site_id"`
	Kind       ResourceKind `json:"kind"`
	ResourceID string       `json:"resource_id"`
}

// Key returns a stable string key for the resource.
// Используется как ключ в keyed arena и как префикс в offline queue.
func (r ResourceRef) Key() string {
	return fmt.Sprintf("%s/%s/%s", r.SiteID, r.Kind, r.ResourceID)
}

// String implements fmt.Stringer for log output.
func (r ResourceRef) String() string {
	return r.Key()
}
