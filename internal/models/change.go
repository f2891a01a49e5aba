package models

import "time"

// AutosaveState is the state of one resource's autosave lifecycle.
type AutosaveState string

// Autosave states. Transitions:
// Clean --edit--> Dirty --debounce--> Saving --success--> Clean
// Saving --version conflict--> Conflict (auto-commits suspended)
// Saving --transient failure--> Dirty (retry scheduled)
// Saving --retry cap exceeded--> Error (change set pushed to offline queue)
const (
	StateClean    AutosaveState = "clean"
	StateDirty    AutosaveState = "dirty"
	StateSaving   AutosaveState = "saving"
	StateConflict AutosaveState = "conflict"
	StateError    AutosaveState = "error"
)

// ChangeSet accumulates not-yet-committed field edits for one resource.
// Принадлежит ровно одному буферу autosave; очищается после успешного
// коммита или явного discard.
type ChangeSet struct {
	Ref       ResourceRef    `json:"ref"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
}

// Clone returns a deep-enough copy of the change set (field map copied,
// values shared; callers treat values as immutable).
func (c *ChangeSet) Clone() *ChangeSet {
	fields := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		fields[k] = v
	}
	return &ChangeSet{
		Ref:       c.Ref,
		Fields:    fields,
		CreatedAt: c.CreatedAt,
	}
}

// IsEmpty reports whether the change set carries no field edits.
func (c *ChangeSet) IsEmpty() bool {
	return len(c.Fields) == 0
}

// QueuedChange is a commit that could not reach the backing store and is
// parked in the offline queue until connectivity returns.
type QueuedChange struct {
	ID          string         `json:"id"`
	Ref         ResourceRef    `json:"ref"`
	Payload     map[string]any `json:"payload"`
	BaseVersion int64          `json:"base_version"`
	EnqueuedAt  time.Time      `json:"enqueued_at"`
	RetryCount  int            `json:"retry_count"`
}

// ConflictResolution is the lifecycle state of a conflict record.
type ConflictResolution string

// Conflict record states.
const (
	ResolutionPending    ConflictResolution = "pending"
	ResolutionResolved   ConflictResolution = "resolved"
	ResolutionOverridden ConflictResolution = "overridden"
)

// ConflictRecord captures a server-detected version mismatch between local
// edits and the resource's current stored state. Created when the commit path
// reports a conflict; destroyed once the caller resolves it.
type ConflictRecord struct {
	Ref               ResourceRef        `json:"ref"`
	LocalChanges      map[string]any     `json:"local_changes"`
	ServerChanges     map[string]any     `json:"server_changes"`
	ConflictingFields []string           `json:"conflicting_fields"`
	ServerVersion     int64              `json:"server_version"`
	Resolution        ConflictResolution `json:"resolution"`
	DetectedAt        time.Time          `json:"detected_at"`
}

// Resolution is the caller's decision on how to resolve a conflict.
// Tagged variant: exactly one of the three modes.
type Resolution struct {
	mode    resolutionMode
	payload map[string]any
}

type resolutionMode int

const (
	resolutionLocal resolutionMode = iota
	resolutionServer
	resolutionMerge
)

// LocalWins re-submits the buffered local change set over the server state.
func LocalWins() Resolution {
	return Resolution{mode: resolutionLocal}
}

// ServerWins discards local edits and adopts the server values. The adopted
// payload is still committed so the audit diff is recorded.
func ServerWins() Resolution {
	return Resolution{mode: resolutionServer}
}

// Merge resolves the conflict with a caller-supplied merged payload.
func Merge(payload map[string]any) Resolution {
	return Resolution{mode: resolutionMerge, payload: payload}
}

// IsLocal reports whether the resolution keeps local edits.
func (r Resolution) IsLocal() bool { return r.mode == resolutionLocal }

// IsServer reports whether the resolution adopts server values.
func (r Resolution) IsServer() bool { return r.mode == resolutionServer }

// MergePayload returns the merged payload and true when the resolution is a
// merge; nil and false otherwise.
func (r Resolution) MergePayload() (map[string]any, bool) {
	if r.mode != resolutionMerge {
		return nil, false
	}
	return r.payload, true
}
