// Package diff computes field-level diffs between resource snapshots.
package diff

import (
	"encoding/json"

	"github.com/jtomassoni/mmb-sub000/internal/models"
)

// Compute returns the field-level diff between two snapshots: the union of
// keys present in before or after, where a key is included iff its
// serialized values differ.
//
// Equality is canonical-JSON equality: encoding/json marshals map keys in
// sorted order, so objects with reordered keys compare equal; array element
// order is significant.
func Compute(before, after map[string]any) map[string]models.FieldChange {
	result := make(map[string]models.FieldChange)

	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	for k := range keys {
		oldVal, hasOld := before[k]
		newVal, hasNew := after[k]

		if hasOld && hasNew && Equal(oldVal, newVal) {
			continue
		}
		result[k] = models.FieldChange{Old: oldVal, New: newVal}
	}

	return result
}

// Equal reports whether two values are equal under deep serialization.
// Значения, которые не сериализуются в JSON, считаются неравными.
func Equal(a, b any) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aj) == string(bj)
}

// Inverse extracts the inverse payload from a diff: the old value of every
// changed field. Applying the inverse payload to the after-state restores
// the before-state for the touched fields.
func Inverse(fieldDiff map[string]models.FieldChange) map[string]any {
	if len(fieldDiff) == 0 {
		return nil
	}
	inverse := make(map[string]any, len(fieldDiff))
	for k, change := range fieldDiff {
		inverse[k] = change.Old
	}
	return inverse
}
