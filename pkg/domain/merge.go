package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a fresh entity identifier. UUIDs are used even for
// client-generated identifiers so offline creation cannot collide.
func NewID() string {
	return uuid.NewString()
}

// Merge overlays patch onto current with shallow JSON semantics: every key
// present in patch replaces the matching field of current, everything else
// is kept. The patch keys are the JSON field names.
func Merge[T any](current T, patch map[string]any) (T, error) {
	var zero T
	raw, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("merge marshal: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return zero, fmt.Errorf("merge unmarshal: %w", err)
	}
	for k, v := range patch {
		if v == nil {
			delete(fields, k)
			continue
		}
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("merge remarshal: %w", err)
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return zero, fmt.Errorf("merge apply: %w", err)
	}
	return out, nil
}

// WithID returns a copy of item with its identifier replaced.
func WithID[T any](item T, id string) (T, error) {
	return Merge(item, map[string]any{"id": id})
}
