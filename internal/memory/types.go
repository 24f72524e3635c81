// Package memory provides storage interfaces and implementations for the
// assistant's persistent memory: the facts, preferences, and context notes
// the model accumulates about the user across conversations.
package memory

import "time"

// Importance bounds. Memories outside this range are clamped on write.
const (
	MinImportance     = 1
	MaxImportance     = 5
	DefaultImportance = 3
)

// DefaultCategory is assigned when a caller supplies no category.
const DefaultCategory = "general"

// Memory is a single persistent memory record.
type Memory struct {
	ID              string
	Content         string
	Category        string
	Importance      int
	SimilarityScore float32
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Ref identifies an existing memory either by its opaque ID or, when the
// caller does not know the ID, by exact content match. When both are set
// the ID is tried first and content is the fallback.
type Ref struct {
	ID      string
	Content string
}

// IsZero reports whether the ref identifies nothing at all.
func (r Ref) IsZero() bool {
	return r.ID == "" && r.Content == ""
}

// Changes describes a partial update to a memory. Nil fields are left
// untouched.
type Changes struct {
	Content    *string
	Category   *string
	Importance *int
}

// IsZero reports whether the change set would modify nothing.
func (c Changes) IsZero() bool {
	return c.Content == nil && c.Category == nil && c.Importance == nil
}

// clampImportance forces an importance value into the valid range,
// substituting the default for zero (unset).
func clampImportance(v int) int {
	if v == 0 {
		return DefaultImportance
	}
	if v < MinImportance {
		return MinImportance
	}
	if v > MaxImportance {
		return MaxImportance
	}
	return v
}
