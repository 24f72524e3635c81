package tools

import (
	"fmt"
	"time"
)

// SynthesizeFallback produces a schema-conforming substitute input for a
// tool call whose real payload failed to parse, so the pipeline can proceed
// with a placeholder instead of aborting. It never fails: names without a
// known mapping (including the empty name) resolve to a generic note.
func SynthesizeFallback(toolName string) map[string]any {
	now := time.Now()

	switch toolName {
	case ToolAddCalendarEvent:
		return map[string]any{
			"title": "Untitled Event",
			"start": FormatDateTime(now),
			"end":   FormatDateTime(now.Add(time.Hour)),
			"notes": "Created with fallback values because the original tool input could not be parsed.",
		}
	case ToolAddReminder:
		return map[string]any{
			"title": "Untitled Reminder",
			"due":   FormatDateTime(now.Add(24 * time.Hour)),
			"notes": "Created with fallback values because the original tool input could not be parsed.",
		}
	case ToolAddMemory:
		return map[string]any{
			"content":    "A memory update was requested but its input could not be parsed.",
			"category":   "general",
			"importance": 1,
		}
	default:
		name := toolName
		if name == "" {
			name = "unknown tool"
		}
		return map[string]any{
			"note": fmt.Sprintf("Fallback input synthesized for %s.", name),
		}
	}
}
