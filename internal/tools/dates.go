package tools

import (
	"strings"
	"time"
)

// dateTimeLayout is the single human-readable date format used across tool
// payloads and fallback synthesis, e.g. "Jan 5, 2025 at 3:30 PM".
const dateTimeLayout = "Jan 2, 2006 at 3:04 PM"

// ParseDateTime parses the assistant's date format. Parsing is advisory
// (it feeds defaults and display, not a transactional boundary), so
// malformed input yields ok=false rather than an error.
func ParseDateTime(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(dateTimeLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDateTime renders a time in the assistant's date format.
func FormatDateTime(t time.Time) string {
	return t.Format(dateTimeLayout)
}
