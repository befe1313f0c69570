package service

import (
	"strings"
	"time"
)

// DateWindow is a start/end pair parsed from a "<start>--<end>" string
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// ParseWindow parses "<start>--<end>". It returns nil unless the string has
// exactly two parts and both are valid timestamps.
func ParseWindow(s string) *DateWindow {
	parts := strings.Split(strings.TrimSpace(s), "--")
	if len(parts) != 2 {
		return nil
	}
	start := parseTimestamp(parts[0])
	end := parseTimestamp(parts[1])
	if start == nil || end == nil {
		return nil
	}
	return &DateWindow{Start: *start, End: *end}
}

// Bounds returns the window as nullable columns
func (w *DateWindow) Bounds() (start, end *time.Time) {
	if w == nil {
		return nil, nil
	}
	s, e := w.Start, w.End
	return &s, &e
}
