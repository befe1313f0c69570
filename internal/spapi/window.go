package spapi

import "time"

// Weekly data is not final until a few days after the week closes
const weeklyDataLag = 3 * 24 * time.Hour

// Window is a closed reporting interval in UTC
type Window struct {
	Start time.Time
	End   time.Time
}

// WeekWindow returns the most recent complete Sunday 00:00:00 to Saturday
// 23:59:59 UTC week whose end is at least three days before now.
func WeekWindow(now time.Time) Window {
	cutoff := now.UTC().Add(-weeklyDataLag)
	day := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)

	// Step back to the last Saturday strictly before the cutoff day, so the
	// week's final second can never pass the cutoff.
	back := (int(day.Weekday()) - int(time.Saturday) + 7) % 7
	if back == 0 {
		back = 7
	}
	saturday := day.AddDate(0, 0, -back)

	return Window{
		Start: saturday.AddDate(0, 0, -6),
		End:   saturday.Add(24*time.Hour - time.Second),
	}
}

// CapWindow keeps end and moves start forward so the window spans at most
// maxSpan. A reversed window is returned unchanged.
func CapWindow(start, end time.Time, maxSpan time.Duration) Window {
	start, end = start.UTC(), end.UTC()
	if maxSpan > 0 && end.Sub(start) > maxSpan {
		start = end.Add(-maxSpan)
	}
	return Window{Start: start, End: end}
}
