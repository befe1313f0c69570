package spapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWeekWindow(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
	}{
		{
			name:      "wednesday",
			now:       time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "cutoff lands on saturday",
			now:       time.Date(2024, 6, 18, 9, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "cutoff lands on sunday",
			now:       time.Date(2024, 6, 19, 0, 30, 0, 0, time.UTC),
			wantStart: time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "non utc input",
			now:       time.Date(2024, 6, 12, 23, 0, 0, 0, time.FixedZone("PDT", -7*3600)),
			wantStart: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "across year boundary",
			now:       time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 12, 22, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WeekWindow(tt.now)
			require.Equal(t, tt.wantStart, w.Start)
			require.Equal(t, time.Sunday, w.Start.Weekday())
			require.Equal(t, time.Saturday, w.End.Weekday())
			require.Equal(t, 7*24*time.Hour-time.Second, w.End.Sub(w.Start))
			require.False(t, w.End.After(tt.now.Add(-3*24*time.Hour)))
		})
	}
}

func TestWeekWindow_EveryHourOfAMonth(t *testing.T) {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	for now := start; now.Before(start.AddDate(0, 1, 0)); now = now.Add(time.Hour) {
		w := WeekWindow(now)
		if w.Start.Weekday() != time.Sunday || w.End.Weekday() != time.Saturday {
			t.Fatalf("misaligned window for %s: %s - %s", now, w.Start, w.End)
		}
		if w.End.After(now.Add(-3 * 24 * time.Hour)) {
			t.Fatalf("window end %s is within three days of %s", w.End, now)
		}
		if now.Sub(w.End) > 10*24*time.Hour+time.Second {
			t.Fatalf("window end %s is not the most recent complete week for %s", w.End, now)
		}
	}
}

func TestCapWindow(t *testing.T) {
	end := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)

	w := CapWindow(end.AddDate(0, 0, -30), end, 7*24*time.Hour)
	require.Equal(t, end.AddDate(0, 0, -7), w.Start)
	require.Equal(t, end, w.End)

	w = CapWindow(end.AddDate(0, 0, -3), end, 7*24*time.Hour)
	require.Equal(t, end.AddDate(0, 0, -3), w.Start)
}
