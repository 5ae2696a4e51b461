package entities

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func date(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
}

func TestNewTimeWindow(t *testing.T) {
	w, err := NewTimeWindow(date(time.March, 1).Add(15*time.Hour), date(time.March, 10))
	if err != nil {
		t.Fatalf("Expected valid window, got %v", err)
	}
	if !w.Start.Equal(date(time.March, 1)) {
		t.Errorf("Expected start truncated to the day, got %s", w.Start)
	}

	testCases := []struct {
		name        string
		start, end  time.Time
		expectError string
	}{
		{"empty start", time.Time{}, date(time.March, 1), "start date cannot be empty"},
		{"empty end", date(time.March, 1), time.Time{}, "end date cannot be empty"},
		{"end before start", date(time.March, 2), date(time.March, 1), "end date 2025-03-01 is before start date 2025-03-02"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTimeWindow(tc.start, tc.end)
			if !errors.Is(err, ErrInvalidWindow) {
				t.Fatalf("Expected ErrInvalidWindow, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.expectError) {
				t.Errorf("Expected error containing %q, got %q", tc.expectError, err.Error())
			}
		})
	}
}

func TestTimeWindow_Overlaps(t *testing.T) {
	jan := TimeWindow{Start: date(time.January, 1), End: date(time.January, 10)}

	testCases := []struct {
		name  string
		other TimeWindow
		want  bool
	}{
		{"single shared day", TimeWindow{Start: date(time.January, 10), End: date(time.January, 20)}, true},
		{"contained", TimeWindow{Start: date(time.January, 3), End: date(time.January, 4)}, true},
		{"adjacent", TimeWindow{Start: date(time.January, 11), End: date(time.January, 20)}, false},
		{"before", TimeWindow{Start: date(time.December, 1).AddDate(-1, 0, 0), End: date(time.December, 31).AddDate(-1, 0, 0)}, false},
		{"incomplete", TimeWindow{Start: date(time.January, 5)}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := jan.Overlaps(tc.other); got != tc.want {
				t.Errorf("Expected overlap %v, got %v", tc.want, got)
			}
			if got := tc.other.Overlaps(jan); got != tc.want {
				t.Errorf("Expected symmetric overlap %v, got %v", tc.want, got)
			}
		})
	}
}

func TestTimeWindow_Contains(t *testing.T) {
	w := TimeWindow{Start: date(time.January, 1), End: date(time.January, 10)}

	if !w.Contains(date(time.January, 10).Add(23 * time.Hour)) {
		t.Error("Expected last day to be contained regardless of time of day")
	}
	if w.Contains(date(time.January, 11)) {
		t.Error("Expected day after end not to be contained")
	}
	if w.Contains(time.Time{}) {
		t.Error("Expected zero time not to be contained")
	}
	if !w.ContainsWindow(TimeWindow{Start: date(time.January, 2), End: date(time.January, 10)}) {
		t.Error("Expected inner window to be contained")
	}
	if w.ContainsWindow(TimeWindow{Start: date(time.January, 2), End: date(time.January, 11)}) {
		t.Error("Expected window crossing the end not to be contained")
	}
}

func TestMinStartMaxEnd(t *testing.T) {
	windows := []TimeWindow{
		{Start: date(time.February, 1), End: date(time.February, 5)},
		{Start: date(time.January, 20), End: date(time.January, 25)},
		{Start: date(time.January, 1)},
		{Start: date(time.February, 3), End: date(time.March, 1)},
	}
	if got := MinStart(windows...); !got.Equal(date(time.January, 20)) {
		t.Errorf("Expected min start 2025-01-20, got %s", got.Format(DateLayout))
	}
	if got := MaxEnd(windows...); !got.Equal(date(time.March, 1)) {
		t.Errorf("Expected max end 2025-03-01, got %s", got.Format(DateLayout))
	}
	if !MinStart().IsZero() || !MaxEnd().IsZero() {
		t.Error("Expected zero time for no windows")
	}
}
