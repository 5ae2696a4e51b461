package entities

import (
	"fmt"
	"time"
)

// TimeWindow is an inclusive pickup window with day granularity.
// A zero Start or End means the bound has not been filled in yet.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow creates a validated TimeWindow
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if start.IsZero() {
		return TimeWindow{}, fmt.Errorf("%w: start date cannot be empty", ErrInvalidWindow)
	}
	if end.IsZero() {
		return TimeWindow{}, fmt.Errorf("%w: end date cannot be empty", ErrInvalidWindow)
	}
	w := TimeWindow{Start: Day(start), End: Day(end)}
	if w.End.Before(w.Start) {
		return TimeWindow{}, fmt.Errorf("%w: end date %s is before start date %s",
			ErrInvalidWindow, w.End.Format(DateLayout), w.Start.Format(DateLayout))
	}
	return w, nil
}

// DateLayout is the layout used for dates in inputs, payloads and messages
const DateLayout = "2006-01-02"

// Day truncates t to midnight in its own location
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsComplete reports whether both bounds are filled in
func (w TimeWindow) IsComplete() bool {
	return !w.Start.IsZero() && !w.End.IsZero()
}

// Overlaps reports whether two complete windows share at least one day
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	if !w.IsComplete() || !other.IsComplete() {
		return false
	}
	return !Day(w.Start).After(Day(other.End)) && !Day(w.End).Before(Day(other.Start))
}

// Contains reports whether the day of t falls inside the window
func (w TimeWindow) Contains(t time.Time) bool {
	if !w.IsComplete() || t.IsZero() {
		return false
	}
	day := Day(t)
	return !day.Before(Day(w.Start)) && !day.After(Day(w.End))
}

// ContainsWindow reports whether other lies entirely inside w
func (w TimeWindow) ContainsWindow(other TimeWindow) bool {
	if !other.IsComplete() {
		return false
	}
	return w.Contains(other.Start) && w.Contains(other.End)
}

// Equal compares two windows by day
func (w TimeWindow) Equal(other TimeWindow) bool {
	return Day(w.Start).Equal(Day(other.Start)) && Day(w.End).Equal(Day(other.End))
}

// String renders the window as "start..end"
func (w TimeWindow) String() string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return "?"
		}
		return t.Format(DateLayout)
	}
	return format(w.Start) + ".." + format(w.End)
}

// MinStart returns the earliest start among the complete windows, or the zero time
func MinStart(windows ...TimeWindow) time.Time {
	var min time.Time
	for _, w := range windows {
		if !w.IsComplete() {
			continue
		}
		if min.IsZero() || w.Start.Before(min) {
			min = w.Start
		}
	}
	return min
}

// MaxEnd returns the latest end among the complete windows, or the zero time
func MaxEnd(windows ...TimeWindow) time.Time {
	var max time.Time
	for _, w := range windows {
		if !w.IsComplete() {
			continue
		}
		if max.IsZero() || w.End.After(max) {
			max = w.End
		}
	}
	return max
}
