package report

import (
	"strings"
	"time"
)

// Window is a reporting range expressed as "since now minus a duration"
type Window string

const (
	WindowDay   Window = "day"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
)

// IsValid checks if the window is a known value
func (w Window) IsValid() bool {
	switch w {
	case WindowDay, WindowWeek, WindowMonth, WindowYear:
		return true
	}
	return false
}

// ParseWindow parses a window name, ignoring case and surrounding spaces
func ParseWindow(s string) (Window, bool) {
	w := Window(strings.ToLower(strings.TrimSpace(s)))
	return w, w.IsValid()
}

// Since returns the start of the window ending at now.
// Month and year follow the calendar (AddDate), day and week are 24h multiples.
func (w Window) Since(now time.Time) time.Time {
	switch w {
	case WindowDay:
		return now.AddDate(0, 0, -1)
	case WindowWeek:
		return now.AddDate(0, 0, -7)
	case WindowMonth:
		return now.AddDate(0, -1, 0)
	case WindowYear:
		return now.AddDate(-1, 0, 0)
	}
	return now
}

// DayBounds returns [start of day, start of next day) for t in loc
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// MonthBounds returns [first day of month, first day of next month) for t in loc
func MonthBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}
