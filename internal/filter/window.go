package filter

import (
	"time"

	"github.com/tasktrack/tasktracker/internal/models"
)

// Deadline window names.
const (
	DeadlineOverdue   = "overdue"
	DeadlineToday     = "today"
	DeadlineThisWeek  = "this-week"
	DeadlineNextWeek  = "next-week"
	DeadlineThisMonth = "this-month"
)

// Deadlines lists the recognised window names.
var Deadlines = []string{
	DeadlineOverdue,
	DeadlineToday,
	DeadlineThisWeek,
	DeadlineNextWeek,
	DeadlineThisMonth,
}

// Window is a half-open interval [From, To) of end dates. An overdue window
// has no lower bound and also rejects completed tasks.
type Window struct {
	Name    string
	From    time.Time
	To      time.Time
	overdue bool
}

// Contains reports whether a task ending at end with the given status falls
// in the window.
func (w Window) Contains(end time.Time, status models.TaskStatus) bool {
	if w.overdue {
		return end.Before(w.To) && status != models.TaskStatusCompleted
	}
	return !end.Before(w.From) && end.Before(w.To)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WindowFor resolves a window name relative to now. The week runs through
// the coming Sunday; on a Sunday it runs through the following Sunday.
func WindowFor(name string, now time.Time) (Window, bool) {
	today := StartOfDay(now)

	switch name {
	case DeadlineOverdue:
		return Window{Name: name, To: today, overdue: true}, true
	case DeadlineToday:
		return Window{Name: name, From: today, To: today.AddDate(0, 0, 1)}, true
	case DeadlineThisWeek:
		return Window{Name: name, From: today, To: endOfWeek(today)}, true
	case DeadlineNextWeek:
		from := endOfWeek(today)
		return Window{Name: name, From: from, To: from.AddDate(0, 0, 7)}, true
	case DeadlineThisMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return Window{Name: name, From: first, To: first.AddDate(0, 1, 0)}, true
	default:
		return Window{}, false
	}
}

// endOfWeek is the exclusive bound of the current week: the midnight after
// the coming Sunday.
func endOfWeek(today time.Time) time.Time {
	return today.AddDate(0, 0, 7-int(today.Weekday())+1)
}
