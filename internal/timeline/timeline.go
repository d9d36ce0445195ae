// Package timeline lays tasks out on a one-month Gantt grid.
package timeline

import (
	"fmt"
	"time"

	"github.com/tasktrack/tasktracker/internal/models"
)

const monthLayout = "2006-01"

// Intervals lists the allowed column spacings in days.
var Intervals = []int{1, 2, 3, 5, 7}

// ValidInterval reports whether n is one of Intervals.
func ValidInterval(n int) bool {
	for _, v := range Intervals {
		if n == v {
			return true
		}
	}
	return false
}

// ParseMonth parses YYYY-MM into the first day of that month in loc.
func ParseMonth(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(monthLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: expected YYYY-MM", value)
	}
	return t, nil
}

// MonthDays returns midnight of every day in month's calendar month.
func MonthDays(month time.Time) []time.Time {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	next := first.AddDate(0, 1, 0)

	days := make([]time.Time, 0, 31)
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Columns returns every interval-th day of the month starting on the 1st.
// The last day of the month is always present.
func Columns(month time.Time, interval int) []time.Time {
	days := MonthDays(month)
	if interval <= 1 {
		return days
	}

	cols := make([]time.Time, 0, len(days)/interval+2)
	for i := 0; i < len(days); i += interval {
		cols = append(cols, days[i])
	}
	if last := days[len(days)-1]; !cols[len(cols)-1].Equal(last) {
		cols = append(cols, last)
	}
	return cols
}

// Placement is the horizontal geometry of one bar. Left and Width are
// percentages of the grid width.
type Placement struct {
	StartColumn int     `json:"startColumn"`
	EndColumn   int     `json:"endColumn"`
	Left        float64 `json:"left"`
	Width       float64 `json:"width"`
}

// Layout places a task spanning [start, end] on the columns. ok is false when
// the task does not overlap the grid. Each column covers its whole day.
func Layout(start, end time.Time, columns []time.Time) (Placement, bool) {
	n := len(columns)
	if n == 0 {
		return Placement{}, false
	}

	gridStart := columns[0]
	gridEnd := columns[n-1].AddDate(0, 0, 1)
	if end.Before(gridStart) || !start.Before(gridEnd) {
		return Placement{}, false
	}

	overlapStart := start
	if overlapStart.Before(gridStart) {
		overlapStart = gridStart
	}
	overlapEnd := end
	if !overlapEnd.Before(gridEnd) {
		overlapEnd = gridEnd.Add(-time.Nanosecond)
	}

	startCol := n - 1
	for i, day := range columns {
		if overlapStart.Before(day.AddDate(0, 0, 1)) {
			startCol = i
			break
		}
	}

	endCol := 0
	for i := n - 1; i >= 0; i-- {
		if !overlapEnd.Before(columns[i]) {
			endCol = i
			break
		}
	}
	// A short task can fall between two thinned columns.
	if endCol < startCol {
		endCol = startCol
	}

	colWidth := 100 / float64(n)
	width := float64(endCol-startCol+1) * colWidth
	if width < colWidth {
		width = colWidth
	}

	return Placement{
		StartColumn: startCol,
		EndColumn:   endCol,
		Left:        float64(startCol) * colWidth,
		Width:       width,
	}, true
}

// Column is one header cell of the grid.
type Column struct {
	Date string `json:"date"`
	Day  int    `json:"day"`
}

// Bar is a task drawn on the grid.
type Bar struct {
	Placement
	TaskID    string            `json:"taskId"`
	Title     string            `json:"title"`
	Status    models.TaskStatus `json:"status"`
	Priority  models.Priority   `json:"priority"`
	StartDate time.Time         `json:"startDate"`
	EndDate   time.Time         `json:"endDate"`
	Overdue   bool              `json:"overdue"`
}

// Row groups the bars of one owner.
type Row struct {
	OwnerID   string `json:"ownerId"`
	OwnerName string `json:"ownerName"`
	Bars      []Bar  `json:"bars"`
}

// Chart is a laid out month.
type Chart struct {
	Month    string   `json:"month"`
	Interval int      `json:"interval"`
	Columns  []Column `json:"columns"`
	Rows     []Row    `json:"rows"`
}

// Build lays out the tasks that overlap month. Rows follow the order in which
// owners first appear in tasks; tasks without both dates are skipped. A bar is
// overdue when its end is before now and it is not completed.
func Build(tasks []models.Task, month time.Time, interval int, now time.Time) Chart {
	if interval < 1 {
		interval = 1
	}
	cols := Columns(month, interval)

	chart := Chart{
		Month:    cols[0].Format(monthLayout),
		Interval: interval,
		Columns:  make([]Column, len(cols)),
		Rows:     []Row{},
	}
	for i, c := range cols {
		chart.Columns[i] = Column{Date: c.Format("2006-01-02"), Day: c.Day()}
	}

	rowIndex := make(map[string]int)
	for i := range tasks {
		t := &tasks[i]
		if t.StartDate == nil || t.EndDate == nil {
			continue
		}

		placement, ok := Layout(*t.StartDate, *t.EndDate, cols)
		if !ok {
			continue
		}

		idx, seen := rowIndex[t.OwnedByID]
		if !seen {
			idx = len(chart.Rows)
			rowIndex[t.OwnedByID] = idx
			chart.Rows = append(chart.Rows, Row{
				OwnerID:   t.OwnedByID,
				OwnerName: t.OwnedBy.Name,
				Bars:      []Bar{},
			})
		}

		chart.Rows[idx].Bars = append(chart.Rows[idx].Bars, Bar{
			Placement: placement,
			TaskID:    t.ID,
			Title:     t.Title,
			Status:    t.Status,
			Priority:  t.Priority,
			StartDate: *t.StartDate,
			EndDate:   *t.EndDate,
			Overdue:   t.EndDate.Before(now) && t.Status != models.TaskStatusCompleted,
		})
	}

	return chart
}
