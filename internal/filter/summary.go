package filter

import (
	"time"

	"github.com/tasktrack/tasktracker/internal/models"
)

// Summary holds the dashboard counters for a task list.
type Summary struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

// Summarize counts tasks by state. Overdue compares end dates to now itself,
// not to the start of today.
func Summarize(tasks []models.Task, now time.Time) Summary {
	s := Summary{Total: len(tasks)}
	for i := range tasks {
		t := &tasks[i]
		switch t.Status {
		case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusBlocked:
			s.Active++
		case models.TaskStatusCompleted:
			s.Completed++
		}
		if t.EndDate != nil && t.EndDate.Before(now) && t.Status != models.TaskStatusCompleted {
			s.Overdue++
		}
	}
	return s
}
