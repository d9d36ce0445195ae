// Package filter narrows a task list down to the rows a viewer asked for.
//
// Every active criterion must match (logical AND). Empty values and "all"
// leave a criterion inactive. Apply never mutates its input and preserves the
// relative order of the tasks it keeps, so filtering an already filtered list
// with the same criteria is a no-op.
package filter

import (
	"strings"
	"time"

	"github.com/tasktrack/tasktracker/internal/constants"
	"github.com/tasktrack/tasktracker/internal/models"
)

// Criteria is the declarative filter set sent by the task table.
type Criteria struct {
	Search   string
	Status   string
	Priority string
	Project  string
	Assignee string
	Tag      string
	Deadline string

	// ExcludeUndated makes an active deadline window drop tasks without an
	// end date. By default such tasks always pass the deadline criterion.
	ExcludeUndated bool
}

// ProjectLookup maps a task id to the display name of its project.
type ProjectLookup map[string]string

// IndexProjects builds a ProjectLookup from tasks with their Project loaded.
func IndexProjects(tasks []models.Task) ProjectLookup {
	lookup := make(ProjectLookup, len(tasks))
	for i := range tasks {
		if name := tasks[i].ProjectName(); name != "" {
			lookup[tasks[i].ID] = name
		}
	}
	return lookup
}

func active(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, constants.FilterAll)
}

// Active reports whether any criterion constrains the result.
func (c Criteria) Active() bool {
	return c.ActiveCount() > 0
}

// ActiveCount returns the number of constraining criteria.
func (c Criteria) ActiveCount() int {
	n := 0
	for _, v := range []string{c.Search, c.Status, c.Priority, c.Project, c.Assignee, c.Tag, c.Deadline} {
		if active(v) {
			n++
		}
	}
	return n
}

// Apply returns the tasks matching every active criterion, in input order.
// now anchors the deadline windows; its location defines calendar days.
func Apply(tasks []models.Task, c Criteria, projects ProjectLookup, now time.Time) []models.Task {
	out := make([]models.Task, 0, len(tasks))

	var window Window
	deadlineActive := active(c.Deadline)
	if deadlineActive {
		var ok bool
		window, ok = WindowFor(strings.TrimSpace(c.Deadline), now)
		if !ok {
			return out
		}
	}

	search := strings.ToLower(strings.TrimSpace(c.Search))

	for i := range tasks {
		t := &tasks[i]

		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		if active(c.Status) && string(t.Status) != strings.TrimSpace(c.Status) {
			continue
		}
		if active(c.Priority) && string(t.Priority) != strings.TrimSpace(c.Priority) {
			continue
		}
		if active(c.Project) && projects[t.ID] != strings.TrimSpace(c.Project) {
			continue
		}
		if active(c.Assignee) && !assignedTo(t, strings.TrimSpace(c.Assignee)) {
			continue
		}
		if active(c.Tag) && t.Tag != strings.TrimSpace(c.Tag) {
			continue
		}
		if deadlineActive {
			if t.EndDate == nil {
				if c.ExcludeUndated {
					continue
				}
			} else if !window.Contains(*t.EndDate, t.Status) {
				continue
			}
		}

		out = append(out, *t)
	}
	return out
}

func assignedTo(t *models.Task, name string) bool {
	if t.OwnedBy.Name != "" && t.OwnedBy.Name == name {
		return true
	}
	for _, c := range t.Collaborators {
		if c.User.Name != "" && c.User.Name == name {
			return true
		}
	}
	return false
}
