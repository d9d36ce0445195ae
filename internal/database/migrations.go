package database

import (
	"fmt"
	"strings"

	"github.com/tasktrack/tasktracker/internal/logging"
	"gorm.io/gorm"
)

// compositeIndexes are the multi-column indexes GORM tags cannot express.
var compositeIndexes = []struct {
	table   string
	name    string
	columns []string
}{
	// Visible-task listing filters on owner and sorts/filters on end date
	{"tasks", "idx_tasks_owned_by_end_date", []string{"owned_by_id", "end_date"}},
	// Gantt rows
	{"tasks", "idx_tasks_owned_by_start_date", []string{"owned_by_id", "start_date"}},
	// Comment threads are read in order
	{"comments", "idx_comments_task_created_at", []string{"task_id", "created_at"}},
	{"task_collaborators", "idx_task_collaborators_user_id", []string{"user_id"}},
}

// AddIndexes adds performance-critical indexes to the database. Existing
// indexes are skipped.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			logging.Logger.Debugf("index %s already exists, skipping", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, strings.Join(idx.columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		logging.Logger.Infof("created index %s on %s(%s)", idx.name, idx.table, strings.Join(idx.columns, ", "))
	}

	return nil
}
