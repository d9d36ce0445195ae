package repository

import (
	"fmt"

	"github.com/tasktrack/tasktracker/internal/config"
	"github.com/tasktrack/tasktracker/internal/database"
)

// Open returns the repositories for the configured store driver. Relational
// stores are connected and migrated first.
func Open(cfg *config.Config) (Set, error) {
	if cfg.StoreDriver == config.StoreFile {
		store, err := NewFileStore(cfg.DataDir)
		if err != nil {
			return Set{}, err
		}
		return store.Set(), nil
	}

	if err := database.Connect(cfg); err != nil {
		return Set{}, err
	}
	if err := database.Migrate(); err != nil {
		return Set{}, fmt.Errorf("failed to migrate: %w", err)
	}
	return NewGormSet(database.GetDB()), nil
}
