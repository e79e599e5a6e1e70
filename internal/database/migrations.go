package database

import (
	"fmt"

	"github.com/abcdjack1/todolist/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate creates the tasks table and its indexes.
func Migrate(db *gorm.DB, l *log.Logger) error {
	l.Info("Running database migrations...")
	if err := db.AutoMigrate(&models.Task{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := AddIndexes(db, l); err != nil {
		return err
	}

	l.Info("Database migrations completed")
	return nil
}

// AddIndexes makes sure the indexes behind the two list queries exist. They
// are declared on the model; this catches tables created before the tags.
func AddIndexes(db *gorm.DB, l *log.Logger) error {
	indexes := []string{
		"idx_tasks_completed_order",
		"idx_tasks_completed_updated",
	}

	migrator := db.Migrator()
	for _, name := range indexes {
		if migrator.HasIndex(&models.Task{}, name) {
			continue
		}

		if err := migrator.CreateIndex(&models.Task{}, name); err != nil {
			return fmt.Errorf("failed to create index %s: %w", name, err)
		}

		l.WithField("index", name).Info("Created index")
	}

	return nil
}
