package database

import (
	"github.com/abcdjack1/todolist/internal/models"
	"gorm.io/gorm"
)

// NotDone restricts a query to open tasks in display order.
func NotDone(db *gorm.DB) *gorm.DB {
	return db.Where("completed = ?", models.TaskStatusNotDone).
		Order("sort_order ASC").
		Order("created_at ASC")
}

// Done restricts a query to completed tasks, most recently updated first.
func Done(db *gorm.DB) *gorm.DB {
	return db.Where("completed = ?", models.TaskStatusDone).
		Order("updated_at DESC")
}

// ByID selects a single task.
func ByID(id string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}
