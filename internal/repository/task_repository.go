package repository

import (
	"context"
	"errors"

	"github.com/abcdjack1/todolist/internal/database"
	apperrors "github.com/abcdjack1/todolist/internal/errors"
	"github.com/abcdjack1/todolist/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// ValidateID accepts canonical UUID strings only.
func (r *GormTaskRepository) ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return invalidIDError(id)
	}
	return nil
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return apperrors.Database(err, "failed to save task")
	}
	return nil
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	if err := r.ValidateID(id); err != nil {
		return nil, err
	}

	var task models.Task
	if err := r.db.WithContext(ctx).Scopes(database.ByID(id)).Take(&task).Error; err != nil {
		return nil, translateError(err, id)
	}
	return &task, nil
}

// UpdateByID loads the task and applies the patch inside one transaction.
func (r *GormTaskRepository) UpdateByID(ctx context.Context, id string, patch TaskPatch) (*models.Task, error) {
	return r.modify(ctx, id, patchColumns(patch))
}

// SetCompleted flips the status to Done
func (r *GormTaskRepository) SetCompleted(ctx context.Context, id string) (*models.Task, error) {
	return r.modify(ctx, id, map[string]any{"completed": models.TaskStatusDone})
}

// DeleteByID hard deletes a task
func (r *GormTaskRepository) DeleteByID(ctx context.Context, id string) (*models.Task, error) {
	if err := r.ValidateID(id); err != nil {
		return nil, err
	}

	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(database.ByID(id)).Take(&task).Error; err != nil {
			return err
		}
		return tx.Delete(&task).Error
	})
	if err != nil {
		return nil, translateError(err, id)
	}
	return &task, nil
}

// ListNotDone lists open tasks in display order
func (r *GormTaskRepository) ListNotDone(ctx context.Context) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := r.db.WithContext(ctx).Scopes(database.NotDone).Find(&tasks).Error; err != nil {
		return nil, apperrors.Database(err, "failed to list to-do tasks")
	}
	return tasks, nil
}

// ListDone lists completed tasks, newest first
func (r *GormTaskRepository) ListDone(ctx context.Context) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := r.db.WithContext(ctx).Scopes(database.Done).Find(&tasks).Error; err != nil {
		return nil, apperrors.Database(err, "failed to list completed tasks")
	}
	return tasks, nil
}

// BulkSetOrder runs one update per pair in a single transaction. A driver
// error rolls every pair back; pairs that match nothing do not.
func (r *GormTaskRepository) BulkSetOrder(ctx context.Context, pairs []OrderPair) (BulkResult, error) {
	var result BulkResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range pairs {
			res := tx.Model(&models.Task{}).
				Where("id = ? AND completed = ?", p.ID, models.TaskStatusNotDone).
				Update("sort_order", p.Order)
			if res.Error != nil {
				return res.Error
			}
			result.Matched += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return BulkResult{}, apperrors.Database(err, "failed to reorder tasks")
	}

	// Every matched row is rewritten (updated_at moves with it).
	result.Modified = result.Matched
	return result, nil
}

// MaxOrderAmongNotDone returns the largest order among open tasks
func (r *GormTaskRepository) MaxOrderAmongNotDone(ctx context.Context) (int, bool, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Where("completed = ?", models.TaskStatusNotDone).
		Order("sort_order DESC").
		Take(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperrors.Database(err, "failed to read max order")
	}
	return task.Order, true, nil
}

func (r *GormTaskRepository) modify(ctx context.Context, id string, columns map[string]any) (*models.Task, error) {
	if err := r.ValidateID(id); err != nil {
		return nil, err
	}

	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(database.ByID(id)).Take(&task).Error; err != nil {
			return err
		}
		if len(columns) == 0 {
			return nil
		}
		if err := tx.Model(&task).Updates(columns).Error; err != nil {
			return err
		}
		return tx.Scopes(database.ByID(id)).Take(&task).Error
	})
	if err != nil {
		return nil, translateError(err, id)
	}
	return &task, nil
}

// patchColumns turns a patch into a column map. A cleared reminder is an
// explicit NULL so the stored value is removed, not left stale.
func patchColumns(patch TaskPatch) map[string]any {
	columns := map[string]any{}
	if patch.Message != nil {
		columns["message"] = *patch.Message
	}
	if patch.Completed != nil {
		columns["completed"] = *patch.Completed
	}
	if patch.Priority != nil {
		columns["priority"] = *patch.Priority
	}
	if patch.Order != nil {
		columns["sort_order"] = *patch.Order
	}
	switch patch.Reminder.Op {
	case models.ReminderClear:
		columns["reminder_time"] = nil
	case models.ReminderSet:
		columns["reminder_time"] = patch.Reminder.Value
	}
	return columns
}

func translateError(err error, id string) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFoundError(id)
	default:
		return apperrors.Database(err, "task %s", id)
	}
}

func invalidIDError(id string) error {
	return apperrors.Validation("Task ID %s is not valid.", id)
}

func notFoundError(id string) error {
	return apperrors.DataNotFound("Task id %s not found", id)
}
