package repository

import (
	"context"

	"github.com/abcdjack1/todolist/internal/models"
)

// TaskRepository is the task store consumed by the service layer.
// Implementations translate every storage failure into the error taxonomy
// of internal/errors: a malformed id is a ValidationError, a missing record
// is a DataNotFoundError and anything else is a DatabaseError.
type TaskRepository interface {
	// ValidateID checks the id format without touching storage.
	ValidateID(id string) error

	// Create persists a new task and fills in its id and timestamps
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID
	FindByID(ctx context.Context, id string) (*models.Task, error)

	// UpdateByID applies patch and returns the stored task
	UpdateByID(ctx context.Context, id string, patch TaskPatch) (*models.Task, error)

	// SetCompleted marks the task Done; order is left as is
	SetCompleted(ctx context.Context, id string) (*models.Task, error)

	// DeleteByID physically removes the task and returns what was removed
	DeleteByID(ctx context.Context, id string) (*models.Task, error)

	// ListNotDone lists open tasks by order ascending
	ListNotDone(ctx context.Context) ([]models.Task, error)

	// ListDone lists completed tasks by updatedAt descending
	ListDone(ctx context.Context) ([]models.Task, error)

	// BulkSetOrder writes every pair as an independent per-task update.
	// Only NotDone tasks are matched. Pairs that match nothing are skipped
	// and show up as a short Matched count.
	BulkSetOrder(ctx context.Context, pairs []OrderPair) (BulkResult, error)

	// MaxOrderAmongNotDone returns the highest order of any open task.
	// found is false when there are no open tasks.
	MaxOrderAmongNotDone(ctx context.Context) (maxOrder int, found bool, err error)
}

// TaskPatch holds the fields an update may change. Nil pointers leave the
// stored value alone; Reminder carries its own keep/clear/set tag.
type TaskPatch struct {
	Message   *string
	Completed *models.TaskStatus
	Priority  *models.Priority
	Order     *int
	Reminder  models.ReminderUpdate
}

// IsEmpty reports whether applying the patch would change nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Message == nil && p.Completed == nil && p.Priority == nil &&
		p.Order == nil && p.Reminder.Op == models.ReminderKeep
}

// OrderPair repositions one task.
type OrderPair struct {
	ID    string `json:"id" binding:"required"`
	Order int    `json:"order"`
}

// BulkResult reports how many pairs found a task and how many of those
// actually changed a stored value.
type BulkResult struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}
