package services

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "github.com/abcdjack1/todolist/internal/errors"
	"github.com/abcdjack1/todolist/internal/models"
	"github.com/abcdjack1/todolist/internal/repository"
)

// TaskService owns task ordering and the NotDone -> Done lifecycle. It
// validates identifiers before any store call and passes store errors
// through unchanged.
type TaskService struct {
	taskRepo repository.TaskRepository

	// createMu serializes the read-max-then-insert of Save within this
	// process.
	createMu sync.Mutex
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Message      string
	Priority     models.Priority
	ReminderTime *time.Time
}

// UpdateTaskInput represents input for updating a task. Nil fields are left
// unchanged; Reminder says explicitly whether to keep, clear or set it.
type UpdateTaskInput struct {
	Message   *string
	Completed *models.TaskStatus
	Priority  *models.Priority
	Order     *int
	Reminder  models.ReminderUpdate
}

// Save appends a new NotDone task at the end of the to-do list.
func (s *TaskService) Save(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, apperrors.Validation("Task message cannot be empty.")
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, apperrors.Validation("Priority %s is not valid.", priority)
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	order, err := s.nextOrder(ctx)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Message:      message,
		Completed:    models.TaskStatusNotDone,
		Priority:     priority,
		Order:        order,
		ReminderTime: input.ReminderTime,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// nextOrder is one past the current maximum, or 0 for an empty list.
func (s *TaskService) nextOrder(ctx context.Context) (int, error) {
	maxOrder, found, err := s.taskRepo.MaxOrderAmongNotDone(ctx)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return maxOrder + 1, nil
}

// GetTask returns a single task
func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	if err := s.taskRepo.ValidateID(id); err != nil {
		return nil, err
	}
	return s.taskRepo.FindByID(ctx, id)
}

// Update applies the input to an existing task. A completed task cannot be
// moved back to NotDone.
func (s *TaskService) Update(ctx context.Context, id string, input UpdateTaskInput) (*models.Task, error) {
	if err := s.taskRepo.ValidateID(id); err != nil {
		return nil, err
	}

	if input.Message != nil {
		message := strings.TrimSpace(*input.Message)
		if message == "" {
			return nil, apperrors.Validation("Task message cannot be empty.")
		}
		input.Message = &message
	}
	if input.Completed != nil && !input.Completed.IsValid() {
		return nil, apperrors.Validation("Completed status %s is not valid.", *input.Completed)
	}
	if input.Priority != nil && !input.Priority.IsValid() {
		return nil, apperrors.Validation("Priority %s is not valid.", *input.Priority)
	}

	if input.Completed != nil && *input.Completed == models.TaskStatusNotDone {
		current, err := s.taskRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.IsDone() {
			return nil, apperrors.Validation("Task %s is already done and cannot be reopened.", id)
		}
	}

	return s.taskRepo.UpdateByID(ctx, id, repository.TaskPatch{
		Message:   input.Message,
		Completed: input.Completed,
		Priority:  input.Priority,
		Order:     input.Order,
		Reminder:  input.Reminder,
	})
}

// CompleteByID marks a task Done. Its order is kept but no longer ranks it.
func (s *TaskService) CompleteByID(ctx context.Context, id string) (*models.Task, error) {
	if err := s.taskRepo.ValidateID(id); err != nil {
		return nil, err
	}
	return s.taskRepo.SetCompleted(ctx, id)
}

// DeleteByID removes a task. Remaining orders are not compacted.
func (s *TaskService) DeleteByID(ctx context.Context, id string) (*models.Task, error) {
	if err := s.taskRepo.ValidateID(id); err != nil {
		return nil, err
	}
	return s.taskRepo.DeleteByID(ctx, id)
}

// ListNotDone returns open tasks by order ascending
func (s *TaskService) ListNotDone(ctx context.Context) ([]models.Task, error) {
	return s.taskRepo.ListNotDone(ctx)
}

// ListDone returns completed tasks, most recently updated first
func (s *TaskService) ListDone(ctx context.Context) ([]models.Task, error) {
	return s.taskRepo.ListDone(ctx)
}

// Reorder rewrites the order of every listed task in one bulk write. If any
// pair matched no open task the whole call fails with DataNotFoundError,
// but the pairs that did match stay written; callers must re-read the
// to-do list after a failure.
func (s *TaskService) Reorder(ctx context.Context, pairs []repository.OrderPair) (repository.BulkResult, error) {
	if len(pairs) == 0 {
		return repository.BulkResult{}, apperrors.Validation("At least one order is required.")
	}
	if err := s.validatePairs(pairs); err != nil {
		return repository.BulkResult{}, err
	}

	result, err := s.taskRepo.BulkSetOrder(ctx, pairs)
	if err != nil {
		return repository.BulkResult{}, err
	}

	if result.Matched != int64(len(pairs)) {
		return result, apperrors.DataNotFound("Just matched %d data.", result.Matched)
	}
	return result, nil
}

// validatePairs rejects malformed ids and any id or order listed twice, so a
// successful reorder never leaves two listed tasks sharing a position.
func (s *TaskService) validatePairs(pairs []repository.OrderPair) error {
	ids := make(map[string]struct{}, len(pairs))
	orders := make(map[int]struct{}, len(pairs))
	for _, p := range pairs {
		if err := s.taskRepo.ValidateID(p.ID); err != nil {
			return err
		}
		if _, dup := ids[p.ID]; dup {
			return apperrors.Validation("Task ID %s is listed more than once.", p.ID)
		}
		if _, dup := orders[p.Order]; dup {
			return apperrors.Validation("Order %d is assigned more than once.", p.Order)
		}
		ids[p.ID] = struct{}{}
		orders[p.Order] = struct{}{}
	}
	return nil
}
