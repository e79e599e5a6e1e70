package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abcdjack1/todolist/internal/models"
)

// legacyTimestampLayout is the reminder format older clients send.
const legacyTimestampLayout = "2006-01-02 15:04:05"

// Timestamp accepts RFC 3339 or the legacy "YYYY-MM-DD hh:mm:ss" form
// (read as UTC) and always writes RFC 3339.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}

	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}

// ParseTimestamp parses a reminder time in either accepted layout.
func ParseTimestamp(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	if parsed, err := time.ParseInLocation(legacyTimestampLayout, raw, time.UTC); err == nil {
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID           string            `json:"id"`
	Message      string            `json:"message"`
	Completed    models.TaskStatus `json:"completed"`
	Priority     models.Priority   `json:"priority"`
	Order        int               `json:"order"`
	ReminderTime *Timestamp        `json:"reminderTime,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// TaskResponse wraps a single task
type TaskResponse struct {
	Task TaskDTO `json:"task"`
}

// TaskListResponse wraps a list of tasks
type TaskListResponse struct {
	Tasks []TaskDTO `json:"tasks"`
}

// ReorderResponse reports the number of rewritten tasks
type ReorderResponse struct {
	Modified int64 `json:"modified"`
}

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	Message      string          `json:"message" binding:"required"`
	Priority     models.Priority `json:"priority" binding:"omitempty,oneof=Low Medium High"`
	ReminderTime *Timestamp      `json:"reminderTime"`
}

// UpdateTaskRequest is the body of PUT /tasks/:id. An absent or null
// reminderTime clears the stored reminder.
type UpdateTaskRequest struct {
	Message      string             `json:"message" binding:"required"`
	Completed    *models.TaskStatus `json:"completed" binding:"omitempty,oneof=N Y"`
	Priority     *models.Priority   `json:"priority" binding:"omitempty,oneof=Low Medium High"`
	Order        *int               `json:"order"`
	ReminderTime *Timestamp         `json:"reminderTime"`
}

// ReminderUpdate converts the optional field into an explicit update.
func (r UpdateTaskRequest) ReminderUpdate() models.ReminderUpdate {
	return models.ReminderFromOptional(r.ReminderTime.TimePtr())
}

// TimePtr returns nil for a nil or zero timestamp.
func (t *Timestamp) TimePtr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:        task.ID,
		Message:   task.Message,
		Completed: task.Completed,
		Priority:  task.Priority,
		Order:     task.Order,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}

	if task.ReminderTime != nil {
		dto.ReminderTime = &Timestamp{Time: *task.ReminderTime}
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks. The result is never nil so the JSON
// is always an array.
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

// ToModel converts a wire task back into the model (used by API clients).
func (d TaskDTO) ToModel() models.Task {
	task := models.Task{
		ID:        d.ID,
		Message:   d.Message,
		Completed: d.Completed,
		Priority:  d.Priority,
		Order:     d.Order,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	task.ReminderTime = d.ReminderTime.TimePtr()
	return task
}
