package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus is the lifecycle state of a task. The values are the legacy
// wire encoding.
type TaskStatus string

const (
	TaskStatusNotDone TaskStatus = "N"
	TaskStatusDone    TaskStatus = "Y"
)

// IsValid reports whether s is one of the two lifecycle states.
func (s TaskStatus) IsValid() bool {
	return s == TaskStatusNotDone || s == TaskStatusDone
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Task is the only entity of the service. Order ranks NotDone tasks only;
// a Done task keeps its last order but is listed by UpdatedAt instead.
type Task struct {
	ID           string     `gorm:"primarykey;type:varchar(36)" json:"id"`
	Message      string     `gorm:"not null" json:"message"`
	Completed    TaskStatus `gorm:"type:varchar(1);not null;default:'N';index:idx_tasks_completed_order,priority:1;index:idx_tasks_completed_updated,priority:1" json:"completed"`
	Priority     Priority   `gorm:"type:varchar(10);not null;default:'Medium'" json:"priority"`
	Order        int        `gorm:"column:sort_order;not null;default:0;index:idx_tasks_completed_order,priority:2" json:"order"`
	ReminderTime *time.Time `json:"reminderTime,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"index:idx_tasks_completed_updated,priority:2" json:"updatedAt"`
}

// BeforeCreate assigns the task id. The store is the only writer of ids.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// IsDone reports whether the task has been completed.
func (t Task) IsDone() bool {
	return t.Completed == TaskStatusDone
}

// HasPendingReminder reports whether the task should still notify at some
// point after now.
func (t Task) HasPendingReminder(now time.Time) bool {
	return !t.IsDone() && t.ReminderTime != nil && t.ReminderTime.After(now)
}
