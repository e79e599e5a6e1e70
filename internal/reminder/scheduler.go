// Package reminder fires client-side notifications at a task's reminder
// time. It keeps at most one pending timer per task id.
package reminder

import (
	"errors"
	"sync"
	"time"

	"github.com/abcdjack1/todolist/internal/models"
)

var (
	ErrInvalidTriggerTime = errors.New("reminder: invalid trigger time")
	ErrStopped            = errors.New("reminder: scheduler stopped")
)

// Event is delivered when a reminder is due.
type Event struct {
	TaskID    string
	Message   string
	TriggerAt time.Time
}

type pending struct {
	event Event
	timer *time.Timer
}

// Scheduler holds one timer per task id.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*pending
	notify  func(Event)
	now     func() time.Time
	stopped bool
}

// NewScheduler creates a scheduler that calls notify from the timer
// goroutine when a reminder fires.
func NewScheduler(notify func(Event)) *Scheduler {
	return &Scheduler{
		pending: make(map[string]*pending),
		notify:  notify,
		now:     time.Now,
	}
}

// Schedule sets (or replaces) the reminder of one task. A trigger time in
// the past fires immediately.
func (s *Scheduler) Schedule(ev Event) error {
	if ev.TaskID == "" || ev.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}

	s.cancelLocked(ev.TaskID)

	wait := ev.TriggerAt.Sub(s.now())
	if wait < 0 {
		wait = 0
	}
	p := &pending{event: ev}
	p.timer = time.AfterFunc(wait, func() { s.fire(ev.TaskID, p) })
	s.pending[ev.TaskID] = p
	return nil
}

// Cancel drops the pending reminder of a task, if any.
func (s *Scheduler) Cancel(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(taskID)
}

// Sync rebuilds the pending set from a task snapshot: tasks that are done,
// gone, or without a future reminder lose their timer, and changed reminder
// times are rescheduled. Unchanged reminders keep their running timer.
func (s *Scheduler) Sync(tasks []models.Task) error {
	now := s.now()
	wanted := make(map[string]Event, len(tasks))
	for _, t := range tasks {
		if !t.HasPendingReminder(now) {
			continue
		}
		wanted[t.ID] = Event{TaskID: t.ID, Message: t.Message, TriggerAt: *t.ReminderTime}
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	for id, p := range s.pending {
		ev, ok := wanted[id]
		if !ok || !ev.TriggerAt.Equal(p.event.TriggerAt) {
			s.cancelLocked(id)
			continue
		}
		// Same time; keep the timer but pick up an edited message.
		p.event.Message = ev.Message
		delete(wanted, id)
	}
	s.mu.Unlock()

	for _, ev := range wanted {
		if err := s.Schedule(ev); err != nil {
			return err
		}
	}
	return nil
}

// Pending returns the task ids that still have a timer.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	return ids
}

// Stop cancels every pending timer. The scheduler cannot be reused.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	for id := range s.pending {
		s.cancelLocked(id)
	}
}

func (s *Scheduler) cancelLocked(taskID string) {
	p, ok := s.pending[taskID]
	if !ok {
		return
	}
	p.timer.Stop()
	delete(s.pending, taskID)
}

func (s *Scheduler) fire(taskID string, p *pending) {
	s.mu.Lock()
	// A replaced or cancelled timer may still run once; only the current
	// entry for the task is delivered.
	if current, ok := s.pending[taskID]; !ok || current != p {
		s.mu.Unlock()
		return
	}
	delete(s.pending, taskID)
	ev := p.event
	s.mu.Unlock()

	if s.notify != nil {
		s.notify(ev)
	}
}
