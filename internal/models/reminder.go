package models

import "time"

// ReminderOp says what an update does with the stored reminder time.
type ReminderOp int

const (
	ReminderKeep ReminderOp = iota
	ReminderClear
	ReminderSet
)

// ReminderUpdate is a tagged change to Task.ReminderTime. The zero value
// leaves the stored reminder untouched.
type ReminderUpdate struct {
	Op    ReminderOp
	Value time.Time
}

func KeepReminder() ReminderUpdate {
	return ReminderUpdate{Op: ReminderKeep}
}

func ClearReminder() ReminderUpdate {
	return ReminderUpdate{Op: ReminderClear}
}

func SetReminder(at time.Time) ReminderUpdate {
	return ReminderUpdate{Op: ReminderSet, Value: at}
}

// ReminderFromOptional maps a payload field to an update: a missing value
// clears the reminder.
func ReminderFromOptional(at *time.Time) ReminderUpdate {
	if at == nil {
		return ClearReminder()
	}
	return SetReminder(*at)
}
