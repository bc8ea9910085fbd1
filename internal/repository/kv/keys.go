package kv

import (
	"fmt"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

const (
	eggsPrefix     = "eggs-"
	tasksPrefix    = "tasks-"
	reminderPrefix = "sunday-reminder-"

	// ExpensesKey holds the whole expense ledger.
	ExpensesKey = "coop-expenses"
	// ChickensKey holds the whole flock roster.
	ChickensKey = "coop-chickens"
)

// EggsKey returns the key of a day's egg count.
func EggsKey(day models.DayKey) string {
	return eggsPrefix + string(day)
}

// TasksKey returns the key of a day's checklist.
func TasksKey(day models.DayKey) string {
	return tasksPrefix + string(day)
}

// ReminderKey returns the marker key of a day's weekly reminder.
func ReminderKey(day models.DayKey) string {
	return reminderPrefix + string(day)
}

// ValidateKey checks that key only uses lowercase letters, digits, '-', '_' and '.',
// which every backend can store verbatim (including as a file name).
func ValidateKey(key string) error {
	if key == "" || len(key) > 200 {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if key[0] == '.' {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
