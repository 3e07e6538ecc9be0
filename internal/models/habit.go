package models

import "time"

// Habit represents a recurring practice to track
type Habit struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
	Completions []Completion `json:"completions"`
}

// Completion records that a habit was performed on a calendar day
type Completion struct {
	Date      string     `json:"date"` // YYYY-MM-DD format
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// HasCompletion reports whether the habit has a completion recorded for day.
func (h Habit) HasCompletion(day string) bool {
	for _, c := range h.Completions {
		if c.Date == day {
			return true
		}
	}
	return false
}

// CompletionFor returns the completion recorded for day, if any.
func (h Habit) CompletionFor(day string) (Completion, bool) {
	for _, c := range h.Completions {
		if c.Date == day {
			return c, true
		}
	}
	return Completion{}, false
}

// HabitInput carries the user-editable fields of a habit.
// Nil fields are left untouched on update.
type HabitInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ToggleResult reports the state of a completion after a toggle
type ToggleResult struct {
	HabitID   string `json:"habit_id"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}
