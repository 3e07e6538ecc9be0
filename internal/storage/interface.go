package storage

import (
	"context"
	"time"

	"github.com/julianstephens/habitual/internal/models"
)

// Provider is the habit storage collaborator. Habits returned by GetHabit and
// GetAllHabits carry their completions ordered by date.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	Health(ctx context.Context) map[string]string

	// Habits
	AddHabit(ctx context.Context, habit models.Habit) error
	GetHabit(ctx context.Context, id string) (models.Habit, error)
	GetAllHabits(ctx context.Context) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, habit models.Habit) error
	DeleteHabit(ctx context.Context, id string) error

	// Completions
	// ToggleCompletion removes the completion for day if present, otherwise
	// records one stamped with at. It reports whether the day is now completed.
	ToggleCompletion(ctx context.Context, habitID, day string, at time.Time) (bool, error)
	GetCompletions(ctx context.Context, habitID string) ([]models.Completion, error)

	// Utils
	GetConfigPath() string
}
