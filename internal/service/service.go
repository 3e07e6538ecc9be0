// Package service is the habit business layer shared by the REST server,
// the CLI and the TUI. It validates input, derives "today" from its clock
// and delegates persistence to a storage.Provider.
package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/analyzer"
	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/insights"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

// StatsPolicy selects the completion-rate calculation used by Stats.
type StatsPolicy string

const (
	PolicyDefault StatsPolicy = "default"
	// PolicyLegacy uses the deprecated 30-day trailing window.
	PolicyLegacy StatsPolicy = "legacy"
)

// ParsePolicy maps a query value to a StatsPolicy. Empty selects the default.
func ParsePolicy(s string) (StatsPolicy, error) {
	switch StatsPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyDefault:
		return PolicyDefault, nil
	case PolicyLegacy:
		return PolicyLegacy, nil
	default:
		return "", apperrors.Invalid("unknown stats policy %q", s)
	}
}

type Service struct {
	store    storage.Provider
	analyzer *analyzer.Analyzer
	insights *insights.Builder
	now      func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithGenerator enables written insights.
func WithGenerator(gen insights.Generator) Option {
	return func(s *Service) { s.insights = insights.New(s.analyzer, gen) }
}

func New(store storage.Provider, loc *time.Location, opts ...Option) *Service {
	a := analyzer.New(loc)
	s := &Service{
		store:    store,
		analyzer: a,
		insights: insights.New(a, nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Analyzer() *analyzer.Analyzer {
	return s.analyzer
}

// Now returns the current instant from the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// Today returns the current calendar day in the reference location.
func (s *Service) Today() string {
	return s.analyzer.FormatDay(s.now())
}

func (s *Service) Store() storage.Provider {
	return s.store
}

func (s *Service) List(ctx context.Context) ([]models.Habit, error) {
	return s.store.GetAllHabits(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (models.Habit, error) {
	return s.store.GetHabit(ctx, id)
}

// Create validates input and stores a new habit stamped with the current time.
func (s *Service) Create(ctx context.Context, in models.HabitInput) (models.Habit, error) {
	if in.Name == nil {
		return models.Habit{}, apperrors.Invalid("name is required")
	}
	name, desc, err := validate(*in.Name, deref(in.Description))
	if err != nil {
		return models.Habit{}, err
	}

	habit := models.Habit{
		ID:          uuid.New().String(),
		Name:        name,
		Description: desc,
		CreatedAt:   s.now().In(s.analyzer.Location()),
		Completions: []models.Completion{},
	}
	if err := s.store.AddHabit(ctx, habit); err != nil {
		return models.Habit{}, err
	}
	logger.Info("Habit created", "id", habit.ID, "name", habit.Name)
	return habit, nil
}

// Update changes the fields present in in and leaves the rest untouched.
func (s *Service) Update(ctx context.Context, id string, in models.HabitInput) (models.Habit, error) {
	habit, err := s.store.GetHabit(ctx, id)
	if err != nil {
		return models.Habit{}, err
	}

	name, desc := habit.Name, habit.Description
	if in.Name != nil {
		name = *in.Name
	}
	if in.Description != nil {
		desc = *in.Description
	}
	habit.Name, habit.Description, err = validate(name, desc)
	if err != nil {
		return models.Habit{}, err
	}

	if err := s.store.UpdateHabit(ctx, habit); err != nil {
		return models.Habit{}, err
	}
	logger.Info("Habit updated", "id", id)
	return habit, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteHabit(ctx, id); err != nil {
		return err
	}
	logger.Info("Habit deleted", "id", id)
	return nil
}

// Toggle flips the completion of habit id on date. An empty date means
// today. Dates after today are rejected.
func (s *Service) Toggle(ctx context.Context, id, date string) (models.ToggleResult, error) {
	now := s.now()
	today := s.analyzer.FormatDay(now)
	date = strings.TrimSpace(date)
	if date == "" {
		date = today
	}
	if _, ok := analyzer.ParseDay(date); !ok {
		return models.ToggleResult{}, apperrors.Invalid("date %q must be YYYY-MM-DD", date)
	}
	if date > today {
		return models.ToggleResult{}, apperrors.Invalid("date %s is in the future", date)
	}

	completed, err := s.store.ToggleCompletion(ctx, id, date, now.In(s.analyzer.Location()))
	if err != nil {
		return models.ToggleResult{}, err
	}
	logger.Debug("Completion toggled", "id", id, "date", date, "completed", completed)
	return models.ToggleResult{HabitID: id, Date: date, Completed: completed}, nil
}

// HabitStats returns the stats of one habit.
func (s *Service) HabitStats(ctx context.Context, id string) (models.HabitStats, error) {
	habit, err := s.store.GetHabit(ctx, id)
	if err != nil {
		return models.HabitStats{}, err
	}
	return s.analyzer.Stats(habit, s.now()), nil
}

func (s *Service) Stats(ctx context.Context, policy StatsPolicy) (models.StatsReport, error) {
	habits, err := s.store.GetAllHabits(ctx)
	if err != nil {
		return models.StatsReport{}, err
	}
	if policy == "" {
		policy = PolicyDefault
	}

	now := s.now()
	report := models.StatsReport{
		TotalHabits: len(habits),
		Policy:      string(policy),
		HabitsData:  make([]models.HabitStats, 0, len(habits)),
	}
	for _, h := range habits {
		if policy == PolicyLegacy {
			report.HabitsData = append(report.HabitsData, s.analyzer.LegacyStats(h, now))
		} else {
			report.HabitsData = append(report.HabitsData, s.analyzer.Stats(h, now))
		}
	}
	return report, nil
}

// Calendar returns the last days entries of habit id ending today.
func (s *Service) Calendar(ctx context.Context, id string, days int) ([]models.CalendarDay, error) {
	if days < 1 || days > constants.MaxCalendarDays {
		return nil, apperrors.Invalid("days must be between 1 and %d", constants.MaxCalendarDays)
	}
	habit, err := s.store.GetHabit(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Calendar(habit.Completions, days, s.now()), nil
}

func (s *Service) Insights(ctx context.Context) (models.Insights, error) {
	habits, err := s.store.GetAllHabits(ctx)
	if err != nil {
		return models.Insights{}, err
	}
	return s.insights.Build(ctx, habits, s.now()), nil
}

// Import copies habits into the store, keeping their ids, creation times and
// completions. Habits whose id already exists are skipped.
func (s *Service) Import(ctx context.Context, habits []models.Habit) (imported, skipped int, err error) {
	for _, h := range habits {
		if _, err := s.store.GetHabit(ctx, h.ID); err == nil {
			skipped++
			continue
		}
		if h.ID == "" {
			h.ID = uuid.New().String()
		}
		if h.Name, h.Description, err = validate(h.Name, h.Description); err != nil {
			return imported, skipped, err
		}
		if h.CreatedAt.IsZero() {
			h.CreatedAt = s.earliest(h)
		}
		if err := s.store.AddHabit(ctx, h); err != nil {
			return imported, skipped, err
		}
		imported++
	}
	return imported, skipped, nil
}

// earliest falls back to the first valid completion day, then to now.
func (s *Service) earliest(h models.Habit) time.Time {
	var first time.Time
	for _, c := range h.Completions {
		if d, ok := analyzer.ParseDay(c.Date); ok && (first.IsZero() || d.Before(first)) {
			first = d
		}
	}
	if first.IsZero() {
		return s.now()
	}
	return time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, s.analyzer.Location())
}

func validate(name, desc string) (string, string, error) {
	name = strings.TrimSpace(name)
	desc = strings.TrimSpace(desc)
	if name == "" {
		return "", "", apperrors.Invalid("name must not be empty")
	}
	if utf8.RuneCountInString(name) > constants.MaxHabitNameLen {
		return "", "", apperrors.Invalid("name must be at most %d characters", constants.MaxHabitNameLen)
	}
	if utf8.RuneCountInString(desc) > constants.MaxHabitDescriptionLen {
		return "", "", apperrors.Invalid("description must be at most %d characters", constants.MaxHabitDescriptionLen)
	}
	return name, desc, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
