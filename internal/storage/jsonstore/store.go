// Package jsonstore keeps habits in a single JSON document of the form
// {"habits": [...]}, the layout used by data/habits.json files.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/habitual/internal/analyzer"
	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

type document struct {
	Habits []habitRecord `json:"habits"`
}

// habitRecord mirrors the on-disk shape. Timestamps stay strings so naive
// ISO values written by other tools still load.
type habitRecord struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	CreatedAt   string             `json:"created_at"`
	Completions []completionRecord `json:"completions"`
}

type completionRecord struct {
	Date      string `json:"date"`
	Timestamp string `json:"timestamp,omitempty"`
}

type Store struct {
	path string
	// loc resolves timestamps written without an offset
	loc *time.Location

	mu      sync.Mutex
	habits  []models.Habit
	loaded  bool
	corrupt bool
}

type Option func(*Store)

// WithLocation sets the reference location for naive timestamps. UTC is used
// otherwise.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewStore(path string, opts ...Option) *Store {
	s := &Store{path: path, loc: time.UTC}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decode parses a habits document. Timestamps without an offset are read in
// loc; unparseable ones decode as zero.
func Decode(data []byte, loc *time.Location) ([]models.Habit, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	habits := make([]models.Habit, 0, len(doc.Habits))
	for _, rec := range doc.Habits {
		h := models.Habit{
			ID:          rec.ID,
			Name:        rec.Name,
			Description: rec.Description,
			Completions: []models.Completion{},
		}
		if t, ok := analyzer.ParseTimestamp(rec.CreatedAt, loc); ok {
			h.CreatedAt = t
		}
		seen := map[string]bool{}
		for _, c := range rec.Completions {
			if seen[c.Date] {
				continue
			}
			seen[c.Date] = true
			completion := models.Completion{Date: c.Date}
			if t, ok := analyzer.ParseTimestamp(c.Timestamp, loc); ok {
				completion.Timestamp = &t
			}
			h.Completions = append(h.Completions, completion)
		}
		sortCompletions(h.Completions)
		habits = append(habits, h)
	}
	return habits, nil
}

func encode(habits []models.Habit) ([]byte, error) {
	doc := document{Habits: make([]habitRecord, 0, len(habits))}
	for _, h := range habits {
		rec := habitRecord{
			ID:          h.ID,
			Name:        h.Name,
			Description: h.Description,
			Completions: make([]completionRecord, 0, len(h.Completions)),
		}
		if !h.CreatedAt.IsZero() {
			rec.CreatedAt = h.CreatedAt.UTC().Format(constants.TimestampFormat)
		}
		for _, c := range h.Completions {
			cr := completionRecord{Date: c.Date}
			if c.Timestamp != nil {
				cr.Timestamp = c.Timestamp.UTC().Format(constants.TimestampFormat)
			}
			rec.Completions = append(rec.Completions, cr)
		}
		doc.Habits = append(doc.Habits, rec)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	info, err := os.Stat(s.path)
	if err == nil && info.Size() > 0 {
		return s.read()
	}
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	s.habits = []models.Habit{}
	s.loaded = true
	return s.write()
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return apperrors.ErrNotInitialized
	}
	return s.read()
}

// read loads the document. A malformed document reads as empty and blocks
// writes so it is never overwritten.
func (s *Store) read() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read habits file: %w", err)
	}

	habits, err := Decode(data, s.loc)
	if err != nil {
		logger.Warn("Habits file is not valid JSON, treating as empty", "path", s.path, "error", err)
		habits = []models.Habit{}
		s.corrupt = true
	}
	s.habits = habits
	s.loaded = true
	return nil
}

func (s *Store) write() error {
	if s.corrupt {
		return fmt.Errorf("refusing to overwrite malformed habits file %s", s.path)
	}
	data, err := encode(s.habits)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".habits-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write habits file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) Health(_ context.Context) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]string{"driver": "json", "status": "up"}
	if !s.loaded {
		stats["status"] = "down"
		stats["error"] = apperrors.ErrNotInitialized.Error()
	} else if s.corrupt {
		stats["status"] = "degraded"
		stats["message"] = "habits file is malformed and read-only"
	}
	return stats
}

func (s *Store) GetConfigPath() string {
	return s.path
}

func (s *Store) index(id string) int {
	for i, h := range s.habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) AddHabit(_ context.Context, habit models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(habit.ID) >= 0 {
		return fmt.Errorf("habit %q already exists", habit.ID)
	}
	habit.Completions = cloneCompletions(habit.Completions)
	sortCompletions(habit.Completions)
	s.habits = append(s.habits, habit)
	if err := s.write(); err != nil {
		s.habits = s.habits[:len(s.habits)-1]
		return err
	}
	return nil
}

func (s *Store) GetHabit(_ context.Context, id string) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return models.Habit{}, apperrors.NotFound("habit", id)
	}
	return cloneHabit(s.habits[i]), nil
}

func (s *Store) GetAllHabits(_ context.Context) ([]models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	habits := make([]models.Habit, 0, len(s.habits))
	for _, h := range s.habits {
		habits = append(habits, cloneHabit(h))
	}
	return habits, nil
}

func (s *Store) UpdateHabit(_ context.Context, habit models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(habit.ID)
	if i < 0 {
		return apperrors.NotFound("habit", habit.ID)
	}
	prev := s.habits[i]
	s.habits[i].Name = habit.Name
	s.habits[i].Description = habit.Description
	if err := s.write(); err != nil {
		s.habits[i] = prev
		return err
	}
	return nil
}

func (s *Store) DeleteHabit(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return apperrors.NotFound("habit", id)
	}
	prev := s.habits
	s.habits = append(append([]models.Habit{}, s.habits[:i]...), s.habits[i+1:]...)
	if err := s.write(); err != nil {
		s.habits = prev
		return err
	}
	return nil
}

func (s *Store) ToggleCompletion(_ context.Context, habitID, day string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(habitID)
	if i < 0 {
		return false, apperrors.NotFound("habit", habitID)
	}

	prev := s.habits[i].Completions
	kept := make([]models.Completion, 0, len(prev)+1)
	for _, c := range prev {
		if c.Date != day {
			kept = append(kept, c)
		}
	}
	completed := len(kept) == len(prev)
	if completed {
		stamp := at
		kept = append(kept, models.Completion{Date: day, Timestamp: &stamp})
		sortCompletions(kept)
	}

	s.habits[i].Completions = kept
	if err := s.write(); err != nil {
		s.habits[i].Completions = prev
		return false, err
	}
	return completed, nil
}

func (s *Store) GetCompletions(_ context.Context, habitID string) ([]models.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(habitID)
	if i < 0 {
		return nil, apperrors.NotFound("habit", habitID)
	}
	return cloneCompletions(s.habits[i].Completions), nil
}

func sortCompletions(completions []models.Completion) {
	sort.SliceStable(completions, func(i, j int) bool {
		return completions[i].Date < completions[j].Date
	})
}

func cloneHabit(h models.Habit) models.Habit {
	h.Completions = cloneCompletions(h.Completions)
	return h
}

func cloneCompletions(completions []models.Completion) []models.Completion {
	out := make([]models.Completion, len(completions))
	copy(out, completions)
	return out
}
