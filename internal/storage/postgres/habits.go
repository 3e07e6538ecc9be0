package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO habits (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)`,
		habit.ID, habit.Name, habit.Description, habit.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}
	for _, c := range habit.Completions {
		if err := insertCompletion(ctx, tx, habit.ID, c); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	var h models.Habit
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at FROM habits WHERE id = $1`, id).
		Scan(&h.ID, &h.Name, &h.Description, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, apperrors.NotFound("habit", id)
	}
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to get habit: %w", err)
	}

	h.Completions, err = s.GetCompletions(ctx, id)
	if err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func (s *Store) GetAllHabits(ctx context.Context) ([]models.Habit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at FROM habits ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	index := map[string]int{}
	for rows.Next() {
		var h models.Habit
		if err := rows.Scan(&h.ID, &h.Name, &h.Description, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.Completions = []models.Completion{}
		index[h.ID] = len(habits)
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := s.db.QueryContext(ctx, `
		SELECT habit_id, day, created_at FROM completions ORDER BY habit_id, day`)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var habitID string
		c, err := scanCompletion(crows, &habitID)
		if err != nil {
			return nil, err
		}
		if i, ok := index[habitID]; ok {
			habits[i].Completions = append(habits[i].Completions, c)
		}
	}
	return habits, crows.Err()
}

func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE habits SET name = $1, description = $2 WHERE id = $3`,
		habit.Name, habit.Description, habit.ID)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	return requireRow(result, habit.ID)
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	return requireRow(result, id)
}

func (s *Store) ToggleCompletion(ctx context.Context, habitID, day string, at time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback() //nolint:errcheck

	// Lock the habit row so concurrent toggles of the same habit serialize
	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM habits WHERE id = $1 FOR UPDATE`, habitID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, apperrors.NotFound("habit", habitID)
	}
	if err != nil {
		return false, err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM completions WHERE habit_id = $1 AND day = $2`, habitID, day)
	if err != nil {
		return false, fmt.Errorf("failed to remove completion: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	completed := removed == 0
	if completed {
		if err := insertCompletion(ctx, tx, habitID, models.Completion{Date: day, Timestamp: &at}); err != nil {
			return false, err
		}
	}
	return completed, tx.Commit()
}

func (s *Store) GetCompletions(ctx context.Context, habitID string) ([]models.Completion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT habit_id, day, created_at FROM completions WHERE habit_id = $1 ORDER BY day`, habitID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	completions := []models.Completion{}
	for rows.Next() {
		var id string
		c, err := scanCompletion(rows, &id)
		if err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

func insertCompletion(ctx context.Context, tx *sql.Tx, habitID string, c models.Completion) error {
	var createdAt sql.NullTime
	if c.Timestamp != nil {
		createdAt = sql.NullTime{Time: c.Timestamp.UTC(), Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO completions (habit_id, day, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (habit_id, day) DO NOTHING`,
		habitID, c.Date, createdAt)
	if err != nil {
		return fmt.Errorf("failed to add completion: %w", err)
	}
	return nil
}

func scanCompletion(rows *sql.Rows, habitID *string) (models.Completion, error) {
	var day time.Time
	var createdAt sql.NullTime
	if err := rows.Scan(habitID, &day, &createdAt); err != nil {
		return models.Completion{}, err
	}
	c := models.Completion{Date: day.Format(constants.DateFormat)}
	if createdAt.Valid {
		t := createdAt.Time
		c.Timestamp = &t
	}
	return c, nil
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("habit", id)
	}
	return nil
}
