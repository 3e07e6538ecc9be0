package sqlite

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
		VALUES (?, ?, ?, ?)`,
		habit.ID, habit.Name, habit.Description, habit.CreatedAt.UTC().Format(constants.TimestampFormat))
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}

	for _, c := range habit.Completions {
		if err := s.insertCompletion(ctx, tx, habit.ID, c); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at FROM habits WHERE id = ?`, id)

	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, apperrors.NotFound("habit", id)
	}
	if err != nil {
		return models.Habit{}, err
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
		h, err := scanHabit(rows)
		if err != nil {
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
		UPDATE habits SET name = ?, description = ? WHERE id = ?`,
		habit.Name, habit.Description, habit.ID)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	return requireRow(result, habit.ID)
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM completions WHERE habit_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete completions: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if err := requireRow(result, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ToggleCompletion(ctx context.Context, habitID, day string, at time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT count(*) FROM habits WHERE id = ?`, habitID).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists == 0 {
		return false, apperrors.NotFound("habit", habitID)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM completions WHERE habit_id = ? AND day = ?`, habitID, day)
	if err != nil {
		return false, fmt.Errorf("failed to remove completion: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	completed := removed == 0
	if completed {
		c := models.Completion{Date: day, Timestamp: &at}
		if err := s.insertCompletion(ctx, tx, habitID, c); err != nil {
			return false, err
		}
	}
	return completed, tx.Commit()
}

func (s *Store) GetCompletions(ctx context.Context, habitID string) ([]models.Completion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT habit_id, day, created_at FROM completions WHERE habit_id = ? ORDER BY day`, habitID)
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

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertCompletion(ctx context.Context, db execer, habitID string, c models.Completion) error {
	var createdAt sql.NullString
	if c.Timestamp != nil {
		createdAt = sql.NullString{String: c.Timestamp.UTC().Format(constants.TimestampFormat), Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO completions (habit_id, day, created_at) VALUES (?, ?, ?)
		ON CONFLICT(habit_id, day) DO NOTHING`,
		habitID, c.Date, createdAt)
	if err != nil {
		return fmt.Errorf("failed to add completion: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var createdAt string
	if err := row.Scan(&h.ID, &h.Name, &h.Description, &createdAt); err != nil {
		return models.Habit{}, err
	}

	t, err := time.Parse(constants.TimestampFormat, createdAt)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at for habit %s: %w", h.ID, err)
	}
	h.CreatedAt = t
	return h, nil
}

func scanCompletion(row scanner, habitID *string) (models.Completion, error) {
	var c models.Completion
	var createdAt sql.NullString
	if err := row.Scan(habitID, &c.Date, &createdAt); err != nil {
		return models.Completion{}, err
	}
	if createdAt.Valid {
		t, err := time.Parse(constants.TimestampFormat, createdAt.String)
		if err != nil {
			return models.Completion{}, fmt.Errorf("failed to parse completion timestamp: %w", err)
		}
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
