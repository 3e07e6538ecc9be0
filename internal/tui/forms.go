package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/constants"
)

func newHabitForm(fm *HabitFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&fm.Name).
				CharLimit(constants.MaxHabitNameLen).
				Validate(validateName),
			huh.NewText().
				Title("Description").
				Value(&fm.Description).
				CharLimit(constants.MaxHabitDescriptionLen),
		),
	).WithTheme(huh.ThemeDracula())
}

func validateName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("habit name cannot be empty")
	}
	if utf8.RuneCountInString(s) > constants.MaxHabitNameLen {
		return fmt.Errorf("habit name must be at most %d characters", constants.MaxHabitNameLen)
	}
	return nil
}
