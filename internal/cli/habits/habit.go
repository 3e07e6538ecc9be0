package habits

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits with today's status."`
	Show   HabitShowCmd   `cmd:"" help:"Show a habit's stats and recent calendar."`
	Edit   HabitEditCmd   `cmd:"" help:"Rename a habit or change its description."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and its history."`
	Toggle HabitToggleCmd `cmd:"" help:"Toggle a habit's completion for a day."`
	Log    HabitLogCmd    `cmd:"" help:"Show habit log (ASCII history)."`
}

type HabitAddCmd struct {
	Name        string `arg:"" help:"Habit name."`
	Description string `short:"d" help:"Optional description."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	habit, err := ctx.Service().Create(context.Background(), models.HabitInput{
		Name:        &c.Name,
		Description: &c.Description,
	})
	if err != nil {
		return err
	}

	ctx.Printf("Added habit: %s (%s)\n", habit.Name, cli.ShortID(habit.ID))
	return nil
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	bg := context.Background()
	svc := ctx.Service()
	habits, err := svc.List(bg)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	today := svc.Today()
	ctx.Printf("Habits for %s:\n", today)
	for _, h := range habits {
		stats := svc.Analyzer().Stats(h, svc.Now())
		mark := "○"
		if h.HasCompletion(today) {
			mark = "✓"
		}
		ctx.Printf("%s %-30s streak %-3d %3d%%  %s\n", mark, h.Name, stats.Streak, stats.CompletionRate, cli.ShortID(h.ID))
	}
	return nil
}

type HabitShowCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	bg := context.Background()
	svc := ctx.Service()
	habit, err := cli.FindHabit(bg, svc, c.Habit)
	if err != nil {
		return err
	}
	stats, err := svc.HabitStats(bg, habit.ID)
	if err != nil {
		return err
	}
	calendar, err := svc.Calendar(bg, habit.ID, constants.CalendarDays28)
	if err != nil {
		return err
	}

	ctx.Printf("%s\n", habit.Name)
	if habit.Description != "" {
		ctx.Printf("  %s\n", habit.Description)
	}
	ctx.Printf("  ID:               %s\n", habit.ID)
	ctx.Printf("  Created:          %s\n", habit.CreatedAt.In(svc.Analyzer().Location()).Format(constants.DateFormat))
	ctx.Printf("  Current streak:   %d\n", stats.Streak)
	ctx.Printf("  Longest streak:   %d\n", stats.LongestStreak)
	ctx.Printf("  Completions:      %d\n", stats.TotalCompletions)
	ctx.Printf("  Completion rate:  %d%%\n", stats.CompletionRate)
	ctx.Println()
	ctx.Printf("%s", formatGrid(calendar))
	return nil
}

// formatGrid prints the calendar in weekly rows, oldest first.
func formatGrid(days []models.CalendarDay) string {
	var b strings.Builder
	for start := 0; start < len(days); start += 7 {
		end := min(start+7, len(days))
		fmt.Fprintf(&b, "  %s ", days[start].Date)
		for _, d := range days[start:end] {
			if d.IsCompleted {
				b.WriteString(" ■")
			} else {
				b.WriteString(" ·")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

type HabitEditCmd struct {
	Habit       string  `arg:"" help:"Habit name or id."`
	Name        *string `help:"New name."`
	Description *string `short:"d" help:"New description."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	if c.Name == nil && c.Description == nil {
		return fmt.Errorf("nothing to change: pass --name and/or --description")
	}
	if err := ctx.Load(); err != nil {
		return err
	}

	bg := context.Background()
	svc := ctx.Service()
	habit, err := cli.FindHabit(bg, svc, c.Habit)
	if err != nil {
		return err
	}
	updated, err := svc.Update(bg, habit.ID, models.HabitInput{Name: c.Name, Description: c.Description})
	if err != nil {
		return err
	}

	ctx.Printf("Updated habit: %s\n", updated.Name)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Yes   bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	bg := context.Background()
	svc := ctx.Service()
	habit, err := cli.FindHabit(bg, svc, c.Habit)
	if err != nil {
		return err
	}

	if !c.Yes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete %q and all %d completions?", habit.Name, len(habit.Completions))).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			ctx.Println("Cancelled.")
			return nil
		}
	}

	if err := svc.Delete(bg, habit.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted habit: %s\n", habit.Name)
	return nil
}

type HabitToggleCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Date  string `help:"Date in YYYY-MM-DD format (default: today)." default:""`
}

func (c *HabitToggleCmd) Run(ctx *cli.Context) error {
	if c.Date != "" && !utils.ValidateDate(c.Date) {
		return apperrors.Invalid("date %q must be YYYY-MM-DD", c.Date)
	}
	if err := ctx.Load(); err != nil {
		return err
	}

	bg := context.Background()
	svc := ctx.Service()
	habit, err := cli.FindHabit(bg, svc, c.Habit)
	if err != nil {
		return err
	}
	res, err := svc.Toggle(bg, habit.ID, c.Date)
	if err != nil {
		return err
	}

	if res.Completed {
		ctx.Printf("Marked habit %q for %s\n", habit.Name, res.Date)
	} else {
		ctx.Printf("Unmarked habit %q for %s\n", habit.Name, res.Date)
	}
	return nil
}

type HabitLogCmd struct {
	Habit string `arg:"" optional:"" help:"Habit name or id (default: all habits)."`
	Days  int    `help:"Number of days to show." default:"14"`
}

func (c *HabitLogCmd) Run(ctx *cli.Context) error {
	if c.Days < 1 || c.Days > constants.MaxCalendarDays {
		return fmt.Errorf("--days must be between 1 and %d", constants.MaxCalendarDays)
	}
	if err := ctx.Load(); err != nil {
		return err
	}

	bg := context.Background()
	svc := ctx.Service()

	var habits []models.Habit
	if c.Habit != "" {
		habit, err := cli.FindHabit(bg, svc, c.Habit)
		if err != nil {
			return err
		}
		habits = []models.Habit{habit}
	} else {
		var err error
		habits, err = svc.List(bg)
		if err != nil {
			return err
		}
	}
	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	width := 0
	for _, h := range habits {
		width = max(width, len([]rune(h.Name)))
	}

	now := svc.Now()
	ctx.Printf("Last %d days, oldest first, ending %s\n", c.Days, svc.Today())
	for _, h := range habits {
		var b strings.Builder
		for _, d := range svc.Analyzer().Calendar(h.Completions, c.Days, now) {
			if d.IsCompleted {
				b.WriteString("█")
			} else {
				b.WriteString("░")
			}
		}
		ctx.Printf("%-*s %s\n", width, h.Name, b.String())
	}
	return nil
}
