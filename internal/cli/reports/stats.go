package reports

import (
	"context"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/service"
)

type StatsCmd struct {
	Policy string `help:"Completion-rate policy: default (since creation) or legacy (trailing 30 days, deprecated)." enum:"default,legacy" default:"default"`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	policy, err := service.ParsePolicy(c.Policy)
	if err != nil {
		return err
	}
	if err := ctx.Load(); err != nil {
		return err
	}

	report, err := ctx.Service().Stats(context.Background(), policy)
	if err != nil {
		return err
	}

	if policy == service.PolicyLegacy {
		ctx.Println("⚠ The legacy completion rate is deprecated and will be removed.")
	}
	ctx.Printf("Total habits: %d\n", report.TotalHabits)
	if report.TotalHabits == 0 {
		return nil
	}
	ctx.Println()
	ctx.Printf("%-30s %7s %8s %6s %6s\n", "HABIT", "STREAK", "LONGEST", "TOTAL", "RATE")
	for _, hs := range report.HabitsData {
		ctx.Printf("%-30s %7d %8d %6d %5d%%\n", hs.Name, hs.Streak, hs.LongestStreak, hs.TotalCompletions, hs.CompletionRate)
	}
	return nil
}
