package reports

import (
	"context"

	"github.com/charmbracelet/glamour"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/logger"
)

type InsightsCmd struct {
	Raw bool `help:"Print the summary without markdown rendering."`
}

func (c *InsightsCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	ins, err := ctx.Service().Insights(context.Background())
	if err != nil {
		return err
	}

	bs := ins.BasicStats
	ctx.Println(ins.Message)
	ctx.Println()
	ctx.Printf("Habits:             %d\n", bs.TotalHabits)
	ctx.Printf("Total completions:  %d\n", bs.TotalCompletions)
	ctx.Printf("Average per habit:  %.1f\n", bs.AvgCompletionsPerHabit)
	if bs.BestPerformingHabit != nil {
		ctx.Printf("Best performing:    %s\n", *bs.BestPerformingHabit)
	}
	ctx.Printf("30-day completion:  %.1f%%\n", bs.OverallCompletionRate)

	if ins.Summary != "" {
		ctx.Println()
		ctx.Println(render(ins.Summary, c.Raw))
	}
	if ins.Suggestion != "" {
		ctx.Println()
		ctx.Println(ins.Suggestion)
	}
	return nil
}

// render formats markdown for the terminal, falling back to the raw text.
func render(summary string, raw bool) string {
	if raw {
		return summary
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		logger.Debug("Markdown renderer unavailable", "error", err)
		return summary
	}
	out, err := r.Render(summary)
	if err != nil {
		logger.Debug("Markdown rendering failed", "error", err)
		return summary
	}
	return out
}
