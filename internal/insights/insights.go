// Package insights builds the insights payload: model-free summary numbers
// for every request and, when a generator is configured, a short written
// analysis of the user's habits.
package insights

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/analyzer"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

const systemPrompt = "You are a supportive habit coach. Reply in short Markdown: " +
	"one paragraph on patterns, then up to three bullet-point suggestions."

const (
	msgNoHabits    = "Add some habits to get insights"
	msgNotReady    = "Keep tracking: insights need more than %d completions"
	msgStatsOnly   = "Basic statistics only; no model configured"
	msgGenerated   = "Insights generated by %s"
	msgGenerateErr = "Insight generation failed: %v"

	suggestNoHabits = "Add some habits to get goal suggestions"
	suggestStart    = "Try to complete at least one habit every day"
	suggestKeepUp   = "Keep up the good work! Try to increase your consistency."
)

type Builder struct {
	analyzer  *analyzer.Analyzer
	generator Generator
}

// New returns a Builder. gen may be nil, in which case only basic stats are
// produced.
func New(a *analyzer.Analyzer, gen Generator) *Builder {
	return &Builder{analyzer: a, generator: gen}
}

// Build assembles the payload for habits as of now. Generator failures are
// reported in the message and never returned.
func (b *Builder) Build(ctx context.Context, habits []models.Habit, now time.Time) models.Insights {
	stats := BasicStats(b.analyzer, habits, now)
	out := models.Insights{
		BasicStats:    stats,
		AnalysisReady: stats.TotalCompletions > constants.InsightsReadyThreshold,
		Suggestion:    suggestion(stats),
		GeneratedAt:   now.UTC(),
	}

	switch {
	case len(habits) == 0:
		out.Message = msgNoHabits
	case !out.AnalysisReady:
		out.Message = fmt.Sprintf(msgNotReady, constants.InsightsReadyThreshold)
	case b.generator == nil:
		out.Message = msgStatsOnly
	default:
		summary, err := b.generator.Generate(ctx, b.prompt(habits, stats, now))
		if err != nil {
			logger.Warn("Insight generation failed", "model", b.generator.Model(), "error", err)
			out.Message = fmt.Sprintf(msgGenerateErr, err)
			return out
		}
		out.Summary = summary
		out.Model = b.generator.Model()
		out.Message = fmt.Sprintf(msgGenerated, out.Model)
	}
	return out
}

// BasicStats computes the model-free numbers. The overall rate is recent
// completions over the trailing window divided by window * habit count,
// capped at 100.
func BasicStats(a *analyzer.Analyzer, habits []models.Habit, now time.Time) models.BasicStats {
	stats := models.BasicStats{TotalHabits: len(habits)}
	if len(habits) == 0 {
		return stats
	}

	best, bestCount := "", -1
	recent := 0
	for _, h := range habits {
		n := a.TotalCompletions(h.Completions)
		stats.TotalCompletions += n
		if n > bestCount {
			best, bestCount = h.Name, n
		}
		recent += a.RecentCompletions(h.Completions, constants.InsightsWindowDays, now)
	}

	stats.BestPerformingHabit = &best
	stats.AvgCompletionsPerHabit = round1(float64(stats.TotalCompletions) / float64(len(habits)))
	rate := float64(recent) / float64(constants.InsightsWindowDays*len(habits)) * 100
	stats.OverallCompletionRate = round1(math.Min(rate, 100))
	return stats
}

func suggestion(stats models.BasicStats) string {
	switch {
	case stats.TotalHabits == 0:
		return suggestNoHabits
	case stats.TotalCompletions < constants.InsightsReadyThreshold:
		return suggestStart
	default:
		return suggestKeepUp
	}
}

func (b *Builder) prompt(habits []models.Habit, stats models.BasicStats, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Today is %s. I track %d habits with %d completions in total; ",
		b.analyzer.FormatDay(now), stats.TotalHabits, stats.TotalCompletions)
	fmt.Fprintf(&sb, "my completion rate over the last %d days is %.1f%%.\n\n",
		constants.InsightsWindowDays, stats.OverallCompletionRate)

	for _, h := range habits {
		s := b.analyzer.Stats(h, now)
		fmt.Fprintf(&sb, "- %s: current streak %d, longest streak %d, completion rate %d%%, %d completions\n",
			h.Name, s.Streak, s.LongestStreak, s.CompletionRate, s.TotalCompletions)
	}
	sb.WriteString("\nWhat patterns do you see, and what should I focus on next?")
	return sb.String()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
