package analyzer

import (
	"math"
	"sort"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

// Analyzer turns instants into calendar days in a single reference location.
// The zero value is not usable; construct with New.
type Analyzer struct {
	loc *time.Location
}

// New returns an Analyzer for loc. A nil loc selects UTC.
func New(loc *time.Location) *Analyzer {
	if loc == nil {
		loc = time.UTC
	}
	return &Analyzer{loc: loc}
}

// Location returns the reference location.
func (a *Analyzer) Location() *time.Location {
	return a.loc
}

func (a *Analyzer) day(t time.Time) epochDay {
	t = t.In(a.loc)
	return civilDay(t.Year(), t.Month(), t.Day())
}

// FormatDay returns the YYYY-MM-DD calendar day of t in the reference location.
func (a *Analyzer) FormatDay(t time.Time) string {
	return a.day(t).String()
}

// Streak returns the number of consecutive calendar days with a completion,
// ending today or yesterday. Completions dated after today are ignored.
func (a *Analyzer) Streak(completions []models.Completion, today time.Time) int {
	days := completionDays(completions)
	t := a.day(today)

	latest, found := epochDay(0), false
	for d := range days {
		if d <= t && (!found || d > latest) {
			latest, found = d, true
		}
	}
	if !found || (latest != t && latest != t-1) {
		return 0
	}

	streak := 0
	for d := latest; days.has(d); d-- {
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive completion days ever recorded.
func (a *Analyzer) LongestStreak(completions []models.Completion) int {
	days := completionDays(completions)
	if len(days) == 0 {
		return 0
	}

	sorted := make([]epochDay, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1]+1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// TotalCompletions counts distinct, well-formed completion dates.
func (a *Analyzer) TotalCompletions(completions []models.Completion) int {
	return len(completionDays(completions))
}

// CompletionRate returns the rounded percentage of days with a completion in the
// window running from the earliest of today, createdAt and the first completion
// through today inclusive. A zero createdAt means the creation date is unknown.
func (a *Analyzer) CompletionRate(completions []models.Completion, createdAt, today time.Time) int {
	days := completionDays(completions)
	if len(days) == 0 {
		return 0
	}

	t := a.day(today)
	start := t
	if !createdAt.IsZero() {
		if c := a.day(createdAt); c < start {
			start = c
		}
	}

	completed := 0
	for d := range days {
		if d > t {
			continue
		}
		completed++
		if d < start {
			start = d
		}
	}

	window := int64(t-start) + 1
	if window <= 0 {
		if completed > 0 {
			return 100
		}
		return 0
	}
	return percent(completed, window)
}

// LegacyCompletionRate is the fixed trailing-window rate: distinct completion
// days among the last 30 days (today inclusive) divided by 30.
//
// Deprecated: it ignores the creation date and backfilled history, so young
// habits are under-reported. Use CompletionRate.
func (a *Analyzer) LegacyCompletionRate(completions []models.Completion, today time.Time) int {
	days := completionDays(completions)
	t := a.day(today)
	first := t - constants.LegacyWindowDays + 1

	completed := 0
	for d := range days {
		if d >= first && d <= t {
			completed++
		}
	}
	return percent(completed, constants.LegacyWindowDays)
}

// RecentCompletions counts distinct completion days from today-days through
// today inclusive.
func (a *Analyzer) RecentCompletions(completions []models.Completion, days int, today time.Time) int {
	t := a.day(today)
	first := t - epochDay(days)

	n := 0
	for d := range completionDays(completions) {
		if d >= first && d <= t {
			n++
		}
	}
	return n
}

// Calendar returns one entry per day for the size days ending today, oldest first.
func (a *Analyzer) Calendar(completions []models.Completion, size int, today time.Time) []models.CalendarDay {
	if size <= 0 {
		return []models.CalendarDay{}
	}

	days := completionDays(completions)
	t := a.day(today)
	calendar := make([]models.CalendarDay, 0, size)
	for d := t - epochDay(size) + 1; d <= t; d++ {
		calendar = append(calendar, models.CalendarDay{
			Date:        d.String(),
			IsCompleted: days.has(d),
		})
	}
	return calendar
}

// Stats bundles the per-habit numbers shown in list and detail views.
func (a *Analyzer) Stats(habit models.Habit, today time.Time) models.HabitStats {
	return models.HabitStats{
		ID:               habit.ID,
		Name:             habit.Name,
		TotalCompletions: a.TotalCompletions(habit.Completions),
		Streak:           a.Streak(habit.Completions, today),
		LongestStreak:    a.LongestStreak(habit.Completions),
		CompletionRate:   a.CompletionRate(habit.Completions, habit.CreatedAt, today),
	}
}

// LegacyStats is Stats with the deprecated trailing-window rate.
func (a *Analyzer) LegacyStats(habit models.Habit, today time.Time) models.HabitStats {
	stats := a.Stats(habit, today)
	stats.CompletionRate = a.LegacyCompletionRate(habit.Completions, today)
	return stats
}

func percent(n int, of int64) int {
	return int(math.Round(float64(n) / float64(of) * 100))
}
