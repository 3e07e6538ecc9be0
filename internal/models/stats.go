package models

import "time"

// HabitStats summarizes a habit's completion history
type HabitStats struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	TotalCompletions int    `json:"total_completions"`
	Streak           int    `json:"streak"`
	LongestStreak    int    `json:"longest_streak"`
	CompletionRate   int    `json:"completion_rate"`
}

// StatsReport is the payload of the stats endpoint
type StatsReport struct {
	TotalHabits int          `json:"total_habits"`
	Policy      string       `json:"policy"`
	HabitsData  []HabitStats `json:"habits_data"`
}

// CalendarDay is one cell of the rolling calendar grid
type CalendarDay struct {
	Date        string `json:"date"`
	IsCompleted bool   `json:"is_completed"`
}

// BasicStats are the model-free numbers included in every insights payload
type BasicStats struct {
	TotalHabits            int     `json:"total_habits"`
	TotalCompletions       int     `json:"total_completions"`
	AvgCompletionsPerHabit float64 `json:"avg_completions_per_habit"`
	BestPerformingHabit    *string `json:"best_performing_habit"`
	OverallCompletionRate  float64 `json:"overall_completion_rate"`
}

// Insights is the payload returned by the insights endpoint
type Insights struct {
	Message       string     `json:"message"`
	AnalysisReady bool       `json:"analysis_ready"`
	BasicStats    BasicStats `json:"basic_stats"`
	Summary       string     `json:"summary,omitempty"`
	Suggestion    string     `json:"suggestion,omitempty"`
	Model         string     `json:"model,omitempty"`
	GeneratedAt   time.Time  `json:"generated_at"`
}
