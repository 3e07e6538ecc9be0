package insights

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/analyzer"
	"github.com/julianstephens/habitual/internal/models"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) string {
	return now.AddDate(0, 0, -n).Format("2006-01-02")
}

func habitWith(name string, ago ...int) models.Habit {
	h := models.Habit{ID: name, Name: name, CreatedAt: now.AddDate(0, 0, -60)}
	for _, n := range ago {
		h.Completions = append(h.Completions, models.Completion{Date: daysAgo(n)})
	}
	return h
}

type fakeGenerator struct {
	text   string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

func (f *fakeGenerator) Model() string { return "fake" }

func TestBasicStats(t *testing.T) {
	a := analyzer.New(time.UTC)
	habits := []models.Habit{
		habitWith("Read", 0, 1, 2, 40),
		habitWith("Walk", 0, 30, 31),
		habitWith("Write"),
	}

	stats := BasicStats(a, habits, now)
	if stats.TotalHabits != 3 || stats.TotalCompletions != 7 {
		t.Errorf("totals = %d habits, %d completions", stats.TotalHabits, stats.TotalCompletions)
	}
	if stats.AvgCompletionsPerHabit != 2.3 {
		t.Errorf("AvgCompletionsPerHabit = %v, want 2.3", stats.AvgCompletionsPerHabit)
	}
	if stats.BestPerformingHabit == nil || *stats.BestPerformingHabit != "Read" {
		t.Errorf("BestPerformingHabit = %v, want Read", stats.BestPerformingHabit)
	}
	// 5 recent completions / (30 * 3) = 5.555...
	if stats.OverallCompletionRate != 5.6 {
		t.Errorf("OverallCompletionRate = %v, want 5.6", stats.OverallCompletionRate)
	}
}

func TestBasicStatsEmpty(t *testing.T) {
	stats := BasicStats(analyzer.New(time.UTC), nil, now)
	if stats.TotalHabits != 0 || stats.BestPerformingHabit != nil || stats.OverallCompletionRate != 0 {
		t.Errorf("BasicStats(nil) = %+v", stats)
	}
}

func TestBasicStatsRateIsCapped(t *testing.T) {
	ago := make([]int, 31)
	for i := range ago {
		ago[i] = i
	}
	stats := BasicStats(analyzer.New(time.UTC), []models.Habit{habitWith("Daily", ago...)}, now)
	if stats.OverallCompletionRate != 100 {
		t.Errorf("OverallCompletionRate = %v, want 100", stats.OverallCompletionRate)
	}
}

func TestBuild(t *testing.T) {
	ready := []models.Habit{habitWith("Read", 0, 1, 2, 3, 4, 5)}
	notReady := []models.Habit{habitWith("Read", 0, 1)}

	tests := []struct {
		name        string
		habits      []models.Habit
		gen         *fakeGenerator
		wantReady   bool
		wantMessage string
		wantSummary string
	}{
		{"no habits", nil, nil, false, msgNoHabits, ""},
		{"not enough data", notReady, &fakeGenerator{text: "x"}, false, "Keep tracking: insights need more than 5 completions", ""},
		{"no generator", ready, nil, true, msgStatsOnly, ""},
		{"generated", ready, &fakeGenerator{text: "Great work"}, true, "Insights generated by fake", "Great work"},
		{"generator error", ready, &fakeGenerator{err: errors.New("boom")}, true, "Insight generation failed: boom", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gen Generator
			if tt.gen != nil {
				gen = tt.gen
			}
			got := New(analyzer.New(time.UTC), gen).Build(context.Background(), tt.habits, now)
			if got.AnalysisReady != tt.wantReady {
				t.Errorf("AnalysisReady = %v, want %v", got.AnalysisReady, tt.wantReady)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
			if got.Summary != tt.wantSummary {
				t.Errorf("Summary = %q, want %q", got.Summary, tt.wantSummary)
			}
			if !got.GeneratedAt.Equal(now) {
				t.Errorf("GeneratedAt = %v, want %v", got.GeneratedAt, now)
			}
		})
	}
}

func TestBuildPromptIncludesHabitStats(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	habits := []models.Habit{habitWith("Read", 0, 1, 2, 3, 4, 5)}
	New(analyzer.New(time.UTC), gen).Build(context.Background(), habits, now)

	for _, want := range []string{"Today is 2024-03-15", "- Read: current streak 6", "6 completions"} {
		if !strings.Contains(gen.prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, gen.prompt)
		}
	}
}

func TestSuggestion(t *testing.T) {
	tests := []struct {
		stats models.BasicStats
		want  string
	}{
		{models.BasicStats{}, suggestNoHabits},
		{models.BasicStats{TotalHabits: 1, TotalCompletions: 4}, suggestStart},
		{models.BasicStats{TotalHabits: 1, TotalCompletions: 5}, suggestKeepUp},
	}
	for _, tt := range tests {
		if got := suggestion(tt.stats); got != tt.want {
			t.Errorf("suggestion(%+v) = %q, want %q", tt.stats, got, tt.want)
		}
	}
}

func TestOllamaGenerate(t *testing.T) {
	var received generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "  Nice streaks.\n", Done: true})
	}))
	defer srv.Close()

	client := NewOllama(srv.URL+"/", "")
	got, err := client.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "Nice streaks." {
		t.Errorf("Generate() = %q", got)
	}
	if received.Model != "phi" || received.Prompt != "hello" || received.Stream {
		t.Errorf("request = %+v", received)
	}
}

func TestOllamaGenerateError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(generateResponse{Error: "model 'phi' not found"})
	}))
	defer srv.Close()

	_, err := NewOllama(srv.URL, "phi").Generate(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Generate() error = %v, want model not found", err)
	}
}
