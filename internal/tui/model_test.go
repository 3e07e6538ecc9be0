package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/analyzer"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/tui/components/habits"
)

type fakeBackend struct {
	habits    []models.Habit
	now       time.Time
	nextID    int
	toggleErr error
	loc       *time.Location
}

func newFakeBackend() *fakeBackend {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	return &fakeBackend{
		now: now,
		habits: []models.Habit{
			{ID: "h1", Name: "Read", CreatedAt: now.AddDate(0, 0, -9), Completions: []models.Completion{{Date: "2024-03-09"}}},
			{ID: "h2", Name: "Run", Description: "5k", CreatedAt: now.AddDate(0, 0, -3)},
		},
	}
}

func (f *fakeBackend) index(id string) int {
	for i, h := range f.habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeBackend) List(ctx context.Context) ([]models.Habit, error) {
	out := make([]models.Habit, len(f.habits))
	copy(out, f.habits)
	return out, nil
}

func (f *fakeBackend) Get(ctx context.Context, id string) (models.Habit, error) {
	i := f.index(id)
	if i < 0 {
		return models.Habit{}, apperrors.NotFound("habit", id)
	}
	return f.habits[i], nil
}

func (f *fakeBackend) Create(ctx context.Context, in models.HabitInput) (models.Habit, error) {
	f.nextID++
	h := models.Habit{ID: fmt.Sprintf("new%d", f.nextID), Name: *in.Name, CreatedAt: f.now}
	if in.Description != nil {
		h.Description = *in.Description
	}
	f.habits = append(f.habits, h)
	return h, nil
}

func (f *fakeBackend) Update(ctx context.Context, id string, in models.HabitInput) (models.Habit, error) {
	i := f.index(id)
	if i < 0 {
		return models.Habit{}, apperrors.NotFound("habit", id)
	}
	if in.Name != nil {
		f.habits[i].Name = *in.Name
	}
	if in.Description != nil {
		f.habits[i].Description = *in.Description
	}
	return f.habits[i], nil
}

func (f *fakeBackend) Delete(ctx context.Context, id string) error {
	i := f.index(id)
	if i < 0 {
		return apperrors.NotFound("habit", id)
	}
	f.habits = append(f.habits[:i], f.habits[i+1:]...)
	return nil
}

func (f *fakeBackend) Toggle(ctx context.Context, id, date string) (models.ToggleResult, error) {
	if f.toggleErr != nil {
		return models.ToggleResult{}, f.toggleErr
	}
	i := f.index(id)
	if i < 0 {
		return models.ToggleResult{}, apperrors.NotFound("habit", id)
	}
	if date == "" {
		date = f.Today()
	}
	h := &f.habits[i]
	for j, c := range h.Completions {
		if c.Date == date {
			h.Completions = append(h.Completions[:j], h.Completions[j+1:]...)
			return models.ToggleResult{HabitID: id, Date: date, Completed: false}, nil
		}
	}
	h.Completions = append(h.Completions, models.Completion{Date: date})
	return models.ToggleResult{HabitID: id, Date: date, Completed: true}, nil
}

func (f *fakeBackend) Stats(ctx context.Context) (models.StatsReport, error) {
	a := analyzer.New(time.UTC)
	report := models.StatsReport{TotalHabits: len(f.habits), Policy: "default"}
	for _, h := range f.habits {
		report.HabitsData = append(report.HabitsData, a.Stats(h, f.now))
	}
	return report, nil
}

func (f *fakeBackend) HabitStats(ctx context.Context, id string) (models.HabitStats, error) {
	h, err := f.Get(ctx, id)
	if err != nil {
		return models.HabitStats{}, err
	}
	return analyzer.New(time.UTC).Stats(h, f.now), nil
}

func (f *fakeBackend) Calendar(ctx context.Context, id string, days int) ([]models.CalendarDay, error) {
	h, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return analyzer.New(time.UTC).Calendar(h.Completions, days, f.now), nil
}

func (f *fakeBackend) Insights(ctx context.Context) (models.Insights, error) {
	return models.Insights{
		Message:    "Basic statistics available",
		BasicStats: models.BasicStats{TotalHabits: len(f.habits)},
	}, nil
}

func (f *fakeBackend) Today() string {
	return f.now.Format("2006-01-02")
}

func (f *fakeBackend) Location() *time.Location {
	if f.loc == nil {
		return time.UTC
	}
	return f.loc
}

// drain runs cmd and feeds the resulting messages back into the model until
// no commands remain. Only messages produced by this package are delivered.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatal("command queue did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		switch msg.(type) {
		case habitsLoadedMsg, detailLoadedMsg, insightsLoadedMsg, toggledMsg, savedMsg, deletedMsg, errMsg,
			habits.AddHabitMsg, habits.EditHabitMsg, habits.ToggleHabitMsg, habits.DeleteHabitMsg, habits.OpenHabitMsg:
		default:
			continue
		}
		next, nc := m.Update(msg)
		m = next.(Model)
		queue = append(queue, nc)
	}
	return m
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return drain(t, next.(Model), cmd)
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func loaded(t *testing.T, fb *fakeBackend) Model {
	t.Helper()
	m := New(fb)
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return drain(t, m, m.Init())
}

func TestInitLoadsHabits(t *testing.T) {
	fb := newFakeBackend()
	m := loaded(t, fb)

	if m.habitsModel.Len() != 2 {
		t.Fatalf("expected 2 habits in list, got %d", m.habitsModel.Len())
	}
	if m.today != "2024-03-10" {
		t.Errorf("expected today 2024-03-10, got %s", m.today)
	}
	sel, ok := m.habitsModel.Selected()
	if !ok || sel.Habit.ID != "h1" {
		t.Fatalf("expected h1 selected, got %+v", sel)
	}
	if sel.Stats.Streak != 1 {
		t.Errorf("expected streak 1 from yesterday's completion, got %d", sel.Stats.Streak)
	}
	if sel.DoneToday {
		t.Error("expected h1 not done today")
	}
}

func TestToggleFromList(t *testing.T) {
	fb := newFakeBackend()
	m := loaded(t, fb)

	m = send(t, m, runeKey('x'))

	if !fb.habits[0].HasCompletion("2024-03-10") {
		t.Fatal("expected today's completion to be recorded")
	}
	if !strings.Contains(m.status, "Read done for 2024-03-10") {
		t.Errorf("unexpected status %q", m.status)
	}
	sel, _ := m.habitsModel.Selected()
	if !sel.DoneToday || sel.Stats.Streak != 2 {
		t.Errorf("expected refreshed item done with streak 2, got done=%v streak=%d", sel.DoneToday, sel.Stats.Streak)
	}

	m = send(t, m, runeKey('x'))
	if fb.habits[0].HasCompletion("2024-03-10") {
		t.Fatal("expected second toggle to clear the completion")
	}
	if !strings.Contains(m.status, "cleared") {
		t.Errorf("unexpected status %q", m.status)
	}
}

func TestToggleErrorIsShown(t *testing.T) {
	fb := newFakeBackend()
	fb.toggleErr = errors.New("database is locked")
	m := loaded(t, fb)

	m = send(t, m, runeKey('x'))

	if m.err == nil {
		t.Fatal("expected error to be recorded")
	}
	if !strings.Contains(m.View(), "Error: database is locked") {
		t.Error("expected error in view")
	}
	if m.state != StateHabits {
		t.Errorf("expected to stay on habits, got %v", m.state)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	fb := newFakeBackend()
	m := loaded(t, fb)

	m = send(t, m, runeKey('d'))
	if m.state != StateConfirmDelete {
		t.Fatalf("expected confirm state, got %v", m.state)
	}
	if !strings.Contains(m.View(), `Delete habit "Read"`) {
		t.Error("expected confirmation prompt naming the habit")
	}

	m = send(t, m, runeKey('n'))
	if m.state != StateHabits || len(fb.habits) != 2 {
		t.Fatalf("expected cancel to keep habit, state=%v habits=%d", m.state, len(fb.habits))
	}

	m = send(t, m, runeKey('d'))
	m = send(t, m, runeKey('y'))
	if len(fb.habits) != 1 || fb.habits[0].ID != "h2" {
		t.Fatalf("expected h1 deleted, got %+v", fb.habits)
	}
	if m.state != StateHabits || m.habitsModel.Len() != 1 {
		t.Errorf("expected list refreshed with 1 habit, state=%v len=%d", m.state, m.habitsModel.Len())
	}
}

func TestDetailView(t *testing.T) {
	fb := newFakeBackend()
	m := loaded(t, fb)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != StateDetail {
		t.Fatalf("expected detail state, got %v", m.state)
	}
	if m.detail == nil {
		t.Fatal("expected detail to be loaded")
	}
	if len(m.detail.calendar) != 28 {
		t.Errorf("expected 28 calendar days, got %d", len(m.detail.calendar))
	}
	view := m.View()
	for _, want := range []string{"Read", "Current streak:   1", "2024-02-12"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}

	m = send(t, m, runeKey(' '))
	if !fb.habits[0].HasCompletion("2024-03-10") {
		t.Fatal("expected toggle from detail view")
	}
	if m.detail == nil || m.detail.stats.Streak != 2 {
		t.Errorf("expected detail refreshed with streak 2, got %+v", m.detail)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != StateHabits || m.detail != nil {
		t.Errorf("expected back to habits, got %v", m.state)
	}
}

func TestDetailShowsCreationDayInReferenceLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	fb := newFakeBackend()
	fb.loc = ny
	// 02:00 UTC on March 1 is still February 29 in New York
	fb.habits[0].CreatedAt = time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)
	m := loaded(t, fb)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != StateDetail {
		t.Fatalf("expected detail state, got %v", m.state)
	}
	if view := m.View(); !strings.Contains(view, "Created:          2024-02-29") {
		t.Errorf("expected creation day in New York, got:\n%s", view)
	}
}

func TestSubmitFormCreatesHabit(t *testing.T) {
	fb := newFakeBackend()
	m := loaded(t, fb)

	next, _ := m.startForm(StateAddHabit, models.Habit{})
	m = next.(Model)
	if !m.inForm() {
		t.Fatal("expected form to be active")
	}
	m.habitForm.Name = "Meditate"
	m.habitForm.Description = "ten minutes"

	m = drain(t, m, m.submitForm())

	if len(fb.habits) != 3 || fb.habits[2].Name != "Meditate" {
		t.Fatalf("expected new habit, got %+v", fb.habits)
	}
	if m.state != StateHabits || m.form != nil {
		t.Errorf("expected form closed, state=%v", m.state)
	}
	if !strings.Contains(m.status, "Created Meditate") {
		t.Errorf("unexpected status %q", m.status)
	}
	if m.habitsModel.Len() != 3 {
		t.Errorf("expected list refreshed, got %d", m.habitsModel.Len())
	}
}

func TestEditFromDetailReturnsToDetail(t *testing.T) {
	fb := newFakeBackend()
	m := loaded(t, fb)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	next, _ := m.startForm(StateEditHabit, m.detail.habit)
	m = next.(Model)
	if m.habitForm.Name != "Read" {
		t.Fatalf("expected form prefilled, got %q", m.habitForm.Name)
	}
	m.habitForm.Name = "Read fiction"

	m = drain(t, m, m.submitForm())

	if fb.habits[0].Name != "Read fiction" {
		t.Fatalf("expected rename, got %q", fb.habits[0].Name)
	}
	if m.state != StateDetail {
		t.Errorf("expected to return to detail, got %v", m.state)
	}
	if m.detail == nil || m.detail.habit.Name != "Read fiction" {
		t.Errorf("expected detail refreshed, got %+v", m.detail)
	}
}

func TestCancelFormWithEsc(t *testing.T) {
	fb := newFakeBackend()
	m := loaded(t, fb)

	next, _ := m.startForm(StateAddHabit, models.Habit{})
	m = next.(Model)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.state != StateHabits || m.form != nil {
		t.Errorf("expected form cancelled, state=%v", m.state)
	}
	if len(fb.habits) != 2 {
		t.Errorf("expected no habit created, got %d", len(fb.habits))
	}
}

func TestTabLoadsInsights(t *testing.T) {
	fb := newFakeBackend()
	m := loaded(t, fb)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.state != StateInsights {
		t.Fatalf("expected insights tab, got %v", m.state)
	}
	if m.insights == nil {
		t.Fatal("expected insights to be loaded")
	}
	if !strings.Contains(m.View(), "Basic statistics available") {
		t.Error("expected insights message in view")
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.state != StateHabits {
		t.Errorf("expected habits tab, got %v", m.state)
	}
}

func TestQuit(t *testing.T) {
	m := loaded(t, newFakeBackend())

	next, cmd := m.Update(runeKey('q'))
	m = next.(Model)
	if !m.quitting {
		t.Error("expected quitting")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit command")
	}
	if m.View() != "" {
		t.Error("expected empty view after quit")
	}
}

func TestRenderCalendar(t *testing.T) {
	a := analyzer.New(time.UTC)
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	days := a.Calendar([]models.Completion{{Date: "2024-03-10"}, {Date: "2024-03-01"}, {Date: "2024-01-01"}}, 28, now)

	out := renderCalendar(days, NewStyles(nil))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "2024-02-12") {
		t.Errorf("expected first row to start at 2024-02-12, got %q", lines[0])
	}
	if got := strings.Count(out, "■"); got != 2 {
		t.Errorf("expected 2 completed cells, got %d", got)
	}
	if got := strings.Count(out, "□"); got != 26 {
		t.Errorf("expected 26 missed cells, got %d", got)
	}
}

func TestRemoteBackendToday(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	b := NewRemoteBackend(nil, loc)
	b.now = func() time.Time { return time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC) }

	if got := b.Today(); got != "2024-03-09" {
		t.Errorf("expected 2024-03-09, got %s", got)
	}
}
