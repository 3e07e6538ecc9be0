package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

type habitsLoadedMsg struct {
	habits []models.Habit
	stats  map[string]models.HabitStats
	today  string
}

type detailLoadedMsg struct {
	detail habitDetail
}

type insightsLoadedMsg struct {
	insights models.Insights
}

type toggledMsg struct {
	result models.ToggleResult
}

type savedMsg struct {
	habit   models.Habit
	created bool
}

type deletedMsg struct {
	id string
}

type errMsg struct {
	err error
}

func (e errMsg) Error() string { return e.err.Error() }

func failed(action string, err error) tea.Msg {
	logger.For(logger.ComponentTUI).Error("Request failed", "action", action, "error", err)
	return errMsg{err: err}
}

func (m Model) loadHabits() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		list, err := backend.List(ctx)
		if err != nil {
			return failed("list", err)
		}
		report, err := backend.Stats(ctx)
		if err != nil {
			return failed("stats", err)
		}
		stats := make(map[string]models.HabitStats, len(report.HabitsData))
		for _, hs := range report.HabitsData {
			stats[hs.ID] = hs
		}
		return habitsLoadedMsg{habits: list, stats: stats, today: backend.Today()}
	}
}

func (m Model) loadDetail(id string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		habit, err := backend.Get(ctx, id)
		if err != nil {
			return failed("get", err)
		}
		stats, err := backend.HabitStats(ctx, id)
		if err != nil {
			return failed("habit stats", err)
		}
		calendar, err := backend.Calendar(ctx, id, constants.CalendarDays28)
		if err != nil {
			return failed("calendar", err)
		}
		return detailLoadedMsg{detail: habitDetail{habit: habit, stats: stats, calendar: calendar}}
	}
}

func (m Model) loadInsights() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		ins, err := backend.Insights(ctx)
		if err != nil {
			return failed("insights", err)
		}
		return insightsLoadedMsg{insights: ins}
	}
}

func (m Model) toggleHabit(id string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		res, err := backend.Toggle(ctx, id, "")
		if err != nil {
			return failed("toggle", err)
		}
		return toggledMsg{result: res}
	}
}

func (m Model) saveHabit(id string, in models.HabitInput) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		if id == "" {
			h, err := backend.Create(ctx, in)
			if err != nil {
				return failed("create", err)
			}
			return savedMsg{habit: h, created: true}
		}
		h, err := backend.Update(ctx, id, in)
		if err != nil {
			return failed("update", err)
		}
		return savedMsg{habit: h}
	}
}

func (m Model) deleteHabit(id string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		if err := backend.Delete(ctx, id); err != nil {
			return failed("delete", err)
		}
		return deletedMsg{id: id}
	}
}
