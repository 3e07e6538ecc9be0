package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/tui/components/habits"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		if !m.inForm() {
			return m, nil
		}

	case habitsLoadedMsg:
		m.habits = msg.habits
		m.today = msg.today
		m.habitsModel.SetHabits(msg.habits, msg.stats, msg.today)
		m.err = nil
		return m, nil

	case detailLoadedMsg:
		if m.state == StateDetail || m.state == StateConfirmDelete || m.inForm() {
			d := msg.detail
			m.detail = &d
		}
		return m, nil

	case insightsLoadedMsg:
		ins := msg.insights
		m.insights = &ins
		return m, nil

	case toggledMsg:
		name := msg.result.HabitID
		if h, ok := m.findHabit(msg.result.HabitID); ok {
			name = h.Name
		}
		if msg.result.Completed {
			m.status = fmt.Sprintf("✓ %s done for %s", name, msg.result.Date)
		} else {
			m.status = fmt.Sprintf("○ %s cleared for %s", name, msg.result.Date)
		}
		m.err = nil
		m.insights = nil
		cmds := []tea.Cmd{m.loadHabits()}
		if m.state == StateDetail && m.detail != nil && m.detail.habit.ID == msg.result.HabitID {
			cmds = append(cmds, m.loadDetail(msg.result.HabitID))
		}
		return m, tea.Batch(cmds...)

	case savedMsg:
		m.form = nil
		m.habitForm = nil
		m.editingID = ""
		m.err = nil
		m.insights = nil
		if msg.created {
			m.status = fmt.Sprintf("✓ Created %s", msg.habit.Name)
		} else {
			m.status = fmt.Sprintf("✓ Updated %s", msg.habit.Name)
		}
		m.state = m.previousState
		cmds := []tea.Cmd{m.loadHabits()}
		if m.state == StateDetail {
			cmds = append(cmds, m.loadDetail(msg.habit.ID))
		}
		return m, tea.Batch(cmds...)

	case deletedMsg:
		name := msg.id
		if h, ok := m.findHabit(msg.id); ok {
			name = h.Name
		}
		m.status = fmt.Sprintf("✓ Deleted %s", name)
		m.err = nil
		m.insights = nil
		m.detail = nil
		m.state = StateHabits
		return m, m.loadHabits()

	case errMsg:
		m.err = msg.err
		m.status = ""
		switch {
		case m.inForm():
			// keep the user in the form to retry
			m.form.State = huh.StateNormal
		case m.state == StateConfirmDelete:
			m.state = m.previousState
			m.habitToDeleteID = ""
		}
		return m, nil

	case habits.AddHabitMsg:
		return m.startForm(StateAddHabit, models.Habit{})

	case habits.EditHabitMsg:
		if h, ok := m.findHabit(msg.ID); ok {
			return m.startForm(StateEditHabit, h)
		}
		return m, nil

	case habits.ToggleHabitMsg:
		return m, m.toggleHabit(msg.ID)

	case habits.DeleteHabitMsg:
		m.confirmDelete(msg.ID)
		return m, nil

	case habits.OpenHabitMsg:
		m.state = StateDetail
		m.detail = nil
		return m, m.loadDetail(msg.ID)
	}

	if m.inForm() {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(msg)
	}

	if m.state == StateHabits {
		var cmd tea.Cmd
		m.habitsModel, cmd = m.habitsModel.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) inForm() bool {
	return (m.state == StateAddHabit || m.state == StateEditHabit) && m.form != nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == StateConfirmDelete {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			id := m.habitToDeleteID
			m.habitToDeleteID = ""
			return m, m.deleteHabit(id)
		case key.Matches(msg, m.keys.Cancel):
			m.state = m.previousState
			m.habitToDeleteID = ""
		}
		return m, nil
	}

	if m.state == StateHabits && m.habitsModel.Filtering() {
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.habitsModel, cmd = m.habitsModel.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Tab):
		return m.switchTab(1)
	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchTab(-1)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	}

	switch m.state {
	case StateDetail:
		if m.detail == nil {
			if key.Matches(msg, m.keys.Back) {
				m.state = StateHabits
			}
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Back):
			m.state = StateHabits
			m.detail = nil
		case key.Matches(msg, m.keys.Toggle):
			return m, m.toggleHabit(m.detail.habit.ID)
		case key.Matches(msg, m.keys.Edit):
			return m.startForm(StateEditHabit, m.detail.habit)
		case key.Matches(msg, m.keys.Delete):
			m.confirmDelete(m.detail.habit.ID)
		}
		return m, nil
	case StateHabits:
		var cmd tea.Cmd
		m.habitsModel, cmd = m.habitsModel.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) switchTab(delta int) (tea.Model, tea.Cmd) {
	current := int(m.state)
	if m.state >= tabCount {
		current = int(StateHabits)
	}
	m.state = SessionState((current + delta + tabCount) % tabCount)
	m.detail = nil
	if m.state == StateInsights && m.insights == nil {
		return m, m.loadInsights()
	}
	return m, nil
}

func (m Model) refresh() tea.Cmd {
	switch m.state {
	case StateInsights:
		return m.loadInsights()
	case StateDetail:
		if m.detail != nil {
			return tea.Batch(m.loadHabits(), m.loadDetail(m.detail.habit.ID))
		}
	}
	return m.loadHabits()
}

func (m *Model) confirmDelete(id string) {
	m.previousState = m.state
	m.state = StateConfirmDelete
	m.habitToDeleteID = id
}

func (m Model) startForm(state SessionState, h models.Habit) (tea.Model, tea.Cmd) {
	m.previousState = m.state
	m.state = state
	m.editingID = h.ID
	m.err = nil
	m.habitForm = &HabitFormModel{Name: h.Name, Description: h.Description}
	m.form = newHabitForm(m.habitForm)
	return m, m.form.Init()
}

func (m *Model) cancelForm() {
	m.form = nil
	m.habitForm = nil
	m.editingID = ""
	m.state = m.previousState
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	// waiting for the backend to answer a submitted form
	if m.form.State == huh.StateCompleted {
		return m, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.cancelForm()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m, m.submitForm()
	case huh.StateAborted:
		m.cancelForm()
		return m, nil
	}
	return m, cmd
}

// submitForm sends the form values to the backend. An empty editingID creates
// a new habit.
func (m Model) submitForm() tea.Cmd {
	name := m.habitForm.Name
	desc := m.habitForm.Description
	return m.saveHabit(m.editingID, models.HabitInput{Name: &name, Description: &desc})
}
