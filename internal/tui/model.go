package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/tui/components/habits"
)

type SessionState int

const (
	StateHabits SessionState = iota
	StateInsights
	StateDetail
	StateAddHabit
	StateEditHabit
	StateConfirmDelete
)

// tabCount is the number of states reachable with tab.
const tabCount = 2

type HabitFormModel struct {
	Name        string
	Description string
}

type Model struct {
	ctx           context.Context
	backend       Backend
	state         SessionState
	previousState SessionState
	keys          KeyMap
	help          help.Model
	styles        Styles
	habitsModel   habits.Model
	form          *huh.Form
	habitForm     *HabitFormModel

	today           string
	habits          []models.Habit
	detail          *habitDetail
	insights        *models.Insights
	editingID       string
	habitToDeleteID string

	status   string
	err      error
	quitting bool
	width    int
	height   int
}

type habitDetail struct {
	habit    models.Habit
	stats    models.HabitStats
	calendar []models.CalendarDay
}

type Option func(*Model)

// WithContext bounds every backend call made by the program.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// WithRenderer builds the styles from r instead of the process renderer.
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(m *Model) { m.styles = NewStyles(r) }
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(m *Model) {
		m.width, m.height = width, height
	}
}

func New(backend Backend, opts ...Option) Model {
	m := Model{
		ctx:         context.Background(),
		backend:     backend,
		state:       StateHabits,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		styles:      NewStyles(nil),
		habitsModel: habits.New(0, 0),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.resize()
	return m
}

// Run starts the program on the current terminal.
func Run(ctx context.Context, backend Backend) error {
	p := tea.NewProgram(New(backend, WithContext(ctx)), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadHabits()
}

func (m *Model) resize() {
	m.help.Width = m.width
	// tabs, status line and help
	h := m.height - 4
	if h < 0 {
		h = 0
	}
	m.habitsModel.SetSize(m.width, h)
}

func (m Model) findHabit(id string) (models.Habit, bool) {
	for _, h := range m.habits {
		if h.ID == id {
			return h, true
		}
	}
	return models.Habit{}, false
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateHabits:
		keys = append(keys, m.keys.Toggle, m.keys.Refresh)
	case StateInsights:
		keys = append(keys, m.keys.Refresh)
	case StateDetail:
		keys = append(keys, m.keys.Back, m.keys.Toggle, m.keys.Edit, m.keys.Delete)
	case StateConfirmDelete:
		keys = []key.Binding{m.keys.Confirm, m.keys.Cancel}
	case StateAddHabit, StateEditHabit:
		keys = []key.Binding{m.keys.Back}
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Refresh}

	var actions []key.Binding
	switch m.state {
	case StateDetail:
		actions = []key.Binding{m.keys.Back, m.keys.Toggle, m.keys.Edit, m.keys.Delete}
	case StateHabits:
		actions = []key.Binding{m.keys.Toggle, m.keys.Edit, m.keys.Delete}
	case StateConfirmDelete:
		actions = []key.Binding{m.keys.Confirm, m.keys.Cancel}
	}

	return [][]key.Binding{global, actions}
}
