package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case StateHabits:
		content = m.habitsModel.View()
	case StateInsights:
		content = m.viewInsights()
	case StateDetail:
		content = m.viewDetail()
	case StateAddHabit, StateEditHabit:
		if m.form != nil {
			content = m.form.View()
		}
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range []string{"Habits", "Insights"} {
		active := m.state == SessionState(i) || (i == int(StateHabits) && m.state >= tabCount)
		if active {
			tabs = append(tabs, m.styles.ActiveTab.Render(title))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(title))
		}
	}
	if m.today != "" {
		tabs = append(tabs, m.styles.Muted.Render("  "+m.today))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewStatus() string {
	if m.err != nil {
		return m.styles.Danger.Render("Error: " + m.err.Error())
	}
	return m.styles.Status.Render(m.status)
}

func (m Model) viewDetail() string {
	if m.detail == nil {
		return m.styles.Doc.Render("Loading...")
	}
	d := m.detail

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(d.habit.Name))
	b.WriteString("\n")
	if d.habit.Description != "" {
		b.WriteString(m.styles.Muted.Render(d.habit.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Current streak:   %d\n", d.stats.Streak)
	fmt.Fprintf(&b, "Longest streak:   %d\n", d.stats.LongestStreak)
	fmt.Fprintf(&b, "Completions:      %d\n", d.stats.TotalCompletions)
	fmt.Fprintf(&b, "Completion rate:  %d%%\n", d.stats.CompletionRate)
	fmt.Fprintf(&b, "Created:          %s\n", d.habit.CreatedAt.In(m.backend.Location()).Format(constants.DateFormat))
	b.WriteString("\n")
	b.WriteString(renderCalendar(d.calendar, m.styles))

	return m.styles.Doc.Render(b.String())
}

// renderCalendar lays days out in rows of seven, oldest first, each row
// labelled with its first date.
func renderCalendar(days []models.CalendarDay, s Styles) string {
	var b strings.Builder
	for start := 0; start < len(days); start += 7 {
		end := min(start+7, len(days))
		b.WriteString(s.Muted.Render(days[start].Date))
		b.WriteString(" ")
		for _, d := range days[start:end] {
			if d.IsCompleted {
				b.WriteString(s.Done.Render("■"))
			} else {
				b.WriteString(s.Missed.Render("□"))
			}
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewInsights() string {
	if m.insights == nil {
		return m.styles.Doc.Render("Loading insights...")
	}
	ins := m.insights
	bs := ins.BasicStats

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Insights"))
	b.WriteString("\n\n")
	b.WriteString(ins.Message)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Habits:               %d\n", bs.TotalHabits)
	fmt.Fprintf(&b, "Total completions:    %d\n", bs.TotalCompletions)
	fmt.Fprintf(&b, "Average per habit:    %.1f\n", bs.AvgCompletionsPerHabit)
	if bs.BestPerformingHabit != nil {
		fmt.Fprintf(&b, "Best performing:      %s\n", *bs.BestPerformingHabit)
	}
	fmt.Fprintf(&b, "30-day completion:    %.1f%%\n", bs.OverallCompletionRate)

	if ins.Summary != "" {
		b.WriteString("\n")
		width := m.width - 4
		if width < 20 {
			width = 80
		}
		b.WriteString(m.styles.Body.Width(width).Render(ins.Summary))
		b.WriteString("\n")
	}
	if ins.Suggestion != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Warning.Render(ins.Suggestion))
		b.WriteString("\n")
	}
	return m.styles.Doc.Render(b.String())
}

func (m Model) viewConfirmDelete() string {
	name := m.habitToDeleteID
	if h, ok := m.findHabit(m.habitToDeleteID); ok {
		name = h.Name
	}
	return m.styles.Doc.Render(
		m.styles.Danger.Render(fmt.Sprintf("Delete habit %q and its whole history?", name)) +
			"\n\n" + m.styles.Warning.Render("This cannot be undone. (y/n)"),
	)
}
