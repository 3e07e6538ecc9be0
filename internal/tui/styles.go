package tui

import "github.com/charmbracelet/lipgloss"

// Styles are built from a renderer so sessions served over SSH pick up the
// client's color profile.
type Styles struct {
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	Title       lipgloss.Style
	Muted       lipgloss.Style
	Danger      lipgloss.Style
	Warning     lipgloss.Style
	Status      lipgloss.Style
	Done        lipgloss.Style
	Missed      lipgloss.Style
	Body        lipgloss.Style
	Doc         lipgloss.Style
}

func NewStyles(r *lipgloss.Renderer) Styles {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return Styles{
		ActiveTab: r.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 1).
			Bold(true),
		InactiveTab: r.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(0, 1),
		Title: r.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true),
		Muted: r.NewStyle().
			Foreground(lipgloss.Color("240")),
		Danger: r.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		Warning: r.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true),
		Status: r.NewStyle().
			Foreground(lipgloss.Color("42")),
		Done: r.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true),
		Missed: r.NewStyle().
			Foreground(lipgloss.Color("238")),
		Body: r.NewStyle(),
		Doc:  r.NewStyle().Padding(1, 2),
	}
}
