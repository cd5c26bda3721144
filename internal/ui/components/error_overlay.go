package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazycirc/internal/ui/theme"
)

// ErrorOverlay shows an error in a centered box until dismissed
type ErrorOverlay struct {
	Title   string
	Message string
	Width   int
	Theme   theme.Theme
}

// NewErrorOverlay creates an error overlay
func NewErrorOverlay(th theme.Theme) *ErrorOverlay {
	return &ErrorOverlay{Width: 60, Theme: th}
}

// SetError sets the title and message
func (e *ErrorOverlay) SetError(title, message string) {
	e.Title = title
	e.Message = message
}

// View renders the overlay
func (e *ErrorOverlay) View() string {
	title := lipgloss.NewStyle().Foreground(e.Theme.Error).Bold(true).Render(e.Title)
	hint := lipgloss.NewStyle().Foreground(e.Theme.Metadata).Italic(true).Render("Esc/Enter to dismiss")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(e.Theme.Error).
		Padding(1, 2).
		Width(e.Width).
		Render(strings.Join([]string{title, "", e.Message, "", hint}, "\n"))
}
