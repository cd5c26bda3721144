package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazycirc/internal/ui/theme"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section is a titled group of key bindings
type Section struct {
	Title string
	Keys  []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit application"},
		{"Esc/Enter", "Dismiss error"},
		{"Tab", "Switch panel focus"},
		{"s", "Search with the current query"},
		{"/", "Type a query expression"},
		{"L", "Open saved lists"},
		{"p", "Toggle JSON preview"},
		{"y", "Copy the q parameter"},
	}
}

// GetQueryKeys returns query panel key bindings
func GetQueryKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k ↓/j", "Move and select"},
		{"a", "Add a filter next to the selection"},
		{"Enter", "Edit filter, or drop the marked node"},
		{"m", "Mark a node to move"},
		{"o", "Switch and/or of the group"},
		{"d", "Remove node"},
		{"C", "Clear all filters"},
		{"S", "Save as a list"},
	}
}

// GetBuilderKeys returns query builder key bindings
func GetBuilderKeys() []KeyBinding {
	return []KeyBinding{
		{"↑↓ Enter", "Pick field and operator"},
		{"Tab", "Join with and/or"},
		{"Ctrl+X", "Replace all filters"},
		{"Esc", "Back / cancel"},
	}
}

// GetResultsKeys returns results panel key bindings
func GetResultsKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k ↓/j", "Move selection"},
		{"Ctrl+U/Ctrl+D", "Page up / down"},
		{"n", "Load the next page"},
		{"r", "Refine this page locally"},
	}
}

// Sections returns every help section in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Query", GetQueryKeys()},
		{"Builder", GetBuilderKeys()},
		{"Results", GetResultsKeys()},
	}
}

// Render creates the help view
func Render(width, height int, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Info).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Warning).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder
	b.WriteString(titleStyle.Render("lazycirc - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, section := range Sections() {
		b.WriteString(sectionStyle.Render(section.Title))
		b.WriteString("\n")
		for _, kb := range section.Keys {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2).
		Width(max(width-4, 20)).
		MaxHeight(max(height, 10))

	return boxStyle.Render(b.String())
}
