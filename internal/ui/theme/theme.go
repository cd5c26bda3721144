package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme and styling
type Theme struct {
	Name string

	// Background colors
	Background lipgloss.Color
	Foreground lipgloss.Color

	// UI elements
	Border        lipgloss.Color
	BorderFocused lipgloss.Color
	Selection     lipgloss.Color
	Cursor        lipgloss.Color
	Metadata      lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Query tree colors
	And    lipgloss.Color
	Or     lipgloss.Color
	Field  lipgloss.Color
	Value  lipgloss.Color
	Marked lipgloss.Color

	// Results table
	TableHeader lipgloss.Color

	// ChromaStyle names the chroma style used for the JSON preview
	ChromaStyle string
}

// Names lists the built-in themes
func Names() []string {
	return []string{"default", "catppuccin-mocha"}
}

// GetTheme returns a theme by name, falling back to the default
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha", "catppuccin":
		return CatppuccinMochaTheme()
	default:
		return DefaultTheme()
	}
}

// CombinatorColor returns the color used for an and/or separator
func (t Theme) CombinatorColor(comb string) lipgloss.Color {
	if comb == "or" {
		return t.Or
	}
	return t.And
}
