package components

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazycirc/internal/filter"
	"github.com/rebeliceyang/lazycirc/internal/ui/theme"
)

// Expression input modes
const (
	// ModeReplace replaces the query tree and searches the server
	ModeReplace = "replace"
	// ModeRefine filters the current result page locally
	ModeRefine = "refine"
)

// ExpressionSubmitMsg is sent when an expression is entered
type ExpressionSubmitMsg struct {
	Text string
	Mode string
}

// CloseExpressionMsg is sent when the input should close
type CloseExpressionMsg struct{}

// ExpressionInput is a one-line editor for text query expressions
type ExpressionInput struct {
	Input textinput.Model
	Mode  string
	Theme theme.Theme
	Width int

	err error
}

// NewExpressionInput creates a new expression input
func NewExpressionInput(th theme.Theme) *ExpressionInput {
	ti := textinput.New()
	ti.Placeholder = `genre = Horror and (author : King or title ~ "^It")`
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = 60

	return &ExpressionInput{
		Input: ti,
		Mode:  ModeReplace,
		Theme: th,
		Width: 80,
	}
}

// ToggleMode switches between replacing the query and refining results
func (e *ExpressionInput) ToggleMode() {
	if e.Mode == ModeReplace {
		e.Mode = ModeRefine
	} else {
		e.Mode = ModeReplace
	}
}

// Open shows the input prefilled with text
func (e *ExpressionInput) Open(text string) {
	e.Input.SetValue(text)
	e.Input.CursorEnd()
	e.Input.Focus()
	e.err = nil
}

// SetError shows a parse or search error under the input
func (e *ExpressionInput) SetError(err error) {
	e.err = err
}

// Update handles messages
func (e *ExpressionInput) Update(msg tea.Msg) (*ExpressionInput, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab":
			e.ToggleMode()
			return e, nil
		case "enter":
			text := strings.TrimSpace(e.Input.Value())
			mode := e.Mode
			return e, func() tea.Msg {
				return ExpressionSubmitMsg{Text: text, Mode: mode}
			}
		case "esc":
			return e, func() tea.Msg {
				return CloseExpressionMsg{}
			}
		}
		e.err = nil
	}

	var cmd tea.Cmd
	e.Input, cmd = e.Input.Update(msg)
	return e, cmd
}

// View renders the expression input
func (e *ExpressionInput) View() string {
	modeIndicator := "[Query]"
	modeColor := e.Theme.Success
	if e.Mode == ModeRefine {
		modeIndicator = "[Refine]"
		modeColor = e.Theme.Info
	}
	modeStyle := lipgloss.NewStyle().Foreground(modeColor).Bold(true)

	e.Input.Width = max(e.Width-16, 20)

	lines := []string{modeStyle.Render(modeIndicator) + " " + e.Input.View()}

	if e.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(e.Theme.Error)
		var perr *filter.ParseError
		if errors.As(e.err, &perr) {
			// Caret under the offending position; the prompt is "> "
			offset := runeOffset(e.Input.Value(), perr.Position)
			lines = append(lines, strings.Repeat(" ", len(modeIndicator)+3+offset)+errStyle.Render("^"))
		}
		lines = append(lines, errStyle.Render(capitalize(e.err.Error())))
	}

	helpStyle := lipgloss.NewStyle().Foreground(e.Theme.Metadata).Italic(true)
	lines = append(lines, helpStyle.Render("Tab: query/refine │ Enter: run │ Esc: close"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(e.Theme.BorderFocused).
		Padding(0, 1).
		Width(e.Width).
		Render(strings.Join(lines, "\n"))
}

// runeOffset converts a byte position into a rune count
// capitalize upper-cases the first letter of an error message for display
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func runeOffset(s string, pos int) int {
	if pos > len(s) {
		pos = len(s)
	}
	return len([]rune(s[:max(pos, 0)]))
}
