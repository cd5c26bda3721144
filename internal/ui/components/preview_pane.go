package components

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazycirc/internal/ui/theme"
)

// clipboardWrite is replaced in tests
var clipboardWrite = clipboard.WriteAll

// PreviewPane shows JSON (the q parameter or a result entry) pretty-printed
// and highlighted
type PreviewPane struct {
	Width     int
	MaxHeight int
	Content   string // raw content, copied verbatim
	Title     string
	Visible   bool

	scrollY      int
	contentLines []string // formatted lines, nil until needed

	Theme theme.Theme
	style lipgloss.Style

	chromaStyle     *chroma.Style
	chromaFormatter chroma.Formatter
	lexer           chroma.Lexer
}

// NewPreviewPane creates a new preview pane
func NewPreviewPane(th theme.Theme) *PreviewPane {
	p := &PreviewPane{
		Width:     80,
		MaxHeight: 12,
		Theme:     th,
		style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(th.Border).
			Padding(0, 1),
	}

	p.chromaStyle = styles.Get(th.ChromaStyle)
	if p.chromaStyle == nil {
		p.chromaStyle = styles.Fallback
	}
	p.chromaFormatter = formatters.Get("terminal256")
	if p.chromaFormatter == nil {
		p.chromaFormatter = formatters.Fallback
	}
	if l := lexers.Get("json"); l != nil {
		p.lexer = chroma.Coalesce(l)
	}
	return p
}

// SetContent sets the content to display
func (p *PreviewPane) SetContent(content, title string) {
	if p.Content == content && p.Title == title {
		return
	}
	p.Content = content
	p.Title = title
	p.scrollY = 0
	p.contentLines = nil
}

// Toggle shows or hides the pane. An empty pane stays hidden.
func (p *PreviewPane) Toggle() {
	if p.Visible {
		p.Visible = false
		p.contentLines = nil
		return
	}
	if p.Content != "" {
		p.Visible = true
	}
}

// Height returns the rendered height, 0 when hidden
func (p *PreviewPane) Height() int {
	if !p.Visible {
		return 0
	}
	return p.MaxHeight
}

func (p *PreviewPane) innerWidth() int {
	return max(p.Width-p.style.GetHorizontalFrameSize(), 10)
}

// bodyLines is the number of content lines between header and footer
func (p *PreviewPane) bodyLines() int {
	return max(p.MaxHeight-p.style.GetVerticalFrameSize()-2, 1)
}

func (p *PreviewPane) formatContent() {
	formatted := p.Content
	var parsed any
	if err := json.Unmarshal([]byte(p.Content), &parsed); err == nil {
		if pretty, err := json.MarshalIndent(parsed, "", "  "); err == nil {
			formatted = string(pretty)
		}
	}
	p.contentLines = wrapText(formatted, p.innerWidth())
}

// wrapText hard-wraps text to maxWidth display cells
func wrapText(text string, maxWidth int) []string {
	var result []string
	for _, line := range strings.Split(text, "\n") {
		if runewidth.StringWidth(line) <= maxWidth {
			result = append(result, line)
			continue
		}

		var current strings.Builder
		width := 0
		for _, r := range line {
			rw := runewidth.RuneWidth(r)
			if width+rw > maxWidth {
				result = append(result, current.String())
				current.Reset()
				width = 0
			}
			current.WriteRune(r)
			width += rw
		}
		if current.Len() > 0 {
			result = append(result, current.String())
		}
	}
	return result
}

func (p *PreviewPane) highlight(line string) string {
	if line == "" || p.lexer == nil {
		return line
	}
	iterator, err := p.lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}
	var buf bytes.Buffer
	if err := p.chromaFormatter.Format(&buf, p.chromaStyle, iterator); err != nil {
		return line
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// ScrollUp scrolls content up
func (p *PreviewPane) ScrollUp() {
	if p.scrollY > 0 {
		p.scrollY--
	}
}

// ScrollDown scrolls content down
func (p *PreviewPane) ScrollDown() {
	if p.contentLines == nil {
		p.formatContent()
	}
	maxScroll := max(len(p.contentLines)-p.bodyLines(), 0)
	if p.scrollY < maxScroll {
		p.scrollY++
	}
}

// CopyContent copies the raw content to the clipboard
func (p *PreviewPane) CopyContent() error {
	return clipboardWrite(p.Content)
}

// View renders the preview pane
func (p *PreviewPane) View() string {
	if !p.Visible {
		return ""
	}
	if p.contentLines == nil {
		p.formatContent()
	}

	width := p.innerWidth()
	titleStyle := lipgloss.NewStyle().Foreground(p.Theme.Info).Bold(true)
	header := "Preview"
	if p.Title != "" {
		header += ": " + p.Title
	}
	header = titleStyle.Render(runewidth.Truncate(header, width, "…"))

	parts := []string{header}
	end := min(p.scrollY+p.bodyLines(), len(p.contentLines))
	for _, line := range p.contentLines[p.scrollY:end] {
		parts = append(parts, p.highlight(line))
	}

	help := []string{"y: Copy", "p: Toggle"}
	if len(p.contentLines) > p.bodyLines() {
		help = append([]string{"↑↓: Scroll"}, help...)
	}
	helpText := strings.Join(help, " │ ")
	footer := strings.Repeat(" ", max(width-runewidth.StringWidth(helpText), 0)) +
		lipgloss.NewStyle().Foreground(p.Theme.Metadata).Italic(true).Render(helpText)
	parts = append(parts, footer)

	inner := max(p.MaxHeight-p.style.GetVerticalFrameSize(), 3)
	return p.style.
		Width(width).
		Height(inner).
		MaxHeight(p.MaxHeight).
		Render(strings.Join(parts, "\n"))
}
