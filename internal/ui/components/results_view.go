package components

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazycirc/internal/models"
	"github.com/rebeliceyang/lazycirc/internal/ui/theme"
)

var resultColumns = []string{"Title", "Author", "Published", "Lang", "Genre"}

// ResultsView displays a page of search results with virtual scrolling
type ResultsView struct {
	Entries []models.Entry
	Width   int
	Height  int
	Theme   theme.Theme

	TopRow      int
	VisibleRows int
	SelectedRow int

	// HasMore is set when the server has another page
	HasMore bool
	// Note is shown in the status line, e.g. "refined locally"
	Note string

	columnWidths []int
}

// NewResultsView creates an empty results view
func NewResultsView(th theme.Theme) *ResultsView {
	return &ResultsView{Theme: th}
}

// SetEntries replaces the displayed entries. The view keeps its own copy so
// later appends never write into the caller's array.
func (rv *ResultsView) SetEntries(entries []models.Entry, hasMore bool) {
	rv.Entries = slices.Clone(entries)
	rv.HasMore = hasMore
	rv.TopRow = 0
	rv.SelectedRow = 0
	rv.calculateColumnWidths()
}

// AppendEntries adds the next page below the current entries
func (rv *ResultsView) AppendEntries(entries []models.Entry, hasMore bool) {
	rv.Entries = append(rv.Entries, entries...)
	rv.HasMore = hasMore
	rv.calculateColumnWidths()
}

// Selected returns the entry under the cursor
func (rv *ResultsView) Selected() *models.Entry {
	if rv.SelectedRow < 0 || rv.SelectedRow >= len(rv.Entries) {
		return nil
	}
	return &rv.Entries[rv.SelectedRow]
}

// NearEnd reports whether the cursor is within a few rows of the last entry
func (rv *ResultsView) NearEnd() bool {
	return len(rv.Entries) > 0 && rv.SelectedRow >= len(rv.Entries)-5
}

func entryCells(e models.Entry) []string {
	return []string{
		e.Title,
		strings.Join(e.Authors, ", "),
		e.Published,
		e.Language,
		strings.Join(e.CategoryTerms(models.SchemeGenre), ", "),
	}
}

func (rv *ResultsView) calculateColumnWidths() {
	rv.columnWidths = make([]int, len(resultColumns))
	for i, col := range resultColumns {
		rv.columnWidths[i] = runewidth.StringWidth(col)
	}
	for _, e := range rv.Entries {
		for i, cell := range entryCells(e) {
			if w := runewidth.StringWidth(cell); w > rv.columnWidths[i] {
				rv.columnWidths[i] = w
			}
		}
	}
	for i := range rv.columnWidths {
		rv.columnWidths[i] = min(max(rv.columnWidths[i], 4), 40)
	}
}

// View renders the results table
func (rv *ResultsView) View() string {
	if len(rv.Entries) == 0 {
		return lipgloss.NewStyle().
			Foreground(rv.Theme.Metadata).
			Italic(true).
			Render("No results. Build a query and press s to search.")
	}
	if len(rv.columnWidths) == 0 {
		rv.calculateColumnWidths()
	}

	var b strings.Builder
	b.WriteString(rv.renderHeader())
	b.WriteString("\n")
	b.WriteString(rv.renderSeparator())
	b.WriteString("\n")

	// Header + separator + status
	rv.VisibleRows = max(rv.Height-3, 1)
	rv.ensureVisible()

	end := min(rv.TopRow+rv.VisibleRows, len(rv.Entries))
	for i := rv.TopRow; i < end; i++ {
		b.WriteString(rv.renderRow(entryCells(rv.Entries[i]), i == rv.SelectedRow))
		b.WriteString("\n")
	}

	b.WriteString(rv.renderStatus())
	return lipgloss.NewStyle().MaxWidth(rv.Width).Render(b.String())
}

func (rv *ResultsView) renderHeader() string {
	parts := make([]string, len(resultColumns))
	for i, col := range resultColumns {
		parts[i] = pad(col, rv.columnWidths[i])
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(rv.Theme.TableHeader).
		Render(" " + strings.Join(parts, " │ ") + " ")
}

func (rv *ResultsView) renderSeparator() string {
	parts := make([]string, len(rv.columnWidths))
	for i, width := range rv.columnWidths {
		parts[i] = strings.Repeat("─", width)
	}
	return lipgloss.NewStyle().
		Foreground(rv.Theme.Border).
		Render("─" + strings.Join(parts, "─┼─") + "─")
}

func (rv *ResultsView) renderRow(cells []string, selected bool) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = pad(cell, rv.columnWidths[i])
	}
	line := " " + strings.Join(parts, " │ ") + " "

	if selected {
		return lipgloss.NewStyle().
			Background(rv.Theme.Selection).
			Foreground(rv.Theme.Foreground).
			Bold(true).
			Render(line)
	}
	return line
}

func (rv *ResultsView) renderStatus() string {
	status := fmt.Sprintf(" %d of %d", rv.SelectedRow+1, len(rv.Entries))
	if rv.HasMore {
		status += ", more on the server"
	}
	if rv.Note != "" {
		status += " · " + rv.Note
	}
	return lipgloss.NewStyle().
		Foreground(rv.Theme.Metadata).
		Italic(true).
		Render(status)
}

// pad fits s into width display cells
func pad(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

func (rv *ResultsView) ensureVisible() {
	if rv.SelectedRow < rv.TopRow {
		rv.TopRow = rv.SelectedRow
	}
	if rv.VisibleRows > 0 && rv.SelectedRow >= rv.TopRow+rv.VisibleRows {
		rv.TopRow = rv.SelectedRow - rv.VisibleRows + 1
	}
	rv.TopRow = max(rv.TopRow, 0)
}

// MoveSelection moves the selection up or down
func (rv *ResultsView) MoveSelection(delta int) {
	if len(rv.Entries) == 0 {
		return
	}
	rv.SelectedRow = min(max(rv.SelectedRow+delta, 0), len(rv.Entries)-1)
	rv.ensureVisible()
}

// PageUp moves the selection one screen up
func (rv *ResultsView) PageUp() {
	rv.MoveSelection(-max(rv.VisibleRows, 1))
}

// PageDown moves the selection one screen down
func (rv *ResultsView) PageDown() {
	rv.MoveSelection(max(rv.VisibleRows, 1))
}
