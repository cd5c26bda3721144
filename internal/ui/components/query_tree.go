package components

// QueryTreeView renders the query tree one node per line and edits it
// through a filter.Editor.
//
// Keys:
//   - ↑↓/jk, g/G move the cursor; the node under the cursor is selected
//   - o switches the combinator of the group under the cursor
//   - d removes the node under the cursor
//   - m marks a node, Enter drops it onto the node under the cursor
//   - Enter on a filter with nothing marked opens it for editing

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazycirc/internal/filter"
	"github.com/rebeliceyang/lazycirc/internal/models"
	"github.com/rebeliceyang/lazycirc/internal/ui/theme"
)

// TreeChangedMsg is sent after the view mutated the tree
type TreeChangedMsg struct{}

// EditFilterMsg asks for the builder to be opened on an existing filter
type EditFilterMsg struct {
	Filter *models.ValueFilter
}

// QueryTreeView displays and edits a query tree
type QueryTreeView struct {
	Editor       filter.Editor
	CursorIndex  int
	ScrollOffset int
	Width        int
	Height       int
	Theme        theme.Theme
	// MarkedID is the node picked up for a move, "" when none
	MarkedID string
}

// NewQueryTreeView creates a tree view over editor
func NewQueryTreeView(editor filter.Editor, th theme.Theme) *QueryTreeView {
	return &QueryTreeView{
		Editor: editor,
		Width:  40,
		Height: 20,
		Theme:  th,
	}
}

func (tv *QueryTreeView) rows() []filter.Row {
	return filter.Flatten(tv.Editor.Tree())
}

// CurrentNode returns the node under the cursor
func (tv *QueryTreeView) CurrentNode() models.QueryNode {
	rows := tv.rows()
	if tv.CursorIndex < 0 || tv.CursorIndex >= len(rows) {
		return nil
	}
	return rows[tv.CursorIndex].Node
}

// SetCursorToNode moves the cursor to the node with id
func (tv *QueryTreeView) SetCursorToNode(id string) bool {
	for i, row := range tv.rows() {
		if row.Node.NodeID() == id {
			tv.CursorIndex = i
			return true
		}
	}
	return false
}

// Sync realigns the cursor and mark after the tree changed elsewhere
func (tv *QueryTreeView) Sync() {
	tree := tv.Editor.Tree()
	if tv.MarkedID != "" && filter.FindNode(tree, tv.MarkedID) == nil {
		tv.MarkedID = ""
	}
	if sel := tv.Editor.SelectedID(); sel == "" || !tv.SetCursorToNode(sel) {
		tv.clampCursor(len(tv.rows()))
	}
}

func (tv *QueryTreeView) clampCursor(n int) {
	if tv.CursorIndex >= n {
		tv.CursorIndex = n - 1
	}
	if tv.CursorIndex < 0 {
		tv.CursorIndex = 0
	}
}

func (tv *QueryTreeView) moveCursor(index int, rows []filter.Row) {
	tv.CursorIndex = index
	tv.clampCursor(len(rows))
	tv.Editor.Select(rows[tv.CursorIndex].Node.NodeID())
}

// Update handles keyboard input
func (tv *QueryTreeView) Update(msg tea.KeyMsg) (*QueryTreeView, tea.Cmd) {
	rows := tv.rows()
	if len(rows) == 0 {
		return tv, nil
	}
	tv.clampCursor(len(rows))
	current := rows[tv.CursorIndex].Node

	changed := func() tea.Msg { return TreeChangedMsg{} }

	switch msg.String() {
	case "up", "k":
		tv.moveCursor(tv.CursorIndex-1, rows)
	case "down", "j":
		tv.moveCursor(tv.CursorIndex+1, rows)
	case "g", "home":
		tv.ScrollOffset = 0
		tv.moveCursor(0, rows)
	case "G", "end":
		tv.moveCursor(len(rows)-1, rows)

	case "o":
		group, ok := current.(*models.BooleanFilter)
		if !ok {
			group = filter.FindParent(tv.Editor.Tree(), current.NodeID())
		}
		if group == nil {
			return tv, nil
		}
		tv.Editor.BooleanChange(group.ID, group.Combinator.Toggle())
		return tv, changed

	case "d", "x", "delete":
		tv.Editor.Remove(current.NodeID())
		tv.Sync()
		return tv, changed

	case "m":
		if tv.MarkedID == current.NodeID() {
			tv.MarkedID = ""
		} else {
			tv.MarkedID = current.NodeID()
		}

	case "esc":
		tv.MarkedID = ""

	case "enter":
		if tv.MarkedID != "" {
			marked := tv.MarkedID
			tv.MarkedID = ""
			tv.Editor.Move(marked, current.NodeID())
			tv.Editor.Select(marked)
			tv.Sync()
			return tv, changed
		}
		if leaf, ok := current.(*models.ValueFilter); ok {
			return tv, func() tea.Msg { return EditFilterMsg{Filter: leaf} }
		}
	}
	return tv, nil
}

// View renders the tree
func (tv *QueryTreeView) View() string {
	rows := tv.rows()
	if len(rows) == 0 {
		return tv.emptyState()
	}
	tv.clampCursor(len(rows))

	viewHeight := tv.Height - 2
	if viewHeight < 1 {
		viewHeight = 1
	}
	tv.adjustScrollOffset(len(rows), viewHeight)

	start := tv.ScrollOffset
	end := start + viewHeight
	if end > len(rows) {
		end = len(rows)
	}

	lines := make([]string, 0, viewHeight)
	for i := start; i < end; i++ {
		lines = append(lines, tv.renderRow(rows[i], i == tv.CursorIndex))
	}
	for len(lines) < viewHeight {
		lines = append(lines, "")
	}

	if start > 0 {
		lines[0] = lipgloss.NewStyle().Foreground(tv.Theme.Info).Render("↑ more")
	}
	if end < len(rows) {
		lines[len(lines)-1] = lipgloss.NewStyle().Foreground(tv.Theme.Info).Render("↓ more")
	}
	return strings.Join(lines, "\n")
}

func (tv *QueryTreeView) renderRow(row filter.Row, selected bool) string {
	maxWidth := tv.Width - 2
	if maxWidth < 10 {
		maxWidth = 10
	}

	var joiner string
	switch {
	case row.Depth == 0:
		joiner = ""
	case row.Index == 0:
		joiner = "    "
	default:
		joiner = fmt.Sprintf("%-4s", strings.ToUpper(string(row.Joiner)))
	}
	indent := strings.Repeat("  ", max(row.Depth-1, 0))

	marker := "  "
	if row.Node.NodeID() == tv.MarkedID {
		marker = "» "
	}

	var label string
	switch n := row.Node.(type) {
	case *models.BooleanFilter:
		word := "ALL of"
		if n.Combinator == models.CombinatorOr {
			word = "ANY of"
		}
		label = fmt.Sprintf("▾ %s (%d)", word, len(n.Children))
	case *models.ValueFilter:
		label = "• " + filter.Format(n)
	}

	content := marker + indent + joiner + label
	if runewidth.StringWidth(content) > maxWidth {
		content = runewidth.Truncate(content, maxWidth, "…")
	}

	if selected {
		return lipgloss.NewStyle().
			Background(tv.Theme.Selection).
			Foreground(tv.Theme.Foreground).
			Bold(true).
			Width(maxWidth).
			Render(content)
	}

	style := lipgloss.NewStyle().Foreground(tv.Theme.Foreground)
	switch {
	case row.Node.NodeID() == tv.MarkedID:
		style = style.Foreground(tv.Theme.Marked)
	case models.IsBoolean(row.Node):
		style = style.Foreground(tv.Theme.CombinatorColor(string(row.Node.(*models.BooleanFilter).Combinator)))
	}
	return style.Width(maxWidth).Render(content)
}

func (tv *QueryTreeView) adjustScrollOffset(total, viewHeight int) {
	if tv.CursorIndex < tv.ScrollOffset {
		tv.ScrollOffset = tv.CursorIndex
	}
	if tv.CursorIndex >= tv.ScrollOffset+viewHeight {
		tv.ScrollOffset = tv.CursorIndex - viewHeight + 1
	}
	maxScroll := max(total-viewHeight, 0)
	tv.ScrollOffset = min(max(tv.ScrollOffset, 0), maxScroll)
}

func (tv *QueryTreeView) emptyState() string {
	style := lipgloss.NewStyle().
		Foreground(tv.Theme.Metadata).
		Italic(true).
		Width(max(tv.Width-2, 1)).
		Align(lipgloss.Center)

	return style.Render("No filters. Press a to add one.")
}
