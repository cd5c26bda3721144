package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazycirc/internal/lists"
	"github.com/rebeliceyang/lazycirc/internal/models"
	"github.com/rebeliceyang/lazycirc/internal/ui/theme"
)

// ListsMode represents the dialog mode
type ListsMode int

const (
	ListsModeBrowse ListsMode = iota
	ListsModeSearch
	ListsModeSave
)

// LoadListMsg is sent when a saved list should replace the query tree
type LoadListMsg struct {
	List models.CustomList
}

// SaveListMsg is sent when the current query should be saved
type SaveListMsg struct {
	Name        string
	Description string
	Tags        []string
}

// DeleteListMsg is sent when a saved list should be removed
type DeleteListMsg struct {
	ID string
}

// CloseListsDialogMsg is sent when the dialog should close
type CloseListsDialogMsg struct{}

const (
	saveFieldName = iota
	saveFieldDescription
	saveFieldTags
	saveFieldCount
)

// ListsDialog browses and saves custom lists
type ListsDialog struct {
	Width  int
	Height int
	Theme  theme.Theme

	mode     ListsMode
	all      []models.CustomList
	visible  []models.CustomList
	selected int
	offset   int

	search       textinput.Model
	fields       [saveFieldCount]textinput.Model
	currentField int
	// Expression is the query being saved, shown in the save form
	Expression string
}

// NewListsDialog creates a new lists dialog
func NewListsDialog(th theme.Theme) *ListsDialog {
	search := textinput.New()
	search.Placeholder = "name, t:tag, lib:library, !exclude"
	search.Prompt = "/ "

	ld := &ListsDialog{
		Width:  80,
		Height: 24,
		Theme:  th,
		search: search,
	}
	placeholders := [saveFieldCount]string{"Name", "Description", "Tags (comma separated)"}
	for i := range ld.fields {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 200
		ld.fields[i] = ti
	}
	return ld
}

// SetLists replaces the lists shown in the dialog
func (ld *ListsDialog) SetLists(all []models.CustomList) {
	ld.all = all
	ld.applySearch()
}

// Mode returns the current dialog mode
func (ld *ListsDialog) Mode() ListsMode {
	return ld.mode
}

// Visible returns the lists matching the current search
func (ld *ListsDialog) Visible() []models.CustomList {
	return ld.visible
}

// StartSave opens the save form for expression
func (ld *ListsDialog) StartSave(expression string) {
	ld.mode = ListsModeSave
	ld.Expression = expression
	for i := range ld.fields {
		ld.fields[i].SetValue("")
	}
	ld.focusField(saveFieldName)
}

func (ld *ListsDialog) focusField(i int) {
	ld.currentField = i
	for j := range ld.fields {
		if j == i {
			ld.fields[j].Focus()
		} else {
			ld.fields[j].Blur()
		}
	}
}

func (ld *ListsDialog) applySearch() {
	q := lists.ParseSearchQuery(ld.search.Value())
	ld.visible = nil
	for _, l := range ld.all {
		if lists.Matches(l, q) {
			ld.visible = append(ld.visible, l)
		}
	}
	if ld.selected >= len(ld.visible) {
		ld.selected = max(len(ld.visible)-1, 0)
	}
	ld.offset = min(ld.offset, ld.selected)
}

// Update handles keyboard input
func (ld *ListsDialog) Update(msg tea.KeyMsg) (*ListsDialog, tea.Cmd) {
	switch ld.mode {
	case ListsModeSearch:
		return ld.handleSearchMode(msg)
	case ListsModeSave:
		return ld.handleSaveMode(msg)
	}
	return ld.handleBrowseMode(msg)
}

func (ld *ListsDialog) handleBrowseMode(msg tea.KeyMsg) (*ListsDialog, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return ld, func() tea.Msg { return CloseListsDialogMsg{} }
	case "up", "k":
		if ld.selected > 0 {
			ld.selected--
			ld.offset = min(ld.offset, ld.selected)
		}
	case "down", "j":
		if ld.selected < len(ld.visible)-1 {
			ld.selected++
			if rows := ld.visibleRows(); ld.selected >= ld.offset+rows {
				ld.offset = ld.selected - rows + 1
			}
		}
	case "/":
		ld.mode = ListsModeSearch
		ld.search.Focus()
	case "enter":
		if ld.selected < len(ld.visible) {
			l := ld.visible[ld.selected]
			return ld, func() tea.Msg { return LoadListMsg{List: l} }
		}
	case "d", "x":
		if ld.selected < len(ld.visible) {
			id := ld.visible[ld.selected].ID
			return ld, func() tea.Msg { return DeleteListMsg{ID: id} }
		}
	}
	return ld, nil
}

func (ld *ListsDialog) handleSearchMode(msg tea.KeyMsg) (*ListsDialog, tea.Cmd) {
	switch msg.String() {
	case "esc":
		ld.search.SetValue("")
		ld.applySearch()
		fallthrough
	case "enter":
		ld.mode = ListsModeBrowse
		ld.search.Blur()
		return ld, nil
	}

	var cmd tea.Cmd
	ld.search, cmd = ld.search.Update(msg)
	ld.applySearch()
	return ld, cmd
}

func (ld *ListsDialog) handleSaveMode(msg tea.KeyMsg) (*ListsDialog, tea.Cmd) {
	switch msg.String() {
	case "esc":
		ld.mode = ListsModeBrowse
		return ld, nil
	case "tab", "down":
		ld.focusField((ld.currentField + 1) % saveFieldCount)
		return ld, nil
	case "shift+tab", "up":
		ld.focusField((ld.currentField + saveFieldCount - 1) % saveFieldCount)
		return ld, nil
	case "enter":
		if ld.currentField < saveFieldTags {
			ld.focusField(ld.currentField + 1)
			return ld, nil
		}
		name, description, tags := ld.GetEditData()
		if name == "" {
			ld.focusField(saveFieldName)
			return ld, nil
		}
		ld.mode = ListsModeBrowse
		return ld, func() tea.Msg {
			return SaveListMsg{Name: name, Description: description, Tags: tags}
		}
	}

	var cmd tea.Cmd
	ld.fields[ld.currentField], cmd = ld.fields[ld.currentField].Update(msg)
	return ld, cmd
}

// GetEditData returns the contents of the save form
func (ld *ListsDialog) GetEditData() (name, description string, tags []string) {
	name = strings.TrimSpace(ld.fields[saveFieldName].Value())
	description = strings.TrimSpace(ld.fields[saveFieldDescription].Value())
	for _, part := range strings.Split(ld.fields[saveFieldTags].Value(), ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return name, description, tags
}

// each list takes two lines
func (ld *ListsDialog) visibleRows() int {
	return max((ld.Height-8)/2, 1)
}

// View renders the dialog
func (ld *ListsDialog) View() string {
	if ld.mode == ListsModeSave {
		return ld.renderSave()
	}
	return ld.renderBrowse()
}

func (ld *ListsDialog) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(ld.Theme.Foreground).
		Background(ld.Theme.Info).
		Padding(0, 1).
		Bold(true)
}

func (ld *ListsDialog) container() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ld.Theme.BorderFocused).
		Width(ld.Width).
		Height(ld.Height).
		Padding(1)
}

func (ld *ListsDialog) renderBrowse() string {
	instrStyle := lipgloss.NewStyle().Foreground(ld.Theme.Metadata).Padding(0, 1)
	sections := []string{
		ld.titleStyle().Render("Saved Lists"),
		instrStyle.Render("↑↓: Navigate  Enter: Load  /: Search  d: Delete  Esc: Close"),
	}
	if ld.mode == ListsModeSearch || ld.search.Value() != "" {
		sections = append(sections, ld.search.View())
	}
	sections = append(sections, "")

	if len(ld.visible) == 0 {
		if len(ld.all) == 0 {
			sections = append(sections, "No saved lists yet. Press S in the query panel to save one.")
		} else {
			sections = append(sections, "No lists match.")
		}
	}

	width := max(ld.Width-6, 20)
	end := min(ld.offset+ld.visibleRows(), len(ld.visible))
	for i := ld.offset; i < end; i++ {
		l := ld.visible[i]
		head := l.Name
		if len(l.Tags) > 0 {
			head += fmt.Sprintf(" [%s]", strings.Join(l.Tags, ", "))
		}
		if l.UsageCount > 0 {
			head += fmt.Sprintf(" · used %d×", l.UsageCount)
		}
		line := runewidth.Truncate(head, width, "…") + "\n  " +
			runewidth.Truncate(l.Expression, width-2, "…")

		style := lipgloss.NewStyle().Padding(0, 1)
		if i == ld.selected {
			style = style.Background(ld.Theme.Selection).Foreground(ld.Theme.Foreground)
		}
		sections = append(sections, style.Render(line))
	}

	return ld.container().Render(strings.Join(sections, "\n"))
}

func (ld *ListsDialog) renderSave() string {
	instrStyle := lipgloss.NewStyle().Foreground(ld.Theme.Metadata).Padding(0, 1)
	exprStyle := lipgloss.NewStyle().Foreground(ld.Theme.Value).Italic(true).Padding(0, 1)

	sections := []string{
		ld.titleStyle().Render("Save List"),
		instrStyle.Render("Tab: Next field  Enter: Save  Esc: Cancel"),
		"",
		exprStyle.Render(ld.Expression),
		"",
	}
	labels := [saveFieldCount]string{"Name:", "Description:", "Tags:"}
	for i, f := range ld.fields {
		style := lipgloss.NewStyle().Padding(0, 1)
		if i == ld.currentField {
			style = style.Background(ld.Theme.Selection).Foreground(ld.Theme.Foreground)
		}
		sections = append(sections, style.Render(fmt.Sprintf("%-13s %s", labels[i], f.View())))
	}

	return ld.container().Render(strings.Join(sections, "\n"))
}
