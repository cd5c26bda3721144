package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazycirc/internal/filter"
	"github.com/rebeliceyang/lazycirc/internal/models"
	"github.com/rebeliceyang/lazycirc/internal/ui/theme"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// newSessionTree builds genre = Horror and author : King and title = It
func newSessionTree(t *testing.T) (*filter.Session, *QueryTreeView) {
	t.Helper()
	s := filter.NewSession()
	s.Add(models.FieldGenre, models.OpEqual, "Horror", models.CombinatorAnd, false)
	s.Add(models.FieldAuthor, models.OpContains, "King", models.CombinatorAnd, false)
	s.Add(models.FieldTitle, models.OpEqual, "It", models.CombinatorAnd, false)

	tv := NewQueryTreeView(s, theme.DefaultTheme())
	tv.Width = 60
	tv.Height = 20
	return s, tv
}

func TestQueryTreeView_EmptyState(t *testing.T) {
	tv := NewQueryTreeView(filter.NewSession(), theme.DefaultTheme())

	if !strings.Contains(tv.View(), "No filters") {
		t.Error("Expected empty state message")
	}
	if _, cmd := tv.Update(key("d")); cmd != nil {
		t.Error("Expected no command on an empty tree")
	}
}

func TestQueryTreeView_Render(t *testing.T) {
	_, tv := newSessionTree(t)
	view := tv.View()

	for _, want := range []string{"ALL of (3)", "genre = Horror", "AND", "author : King", "title = It"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q, got:\n%s", want, view)
		}
	}
}

func TestQueryTreeView_NavigationSelects(t *testing.T) {
	s, tv := newSessionTree(t)

	tv, _ = tv.Update(key("down"))
	if tv.CursorIndex != 1 {
		t.Fatalf("Expected cursor at 1, got %d", tv.CursorIndex)
	}
	if got := filter.Format(filter.FindNode(s.Tree(), s.SelectedID())); got != "genre = Horror" {
		t.Errorf("Expected genre filter to be selected, got %s", got)
	}

	tv, _ = tv.Update(key("G"))
	if tv.CursorIndex != 3 {
		t.Errorf("Expected cursor at bottom, got %d", tv.CursorIndex)
	}
	tv, _ = tv.Update(key("down"))
	if tv.CursorIndex != 3 {
		t.Errorf("Expected cursor to stay at bottom, got %d", tv.CursorIndex)
	}
	tv, _ = tv.Update(key("g"))
	if tv.CursorIndex != 0 || s.SelectedID() != s.Tree().NodeID() {
		t.Errorf("Expected cursor and selection on the root, got %d / %s", tv.CursorIndex, s.SelectedID())
	}
}

func TestQueryTreeView_ToggleCombinator(t *testing.T) {
	s, tv := newSessionTree(t)

	// On a leaf, o switches its parent group
	tv, _ = tv.Update(key("down"))
	_, cmd := tv.Update(key("o"))
	if cmd == nil {
		t.Fatal("Expected a TreeChangedMsg command")
	}
	if _, ok := cmd().(TreeChangedMsg); !ok {
		t.Error("Expected TreeChangedMsg")
	}

	want := "genre = Horror or author : King or title = It"
	if got := filter.Format(s.Tree()); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestQueryTreeView_Remove(t *testing.T) {
	s, tv := newSessionTree(t)

	tv, _ = tv.Update(key("G"))
	tv, _ = tv.Update(key("d"))
	tv, _ = tv.Update(key("d"))

	// The group collapsed to its last child
	if got := filter.Format(s.Tree()); got != "genre = Horror" {
		t.Errorf("Expected only the genre filter to remain, got %s", got)
	}
	if tv.CursorIndex != 0 {
		t.Errorf("Expected cursor clamped to 0, got %d", tv.CursorIndex)
	}
}

func TestQueryTreeView_MarkAndDrop(t *testing.T) {
	s, tv := newSessionTree(t)

	// Mark title = It, drop it on genre = Horror
	tv, _ = tv.Update(key("G"))
	tv, _ = tv.Update(key("m"))
	marked := tv.MarkedID
	if marked == "" {
		t.Fatal("Expected a marked node")
	}
	if !strings.Contains(tv.View(), "» ") {
		t.Error("Expected the marked row to be flagged")
	}

	tv, _ = tv.Update(key("g"))
	tv, _ = tv.Update(key("down"))
	tv, cmd := tv.Update(key("enter"))
	if cmd == nil {
		t.Fatal("Expected a TreeChangedMsg command")
	}
	if tv.MarkedID != "" {
		t.Error("Expected the mark to clear after the drop")
	}

	want := "(title = It and genre = Horror) and author : King"
	if got := filter.Format(s.Tree()); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
	if s.SelectedID() != marked {
		t.Errorf("Expected the moved node to stay selected, got %s", s.SelectedID())
	}
	if current := tv.CurrentNode(); current == nil || current.NodeID() != marked {
		t.Error("Expected the cursor to follow the moved node")
	}
}

func TestQueryTreeView_MarkToggleAndCancel(t *testing.T) {
	_, tv := newSessionTree(t)

	tv, _ = tv.Update(key("m"))
	tv, _ = tv.Update(key("m"))
	if tv.MarkedID != "" {
		t.Error("Expected a second m to unmark")
	}

	tv, _ = tv.Update(key("m"))
	tv, _ = tv.Update(key("esc"))
	if tv.MarkedID != "" {
		t.Error("Expected esc to clear the mark")
	}
}

func TestQueryTreeView_EnterEditsLeaf(t *testing.T) {
	_, tv := newSessionTree(t)

	tv, _ = tv.Update(key("down"))
	_, cmd := tv.Update(key("enter"))
	if cmd == nil {
		t.Fatal("Expected an EditFilterMsg command")
	}
	msg, ok := cmd().(EditFilterMsg)
	if !ok {
		t.Fatal("Expected EditFilterMsg")
	}
	if msg.Filter.Key != models.FieldGenre || msg.Filter.Value != "Horror" {
		t.Errorf("Unexpected filter %+v", msg.Filter)
	}
}

func TestQueryTreeView_Scrolling(t *testing.T) {
	s := filter.NewSession()
	for i := 0; i < 20; i++ {
		s.Add(models.FieldGenre, models.OpEqual, "Horror", models.CombinatorOr, false)
	}
	tv := NewQueryTreeView(s, theme.DefaultTheme())
	tv.Width = 50
	tv.Height = 7

	tv, _ = tv.Update(key("G"))
	view := tv.View()
	if tv.ScrollOffset == 0 {
		t.Error("Expected the view to scroll to keep the cursor visible")
	}
	if !strings.Contains(view, "↑ more") {
		t.Error("Expected an up indicator")
	}
}
