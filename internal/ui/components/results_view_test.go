package components

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rebeliceyang/lazycirc/internal/models"
	"github.com/rebeliceyang/lazycirc/internal/ui/theme"
)

func sampleResults(n int) []models.Entry {
	entries := make([]models.Entry, n)
	for i := range entries {
		entries[i] = models.Entry{
			ID:        fmt.Sprintf("urn:%d", i),
			Title:     fmt.Sprintf("Book %02d", i),
			Authors:   []string{"Stephen King"},
			Published: "1986",
			Language:  "eng",
		}
	}
	return entries
}

func TestResultsView_Empty(t *testing.T) {
	rv := NewResultsView(theme.DefaultTheme())
	if !strings.Contains(rv.View(), "No results") {
		t.Error("Expected empty state")
	}
	rv.MoveSelection(1)
	if rv.Selected() != nil {
		t.Error("Expected no selection")
	}
}

func TestResultsView_RenderAndSelect(t *testing.T) {
	rv := NewResultsView(theme.DefaultTheme())
	rv.Width = 120
	rv.Height = 8
	rv.SetEntries(sampleResults(20), true)

	view := rv.View()
	for _, want := range []string{"Title", "Book 00", "Stephen King", "1 of 20, more on the server"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}
	if strings.Contains(view, "Book 10") {
		t.Error("Expected rows beyond the viewport to be hidden")
	}

	rv.MoveSelection(7)
	rv.View()
	if rv.TopRow == 0 {
		t.Error("Expected the viewport to follow the selection")
	}
	if got := rv.Selected().Title; got != "Book 07" {
		t.Errorf("Expected Book 07, got %s", got)
	}

	rv.MoveSelection(100)
	if rv.SelectedRow != 19 || !rv.NearEnd() {
		t.Errorf("Expected selection clamped to the last row, got %d", rv.SelectedRow)
	}
	rv.PageUp()
	if rv.SelectedRow != 14 {
		t.Errorf("Expected page up by 5 rows, got %d", rv.SelectedRow)
	}
}

func TestResultsView_Append(t *testing.T) {
	rv := NewResultsView(theme.DefaultTheme())
	rv.SetEntries(sampleResults(3), true)
	rv.MoveSelection(2)

	rv.AppendEntries(sampleResults(2), false)
	if len(rv.Entries) != 5 || rv.HasMore {
		t.Errorf("Expected 5 entries and no more pages, got %d / %v", len(rv.Entries), rv.HasMore)
	}
	if rv.SelectedRow != 2 {
		t.Errorf("Expected selection to stay put, got %d", rv.SelectedRow)
	}
}

func TestPad(t *testing.T) {
	if got := pad("Le Petit Prince", 8); got != "Le Peti…" {
		t.Errorf("unexpected truncation %q", got)
	}
	if got := pad("漢字", 6); got != "漢字  " {
		t.Errorf("unexpected wide padding %q", got)
	}
}

func TestResultsView_AppendDoesNotShareCallerArray(t *testing.T) {
	page := make([]models.Entry, 2, 8)
	copy(page, sampleResults(2))
	spare := page[:3]

	rv := NewResultsView(theme.DefaultTheme())
	rv.SetEntries(page, true)
	rv.AppendEntries([]models.Entry{{ID: "urn:next", Title: "Next"}}, false)

	if len(rv.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(rv.Entries))
	}
	if spare[2].ID != "" {
		t.Errorf("Expected the caller's spare capacity untouched, got %q", spare[2].ID)
	}
	rv.Entries[0].Title = "changed"
	if page[0].Title == "changed" {
		t.Error("Expected the view to hold its own copy")
	}
}
