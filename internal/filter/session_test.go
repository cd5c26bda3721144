package filter

import (
	"testing"

	"github.com/rebeliceyang/lazycirc/internal/models"
)

func TestSession_AddRemove(t *testing.T) {
	s := NewSession()

	horror := s.Add(models.FieldGenre, models.OpEqual, "Horror", models.CombinatorAnd, false)
	scifi := s.Add(models.FieldGenre, models.OpEqual, "Science Fiction", models.CombinatorAnd, false)

	root, ok := s.Tree().(*models.BooleanFilter)
	if !ok || len(root.Children) != 2 {
		t.Fatalf("Expected an and node with two children, got %s", Format(s.Tree()))
	}

	s.Remove(horror)
	if s.Tree().NodeID() != scifi {
		t.Errorf("Expected Science Fiction to become the root, got %s", Format(s.Tree()))
	}
}

func TestSession_AddToSelection(t *testing.T) {
	s := NewSession()
	a := s.Add(models.FieldGenre, models.OpEqual, "Horror", models.CombinatorAnd, false)
	s.Add(models.FieldAuthor, models.OpContains, "King", models.CombinatorAnd, false)

	s.Select(a)
	s.Add(models.FieldGenre, models.OpEqual, "Thriller", models.CombinatorOr, false)

	want := `(genre = Horror or genre = Thriller) and author : King`
	if got := Format(s.Tree()); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
	if s.SelectedID() != a {
		t.Errorf("Expected selection to stay on %s, got %s", a, s.SelectedID())
	}
}

func TestSession_AddToSelectionJoinsMatchingGroup(t *testing.T) {
	s := NewSession()
	a := s.Add(models.FieldGenre, models.OpEqual, "Horror", models.CombinatorAnd, false)
	s.Add(models.FieldAuthor, models.OpContains, "King", models.CombinatorAnd, false)
	root := s.Tree().NodeID()

	s.Select(a)
	s.Add(models.FieldTitle, models.OpEqual, "It", models.CombinatorAnd, false)
	s.Add(models.FieldLanguage, models.OpEqual, "eng", models.CombinatorAnd, false)

	want := `genre = Horror and author : King and title = It and language = eng`
	if got := Format(s.Tree()); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
	if s.Tree().NodeID() != root || Depth(s.Tree()) != 2 {
		t.Errorf("Expected a flat group under %s, got depth %d", root, Depth(s.Tree()))
	}
}

func TestSession_SelectionFollowsTree(t *testing.T) {
	s := NewSession()
	a := s.Add(models.FieldGenre, models.OpEqual, "Horror", models.CombinatorAnd, false)
	s.Add(models.FieldAuthor, models.OpEqual, "King", models.CombinatorAnd, false)

	s.Select("nope")
	if s.SelectedID() != "" {
		t.Errorf("Expected unknown selection to clear, got %s", s.SelectedID())
	}

	s.Select(a)
	s.Remove(a)
	if s.SelectedID() != "" {
		t.Errorf("Expected selection to clear after removal, got %s", s.SelectedID())
	}
}

func TestSession_MoveAndBooleanChange(t *testing.T) {
	s := NewSession()
	a := s.Add(models.FieldGenre, models.OpEqual, "Horror", models.CombinatorAnd, false)
	s.Add(models.FieldAuthor, models.OpEqual, "King", models.CombinatorAnd, false)
	c := s.Add(models.FieldTitle, models.OpEqual, "It", models.CombinatorAnd, false)

	s.Move(c, a)
	want := `(title = It and genre = Horror) and author = King`
	if got := Format(s.Tree()); got != want {
		t.Fatalf("Expected %s, got %s", want, got)
	}

	group := FindParent(s.Tree(), c)
	s.BooleanChange(group.ID, models.CombinatorOr)
	want = `(title = It or genre = Horror) and author = King`
	if got := Format(s.Tree()); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestSession_ClearAndLoad(t *testing.T) {
	s := NewSession()
	s.Add(models.FieldGenre, models.OpEqual, "Horror", models.CombinatorAnd, false)
	s.Add(models.FieldAuthor, models.OpEqual, "King", models.CombinatorAnd, false)

	id := s.Add(models.FieldTitle, models.OpEqual, "It", models.CombinatorAnd, true)
	if s.Tree().NodeID() != id || Count(s.Tree()) != 1 {
		t.Errorf("Expected clear to leave only the new filter, got %s", Format(s.Tree()))
	}

	s.Load(and("40", leaf("41", models.FieldGenre, "Horror"), leaf("42", models.FieldGenre, "Fantasy")))
	if got := s.IDs().NextID(); got != "43" {
		t.Errorf("Expected ids to continue at 43, got %s", got)
	}

	param, err := s.QueryParam()
	if err != nil {
		t.Fatalf("QueryParam failed: %v", err)
	}
	want := `{"query":{"and":[{"key":"genre","value":"Horror"},{"key":"genre","value":"Fantasy"}]}}`
	if param != want {
		t.Errorf("Expected %s, got %s", want, param)
	}

	s.Reset()
	if s.Tree() != nil {
		t.Error("Expected an empty tree after reset")
	}
}
