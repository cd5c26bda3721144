package filter

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rebeliceyang/lazycirc/internal/models"
)

func leaf(id string, key models.FieldKey, value string) *models.ValueFilter {
	return &models.ValueFilter{ID: id, Key: key, Op: models.OpEqual, Value: value}
}

func and(id string, children ...models.QueryNode) *models.BooleanFilter {
	return &models.BooleanFilter{ID: id, Combinator: models.CombinatorAnd, Children: children}
}

func or(id string, children ...models.QueryNode) *models.BooleanFilter {
	return &models.BooleanFilter{ID: id, Combinator: models.CombinatorOr, Children: children}
}

// cloneTree deep-copies a tree so tests can prove inputs were not mutated
func cloneTree(node models.QueryNode) models.QueryNode {
	switch n := node.(type) {
	case *models.ValueFilter:
		c := *n
		return &c
	case *models.BooleanFilter:
		c := &models.BooleanFilter{ID: n.ID, Combinator: n.Combinator}
		for _, child := range n.Children {
			c.Children = append(c.Children, cloneTree(child))
		}
		return c
	}
	return nil
}

// checkInvariants verifies id uniqueness and that no boolean node has fewer
// than two children
func checkInvariants(t *testing.T, tree models.QueryNode) {
	t.Helper()
	seen := map[string]bool{}
	for node := range Enumerate(tree) {
		if seen[node.NodeID()] {
			t.Fatalf("duplicate id %q in %s", node.NodeID(), Format(tree))
		}
		seen[node.NodeID()] = true
		if b, ok := node.(*models.BooleanFilter); ok {
			if !b.Combinator.Valid() {
				t.Fatalf("node %s has combinator %q", b.ID, b.Combinator)
			}
			if len(b.Children) < 2 {
				t.Fatalf("boolean node %s has %d children", b.ID, len(b.Children))
			}
		}
	}
}

func TestAddFilter_EmptyTree(t *testing.T) {
	ids := NewIDGenerator()
	horror := &models.ValueFilter{Key: models.FieldGenre, Op: models.OpEqual, Value: "Horror"}

	tree := AddFilter(nil, horror, AddOptions{}, ids)

	got, ok := tree.(*models.ValueFilter)
	if !ok {
		t.Fatalf("expected a value filter, got %T", tree)
	}
	if got.Key != models.FieldGenre || got.Value != "Horror" {
		t.Errorf("unexpected filter %+v", got)
	}
	if got.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if horror.ID != "" {
		t.Error("input filter was modified")
	}
}

func TestAddFilter_WrapsSingleFilter(t *testing.T) {
	ids := NewIDGenerator()
	tree := AddFilter(nil, &models.ValueFilter{Key: models.FieldGenre, Op: models.OpEqual, Value: "Horror"}, AddOptions{}, ids)
	first := tree

	tree = AddFilter(tree, &models.ValueFilter{Key: models.FieldGenre, Op: models.OpEqual, Value: "Science Fiction"}, AddOptions{}, ids)

	root, ok := tree.(*models.BooleanFilter)
	if !ok {
		t.Fatalf("expected a boolean root, got %T", tree)
	}
	if root.Combinator != models.CombinatorAnd {
		t.Errorf("expected default combinator and, got %s", root.Combinator)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}
	if root.Children[0] != first {
		t.Error("existing filter should be shared, not copied")
	}
	if v := root.Children[1].(*models.ValueFilter); v.Value != "Science Fiction" {
		t.Errorf("expected second child Science Fiction, got %s", v.Value)
	}
}

func TestAddFilter_AppendsToMatchingRoot(t *testing.T) {
	tree := and("r", leaf("a", models.FieldGenre, "Horror"), leaf("b", models.FieldAuthor, "King"))
	before := cloneTree(tree)

	got := AddFilter(tree, leaf("c", models.FieldTitle, "It"), AddOptions{}, NewIDGenerator())

	want := and("r", leaf("a", models.FieldGenre, "Horror"), leaf("b", models.FieldAuthor, "King"), leaf("c", models.FieldTitle, "It"))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AddFilter mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, models.QueryNode(tree)); diff != "" {
		t.Errorf("input tree was modified:\n%s", diff)
	}
}

func TestAddFilter_AppendsRegardlessOfCombinator(t *testing.T) {
	tree := or("r", leaf("a", models.FieldGenre, "Horror"), leaf("b", models.FieldGenre, "Fantasy"))

	// Default options ask for and; the or root still takes the new child
	got := AddFilter(tree, leaf("c", models.FieldGenre, "Thriller"), AddOptions{}, NewIDGenerator())
	want := or("r", leaf("a", models.FieldGenre, "Horror"), leaf("b", models.FieldGenre, "Fantasy"), leaf("c", models.FieldGenre, "Thriller"))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AddFilter mismatch (-want +got):\n%s", diff)
	}

	andRoot := and("r", leaf("a", models.FieldGenre, "Horror"), leaf("b", models.FieldAuthor, "King"))
	got = AddFilter(andRoot, leaf("c", models.FieldTitle, "It"), AddOptions{Combinator: models.CombinatorOr}, NewIDGenerator())
	if b, ok := got.(*models.BooleanFilter); !ok || b.ID != "r" || b.Combinator != models.CombinatorAnd || len(b.Children) != 3 {
		t.Errorf("expected It appended to the and root, got %s", Format(got))
	}
}

func TestAddFilter_LeafUsesRequestedCombinator(t *testing.T) {
	ids := &IDGenerator{next: 50}
	tree := leaf("a", models.FieldGenre, "Horror")

	got := AddFilter(tree, leaf("c", models.FieldGenre, "Thriller"), AddOptions{Combinator: models.CombinatorOr}, ids)

	want := or("50", tree, leaf("c", models.FieldGenre, "Thriller"))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AddFilter mismatch (-want +got):\n%s", diff)
	}
}

func TestAddFilter_ClearReplacesTree(t *testing.T) {
	tree := and("r", leaf("a", models.FieldGenre, "Horror"), leaf("b", models.FieldAuthor, "King"))
	c := leaf("c", models.FieldTitle, "It")

	got := AddFilter(tree, c, AddOptions{Clear: true}, NewIDGenerator())

	if got != models.QueryNode(c) {
		t.Errorf("expected the new filter to become the tree, got %s", Format(got))
	}
}

func TestAddFilter_Target(t *testing.T) {
	ids := &IDGenerator{next: 10}
	inner := or("o", leaf("b", models.FieldAuthor, "King"), leaf("c", models.FieldAuthor, "Straub"))
	tree := and("r", leaf("a", models.FieldGenre, "Horror"), inner)

	// Boolean target: appended, keeping its combinator
	got := AddFilter(tree, leaf("d", models.FieldAuthor, "Barker"), AddOptions{Target: "o"}, ids)
	want := and("r", leaf("a", models.FieldGenre, "Horror"),
		or("o", leaf("b", models.FieldAuthor, "King"), leaf("c", models.FieldAuthor, "Straub"), leaf("d", models.FieldAuthor, "Barker")))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("append to target mismatch (-want +got):\n%s", diff)
	}

	// Leaf target: wrapped in place
	got = AddFilter(tree, leaf("e", models.FieldLanguage, "eng"), AddOptions{Target: "a"}, ids)
	want = and("r", and("10", leaf("a", models.FieldGenre, "Horror"), leaf("e", models.FieldLanguage, "eng")), inner)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wrap target mismatch (-want +got):\n%s", diff)
	}
	if got.(*models.BooleanFilter).Children[1] != models.QueryNode(inner) {
		t.Error("untouched sibling subtree should be shared")
	}

	// Unknown target falls back to the root
	got = AddFilter(tree, leaf("f", models.FieldTitle, "It"), AddOptions{Target: "missing"}, ids)
	if n := len(got.(*models.BooleanFilter).Children); n != 3 {
		t.Errorf("expected append at root, got %d children", n)
	}
}

func TestRemoveFilter_Collapse(t *testing.T) {
	ids := NewIDGenerator()
	tree := AddFilter(nil, &models.ValueFilter{Key: models.FieldGenre, Op: models.OpEqual, Value: "Horror"}, AddOptions{}, ids)
	horrorID := tree.NodeID()
	tree = AddFilter(tree, &models.ValueFilter{Key: models.FieldGenre, Op: models.OpEqual, Value: "Science Fiction"}, AddOptions{}, ids)
	scifi := tree.(*models.BooleanFilter).Children[1]

	got := RemoveFilter(tree, horrorID)

	if got != scifi {
		t.Fatalf("expected the remaining filter to replace the boolean node, got %s", Format(got))
	}
	if v := got.(*models.ValueFilter); v.Value != "Science Fiction" || v.Key != models.FieldGenre {
		t.Errorf("unexpected remaining filter %+v", v)
	}
}

func TestRemoveFilter_CollapseNested(t *testing.T) {
	b := leaf("b", models.FieldAuthor, "King")
	tree := and("r", leaf("a", models.FieldGenre, "Horror"), or("o", b, leaf("c", models.FieldAuthor, "Straub")))
	before := cloneTree(tree)

	got := RemoveFilter(tree, "c")

	want := and("r", leaf("a", models.FieldGenre, "Horror"), leaf("b", models.FieldAuthor, "King"))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RemoveFilter mismatch (-want +got):\n%s", diff)
	}
	if FindNode(got, "o") != nil {
		t.Error("singleton boolean node should have been collapsed")
	}
	if got.(*models.BooleanFilter).Children[1] != models.QueryNode(b) {
		t.Error("surviving child should be shared")
	}
	if diff := cmp.Diff(before, models.QueryNode(tree)); diff != "" {
		t.Errorf("input tree was modified:\n%s", diff)
	}
}

func TestRemoveFilter_Root(t *testing.T) {
	if got := RemoveFilter(leaf("a", models.FieldGenre, "Horror"), "a"); got != nil {
		t.Errorf("expected nil tree, got %s", Format(got))
	}

	tree := and("r", leaf("a", models.FieldGenre, "Horror"), leaf("b", models.FieldAuthor, "King"))
	if got := RemoveFilter(tree, "r"); got != nil {
		t.Errorf("expected nil tree after removing the root, got %s", Format(got))
	}
}

func TestRemoveFilter_EmptiedBooleanVanishes(t *testing.T) {
	tree := and("r", leaf("a", models.FieldGenre, "Horror"), or("o", leaf("b", models.FieldAuthor, "King")), leaf("c", models.FieldTitle, "It"))

	got := RemoveFilter(tree, "b")

	want := and("r", leaf("a", models.FieldGenre, "Horror"), leaf("c", models.FieldTitle, "It"))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RemoveFilter mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveFilter_UnknownID(t *testing.T) {
	tree := and("r", leaf("a", models.FieldGenre, "Horror"), leaf("b", models.FieldAuthor, "King"))

	if got := RemoveFilter(tree, "zzz"); got != models.QueryNode(tree) {
		t.Error("removing an unknown id should return the same tree")
	}
	if got := RemoveFilter(nil, "a"); got != nil {
		t.Error("removing from an empty tree should return nil")
	}
}

func TestUpdateBoolean(t *testing.T) {
	a := leaf("a", models.FieldGenre, "Horror")
	b := leaf("b", models.FieldAuthor, "King")
	tree := and("r", a, b)

	got := UpdateBoolean(tree, "r", models.CombinatorOr)

	root, ok := got.(*models.BooleanFilter)
	if !ok {
		t.Fatalf("expected a boolean root, got %T", got)
	}
	if root.Combinator != models.CombinatorOr {
		t.Errorf("expected or, got %s", root.Combinator)
	}
	if root.ID != "r" {
		t.Errorf("expected id to be kept, got %s", root.ID)
	}
	if root.Children[0] != models.QueryNode(a) || root.Children[1] != models.QueryNode(b) {
		t.Error("children should be reference-equal")
	}
	if tree.Combinator != models.CombinatorAnd {
		t.Error("input tree was modified")
	}
}

func TestUpdateBoolean_NoOps(t *testing.T) {
	tree := and("r", leaf("a", models.FieldGenre, "Horror"), leaf("b", models.FieldAuthor, "King"))

	tests := []struct {
		name string
		id   string
		comb models.Combinator
	}{
		{"unknown id", "zzz", models.CombinatorOr},
		{"value filter", "a", models.CombinatorOr},
		{"same combinator", "r", models.CombinatorAnd},
		{"invalid combinator", "r", models.Combinator("xor")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UpdateBoolean(tree, tt.id, tt.comb); got != models.QueryNode(tree) {
				t.Errorf("expected the same tree, got %s", Format(got))
			}
		})
	}
}

func TestUpdateBoolean_Nested(t *testing.T) {
	a := leaf("a", models.FieldGenre, "Horror")
	inner := or("o", leaf("b", models.FieldAuthor, "King"), leaf("c", models.FieldAuthor, "Straub"))
	tree := and("r", a, inner)

	got := UpdateBoolean(tree, "o", models.CombinatorAnd)

	want := and("r", leaf("a", models.FieldGenre, "Horror"), and("o", leaf("b", models.FieldAuthor, "King"), leaf("c", models.FieldAuthor, "Straub")))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("UpdateBoolean mismatch (-want +got):\n%s", diff)
	}
	if got.(*models.BooleanFilter).Children[0] != models.QueryNode(a) {
		t.Error("sibling subtree should be shared")
	}
}

func TestUpdateValue(t *testing.T) {
	tree := and("r", leaf("a", models.FieldGenre, "Horror"), leaf("b", models.FieldAuthor, "King"))

	got := UpdateValue(tree, "b", models.FieldAuthor, models.OpContains, "Kin")

	v := FindNode(got, "b").(*models.ValueFilter)
	if v.Op != models.OpContains || v.Value != "Kin" {
		t.Errorf("unexpected filter %+v", v)
	}
	if got := UpdateValue(tree, "r", models.FieldAuthor, models.OpEqual, "x"); got != models.QueryNode(tree) {
		t.Error("updating a boolean node as a value should be a no-op")
	}
}

func TestMoveFilter_GroupsWithTarget(t *testing.T) {
	a := leaf("A", models.FieldGenre, "Horror")
	b := leaf("B", models.FieldAuthor, "King")
	c := leaf("C", models.FieldTitle, "It")
	tree := and("R", a, b, c)
	before := cloneTree(tree)

	got := MoveFilter(tree, "C", "A", &IDGenerator{next: 100})

	want := and("R", and("100", c, a), b)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MoveFilter mismatch (-want +got):\n%s", diff)
	}
	if got.(*models.BooleanFilter).Children[1] != models.QueryNode(b) {
		t.Error("B should be untouched")
	}
	if diff := cmp.Diff(before, models.QueryNode(tree)); diff != "" {
		t.Errorf("input tree was modified:\n%s", diff)
	}
}

func TestMoveFilter_Rejections(t *testing.T) {
	inner := or("o", leaf("b", models.FieldAuthor, "King"), leaf("c", models.FieldAuthor, "Straub"))
	tree := and("r", leaf("a", models.FieldGenre, "Horror"), inner)

	tests := []struct {
		name   string
		id     string
		target string
	}{
		{"onto itself", "a", "a"},
		{"onto a child", "o", "b"},
		{"root onto a descendant", "r", "c"},
		{"unknown node", "zzz", "a"},
		{"unknown target", "a", "zzz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := &IDGenerator{next: 7}
			if got := MoveFilter(tree, tt.id, tt.target, ids); got != models.QueryNode(tree) {
				t.Errorf("expected the same tree, got %s", Format(got))
			}
			if ids.next != 7 {
				t.Error("a rejected move should not consume ids")
			}
		})
	}
}

func TestMoveFilter_TargetCollapses(t *testing.T) {
	c := leaf("c", models.FieldAuthor, "Straub")
	tree := and("r", leaf("a", models.FieldGenre, "Horror"), or("o", leaf("b", models.FieldAuthor, "King"), c))

	// Moving b onto its own parent collapses the parent into c
	got := MoveFilter(tree, "b", "o", &IDGenerator{next: 20})

	want := and("r", leaf("a", models.FieldGenre, "Horror"), and("20", leaf("b", models.FieldAuthor, "King"), c))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MoveFilter mismatch (-want +got):\n%s", diff)
	}
}

func TestMoveFilter_OntoAncestor(t *testing.T) {
	tree := and("r", leaf("a", models.FieldGenre, "Horror"), leaf("b", models.FieldAuthor, "King"), leaf("c", models.FieldTitle, "It"))

	got := MoveFilter(tree, "c", "r", &IDGenerator{next: 5})

	want := and("5", leaf("c", models.FieldTitle, "It"), and("r", leaf("a", models.FieldGenre, "Horror"), leaf("b", models.FieldAuthor, "King")))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MoveFilter mismatch (-want +got):\n%s", diff)
	}
}

func TestMoveFilter_AcrossSubtrees(t *testing.T) {
	tree := and("r",
		or("o1", leaf("a", models.FieldGenre, "Horror"), leaf("b", models.FieldGenre, "Thriller")),
		or("o2", leaf("c", models.FieldAuthor, "King"), leaf("d", models.FieldAuthor, "Straub"), leaf("e", models.FieldAuthor, "Barker")),
	)

	got := MoveFilter(tree, "a", "d", &IDGenerator{next: 9})

	want := and("r",
		leaf("b", models.FieldGenre, "Thriller"),
		or("o2", leaf("c", models.FieldAuthor, "King"), and("9", leaf("a", models.FieldGenre, "Horror"), leaf("d", models.FieldAuthor, "Straub")), leaf("e", models.FieldAuthor, "Barker")),
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MoveFilter mismatch (-want +got):\n%s", diff)
	}
}

func TestMutations_RandomSequences(t *testing.T) {
	fields := Fields()
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		ids := NewIDGenerator()
		var tree models.QueryNode

		for step := 0; step < 60; step++ {
			existing := IDs(tree)
			pick := func() string {
				if len(existing) == 0 {
					return ""
				}
				return existing[rng.Intn(len(existing))]
			}
			before := cloneTree(tree)
			prev := tree

			switch op := rng.Intn(10); {
			case op < 5:
				f := fields[rng.Intn(len(fields))]
				comb := models.CombinatorAnd
				if rng.Intn(2) == 0 {
					comb = models.CombinatorOr
				}
				tree = AddFilter(tree, &models.ValueFilter{Key: f.Key, Op: f.Operators[0], Value: "v" + strconv.Itoa(step)},
					AddOptions{Target: pick(), Combinator: comb}, ids)
			case op < 7:
				tree = RemoveFilter(tree, pick())
			case op < 9:
				tree = MoveFilter(tree, pick(), pick(), ids)
			default:
				tree = UpdateBoolean(tree, pick(), models.CombinatorOr)
			}

			checkInvariants(t, tree)
			if diff := cmp.Diff(before, cloneTree(prev)); diff != "" {
				t.Fatalf("run %d step %d modified its input:\n%s", run, step, diff)
			}
			if _, err := Serialize(tree); err != nil {
				t.Fatalf("run %d step %d produced an unserializable tree: %v", run, step, err)
			}
		}
	}
}
