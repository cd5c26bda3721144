package filter

import (
	"github.com/rebeliceyang/lazycirc/internal/models"
)

// Editor is the set of actions presentation code may take on a query tree.
// Every action is keyed by node id and maps to one mutation.
type Editor interface {
	Select(id string)
	Remove(id string)
	Move(id, targetID string)
	BooleanChange(id string, comb models.Combinator)
	SelectedID() string
	Tree() models.QueryNode
}

// Session owns the query tree of one editing session
type Session struct {
	tree     models.QueryNode
	ids      *IDGenerator
	selected string
}

var _ Editor = (*Session)(nil)

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{ids: NewIDGenerator()}
}

// Tree returns the current tree
func (s *Session) Tree() models.QueryNode {
	return s.tree
}

// IDs returns the session's id generator
func (s *Session) IDs() *IDGenerator {
	return s.ids
}

// SelectedID returns the id of the selected node, or ""
func (s *Session) SelectedID() string {
	return s.selected
}

// Select highlights a node. Unknown ids clear the selection.
func (s *Session) Select(id string) {
	if FindNode(s.tree, id) == nil {
		s.selected = ""
		return
	}
	s.selected = id
}

// Add inserts a new value filter next to the selected node (or at the root
// when nothing is selected) and returns its id. A selected filter whose group
// already uses comb gets the new filter as a sibling instead of a new group.
func (s *Session) Add(key models.FieldKey, op models.FilterOperator, value string, comb models.Combinator, clear bool) string {
	f := &models.ValueFilter{ID: s.ids.NextID(), Key: key, Op: op, Value: value}
	s.tree = AddFilter(s.tree, f, AddOptions{
		Target:     s.addTarget(comb),
		Combinator: comb,
		Clear:      clear,
	}, s.ids)
	s.Select(s.selected)
	return f.ID
}

func (s *Session) addTarget(comb models.Combinator) string {
	if s.selected == "" {
		return ""
	}
	if !comb.Valid() {
		comb = models.CombinatorAnd
	}
	if _, ok := FindNode(s.tree, s.selected).(*models.ValueFilter); ok {
		if parent := FindParent(s.tree, s.selected); parent != nil && parent.Combinator == comb {
			return parent.ID
		}
	}
	return s.selected
}

// Update changes the value filter id in place
func (s *Session) Update(id string, key models.FieldKey, op models.FilterOperator, value string) {
	s.tree = UpdateValue(s.tree, id, key, op, value)
}

// Remove deletes a node
func (s *Session) Remove(id string) {
	s.tree = RemoveFilter(s.tree, id)
	s.Select(s.selected)
}

// Move groups node id with targetID
func (s *Session) Move(id, targetID string) {
	s.tree = MoveFilter(s.tree, id, targetID, s.ids)
	s.Select(s.selected)
}

// BooleanChange switches the combinator of a boolean node
func (s *Session) BooleanChange(id string, comb models.Combinator) {
	s.tree = UpdateBoolean(s.tree, id, comb)
}

// Load replaces the tree, e.g. with a saved list, and reseeds the id generator
func (s *Session) Load(tree models.QueryNode) {
	s.tree = tree
	s.ids.SeedFrom(tree)
	s.selected = ""
}

// Reset discards the tree
func (s *Session) Reset() {
	s.tree = nil
	s.selected = ""
}

// QueryParam serializes the current tree
func (s *Session) QueryParam() (string, error) {
	return QueryParam(s.tree)
}
