package filter

import (
	"github.com/rebeliceyang/lazycirc/internal/models"
)

// The functions in this file never modify their input. Unchanged subtrees
// are shared with the result and a no-op returns the input root itself.

// AddOptions controls where AddFilter inserts a new filter
type AddOptions struct {
	// Target is the id of the node to add to; empty or unknown means the root.
	Target string
	// Combinator joins the new filter with a value filter insertion point.
	// Defaults to and. A boolean insertion point keeps its own combinator.
	Combinator models.Combinator
	// Clear discards the existing tree.
	Clear bool
}

// AddFilter inserts f into tree. A boolean insertion point gets f appended
// to its children; a value filter insertion point is replaced in place by a
// new boolean node holding [point, f].
func AddFilter(tree models.QueryNode, f *models.ValueFilter, opts AddOptions, ids IDSource) models.QueryNode {
	if f == nil {
		return tree
	}
	if f.ID == "" {
		withID := *f
		withID.ID = ids.NextID()
		f = &withID
	}
	if opts.Clear || tree == nil {
		return f
	}

	comb := opts.Combinator
	if !comb.Valid() {
		comb = models.CombinatorAnd
	}

	pointID := tree.NodeID()
	if opts.Target != "" && FindNode(tree, opts.Target) != nil {
		pointID = opts.Target
	}

	result, _ := replaceNode(tree, pointID, func(point models.QueryNode) models.QueryNode {
		if b, ok := point.(*models.BooleanFilter); ok {
			children := make([]models.QueryNode, 0, len(b.Children)+1)
			children = append(children, b.Children...)
			children = append(children, f)
			return &models.BooleanFilter{ID: b.ID, Combinator: b.Combinator, Children: children}
		}
		return &models.BooleanFilter{
			ID:         ids.NextID(),
			Combinator: comb,
			Children:   []models.QueryNode{point, f},
		}
	})
	return result
}

// RemoveFilter removes the node with the given id. Boolean nodes left with a
// single child are replaced by that child; emptied boolean nodes vanish.
func RemoveFilter(tree models.QueryNode, id string) models.QueryNode {
	r := newRemover(id)
	result, changed := r.remove(tree)
	if !changed {
		return tree
	}
	return result
}

// UpdateBoolean changes the combinator of the boolean node id, keeping its
// children as they are.
func UpdateBoolean(tree models.QueryNode, id string, comb models.Combinator) models.QueryNode {
	if !comb.Valid() {
		return tree
	}
	b, ok := FindNode(tree, id).(*models.BooleanFilter)
	if !ok || b.Combinator == comb {
		return tree
	}
	result, _ := replaceNode(tree, id, func(models.QueryNode) models.QueryNode {
		return &models.BooleanFilter{ID: b.ID, Combinator: comb, Children: b.Children}
	})
	return result
}

// UpdateValue replaces the key, operator and value of the value filter id
func UpdateValue(tree models.QueryNode, id string, key models.FieldKey, op models.FilterOperator, value string) models.QueryNode {
	v, ok := FindNode(tree, id).(*models.ValueFilter)
	if !ok || (v.Key == key && v.Op == op && v.Value == value) {
		return tree
	}
	result, _ := replaceNode(tree, id, func(models.QueryNode) models.QueryNode {
		return &models.ValueFilter{ID: v.ID, Key: key, Op: op, Value: value}
	})
	return result
}

// MoveFilter detaches the subtree id and groups it with targetID: the target
// is replaced, at its position, by a new "and" node holding [moved, target].
// Moving a node onto itself or onto one of its descendants is a no-op, as is
// any move involving an unknown id.
func MoveFilter(tree models.QueryNode, id, targetID string, ids IDSource) models.QueryNode {
	if tree == nil || id == targetID {
		return tree
	}
	if FindNode(tree, id) == nil || FindNode(tree, targetID) == nil {
		return tree
	}
	if IsDescendant(tree, id, targetID) {
		return tree
	}

	r := newRemover(id)
	pruned, _ := r.remove(tree)
	target := r.resolve(targetID)
	if pruned == nil || target == "" {
		return tree
	}

	result, found := replaceNode(pruned, target, func(t models.QueryNode) models.QueryNode {
		return &models.BooleanFilter{
			ID:         ids.NextID(),
			Combinator: models.CombinatorAnd,
			Children:   []models.QueryNode{r.removed, t},
		}
	})
	if !found {
		return tree
	}
	return result
}

// replaceNode rebuilds the path from the root to id, substituting fn(node)
// for the node itself.
func replaceNode(node models.QueryNode, id string, fn func(models.QueryNode) models.QueryNode) (models.QueryNode, bool) {
	if node == nil {
		return nil, false
	}
	if node.NodeID() == id {
		return fn(node), true
	}
	b, ok := node.(*models.BooleanFilter)
	if !ok {
		return node, false
	}
	for i, child := range b.Children {
		repl, found := replaceNode(child, id, fn)
		if !found {
			continue
		}
		children := make([]models.QueryNode, len(b.Children))
		copy(children, b.Children)
		children[i] = repl
		return &models.BooleanFilter{ID: b.ID, Combinator: b.Combinator, Children: children}, true
	}
	return node, false
}

// remover deletes one node and remembers which boolean nodes collapsed, and
// into what, so a move can still find its target afterwards.
type remover struct {
	id        string
	removed   models.QueryNode
	collapsed map[string]string // collapsed boolean id -> id of its replacement ("" if none)
}

func newRemover(id string) *remover {
	return &remover{id: id, collapsed: make(map[string]string)}
}

func (r *remover) remove(node models.QueryNode) (models.QueryNode, bool) {
	if node == nil {
		return nil, false
	}
	if node.NodeID() == r.id {
		r.removed = node
		return nil, true
	}
	b, ok := node.(*models.BooleanFilter)
	if !ok {
		return node, false
	}
	for i, child := range b.Children {
		repl, changed := r.remove(child)
		if !changed {
			continue
		}
		children := make([]models.QueryNode, 0, len(b.Children))
		children = append(children, b.Children[:i]...)
		if repl != nil {
			children = append(children, repl)
		}
		children = append(children, b.Children[i+1:]...)

		switch len(children) {
		case 0:
			r.collapsed[b.ID] = ""
			return nil, true
		case 1:
			r.collapsed[b.ID] = children[0].NodeID()
			return children[0], true
		}
		return &models.BooleanFilter{ID: b.ID, Combinator: b.Combinator, Children: children}, true
	}
	return node, false
}

// resolve follows collapses starting at id
func (r *remover) resolve(id string) string {
	for {
		next, ok := r.collapsed[id]
		if !ok {
			return id
		}
		if next == "" {
			return ""
		}
		id = next
	}
}
