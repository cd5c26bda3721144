package filter

import (
	"iter"

	"github.com/rebeliceyang/lazycirc/internal/models"
)

// Enumerate yields every node of tree depth-first, pre-order. Each call
// returns an independent sequence.
func Enumerate(tree models.QueryNode) iter.Seq[models.QueryNode] {
	return func(yield func(models.QueryNode) bool) {
		walk(tree, yield)
	}
}

func walk(node models.QueryNode, yield func(models.QueryNode) bool) bool {
	if node == nil {
		return true
	}
	if !yield(node) {
		return false
	}
	if b, ok := node.(*models.BooleanFilter); ok {
		for _, child := range b.Children {
			if !walk(child, yield) {
				return false
			}
		}
	}
	return true
}

// FindNode finds a node by id (depth-first search)
func FindNode(tree models.QueryNode, id string) models.QueryNode {
	for node := range Enumerate(tree) {
		if node.NodeID() == id {
			return node
		}
	}
	return nil
}

// FindParent returns the boolean node directly containing id, or nil when id
// is the root or absent.
func FindParent(tree models.QueryNode, id string) *models.BooleanFilter {
	for node := range Enumerate(tree) {
		b, ok := node.(*models.BooleanFilter)
		if !ok {
			continue
		}
		for _, child := range b.Children {
			if child != nil && child.NodeID() == id {
				return b
			}
		}
	}
	return nil
}

// IsDescendant reports whether candidateID lies strictly below ancestorID
func IsDescendant(tree models.QueryNode, ancestorID, candidateID string) bool {
	ancestor := FindNode(tree, ancestorID)
	if ancestor == nil {
		return false
	}
	for node := range Enumerate(ancestor) {
		if node != ancestor && node.NodeID() == candidateID {
			return true
		}
	}
	return false
}

// Count returns the number of nodes in tree
func Count(tree models.QueryNode) int {
	n := 0
	for range Enumerate(tree) {
		n++
	}
	return n
}

// Depth returns the number of levels in tree: 0 for nil, 1 for a leaf
func Depth(tree models.QueryNode) int {
	b, ok := tree.(*models.BooleanFilter)
	if !ok {
		if tree == nil {
			return 0
		}
		return 1
	}
	deepest := 0
	for _, child := range b.Children {
		deepest = max(deepest, Depth(child))
	}
	return deepest + 1
}

// IDs returns the ids of tree in pre-order
func IDs(tree models.QueryNode) []string {
	var ids []string
	for node := range Enumerate(tree) {
		ids = append(ids, node.NodeID())
	}
	return ids
}

// Row is one line of a flattened tree
type Row struct {
	Node  models.QueryNode
	Depth int
	// Joiner is the combinator of the parent, empty for the root
	Joiner models.Combinator
	Index  int // position among siblings
	Last   bool
}

// Flatten returns the rows of tree in render order
func Flatten(tree models.QueryNode) []Row {
	var rows []Row
	var visit func(node models.QueryNode, depth int, joiner models.Combinator, index int, last bool)
	visit = func(node models.QueryNode, depth int, joiner models.Combinator, index int, last bool) {
		if node == nil {
			return
		}
		rows = append(rows, Row{Node: node, Depth: depth, Joiner: joiner, Index: index, Last: last})
		if b, ok := node.(*models.BooleanFilter); ok {
			for i, child := range b.Children {
				visit(child, depth+1, b.Combinator, i, i == len(b.Children)-1)
			}
		}
	}
	visit(tree, 0, "", 0, true)
	return rows
}
