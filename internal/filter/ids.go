package filter

import (
	"strconv"

	"github.com/rebeliceyang/lazycirc/internal/models"
)

// IDSource hands out node ids that are unique for the lifetime of a session
type IDSource interface {
	NextID() string
}

// IDGenerator is a monotonic counter producing decimal ids ("1", "2", ...).
// Ids are never reused, even after the node carrying them is removed.
type IDGenerator struct {
	next int
}

// NewIDGenerator creates a generator starting at 1
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{next: 1}
}

// NextID returns a fresh id
func (g *IDGenerator) NextID() string {
	if g.next < 1 {
		g.next = 1
	}
	id := strconv.Itoa(g.next)
	g.next++
	return id
}

// SeedFrom moves the counter above every numeric id present in tree, so
// trees loaded from elsewhere cannot collide with new ids.
func (g *IDGenerator) SeedFrom(tree models.QueryNode) {
	for node := range Enumerate(tree) {
		n, err := strconv.Atoi(node.NodeID())
		if err != nil {
			continue
		}
		if n >= g.next {
			g.next = n + 1
		}
	}
}
