package reflection

import (
	"sync"
	"time"
)

// Category labels the kind of insight a reflection node carries.
type Category string

const (
	CategoryStrategy  Category = "strategy"
	CategoryPattern   Category = "pattern"
	CategoryEmotional Category = "emotional"
	CategoryLearning  Category = "learning"
	CategorySocial    Category = "social"
	CategoryMeta      Category = "meta"
)

// Node is a single synthesized insight. Level 1 nodes derive from
// observations; level 2 ("meta") and above derive from other reflections.
type Node struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Level      int       `json:"level"`
	Sources    []string  `json:"sources,omitempty"`
	Importance int       `json:"importance"`
	Category   Category  `json:"category"`
	Confidence float64   `json:"confidence"`
	Question   string    `json:"question,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Tree aggregates reflection nodes per level. Nodes are append-only and
// never deleted within a session.
type Tree struct {
	mu     sync.RWMutex
	levels map[int][]*Node
	count  int
	depth  int
}

// NewTree creates an empty reflection tree.
func NewTree() *Tree {
	return &Tree{levels: make(map[int][]*Node)}
}

// Add appends a node to its level list.
func (t *Tree) Add(n *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.levels[n.Level] = append(t.levels[n.Level], n)
	t.count++
	if n.Level > t.depth {
		t.depth = n.Level
	}
}

// Level returns a copy of the node list at the given level.
func (t *Tree) Level(level int) []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Node(nil), t.levels[level]...)
}

// Count returns the total node count across all levels.
func (t *Tree) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// MaxDepth returns the highest level observed so far.
func (t *Tree) MaxDepth() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.depth
}
