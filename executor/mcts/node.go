package mcts

import (
	"math"
	"time"

	"github.com/brensch/tetress/game"
	"github.com/brensch/tetress/rules"
)

// NodeID addresses a node inside a Tree.
type NodeID int

// NoNode is the parent of the root.
const NoNode NodeID = -1

// Node represents a state in the MCTS tree.
type Node struct {
	Board    game.Board
	Parent   NodeID
	Action   game.Placement // zero at the root
	Children []NodeID

	VisitCount int
	ValueSum   float64

	// legal caches the searching color's moves on Board, which never changes.
	legal      []game.Placement
	legalReady bool
}

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool {
	return n.Parent == NoNode
}

// Tree is an arena of nodes for one decision. Every node value is taken from
// the perspective of the searching color.
type Tree struct {
	color game.Color
	nodes []Node
}

// NewTree creates a tree holding only the root board.
func NewTree(root game.Board, color game.Color) *Tree {
	t := &Tree{color: color, nodes: make([]Node, 0, 256)}
	t.nodes = append(t.nodes, Node{Board: root, Parent: NoNode})
	return t
}

// Root returns the root node id.
func (t *Tree) Root() NodeID { return 0 }

// Color returns the searching color.
func (t *Tree) Color() game.Color { return t.color }

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node with the given id. The pointer is only valid until
// the next AddChild.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Legal returns the searching color's legal moves at id.
func (t *Tree) Legal(id NodeID) []game.Placement {
	n := &t.nodes[id]
	if !n.legalReady {
		n.legal = rules.LegalMoves(n.Board, t.color)
		n.legalReady = true
	}
	return n.legal
}

// IsTerminal reports whether the searching color has no move at id.
func (t *Tree) IsTerminal(id NodeID) bool {
	return len(t.Legal(id)) == 0
}

// IsFullyExpanded reports whether every legal move at id has a child.
func (t *Tree) IsFullyExpanded(id NodeID) bool {
	return len(t.nodes[id].Children) == len(t.Legal(id))
}

// AddChild appends a new unvisited child reached by action.
func (t *Tree) AddChild(parent NodeID, action game.Placement, board game.Board) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{Board: board, Parent: parent, Action: action})
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id
}

// Mean returns the average value of id, or 0 if it was never visited.
func (t *Tree) Mean(id NodeID) float64 {
	n := &t.nodes[id]
	if n.VisitCount == 0 {
		return 0
	}
	return n.ValueSum / float64(n.VisitCount)
}

// BestChild selects the child of id maximizing UCB1:
//
//	mean + c * sqrt(2 * ln(parent visits) / child visits)
//
// Unvisited children are skipped. Ties go to the earliest child. With c = 0
// this is pure exploitation. ok is false when nothing can be selected.
func (t *Tree) BestChild(id NodeID, c float64) (best NodeID, ok bool) {
	parent := &t.nodes[id]
	logN := 0.0
	if parent.VisitCount > 0 {
		logN = math.Log(float64(parent.VisitCount))
	}

	best = NoNode
	bestScore := math.Inf(-1)
	for _, childID := range parent.Children {
		child := &t.nodes[childID]
		if child.VisitCount == 0 {
			continue
		}
		score := child.ValueSum / float64(child.VisitCount)
		if c != 0 {
			score += c * math.Sqrt(2*logN/float64(child.VisitCount))
		}
		if score > bestScore {
			bestScore = score
			best = childID
		}
	}
	return best, best != NoNode
}

// Backpropagate adds one visit and score to id and every ancestor.
func (t *Tree) Backpropagate(id NodeID, score float64) {
	for id != NoNode {
		n := &t.nodes[id]
		n.VisitCount++
		n.ValueSum += score
		id = n.Parent
	}
}

// Depth returns the number of edges between id and the root.
func (t *Tree) Depth(id NodeID) int {
	d := 0
	for t.nodes[id].Parent != NoNode {
		id = t.nodes[id].Parent
		d++
	}
	return d
}

// Config holds MCTS configuration.
type Config struct {
	// Exploration is the UCB1 constant used while descending the tree.
	Exploration float64
	// TimeBudget bounds a decision. It is checked between cycles; a cycle in
	// flight always finishes.
	TimeBudget time.Duration
	// MaxIterations, when positive, also caps the number of cycles.
	MaxIterations int
	// RolloutDepth, when positive, caps the plies of one rollout; the
	// evaluator then scores the cut-off board. 0 plays until the game ends.
	RolloutDepth int
}

// DefaultRolloutDepth keeps rollouts short enough that a 30ms budget visits
// every root move of an early position at least once.
const DefaultRolloutDepth = 4

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Exploration:  1.4,
		TimeBudget:   30 * time.Millisecond,
		RolloutDepth: DefaultRolloutDepth,
	}
}
