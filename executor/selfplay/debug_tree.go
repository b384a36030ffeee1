package selfplay

import (
	"encoding/json"
	"math"

	"github.com/brensch/tetress/executor/mcts"
)

// DebugNode is a JSON-serializable search node for inspecting one decision.
type DebugNode struct {
	Move       string  `json:"move,omitempty"` // empty at the root
	Piece      string  `json:"piece,omitempty"`
	VisitCount int     `json:"n"`
	ValueSum   float64 `json:"value_sum"`
	Q          float64 `json:"q"`
	UCB        float64 `json:"ucb"` // relative to the parent; 0 for the root and unvisited nodes

	Board string `json:"board,omitempty"`

	Children []*DebugNode `json:"children,omitempty"`
}

// DebugTree converts tree into nested DebugNodes down to maxDepth levels
// below the root (all levels when maxDepth <= 0). Boards are included when
// withBoards is set.
func DebugTree(tree *mcts.Tree, c float64, maxDepth int, withBoards bool) *DebugNode {
	return convertNode(tree, tree.Root(), c, maxDepth, 0, withBoards)
}

func convertNode(tree *mcts.Tree, id mcts.NodeID, c float64, maxDepth, depth int, withBoards bool) *DebugNode {
	n := tree.Node(id)
	dn := &DebugNode{
		VisitCount: n.VisitCount,
		ValueSum:   n.ValueSum,
		Q:          tree.Mean(id),
	}
	if !n.IsRoot() {
		dn.Move = n.Action.String()
		dn.Piece = n.Action.Piece.String()
		parent := tree.Node(n.Parent)
		if n.VisitCount > 0 && parent.VisitCount > 0 {
			dn.UCB = dn.Q + c*math.Sqrt(2*math.Log(float64(parent.VisitCount))/float64(n.VisitCount))
		}
	}
	if withBoards {
		dn.Board = n.Board.String()
	}

	if maxDepth > 0 && depth >= maxDepth {
		return dn
	}
	for _, child := range n.Children {
		dn.Children = append(dn.Children, convertNode(tree, child, c, maxDepth, depth+1, withBoards))
	}
	return dn
}

// MarshalDebugTree renders DebugTree as indented JSON.
func MarshalDebugTree(tree *mcts.Tree, c float64, maxDepth int, withBoards bool) ([]byte, error) {
	return json.MarshalIndent(DebugTree(tree, c, maxDepth, withBoards), "", "  ")
}
