package mcts

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/brensch/tetress/game"
	"github.com/brensch/tetress/rules"
)

// MCTS holds the search context. Rng drives rollouts and the fallback move;
// seed it for reproducible searches.
type MCTS struct {
	Config Config
	Rng    *rand.Rand
	Logger *slog.Logger
}

// New returns an MCTS with missing fields defaulted. Each zero field of cfg
// takes its DefaultConfig value on its own, so a zero Exploration means 1.4;
// use a tiny positive constant for near-greedy descent. A nil rng is seeded
// from the clock.
func New(cfg Config, rng *rand.Rand, logger *slog.Logger) *MCTS {
	def := DefaultConfig()
	if cfg.Exploration <= 0 {
		cfg.Exploration = def.Exploration
	}
	if cfg.TimeBudget <= 0 && cfg.MaxIterations <= 0 {
		cfg.TimeBudget = def.TimeBudget
	}
	if cfg.RolloutDepth < 0 {
		cfg.RolloutDepth = 0
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MCTS{Config: cfg, Rng: rng, Logger: logger}
}

// Stats summarises one search.
type Stats struct {
	Iterations   int
	Nodes        int
	MaxDepth     int
	Elapsed      time.Duration
	RootChildren int
	BestMean     float64
	BestVisits   int
	Fallback     bool

	// Root is filled by Choose.
	Root []ChildSummary
}

// Search builds a tree rooted at root and runs select, expand, simulate and
// backpropagate cycles until the budget is spent.
func (m *MCTS) Search(root game.Board, color game.Color) (*Tree, Stats) {
	start := time.Now()
	tree := NewTree(root, color)
	var stats Stats

	for m.budgetLeft(start, stats.Iterations) {
		// Selection
		node := m.selectNode(tree)

		// Expansion
		if !tree.IsTerminal(node) {
			node = m.expand(tree, node)
		}

		if d := tree.Depth(node); d > stats.MaxDepth {
			stats.MaxDepth = d
		}

		// Simulation
		score := m.Rollout(tree.Node(node).Board, color)

		// Backpropagation
		tree.Backpropagate(node, score)
		stats.Iterations++
	}

	stats.Elapsed = time.Since(start)
	stats.Nodes = tree.Len()
	stats.RootChildren = len(tree.Node(tree.Root()).Children)
	if best, ok := tree.BestChild(tree.Root(), 0); ok {
		stats.BestMean = tree.Mean(best)
		stats.BestVisits = tree.Node(best).VisitCount
	}
	return tree, stats
}

func (m *MCTS) budgetLeft(start time.Time, iterations int) bool {
	if m.Config.MaxIterations > 0 && iterations >= m.Config.MaxIterations {
		return false
	}
	if m.Config.TimeBudget > 0 && time.Since(start) >= m.Config.TimeBudget {
		return false
	}
	return true
}

// selectNode walks down from the root until it reaches a terminal node or one
// with untried moves.
func (m *MCTS) selectNode(tree *Tree) NodeID {
	node := tree.Root()
	for !tree.IsTerminal(node) {
		if !tree.IsFullyExpanded(node) {
			return node
		}
		next, ok := tree.BestChild(node, m.Config.Exploration)
		if !ok {
			return node
		}
		node = next
	}
	return node
}

// expand adds a child for the first untried move in generator order. Children
// are only ever added here, in that same order, so the first untried move is
// the one at index len(children). A fully expanded node is returned as is.
func (m *MCTS) expand(tree *Tree, id NodeID) NodeID {
	legal := tree.Legal(id)
	n := tree.Node(id)
	if len(n.Children) >= len(legal) {
		return id
	}
	action := legal[len(n.Children)]
	next := rules.Apply(n.Board, action, tree.Color())
	return tree.AddChild(id, action, next)
}

// Rollout plays uniformly random legal moves from b, alternating colors
// starting with color, until the side to move is stuck, the turn limit is
// reached or RolloutDepth plies were played. The final board is scored from
// color's perspective.
func (m *MCTS) Rollout(b game.Board, color game.Color) float64 {
	toMove := color
	for plies := 0; m.Config.RolloutDepth <= 0 || plies < m.Config.RolloutDepth; plies++ {
		if b.Turn >= game.TurnLimit {
			break
		}
		moves := rules.LegalMoves(b, toMove)
		if len(moves) == 0 {
			break
		}
		b = rules.Apply(b, moves[m.Rng.Intn(len(moves))], toMove)
		toMove = toMove.Opponent()
	}
	return rules.Evaluate(b, color)
}

// Decide picks the root child with the best mean value. If that move is no
// longer legal on live (or there is no child) it falls back to a uniformly
// random legal move. ok is false when color has no legal move at all; that
// is not a fallback.
func (m *MCTS) Decide(tree *Tree, live game.Board) (move game.Placement, ok bool, fallback bool) {
	color := tree.Color()
	if best, found := tree.BestChild(tree.Root(), 0); found {
		action := tree.Node(best).Action
		if rules.IsLegal(live, action, color) {
			return action, true, false
		}
	}

	legal := rules.LegalMoves(live, color)
	if len(legal) == 0 {
		return game.Placement{}, false, false
	}
	return legal[m.Rng.Intn(len(legal))], true, true
}

// Choose searches from b and returns the move to play for color.
func (m *MCTS) Choose(b game.Board, color game.Color) (game.Placement, bool, Stats) {
	tree, stats := m.Search(b, color)
	move, ok, fallback := m.Decide(tree, b)
	stats.Fallback = fallback
	stats.Root = RootSummaries(tree)

	if !ok {
		m.Logger.Info("no legal action", "color", color.String(), "turn", b.Turn)
		return move, false, stats
	}
	m.Logger.Debug("search done",
		"color", color.String(),
		"turn", b.Turn,
		"move", move.String(),
		"iterations", stats.Iterations,
		"nodes", stats.Nodes,
		"max_depth", stats.MaxDepth,
		"best_mean", stats.BestMean,
		"fallback", fallback,
		"elapsed", stats.Elapsed,
	)
	return move, true, stats
}

// ChildSummary is a compact representation of a root child.
type ChildSummary struct {
	Move       string  `json:"move"`
	Piece      string  `json:"piece"`
	VisitCount int     `json:"n"`
	ValueSum   float64 `json:"value_sum"`
	Q          float64 `json:"q"`
}

// RootSummaries lists the root's children in expansion order.
func RootSummaries(tree *Tree) []ChildSummary {
	root := tree.Node(tree.Root())
	out := make([]ChildSummary, 0, len(root.Children))
	for _, id := range root.Children {
		n := tree.Node(id)
		out = append(out, ChildSummary{
			Move:       n.Action.String(),
			Piece:      n.Action.Piece.String(),
			VisitCount: n.VisitCount,
			ValueSum:   n.ValueSum,
			Q:          tree.Mean(id),
		})
	}
	return out
}
