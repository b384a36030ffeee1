// Package agent is the player-facing boundary of the engine: it keeps the
// agent's own view of the board, asks the search for a move and folds in
// placements reported by the referee.
package agent

import (
	"log/slog"
	"math/rand"

	"github.com/brensch/tetress/executor/mcts"
	"github.com/brensch/tetress/game"
	"github.com/brensch/tetress/rules"
)

// Options configures an Agent. Zero values are defaulted.
type Options struct {
	Config mcts.Config
	Rng    *rand.Rand
	Logger *slog.Logger
}

// Agent owns its board and color. It is not safe for concurrent use.
type Agent struct {
	color  game.Color
	board  game.Board
	search *mcts.MCTS
	logger *slog.Logger

	lastStats mcts.Stats
}

// New creates an agent playing color on an empty board.
func New(color game.Color, opts Options) *Agent {
	cfg := opts.Config
	if cfg == (mcts.Config{}) {
		cfg = mcts.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("agent", color.String())
	logger.Info("initializing agent")

	return &Agent{
		color:  color,
		search: mcts.New(cfg, opts.Rng, logger),
		logger: logger,
	}
}

// Color returns the agent's color.
func (a *Agent) Color() game.Color { return a.color }

// Board returns a copy of the agent's board.
func (a *Agent) Board() game.Board { return a.board }

// LastStats returns the statistics of the most recent Action.
func (a *Agent) LastStats() mcts.Stats { return a.lastStats }

// Action searches for a move within the configured budget. ok is false when
// the agent has no legal placement.
func (a *Agent) Action() (game.Placement, bool) {
	move, ok, stats := a.search.Choose(a.board, a.color)
	a.lastStats = stats
	if !ok {
		return game.Placement{}, false
	}
	if stats.Fallback {
		a.logger.Debug("fallback action", "move", move.String(), "turn", a.board.Turn)
	}
	return move, true
}

// Update applies a placement made by either player. The caller has already
// validated it against the game rules.
func (a *Agent) Update(color game.Color, p game.Placement) {
	a.board = rules.Apply(a.board, p, color)
}
