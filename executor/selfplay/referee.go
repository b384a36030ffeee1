package selfplay

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/brensch/tetress/agent"
	"github.com/brensch/tetress/executor/mcts"
	"github.com/brensch/tetress/game"
	"github.com/brensch/tetress/rules"
	"github.com/brensch/tetress/store"
)

// EndReason explains why a game stopped.
type EndReason string

const (
	ReasonTurnLimit EndReason = "turn_limit"
	ReasonNoMoves   EndReason = "no_moves"
	ReasonForfeit   EndReason = "forfeit"
	ReasonCancelled EndReason = "cancelled"
)

// Player is what the referee needs from a participant. *agent.Agent
// implements it.
type Player interface {
	Color() game.Color
	Action() (game.Placement, bool)
	Update(color game.Color, p game.Placement)
	LastStats() mcts.Stats
}

type GameResult struct {
	GameID    string
	Completed bool
	Reason    EndReason
	Winner    game.Color
	Draw      bool
	Turns     int
	Board     game.Board
	RedCells  int
	BlueCells int
	Duration  time.Duration
}

// WinnerName is "RED", "BLUE", "DRAW", or "" for an unfinished game.
func (r GameResult) WinnerName() string {
	switch {
	case !r.Completed:
		return ""
	case r.Draw:
		return "DRAW"
	}
	return r.Winner.String()
}

// Row converts the result for parquet export.
func (r GameResult) Row() store.GameRow {
	return store.GameRow{
		GameID:     r.GameID,
		Turns:      int32(r.Turns),
		Winner:     r.WinnerName(),
		Reason:     string(r.Reason),
		RedCells:   int32(r.RedCells),
		BlueCells:  int32(r.BlueCells),
		DurationMs: r.Duration.Milliseconds(),
	}
}

type GameOptions struct {
	// GameID defaults to a random UUID.
	GameID string
	Red    Player
	Blue   Player

	// Search is recorded on each decision row; it does not configure the players.
	Search mcts.Config

	Logger  *slog.Logger
	Verbose bool

	// OnDecision receives one row per Action call, including failed ones.
	OnDecision func(store.DecisionRow)
	// OnStep is called after every applied placement.
	OnStep func(Step)
}

// Step describes one applied placement. Board is the position after it.
type Step struct {
	Board game.Board
	Color game.Color
	Move  game.Placement
}

// NewAgents builds a red and a blue agent with independent generators
// derived from seed.
func NewAgents(cfg mcts.Config, seed int64, logger *slog.Logger) (red, blue *agent.Agent) {
	red = agent.New(game.Red, agent.Options{
		Config: cfg,
		Rng:    rand.New(rand.NewSource(seed)),
		Logger: logger,
	})
	blue = agent.New(game.Blue, agent.Options{
		Config: cfg,
		Rng:    rand.New(rand.NewSource(seed ^ 0x5eed)),
		Logger: logger,
	})
	return red, blue
}

// PlayGame referees one game. Red moves first. A player without a legal
// placement loses; a player returning no action or an illegal one forfeits.
// After game.TurnLimit placements the color owning more cells wins.
// Cancelling ctx stops the game between turns with Completed false.
func PlayGame(ctx context.Context, opts GameOptions) GameResult {
	start := time.Now()
	gameID := opts.GameID
	if gameID == "" {
		gameID = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("game_id", gameID)

	players := [2]Player{game.Red: opts.Red, game.Blue: opts.Blue}
	var board game.Board
	mover := game.Red

	finish := func(res GameResult) GameResult {
		res.GameID = gameID
		res.Turns = board.Turn
		res.Board = board
		res.RedCells = board.Count(game.RedCell)
		res.BlueCells = board.Count(game.BlueCell)
		res.Duration = time.Since(start)
		if res.Completed {
			logger.Info("game finished",
				"winner", res.WinnerName(),
				"reason", string(res.Reason),
				"turns", res.Turns,
				"red_cells", res.RedCells,
				"blue_cells", res.BlueCells,
				"elapsed", res.Duration,
			)
		}
		return res
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("game cancelled", "turn", board.Turn)
			return finish(GameResult{Reason: ReasonCancelled})
		default:
		}

		if board.Turn >= game.TurnLimit {
			winner, ok := rules.Winner(board)
			return finish(GameResult{Completed: true, Reason: ReasonTurnLimit, Winner: winner, Draw: !ok})
		}
		if rules.IsTerminal(board, mover) {
			return finish(GameResult{Completed: true, Reason: ReasonNoMoves, Winner: mover.Opponent()})
		}

		p := players[mover]
		move, ok := p.Action()
		if opts.OnDecision != nil {
			opts.OnDecision(decisionRow(logger, gameID, board.Turn, mover, move, ok, p.LastStats(), opts.Search))
		}

		// Players may hand back cells in any order or with a wrong piece
		// type; the cell set alone must be a tetromino.
		var shapeErr error
		if ok {
			var canon game.Placement
			if canon, shapeErr = game.NewPlacement(move.Cells); shapeErr == nil {
				move = canon
			}
		}
		if !ok || shapeErr != nil || !rules.IsLegal(board, move, mover) {
			logger.Warn("illegal action, forfeiting",
				"color", mover.String(),
				"turn", board.Turn,
				"has_action", ok,
				"move", move.String(),
				"shape_error", shapeErr,
			)
			return finish(GameResult{Completed: true, Reason: ReasonForfeit, Winner: mover.Opponent()})
		}

		board = rules.Apply(board, move, mover)
		for _, pl := range players {
			pl.Update(mover, move)
		}

		if opts.Verbose {
			logger.Info("placement",
				"turn", board.Turn,
				"color", mover.String(),
				"move", move.String(),
				"board", board.String(),
			)
		}
		if opts.OnStep != nil {
			opts.OnStep(Step{Board: board, Color: mover, Move: move})
		}
		mover = mover.Opponent()
	}
}

func decisionRow(logger *slog.Logger, gameID string, turn int, color game.Color, move game.Placement, ok bool, stats mcts.Stats, cfg mcts.Config) store.DecisionRow {
	row := store.DecisionRow{
		GameID:        gameID,
		Turn:          int32(turn),
		Color:         color.String(),
		Iterations:    int32(stats.Iterations),
		Nodes:         int32(stats.Nodes),
		MaxDepth:      int32(stats.MaxDepth),
		ElapsedMicros: stats.Elapsed.Microseconds(),
		BudgetMicros:  cfg.TimeBudget.Microseconds(),
		Exploration:   cfg.Exploration,
		RootChildren:  int32(stats.RootChildren),
		BestMean:      stats.BestMean,
		BestVisits:    int32(stats.BestVisits),
		Fallback:      stats.Fallback,
		NoAction:      !ok,
	}
	if ok {
		row.Placement = move.String()
		row.Piece = move.Piece.String()
	}
	if len(stats.Root) > 0 {
		b, err := store.EncodeRootJSON(stats.Root)
		if err != nil {
			logger.Warn("dropping root summary", "turn", turn, "color", color.String(), "error", err)
		} else {
			row.RootJSON = b
		}
	}
	return row
}

// String gives a one-line summary.
func (r GameResult) String() string {
	if !r.Completed {
		return fmt.Sprintf("%s: unfinished after %d turns", r.GameID, r.Turns)
	}
	return fmt.Sprintf("%s: %s (%s) after %d turns, red=%d blue=%d",
		r.GameID, r.WinnerName(), r.Reason, r.Turns, r.RedCells, r.BlueCells)
}
