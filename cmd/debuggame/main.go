package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/brensch/tetress/config"
	"github.com/brensch/tetress/executor/mcts"
	"github.com/brensch/tetress/executor/selfplay"
	"github.com/brensch/tetress/logging"
)

func main() {
	def := mcts.DefaultConfig()
	seed := flag.Int64("seed", config.EnvInt64("SEED", 1), "RNG seed for both agents")
	budget := flag.Duration("budget", config.EnvDuration("BUDGET", def.TimeBudget), "Search time budget per decision")
	exploration := flag.Float64("exploration", config.EnvFloat("EXPLORATION", def.Exploration), "UCB1 exploration constant")
	rolloutDepth := flag.Int("rollout-depth", config.EnvInt("ROLLOUT_DEPTH", def.RolloutDepth), "Max plies per rollout (0 = until the game ends)")
	treeTurn := flag.Int("tree-turn", -1, "Dump the search tree of the decision at this turn as JSON")
	treeDepth := flag.Int("tree-depth", 2, "Levels below the root included in the tree dump (0 = all)")
	outDir := flag.String("out-dir", config.EnvString("OUT_DIR", "debug_games"), "Directory for tree dumps")
	logLevel := flag.String("log-level", config.EnvString("LOG_LEVEL", "warn"), "Log level")
	logFormat := flag.String("log-format", config.EnvString("LOG_FORMAT", logging.FormatText), "Log format: pretty, json or text")
	flag.Parse()

	logger, err := newLogger(os.Stderr, *logFormat, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := mcts.Config{Exploration: *exploration, TimeBudget: *budget, RolloutDepth: *rolloutDepth}
	red, blue := selfplay.NewAgents(cfg, *seed, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fmt.Printf("Debug game: seed=%d budget=%s c=%.2f\n", *seed, cfg.TimeBudget, cfg.Exploration)

	gameID := fmt.Sprintf("debug_%d", *seed)
	var dumpErr error
	onStep := func(st selfplay.Step) {
		fmt.Printf("\n%s placed %s (%s)\n", st.Color, st.Move, st.Move.Piece)
		selfplay.PrintBoard(os.Stdout, st.Board, &st.Move)

		if st.Board.Turn != *treeTurn || dumpErr != nil {
			return
		}
		// Re-run the next mover's search on a side generator so the game
		// itself is unaffected by the dump.
		m := mcts.New(cfg, rand.New(rand.NewSource(*seed+int64(st.Board.Turn))), logger)
		tree, stats := m.Search(st.Board, st.Color.Opponent())
		b, err := selfplay.MarshalDebugTree(tree, cfg.Exploration, *treeDepth, false)
		if err != nil {
			dumpErr = err
			return
		}
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			dumpErr = err
			return
		}
		path := filepath.Join(*outDir, fmt.Sprintf("%s_turn%d.json", gameID, st.Board.Turn))
		if err := os.WriteFile(path, b, 0o644); err != nil {
			dumpErr = err
			return
		}
		fmt.Printf("tree dump (%d iterations, %d nodes): %s\n", stats.Iterations, stats.Nodes, path)
	}

	res := selfplay.PlayGame(ctx, selfplay.GameOptions{
		GameID: gameID,
		Red:    red,
		Blue:   blue,
		Search: cfg,
		Logger: logger,
		OnStep: onStep,
	})
	if dumpErr != nil {
		fmt.Fprintf(os.Stderr, "tree dump failed: %v\n", dumpErr)
	}

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", res)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	if !res.Completed {
		os.Exit(1)
	}
}

func newLogger(w io.Writer, format, levelName string) (*slog.Logger, error) {
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(w, format, level)
	if err != nil {
		return nil, fmt.Errorf("debug game logger: %w", err)
	}
	return logger, nil
}
