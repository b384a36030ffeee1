package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/brensch/tetress/store"
)

type gameRecord struct {
	decisions []store.DecisionRow
	game      store.GameRow
}

// parquetWriterLoop streams decisions into one DecisionWriter per flush and
// writes the matching game rows alongside. A game whose decisions fail the
// writer's checks is dropped along with its game row. It drains in until it is closed.
func parquetWriterLoop(outDir string, gamesPerFlush int, in <-chan gameRecord, logger *slog.Logger) error {
	if gamesPerFlush <= 0 {
		gamesPerFlush = 50
	}
	decisionDir := filepath.Join(outDir, "decisions")
	gameDir := filepath.Join(outDir, "games")

	var (
		w        *store.DecisionWriter
		games    = make([]store.GameRow, 0, gamesPerFlush)
		firstErr error
	)

	flush := func() {
		if w != nil {
			path, rows, n, err := w.Finalize()
			w = nil
			if err != nil {
				logger.Error("decision flush failed", "error", err)
				if firstErr == nil {
					firstErr = err
				}
			} else if path != "" {
				logger.Info("decision flush ok", "path", path, "games", n, "rows", rows)
			}
		}
		if len(games) > 0 {
			path, err := store.WriteGameBatchAtomic(gameDir, games)
			if err != nil {
				logger.Error("game flush failed", "error", err, "games", len(games))
				if firstErr == nil {
					firstErr = err
				}
			} else {
				logger.Info("game flush ok", "path", path, "games", len(games))
			}
			games = games[:0]
		}
	}

	for rec := range in {
		if w == nil {
			var err error
			w, err = store.NewDecisionWriter(decisionDir)
			if err != nil {
				// Drain so workers never block on a dead writer.
				for range in {
				}
				return fmt.Errorf("open decision writer: %w", err)
			}
		}
		if err := w.WriteGame(rec.decisions); err != nil {
			logger.Error("write decisions failed", "game_id", rec.game.GameID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		games = append(games, rec.game)

		if len(games) >= gamesPerFlush {
			flush()
		}
	}
	flush()
	return firstErr
}
