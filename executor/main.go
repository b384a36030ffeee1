package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/profile"
	"golang.org/x/sync/errgroup"

	"github.com/brensch/tetress/config"
	"github.com/brensch/tetress/executor/mcts"
	"github.com/brensch/tetress/executor/selfplay"
	"github.com/brensch/tetress/logging"
	"github.com/brensch/tetress/store"
)

var (
	totalMoves     atomic.Int64
	totalDecisions atomic.Int64
	totalFallbacks atomic.Int64
	totalGames     atomic.Int64
)

type runConfig struct {
	outDir        string
	workers       int
	games         int64
	gamesPerFlush int
	seed          int64
	search        mcts.Config
	verbose       bool
	tui           bool
	cpuProfile    string
	logFormat     string
	logLevel      string
	logFile       string
}

func parseFlags() runConfig {
	def := mcts.DefaultConfig()
	var rc runConfig
	flag.StringVar(&rc.outDir, "out-dir", config.EnvString("OUT_DIR", "data/selfplay"), "Output directory for decision and game parquet batches")
	flag.IntVar(&rc.workers, "workers", config.EnvInt("WORKERS", runtime.NumCPU()), "Number of games played in parallel")
	flag.Int64Var(&rc.games, "games", config.EnvInt64("GAMES", 0), "Stop after this many games (0 = until interrupted)")
	flag.IntVar(&rc.gamesPerFlush, "games-per-flush", config.EnvInt("FLUSH_GAMES", 50), "Number of games buffered per parquet flush")
	flag.Int64Var(&rc.seed, "seed", config.EnvInt64("SEED", 0), "Base RNG seed; game i uses seed+i (0 = clock)")
	flag.DurationVar(&rc.search.TimeBudget, "budget", config.EnvDuration("BUDGET", def.TimeBudget), "Search time budget per decision")
	flag.Float64Var(&rc.search.Exploration, "exploration", config.EnvFloat("EXPLORATION", def.Exploration), "UCB1 exploration constant")
	flag.IntVar(&rc.search.RolloutDepth, "rollout-depth", config.EnvInt("ROLLOUT_DEPTH", def.RolloutDepth), "Max plies per rollout (0 = until the game ends)")
	flag.IntVar(&rc.search.MaxIterations, "max-iterations", config.EnvInt("MAX_ITERATIONS", 0), "Cap on search cycles per decision (0 = budget only)")
	flag.BoolVar(&rc.verbose, "verbose", config.EnvBool("VERBOSE", false), "Log every placement with the board")
	flag.BoolVar(&rc.tui, "tui", config.EnvBool("TUI", false), "Show a live progress view")
	flag.StringVar(&rc.cpuProfile, "cpu-profile", config.EnvString("CPU_PROFILE", ""), "Directory to write a CPU profile into")
	flag.StringVar(&rc.logFormat, "log-format", config.EnvString("LOG_FORMAT", logging.FormatPretty), "Log format: pretty, json or text")
	flag.StringVar(&rc.logLevel, "log-level", config.EnvString("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.StringVar(&rc.logFile, "log-file", config.EnvString("LOG_FILE", ""), "Write logs to this file instead of stderr")
	flag.Parse()
	return rc
}

func main() {
	rc := parseFlags()

	level, err := logging.ParseLevel(rc.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	var logOut io.Writer = os.Stderr
	if rc.logFile != "" {
		f, err := os.OpenFile(rc.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	} else if rc.tui {
		// Keep the progress view intact.
		logOut = io.Discard
	}
	logger, err := logging.New(logOut, rc.logFormat, level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	if rc.cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(rc.cpuProfile), profile.NoShutdownHook, profile.Quiet).Stop()
	}

	if rc.seed == 0 {
		rc.seed = time.Now().UnixNano()
	}
	if rc.workers < 1 {
		rc.workers = 1
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	logger.Info("starting self-play",
		"workers", rc.workers,
		"games", rc.games,
		"seed", rc.seed,
		"budget", rc.search.TimeBudget,
		"exploration", rc.search.Exploration,
		"rollout_depth", rc.search.RolloutDepth,
		"out_dir", rc.outDir,
	)

	records := make(chan gameRecord, rc.workers*2)
	updates := make(chan GameUpdate, rc.workers)

	writerDone := make(chan error, 1)
	go func() {
		writerDone <- parquetWriterLoop(rc.outDir, rc.gamesPerFlush, records, logger)
	}()

	var started atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < rc.workers; w++ {
		workerID := w
		g.Go(func() error {
			return runWorker(gctx, workerID, rc, &started, records, updates, logger)
		})
	}

	workersDone := make(chan error, 1)
	go func() {
		workersDone <- g.Wait()
		close(records)
	}()

	if rc.tui {
		p := tea.NewProgram(initialModel(updates, rc), tea.WithAltScreen())
		go func() {
			<-workersDone
			p.Send(doneMsg{})
		}()
		if _, err := p.Run(); err != nil {
			logger.Error("tui failed", "error", err)
		}
		// Quitting the view stops the run.
		cancel()
	} else {
		monitor(ctx, workersDone, updates, logger)
	}

	if err := <-writerDone; err != nil {
		logger.Error("parquet writer failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete", "games", totalGames.Load(), "moves", totalMoves.Load())
}

// runWorker plays games until ctx is cancelled or the game quota is used up.
func runWorker(ctx context.Context, workerID int, rc runConfig, started *atomic.Int64, records chan<- gameRecord, updates chan<- GameUpdate, logger *slog.Logger) error {
	logger = logger.With("worker", workerID)
	logger.Debug("worker started")
	for {
		if ctx.Err() != nil {
			return nil
		}
		idx := started.Add(1) - 1
		if rc.games > 0 && idx >= rc.games {
			return nil
		}

		red, blue := selfplay.NewAgents(rc.search, rc.seed+idx, logger)
		var decisions []store.DecisionRow
		res := selfplay.PlayGame(ctx, selfplay.GameOptions{
			Red:     red,
			Blue:    blue,
			Search:  rc.search,
			Logger:  logger,
			Verbose: rc.verbose,
			OnDecision: func(r store.DecisionRow) {
				totalDecisions.Add(1)
				if r.Fallback {
					totalFallbacks.Add(1)
				}
				decisions = append(decisions, r)
			},
			OnStep: func(selfplay.Step) { totalMoves.Add(1) },
		})
		if !res.Completed {
			// Partial games are not exported.
			return nil
		}
		totalGames.Add(1)

		select {
		case records <- gameRecord{decisions: decisions, game: res.Row()}:
		case <-ctx.Done():
			return nil
		}
		select {
		case updates <- GameUpdate{WorkerID: workerID, Result: res}:
		default:
		}
	}
}

// monitor logs progress once a second until the workers finish.
func monitor(ctx context.Context, workersDone <-chan error, updates <-chan GameUpdate, logger *slog.Logger) {
	start := time.Now()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	stopping := ctx.Done()
	for {
		select {
		case <-stopping:
			logger.Info("shutdown requested; waiting for workers to finish current games")
			stopping = nil
		case err := <-workersDone:
			if err != nil {
				logger.Error("worker failed", "error", err)
			}
			return
		case u := <-updates:
			logger.Info("game finished",
				"worker", u.WorkerID,
				"game_id", u.Result.GameID,
				"winner", u.Result.WinnerName(),
				"reason", string(u.Result.Reason),
				"turns", u.Result.Turns,
			)
		case <-ticker.C:
			secs := time.Since(start).Seconds()
			logger.Info("stats",
				"games", totalGames.Load(),
				"moves_per_sec", float64(totalMoves.Load())/secs,
				"decisions", totalDecisions.Load(),
				"fallbacks", totalFallbacks.Load(),
			)
		}
	}
}
