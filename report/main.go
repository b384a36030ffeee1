// report summarises self-play parquet output with DuckDB.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/brensch/tetress/config"
	"github.com/brensch/tetress/logging"
)

var titleStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)

func main() {
	dataDir := flag.String("data-dir", config.EnvString("OUT_DIR", "data/selfplay"), "Directory written by the self-play runner")
	timeout := flag.Duration("timeout", config.EnvDuration("REPORT_TIMEOUT", time.Minute), "Query timeout")
	flag.Parse()

	logger, err := logging.New(os.Stderr, config.EnvString("LOG_FORMAT", logging.FormatText), slog.LevelInfo)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	db, err := openDuckDB(*dataDir)
	if err != nil {
		logger.Error("open duckdb", "data_dir", *dataDir, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	colors, err := queryColorStats(ctx, db)
	if err != nil {
		logger.Error("color stats", "error", err)
		os.Exit(1)
	}
	outcomes, err := queryOutcomes(ctx, db)
	if err != nil {
		logger.Error("outcomes", "error", err)
		os.Exit(1)
	}
	budgets, err := queryBudgets(ctx, db)
	if err != nil {
		logger.Error("budgets", "error", err)
		os.Exit(1)
	}

	fmt.Println(titleStyle.Render("Decisions by color"))
	t := table.New().Border(lipgloss.NormalBorder()).
		Headers("color", "decisions", "mean iter", "mean nodes", "mean elapsed", "max depth", "fallback", "no action")
	for _, s := range colors {
		t.Row(s.Color,
			strconv.FormatInt(s.Decisions, 10),
			fmt.Sprintf("%.1f", s.MeanIter),
			fmt.Sprintf("%.1f", s.MeanNodes),
			(time.Duration(s.MeanElapsedUs) * time.Microsecond).String(),
			strconv.FormatInt(s.MaxDepth, 10),
			fmt.Sprintf("%.2f%%", 100*s.FallbackRate),
			fmt.Sprintf("%.2f%%", 100*s.NoActionRate),
		)
	}
	fmt.Println(t.Render())

	fmt.Println(titleStyle.Render("Game outcomes"))
	t = table.New().Border(lipgloss.NormalBorder()).Headers("winner", "reason", "games", "mean turns")
	for _, s := range outcomes {
		t.Row(s.Winner, s.Reason, strconv.FormatInt(s.Games, 10), fmt.Sprintf("%.1f", s.MeanTurns))
	}
	fmt.Println(t.Render())

	fmt.Println(titleStyle.Render("Search configurations"))
	t = table.New().Border(lipgloss.NormalBorder()).Headers("budget", "c", "decisions", "mean iter", "mean best q")
	for _, s := range budgets {
		t.Row((time.Duration(s.BudgetUs) * time.Microsecond).String(),
			fmt.Sprintf("%.2f", s.Exploration),
			strconv.FormatInt(s.Decisions, 10),
			fmt.Sprintf("%.1f", s.MeanIter),
			fmt.Sprintf("%.1f", s.MeanBest),
		)
	}
	fmt.Println(t.Render())
}
