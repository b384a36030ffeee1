package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Empty views keep the queries valid before any batch has been flushed.
const (
	emptyDecisions = `SELECT * FROM (
		SELECT
			NULL::VARCHAR AS game_id,
			NULL::INTEGER AS turn,
			NULL::VARCHAR AS color,
			NULL::INTEGER AS iterations,
			NULL::INTEGER AS nodes,
			NULL::INTEGER AS max_depth,
			NULL::BIGINT AS elapsed_us,
			NULL::BIGINT AS budget_us,
			NULL::DOUBLE AS exploration,
			NULL::INTEGER AS root_children,
			NULL::DOUBLE AS best_mean,
			NULL::INTEGER AS best_visits,
			NULL::BOOLEAN AS fallback,
			NULL::BOOLEAN AS no_action,
			NULL::VARCHAR AS placement,
			NULL::VARCHAR AS piece
	) WHERE 1=0`
	emptyGames = `SELECT * FROM (
		SELECT
			NULL::VARCHAR AS game_id,
			NULL::INTEGER AS turns,
			NULL::VARCHAR AS winner,
			NULL::VARCHAR AS reason,
			NULL::INTEGER AS red_cells,
			NULL::INTEGER AS blue_cells,
			NULL::BIGINT AS duration_ms
	) WHERE 1=0`
)

// openDuckDB opens an in-memory database with decisions and games views over
// the parquet files the self-play runner wrote under root.
func openDuckDB(root string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, err
	}
	_, _ = db.Exec("PRAGMA threads=4")

	views := []struct {
		name  string
		dir   string
		empty string
	}{
		{"decisions", filepath.Join(root, "decisions"), emptyDecisions},
		{"games", filepath.Join(root, "games"), emptyGames},
	}
	for _, v := range views {
		files, err := findParquetFiles(v.dir)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("scan %s: %w", v.dir, err)
		}
		body := v.empty
		if len(files) > 0 {
			arr := make([]string, 0, len(files))
			for _, f := range files {
				arr = append(arr, "'"+escapeSQLString(f)+"'")
			}
			body = "SELECT * FROM read_parquet([" + strings.Join(arr, ",") + "], union_by_name=true)"
		}
		if _, err := db.Exec("CREATE OR REPLACE VIEW " + v.name + " AS " + body); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create view %s: %w", v.name, err)
		}
	}
	return db, nil
}

// findParquetFiles lists parquet files under root, skipping tmp directories.
// A missing root yields no files.
func findParquetFiles(root string) ([]string, error) {
	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "tmp" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".parquet") {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			return nil, nil
		}
		return nil, walkErr
	}
	return files, nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

type ColorStats struct {
	Color         string
	Decisions     int64
	MeanIter      float64
	MeanNodes     float64
	MeanElapsedUs float64
	MaxDepth      int64
	FallbackRate  float64
	NoActionRate  float64
}

func queryColorStats(ctx context.Context, db *sql.DB) ([]ColorStats, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT
			color,
			COUNT(*) AS decisions,
			AVG(iterations)::DOUBLE,
			AVG(nodes)::DOUBLE,
			AVG(elapsed_us)::DOUBLE,
			MAX(max_depth)::BIGINT,
			AVG(CASE WHEN fallback THEN 1.0 ELSE 0.0 END)::DOUBLE,
			AVG(CASE WHEN no_action THEN 1.0 ELSE 0.0 END)::DOUBLE
		FROM decisions
		GROUP BY color
		ORDER BY color DESC`)
	if err != nil {
		return nil, fmt.Errorf("query color stats: %w", err)
	}
	defer rows.Close()

	var out []ColorStats
	for rows.Next() {
		var s ColorStats
		if err := rows.Scan(&s.Color, &s.Decisions, &s.MeanIter, &s.MeanNodes, &s.MeanElapsedUs, &s.MaxDepth, &s.FallbackRate, &s.NoActionRate); err != nil {
			return nil, fmt.Errorf("scan color stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type OutcomeStats struct {
	Winner    string
	Reason    string
	Games     int64
	MeanTurns float64
}

func queryOutcomes(ctx context.Context, db *sql.DB) ([]OutcomeStats, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT winner, reason, COUNT(*), AVG(turns)::DOUBLE
		FROM games
		GROUP BY winner, reason
		ORDER BY winner, reason`)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []OutcomeStats
	for rows.Next() {
		var s OutcomeStats
		if err := rows.Scan(&s.Winner, &s.Reason, &s.Games, &s.MeanTurns); err != nil {
			return nil, fmt.Errorf("scan outcomes: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type BudgetStats struct {
	BudgetUs    int64
	Exploration float64
	Decisions   int64
	MeanIter    float64
	MeanBest    float64
}

// queryBudgets groups decisions by search configuration so runs with
// different budgets can be compared.
func queryBudgets(ctx context.Context, db *sql.DB) ([]BudgetStats, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT budget_us, exploration, COUNT(*), AVG(iterations)::DOUBLE, AVG(best_mean)::DOUBLE
		FROM decisions
		GROUP BY budget_us, exploration
		ORDER BY budget_us, exploration`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []BudgetStats
	for rows.Next() {
		var s BudgetStats
		if err := rows.Scan(&s.BudgetUs, &s.Exploration, &s.Decisions, &s.MeanIter, &s.MeanBest); err != nil {
			return nil, fmt.Errorf("scan budgets: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
