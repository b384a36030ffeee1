package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Schema names written into the parquet key/value metadata.
const (
	DecisionSchema = "decision_row_v1"
	GameSchema     = "game_row_v1"
)

// DecisionRow describes one search made by an agent during self-play.
//
// It holds engine metrics for tuning the time budget and exploration
// constant. Boards are not stored; a row cannot be used to resume a game.
type DecisionRow struct {
	GameID string `parquet:"game_id,dict"`
	Turn   int32  `parquet:"turn"`
	Color  string `parquet:"color,dict"`

	Iterations    int32   `parquet:"iterations"`
	Nodes         int32   `parquet:"nodes"`
	MaxDepth      int32   `parquet:"max_depth"`
	ElapsedMicros int64   `parquet:"elapsed_us"`
	BudgetMicros  int64   `parquet:"budget_us"`
	Exploration   float64 `parquet:"exploration"`
	RootChildren  int32   `parquet:"root_children"`
	BestMean      float64 `parquet:"best_mean"`
	BestVisits    int32   `parquet:"best_visits"`
	Fallback      bool    `parquet:"fallback"`
	NoAction      bool    `parquet:"no_action"`

	Placement string `parquet:"placement"`
	Piece     string `parquet:"piece,dict"`

	// RootJSON stores a summary of the root children explored.
	// Format: JSON array of {move, piece, n, value_sum, q}.
	RootJSON []byte `parquet:"root_json,optional,zstd"`
}

// GameRow is the outcome of one self-play game.
type GameRow struct {
	GameID     string `parquet:"game_id,dict"`
	Turns      int32  `parquet:"turns"`
	Winner     string `parquet:"winner,dict"`
	Reason     string `parquet:"reason,dict"`
	RedCells   int32  `parquet:"red_cells"`
	BlueCells  int32  `parquet:"blue_cells"`
	DurationMs int64  `parquet:"duration_ms"`
}

// EncodeRootJSON marshals root child summaries for DecisionRow.RootJSON.
func EncodeRootJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode root json: %w", err)
	}
	return b, nil
}

// WriteBatchAtomic writes rows into outDir/tmp and then atomically moves the
// file into outDir, so readers never observe partially-written files.
// The returned path is the final parquet file path.
func WriteBatchAtomic[T any](outDir, prefix, schema string, rows []T) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("%s_%d.parquet", prefix, time.Now().UnixNano())
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}

	return finalPath, nil
}

// WriteGameBatchAtomic writes game rows under outDir.
func WriteGameBatchAtomic(outDir string, rows []GameRow) (string, error) {
	return WriteBatchAtomic(outDir, "games", GameSchema, rows)
}
