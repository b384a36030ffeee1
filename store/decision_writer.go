package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/tetress/game"
)

var (
	// ErrWriterClosed is returned when writing to a finalized DecisionWriter.
	ErrWriterClosed = errors.New("decision writer is closed")
	// ErrBadGame wraps every rejection from DecisionWriter.WriteGame.
	ErrBadGame = errors.New("malformed game decisions")
)

// DecisionWriter streams the decisions of whole games into a single parquet
// file under outDir/tmp and moves it into outDir on Finalize.
type DecisionWriter struct {
	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[DecisionRow]

	games int
	rows  int
}

func NewDecisionWriter(outDir string) (*DecisionWriter, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("decisions_%d.parquet", time.Now().UnixNano())
	tmpPath := filepath.Join(tmpDir, name)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}

	w := parquet.NewGenericWriter[DecisionRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	w.SetKeyValueMetadata("schema", DecisionSchema)

	return &DecisionWriter{
		tmpPath: tmpPath,
		outPath: filepath.Join(absOut, name),
		file:    f,
		writer:  w,
	}, nil
}

func (d *DecisionWriter) TmpPath() string { return d.tmpPath }
func (d *DecisionWriter) OutPath() string { return d.outPath }
func (d *DecisionWriter) Games() int      { return d.games }
func (d *DecisionWriter) Rows() int       { return d.rows }

// WriteGame appends the decisions of one game. A game with no decisions
// still counts towards Games.
func (d *DecisionWriter) WriteGame(rows []DecisionRow) error {
	if d.writer == nil || d.file == nil {
		return ErrWriterClosed
	}
	if err := checkGameDecisions(rows); err != nil {
		return err
	}
	if len(rows) > 0 {
		if _, err := d.writer.Write(rows); err != nil {
			return err
		}
	}
	d.rows += len(rows)
	d.games++
	return nil
}

// checkGameDecisions returns ErrBadGame unless rows read as one game. Every row
// shares the first row's game id, turn i sits at index i, and red owns the even
// turns. The turn limit caps the row count.
func checkGameDecisions(rows []DecisionRow) error {
	if len(rows) > game.TurnLimit {
		return fmt.Errorf("%w: %d decisions exceeds the %d turn limit", ErrBadGame, len(rows), game.TurnLimit)
	}
	for i, r := range rows {
		if r.GameID != rows[0].GameID {
			return fmt.Errorf("%w: row %d has game %q, want %q", ErrBadGame, i, r.GameID, rows[0].GameID)
		}
		if int(r.Turn) != i {
			return fmt.Errorf("%w: game %q row %d has turn %d", ErrBadGame, r.GameID, i, r.Turn)
		}
		want := game.Red
		if i%2 == 1 {
			want = game.Blue
		}
		if r.Color != want.String() {
			return fmt.Errorf("%w: game %q turn %d moved by %q, want %s", ErrBadGame, r.GameID, i, r.Color, want)
		}
	}
	return nil
}

// Finalize closes the parquet writer and moves the file from tmp/ to outDir.
// If no rows were written, the tmp file is removed and outPath is returned empty.
func (d *DecisionWriter) Finalize() (outPath string, rows int, games int, err error) {
	if d.writer == nil && d.file == nil {
		return "", 0, 0, nil
	}

	rows, games = d.rows, d.games

	var closeErr error
	if d.writer != nil {
		closeErr = d.writer.Close()
		d.writer = nil
	}
	var fileErr error
	if d.file != nil {
		_ = d.file.Sync()
		fileErr = d.file.Close()
		d.file = nil
	}
	if closeErr != nil {
		return "", 0, 0, fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		return "", 0, 0, fmt.Errorf("close parquet file: %w", fileErr)
	}

	if rows == 0 {
		_ = os.Remove(d.tmpPath)
		return "", 0, 0, nil
	}
	if err := os.Rename(d.tmpPath, d.outPath); err != nil {
		return "", 0, 0, fmt.Errorf("rename parquet: %w", err)
	}
	return d.outPath, rows, games, nil
}
