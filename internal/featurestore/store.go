package featurestore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store manages feature persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Run describes one feature extraction pass over a split.
type Run struct {
	ID         string
	Split      string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
	PatchCount int
}

// Patch is one labelled spectrogram window.
type Patch struct {
	Split     string
	Track     string
	Stem      string
	Program   *int
	InstClass string
	Group     string
	IsDrum    bool
	Offset    int
	NMels     int
	Frames    int
	Data      []float32
}

// Open initializes or connects to the feature database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure feature db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps pragmas and transactions on one handle.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// BeginRun records a new running extraction for split.
func (s *Store) BeginRun(ctx context.Context, split string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Split:     split,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.execWithRetry(ctx,
		"INSERT INTO runs (id, split, status, started_at) VALUES (?, ?, ?, ?)",
		run.ID, run.Split, run.Status, run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// InsertPatches stores patches for a run in a single transaction and returns
// how many were written.
func (s *Store) InsertPatches(ctx context.Context, runID string, patches []Patch) (int, error) {
	if len(patches) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin patch tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO patches
		(run_id, split, track, stem, program, inst_class, group_label, is_drum, offset_frame, n_mels, n_frames, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare patch insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range patches {
		if len(p.Data) != p.NMels*p.Frames {
			return 0, fmt.Errorf("patch %s/%s@%d: data length %d does not match %dx%d",
				p.Track, p.Stem, p.Offset, len(p.Data), p.NMels, p.Frames)
		}
		var program sql.NullInt64
		if p.Program != nil {
			program = sql.NullInt64{Int64: int64(*p.Program), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			runID, p.Split, p.Track, p.Stem, program, p.InstClass, p.Group, boolToInt(p.IsDrum),
			p.Offset, p.NMels, p.Frames, encodeFloats(p.Data),
		); err != nil {
			return 0, fmt.Errorf("insert patch: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE runs SET patch_count = patch_count + ? WHERE id = ?", len(patches), runID,
	); err != nil {
		return 0, fmt.Errorf("update run patch count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit patches: %w", err)
	}
	return len(patches), nil
}

// FinishRun marks a run completed or failed.
func (s *Store) FinishRun(ctx context.Context, runID string, runErr error) error {
	status := StatusCompleted
	if runErr != nil {
		status = StatusFailed
	}
	res, err := s.execWithRetry(ctx,
		"UPDATE runs SET status = ?, finished_at = ? WHERE id = ?",
		status, time.Now().UTC().Format(timeLayout), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: no such run", runID)
	}
	return nil
}

// GetRun loads a run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, split, status, started_at, finished_at, patch_count FROM runs WHERE id = ?", runID,
	).Scan(&run.ID, &run.Split, &run.Status, &started, &finished, &run.PatchCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, fmt.Errorf("load run: %w", err)
	}
	run.StartedAt, _ = time.Parse(timeLayout, started)
	if finished.Valid {
		run.FinishedAt, _ = time.Parse(timeLayout, finished.String)
	}
	return &run, nil
}

// GroupCount is the number of patches labelled with a group.
type GroupCount struct {
	Group string
	Count int
}

// GroupCounts returns patch counts per group for the latest completed run of
// split, ordered by group name.
func (s *Store) GroupCounts(ctx context.Context, split string) ([]GroupCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT group_label, COUNT(1) FROM patches
		WHERE run_id = (`+latestRunQuery+`)
		GROUP BY group_label ORDER BY group_label`, split, StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("query group counts: %w", err)
	}
	defer rows.Close()

	var out []GroupCount
	for rows.Next() {
		var gc GroupCount
		if err := rows.Scan(&gc.Group, &gc.Count); err != nil {
			return nil, fmt.Errorf("scan group count: %w", err)
		}
		out = append(out, gc)
	}
	return out, rows.Err()
}

// EachPatch streams the patches of the latest completed run of split in
// insertion order. Iteration stops at the first error returned by fn.
func (s *Store) EachPatch(ctx context.Context, split string, fn func(Patch) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT split, track, stem, program, inst_class, group_label,
		is_drum, offset_frame, n_mels, n_frames, data FROM patches
		WHERE run_id = (`+latestRunQuery+`)
		ORDER BY id`, split, StatusCompleted)
	if err != nil {
		return fmt.Errorf("query patches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p       Patch
			program sql.NullInt64
			isDrum  int
			blob    []byte
		)
		if err := rows.Scan(&p.Split, &p.Track, &p.Stem, &program, &p.InstClass, &p.Group,
			&isDrum, &p.Offset, &p.NMels, &p.Frames, &blob); err != nil {
			return fmt.Errorf("scan patch: %w", err)
		}
		if program.Valid {
			v := int(program.Int64)
			p.Program = &v
		}
		p.IsDrum = isDrum != 0
		p.Data = decodeFloats(blob)
		if err := fn(p); err != nil {
			return err
		}
	}
	return rows.Err()
}

// PruneRuns deletes every finished run of split except the latest completed one,
// together with its patches, and returns the number of runs removed.
func (s *Store) PruneRuns(ctx context.Context, split string) (int, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM runs WHERE split = ? AND status != ? AND id IS NOT (`+latestRunQuery+`)`,
		split, StatusRunning, split, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return int(n), nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const latestRunQuery = `SELECT id FROM runs WHERE split = ? AND status = ?
		ORDER BY finished_at DESC, started_at DESC LIMIT 1`

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func encodeFloats(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeFloats(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}
