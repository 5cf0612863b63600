// Package runs keeps a SQLite ledger of finished simulations.
package runs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Record describes one finished run.
type Record struct {
	ID          uuid.UUID
	Label       string
	Rows        int
	Cols        int
	Generations int
	Threads     int
	Strategy    string
	DeathToll   int
	// Digest fingerprints the final grid.
	Digest    string
	ElapsedMS int64
	CreatedAt time.Time
}

type row struct {
	ID          string `db:"id"`
	Label       string `db:"label"`
	Rows        int    `db:"grid_rows"`
	Cols        int    `db:"grid_cols"`
	Generations int    `db:"generations"`
	Threads     int    `db:"threads"`
	Strategy    string `db:"strategy"`
	DeathToll   int    `db:"death_toll"`
	Digest      string `db:"digest"`
	ElapsedMS   int64  `db:"elapsed_ms"`
	CreatedAt   int64  `db:"created_at"`
}

func (r row) record() (Record, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return Record{}, fmt.Errorf("run id %q: %w", r.ID, err)
	}
	return Record{
		ID:          id,
		Label:       r.Label,
		Rows:        r.Rows,
		Cols:        r.Cols,
		Generations: r.Generations,
		Threads:     r.Threads,
		Strategy:    r.Strategy,
		DeathToll:   r.DeathToll,
		Digest:      r.Digest,
		ElapsedMS:   r.ElapsedMS,
		CreatedAt:   time.UnixMilli(r.CreatedAt).UTC(),
	}, nil
}

// DB wraps the ledger database.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates the ledger at path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		grid_rows INTEGER NOT NULL,
		grid_cols INTEGER NOT NULL,
		generations INTEGER NOT NULL,
		threads INTEGER NOT NULL,
		strategy TEXT NOT NULL,
		death_toll INTEGER NOT NULL,
		digest TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(digest);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Insert stores rec. A zero ID or CreatedAt is filled in; the stored record
// is returned.
func (db *DB) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = time.UnixMilli(rec.CreatedAt.UnixMilli()).UTC()
	_, err := db.conn.NamedExecContext(ctx, `INSERT INTO runs
		(id, label, grid_rows, grid_cols, generations, threads, strategy, death_toll, digest, elapsed_ms, created_at)
		VALUES (:id, :label, :grid_rows, :grid_cols, :generations, :threads, :strategy, :death_toll, :digest, :elapsed_ms, :created_at)`,
		row{
			ID:          rec.ID.String(),
			Label:       rec.Label,
			Rows:        rec.Rows,
			Cols:        rec.Cols,
			Generations: rec.Generations,
			Threads:     rec.Threads,
			Strategy:    rec.Strategy,
			DeathToll:   rec.DeathToll,
			Digest:      rec.Digest,
			ElapsedMS:   rec.ElapsedMS,
			CreatedAt:   rec.CreatedAt.UnixMilli(),
		})
	if err != nil {
		return Record{}, fmt.Errorf("insert run: %w", err)
	}
	return rec, nil
}

// Recent returns up to limit runs, newest first.
func (db *DB) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []row
	if err := db.conn.SelectContext(ctx, &rows,
		`SELECT * FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	return toRecords(rows)
}

// ByDigest returns every run whose final grid had the given digest, oldest
// first.
func (db *DB) ByDigest(ctx context.Context, digest string) ([]Record, error) {
	var rows []row
	if err := db.conn.SelectContext(ctx, &rows,
		`SELECT * FROM runs WHERE digest = ? ORDER BY created_at, rowid`, digest); err != nil {
		return nil, fmt.Errorf("runs by digest: %w", err)
	}
	return toRecords(rows)
}

func toRecords(rows []row) ([]Record, error) {
	out := make([]Record, 0, len(rows))
	var errs []error
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, rec)
	}
	return out, errors.Join(errs...)
}
