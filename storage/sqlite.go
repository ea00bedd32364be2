package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"perfpanel/logger"
)

// MemoryDSN keeps the journal in memory for the life of the process.
const MemoryDSN = ":memory:"

var _ Store = (*SQLite)(nil)

type SQLite struct {
	db  *sql.DB
	log *zap.Logger
}

// NewSQLite opens the journal at path and creates the `cycles` table if it
// does not exist. An empty path or MemoryDSN gives an in-memory journal that
// disappears with the process. A file path is an explicit export target and
// is never read back on startup.
func NewSQLite(path string, log *zap.Logger) (*SQLite, error) {
	if log == nil {
		log = zap.NewNop()
	}
	memory := path == "" || path == MemoryDSN
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path)
	if memory {
		dsn = "file::memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Every connection to :memory: is a separate database.
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &SQLite{db: db, log: log}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migration: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	const stmt = `
CREATE TABLE IF NOT EXISTS cycles (
    id                TEXT PRIMARY KEY,
    epoch             TEXT NOT NULL,
    ts                INTEGER NOT NULL,
    merged            INTEGER NOT NULL,
    pending           INTEGER NOT NULL,
    total_time        REAL NOT NULL,
    commit_time       REAL NOT NULL,
    effects_time      REAL NOT NULL,
    lifecycle_time    REAL NOT NULL,
    effects           INTEGER NOT NULL,
    lifecycle_methods INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(ts);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("create cycles table: %w", err)
	}
	s.log.Debug("SQLite migration applied")
	return nil
}

// Record stores a cycle in a single transaction.
func (s *SQLite) Record(ctx context.Context, c Cycle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO cycles (id, epoch, ts, merged, pending, total_time, commit_time,
                    effects_time, lifecycle_time, effects, lifecycle_methods)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Epoch, c.CollectedAt.UTC().UnixNano(), c.Merged, c.Pending,
		c.TotalTime, c.CommitTime, c.EffectsTime, c.LifecycleTime,
		c.Effects, c.LifecycleMethods)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec insert for %s: %w", c.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	logger.FromContext(ctx, s.log).Debug("cycle recorded", zap.Int("merged", c.Merged))
	return nil
}

// Query implements Store.
func (s *SQLite) Query(ctx context.Context, from, to time.Time) ([]Cycle, error) {
	lo := int64(0)
	if !from.IsZero() {
		lo = from.UTC().UnixNano()
	}
	hi := int64(1<<63 - 1)
	if !to.IsZero() {
		hi = to.UTC().UnixNano()
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, epoch, ts, merged, pending, total_time, commit_time,
       effects_time, lifecycle_time, effects, lifecycle_methods
FROM cycles WHERE ts BETWEEN ? AND ? ORDER BY ts ASC, rowid ASC`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var out []Cycle
	for rows.Next() {
		var c Cycle
		var ts int64
		if err := rows.Scan(&c.ID, &c.Epoch, &ts, &c.Merged, &c.Pending,
			&c.TotalTime, &c.CommitTime, &c.EffectsTime, &c.LifecycleTime,
			&c.Effects, &c.LifecycleMethods); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		c.CollectedAt = time.Unix(0, ts).UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	return out, nil
}

// Reset implements Store.
func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cycles`); err != nil {
		return fmt.Errorf("delete cycles: %w", err)
	}
	return nil
}

// Close shuts down the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
